package transport

import (
	"net/http"
	"strings"

	"beerfinder/internal/domain"
	"beerfinder/internal/middleware"
	"beerfinder/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrCodeSize = 256

// POIRequest is the payload for creating or replacing a POI
type POIRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
	Thumbnail   []byte   `json:"thumbnail"`
}

func (req POIRequest) input() service.POIInput {
	return service.POIInput{
		Name:        req.Name,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Thumbnail:   req.Thumbnail,
	}
}

// AssignItemRequest links an item to a POI
type AssignItemRequest struct {
	ItemID     string   `json:"item_id" validate:"required,uuid"`
	LocalPrice *float64 `json:"local_price" validate:"omitempty,gte=0,lte=99999999.99"`
}

// AssignedItemResponse is one row of a POI's menu
type AssignedItemResponse struct {
	*domain.AssignedItem
	EffectivePrice *float64 `json:"effective_price"`
}

// POIHandler handles HTTP requests for POIs and their item relationships
type POIHandler struct {
	poiService          service.POIService
	relationshipService service.RelationshipService
	publicBaseURL       string
	logger              *zap.Logger
}

// NewPOIHandler creates a new POIHandler
func NewPOIHandler(
	poiService service.POIService,
	relationshipService service.RelationshipService,
	publicBaseURL string,
	logger *zap.Logger,
) *POIHandler {
	return &POIHandler{
		poiService:          poiService,
		relationshipService: relationshipService,
		publicBaseURL:       strings.TrimRight(publicBaseURL, "/"),
		logger:              logger,
	}
}

// RegisterRoutes registers all POI routes. Reads accept anonymous callers;
// writes need a token.
func (h *POIHandler) RegisterRoutes(r chi.Router, authMiddleware, optionalAuth Middleware) {
	r.Route("/api/pois", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/", h.List)
			r.Get("/{id}", h.Get)
			r.Get("/{id}/available-items", h.ListAvailableItems)
			r.Get("/{id}/assigned-items", h.ListAssignedItems)
			r.Get("/{id}/qrcode", h.QRCode)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Post("/{id}/items", h.AssignItem)
			r.Delete("/{id}/items/{itemID}", h.RemoveItem)
		})
	})
}

// List returns a page of POIs
func (h *POIHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.poiService.List(r.Context(), identityOf(r), listParams(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// Get returns one POI with its items
func (h *POIHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	poi, err := h.poiService.Get(r.Context(), identityOf(r), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, poi)
}

// Create registers a new POI owned by the caller
func (h *POIHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req POIRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	poi, err := h.poiService.Create(r.Context(), identityOf(r), req.input())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.Info("POI created", zap.String("poi_id", poi.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, poi)
}

// Update replaces a POI's fields
func (h *POIHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req POIRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	poi, err := h.poiService.Update(r.Context(), identityOf(r), id, req.input())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, poi)
}

// Delete removes a POI and its relationships
func (h *POIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.poiService.Delete(r.Context(), identityOf(r), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.Info("POI deleted", zap.String("poi_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListAvailableItems returns items not yet linked to the POI
func (h *POIHandler) ListAvailableItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	items, err := h.relationshipService.ListAvailableItems(r.Context(), identityOf(r), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// ListAssignedItems returns the POI's menu with local prices
func (h *POIHandler) ListAssignedItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	assigned, err := h.relationshipService.ListAssignedItems(r.Context(), identityOf(r), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	resp := make([]AssignedItemResponse, 0, len(assigned))
	for _, a := range assigned {
		resp = append(resp, AssignedItemResponse{AssignedItem: a, EffectivePrice: a.EffectivePrice()})
	}
	middleware.RespondWithJSON(w, http.StatusOK, resp)
}

// AssignItem links an item to the POI
func (h *POIHandler) AssignItem(w http.ResponseWriter, r *http.Request) {
	poiID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req AssignItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	itemID, err := parseBodyID(req.ItemID, "item_id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	rel, err := h.relationshipService.AssignItem(r.Context(), identityOf(r), poiID, itemID, req.LocalPrice)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, rel)
}

// RemoveItem unlinks an item from the POI
func (h *POIHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	poiID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	itemID, err := pathID(r, "itemID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.relationshipService.RemoveItem(r.Context(), identityOf(r), poiID, itemID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QRCode renders a PNG that links to the POI's public page
func (h *POIHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if _, err := h.poiService.Get(r.Context(), identityOf(r), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	png, err := qrcode.Encode(h.publicBaseURL+"/pois/"+id.String(), qrcode.Medium, qrCodeSize)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
