package transport

import (
	"net/http"

	"beerfinder/internal/domain"
	"beerfinder/internal/middleware"
	"beerfinder/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ItemRequestBody is the payload for creating or replacing a catalog item
type ItemRequestBody struct {
	Name         string   `json:"name" validate:"required,max=200"`
	Description  string   `json:"description"`
	Brand        string   `json:"brand" validate:"max=100"`
	TypicalPrice *float64 `json:"typical_price" validate:"omitempty,gte=0,lte=99999999.99"`
	FlavorType   string   `json:"flavor_type" validate:"flavor"`
	Percentage   *float64 `json:"percentage" validate:"omitempty,gte=0,lte=100"`
	Volume       string   `json:"volume" validate:"max=50"`
	Thumbnail    []byte   `json:"thumbnail"`
}

func (req ItemRequestBody) input() service.ItemInput {
	return service.ItemInput{
		Name:         req.Name,
		Description:  req.Description,
		Brand:        req.Brand,
		TypicalPrice: req.TypicalPrice,
		FlavorType:   domain.Flavor(req.FlavorType),
		Percentage:   req.Percentage,
		Volume:       req.Volume,
		Thumbnail:    req.Thumbnail,
	}
}

// ItemHandler handles HTTP requests for the item catalog
type ItemHandler struct {
	itemService service.ItemService
	logger      *zap.Logger
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(itemService service.ItemService, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{itemService: itemService, logger: logger}
}

// RegisterRoutes registers all item routes
func (h *ItemHandler) RegisterRoutes(r chi.Router, authMiddleware, optionalAuth Middleware) {
	r.Route("/api/items", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/", h.List)
			r.Get("/{id}", h.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List returns a page of items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.itemService.List(r.Context(), identityOf(r), listParams(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// Get returns one item
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	item, err := h.itemService.Get(r.Context(), identityOf(r), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// Create adds an item to the catalog
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ItemRequestBody
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	item, err := h.itemService.Create(r.Context(), identityOf(r), req.input())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Item created", zap.String("item_id", item.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, item)
}

// Update replaces an item's fields
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req ItemRequestBody
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	item, err := h.itemService.Update(r.Context(), identityOf(r), id, req.input())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// Delete removes an item and its POI links
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.itemService.Delete(r.Context(), identityOf(r), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Item deleted", zap.String("item_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
