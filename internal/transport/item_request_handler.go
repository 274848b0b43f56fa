package transport

import (
	"context"
	"net/http"

	"beerfinder/internal/domain"
	"beerfinder/internal/middleware"
	"beerfinder/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ItemRequestPayload is a proposed catalog item
type ItemRequestPayload struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description"`
	Brand       string   `json:"brand" validate:"max=100"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0,lte=99999999.99"`
	Percentage  *float64 `json:"percentage" validate:"omitempty,gte=0,lte=100"`
	FlavorType  string   `json:"flavor_type" validate:"flavor"`
	Volume      string   `json:"volume" validate:"max=50"`
	Thumbnail   []byte   `json:"thumbnail"`
}

func (req ItemRequestPayload) input() service.ItemRequestInput {
	return service.ItemRequestInput{
		Name:        req.Name,
		Description: req.Description,
		Brand:       req.Brand,
		Price:       req.Price,
		Percentage:  req.Percentage,
		FlavorType:  domain.Flavor(req.FlavorType),
		Volume:      req.Volume,
		Thumbnail:   req.Thumbnail,
	}
}

// ModerationResponse reports the result of approving or rejecting a request
type ModerationResponse struct {
	Outcome string              `json:"outcome"`
	Request *domain.ItemRequest `json:"request"`
	Item    *domain.Item        `json:"item,omitempty"`
}

// ItemRequestHandler handles HTTP requests for the item request workflow
type ItemRequestHandler struct {
	requestService service.ItemRequestService
	logger         *zap.Logger
}

// NewItemRequestHandler creates a new ItemRequestHandler
func NewItemRequestHandler(requestService service.ItemRequestService, logger *zap.Logger) *ItemRequestHandler {
	return &ItemRequestHandler{requestService: requestService, logger: logger}
}

// RegisterRoutes registers all item request routes. Every route needs a
// token; list-all additionally needs staff.
func (h *ItemRequestHandler) RegisterRoutes(r chi.Router, authMiddleware, requireStaff Middleware) {
	r.Route("/api/item-requests", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", h.List)
		r.Post("/", h.Submit)
		r.With(requireStaff).Get("/list-all", h.ListAll)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/approve", h.Approve)
		r.Post("/{id}/reject", h.Reject)
	})
}

// Submit files a new pending request
func (h *ItemRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ItemRequestPayload
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	created, err := h.requestService.Submit(r.Context(), identityOf(r), req.input())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Item request submitted", zap.String("request_id", created.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, created)
}

// List returns the caller's requests, or every request for staff
func (h *ItemRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requestService.List(r.Context(), identityOf(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, requests)
}

// ListAll returns every request regardless of requester
func (h *ItemRequestHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requestService.ListAll(r.Context(), identityOf(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, requests)
}

// Get returns one request to its requester or to staff
func (h *ItemRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	req, err := h.requestService.Get(r.Context(), identityOf(r), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, req)
}

// Update edits a pending request
func (h *ItemRequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req ItemRequestPayload
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	updated, err := h.requestService.Update(r.Context(), identityOf(r), id, req.input())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, updated)
}

// Approve materializes the request into a catalog item
func (h *ItemRequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.requestService.Approve)
}

// Reject closes the request without creating an item
func (h *ItemRequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.requestService.Reject)
}

type moderationFunc func(ctx context.Context, caller domain.Identity, id uuid.UUID) (service.Outcome, error)

func (h *ItemRequestHandler) moderate(w http.ResponseWriter, r *http.Request, apply moderationFunc) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	outcome, err := apply(r.Context(), identityOf(r), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Item request moderated",
		zap.String("request_id", id.String()),
		zap.Stringer("outcome", outcome.Kind),
	)
	middleware.RespondWithJSON(w, http.StatusOK, ModerationResponse{
		Outcome: outcome.Kind.String(),
		Request: outcome.Request,
		Item:    outcome.Item,
	})
}
