package transport

import (
	"net/http"
	"strconv"
	"strings"

	"beerfinder/internal/domain"
	applog "beerfinder/internal/logger"
	"beerfinder/internal/middleware"
	"beerfinder/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Middleware is the signature shared by every chi middleware.
type Middleware = func(http.Handler) http.Handler

// pathID parses a UUID route parameter. Malformed IDs are reported as not
// found so they are indistinguishable from unknown ones.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.NewError(domain.ErrNotFound, name+" not found")
	}
	return id, nil
}

// listParams reads page, page_size, sort_by and sort_order from the query
// string. Unparseable numbers fall back to the defaults.
func listParams(r *http.Request) repository.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	order := repository.SortOrderAsc
	if strings.EqualFold(q.Get("sort_order"), "desc") {
		order = repository.SortOrderDesc
	}
	return repository.ListParams{
		Page:      page,
		PageSize:  pageSize,
		SortBy:    q.Get("sort_by"),
		SortOrder: order,
	}
}

// respondError writes err with the status of its kind using the request logger.
func respondError(w http.ResponseWriter, r *http.Request, fallback *zap.Logger, err error) {
	middleware.RespondWithDomainError(w, err, applog.FromContext(r.Context(), fallback))
}

func identityOf(r *http.Request) domain.Identity {
	return middleware.GetIdentity(r.Context())
}

// parseBodyID parses an ID carried in a request body. Unknown IDs surface as
// not found from the service.
func parseBodyID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ValidationError{Field: field, Message: "Invalid identifier"}
	}
	return id, nil
}
