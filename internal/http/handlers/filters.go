package handlers

import (
	"net/http"

	"github.com/geocoder89/filmlib/internal/filters"
	"github.com/gin-gonic/gin"
)

type FilterLabeler interface {
	Labels() map[string]filters.Label
}

type FiltersHandler struct {
	registry FilterLabeler
}

func NewFiltersHandler(registry FilterLabeler) *FiltersHandler {
	return &FiltersHandler{registry: registry}
}

// ListFilters serves GET /filters. The body never changes for a running
// process so clients can revalidate with If-None-Match.
func (h *FiltersHandler) ListFilters(ctx *gin.Context) {
	RespondJSONWithETag(ctx, http.StatusOK, h.registry.Labels())
}
