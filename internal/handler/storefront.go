package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/amellin794/delish/internal/model"
	"github.com/amellin794/delish/internal/repository"
	"github.com/amellin794/delish/internal/service"
)

type StorefrontHandler struct {
	listService *service.ListService
}

func NewStorefrontHandler(listService *service.ListService) *StorefrontHandler {
	return &StorefrontHandler{listService: listService}
}

// publicListResponse is the buyer-facing view of a list. The Maps URL is
// what buyers pay for, so it never appears here.
type publicListResponse struct {
	Slug          string  `json:"slug"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	PriceCents    int     `json:"price_cents"`
	Currency      string  `json:"currency"`
	CoverImageURL *string `json:"cover_image_url,omitempty"`
	SalesCount    int     `json:"sales_count"`
}

func toPublicListResponse(list *model.List, salesCount int) publicListResponse {
	return publicListResponse{
		Slug:          list.Slug,
		Title:         list.Title,
		Description:   list.Description,
		PriceCents:    list.PriceCents,
		Currency:      list.Currency,
		CoverImageURL: list.CoverImageURL,
		SalesCount:    salesCount,
	}
}

// Show serves the public sales page for a published list.
func (h *StorefrontHandler) Show(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	list, err := h.listService.PublishedBySlug(slug)
	if errors.Is(err, repository.ErrListNotFound) {
		respondError(w, http.StatusNotFound, "list not found")
		return
	}
	if err != nil {
		slog.Error("failed to load storefront list", "error", err, "slug", slug)
		respondError(w, http.StatusInternalServerError, "failed to load list")
		return
	}

	salesCount, err := h.listService.SalesCount(list.ID)
	if err != nil {
		slog.Warn("failed to load sales count", "error", err, "list_id", list.ID)
	}

	respondJSON(w, http.StatusOK, toPublicListResponse(list, salesCount))
}
