package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/amellin794/delish/internal/ctxkeys"
	"github.com/amellin794/delish/internal/model"
	"github.com/amellin794/delish/internal/repository"
	"github.com/amellin794/delish/internal/service"
)

// maxCoverUploadBytes caps cover image uploads at 5 MB
const maxCoverUploadBytes = 5 << 20

type ListHandler struct {
	listService *service.ListService
}

func NewListHandler(listService *service.ListService) *ListHandler {
	return &ListHandler{listService: listService}
}

// listResponse is the owner's view of a list, including the Maps URL that
// buyers pay for.
type listResponse struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	MapsListURL   string    `json:"maps_list_url"`
	PriceCents    int       `json:"price_cents"`
	Currency      string    `json:"currency"`
	CoverImageURL *string   `json:"cover_image_url,omitempty"`
	HostedMirror  bool      `json:"hosted_mirror"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toListResponse(list *model.List) listResponse {
	return listResponse{
		ID:            list.ID,
		Slug:          list.Slug,
		Title:         list.Title,
		Description:   list.Description,
		MapsListURL:   list.MapsListURL,
		PriceCents:    list.PriceCents,
		Currency:      list.Currency,
		CoverImageURL: list.CoverImageURL,
		HostedMirror:  list.HostedMirror,
		Published:     list.Published,
		CreatedAt:     list.CreatedAt,
		UpdatedAt:     list.UpdatedAt,
	}
}

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var input service.CreateListInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	list, err := h.listService.Create(user.ID, input)
	if err != nil {
		if isValidationError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to create list", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to create list")
		return
	}

	respondJSON(w, http.StatusCreated, toListResponse(list))
}

func (h *ListHandler) Lists(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	filter := r.URL.Query().Get("filter")
	lists, err := h.listService.ListsForOwner(user.ID, filter)
	if err != nil {
		slog.Error("failed to load lists", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to load lists")
		return
	}

	out := make([]listResponse, 0, len(lists))
	for _, list := range lists {
		out = append(out, toListResponse(list))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *ListHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	list, err := h.listService.ByIDForOwner(user.ID, r.PathValue("id"))
	if errors.Is(err, repository.ErrListNotFound) {
		respondError(w, http.StatusNotFound, "list not found")
		return
	}
	if err != nil {
		slog.Error("failed to load list", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to load list")
		return
	}

	respondJSON(w, http.StatusOK, toListResponse(list))
}

func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var input service.UpdateListInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	list, err := h.listService.Update(user.ID, r.PathValue("id"), input)
	if errors.Is(err, repository.ErrListNotFound) {
		respondError(w, http.StatusNotFound, "list not found")
		return
	}
	if err != nil {
		if isValidationError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to update list", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to update list")
		return
	}

	respondJSON(w, http.StatusOK, toListResponse(list))
}

func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.listService.Delete(user.ID, r.PathValue("id"))
	if errors.Is(err, repository.ErrListNotFound) {
		respondError(w, http.StatusNotFound, "list not found")
		return
	}
	if err != nil {
		slog.Error("failed to delete list", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to delete list")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ListHandler) Publish(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	list, err := h.listService.Publish(user.ID, r.PathValue("id"))
	if errors.Is(err, repository.ErrListNotFound) {
		respondError(w, http.StatusNotFound, "list not found")
		return
	}
	if errors.Is(err, service.ErrPaymentAccountRequired) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to publish list", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to publish list")
		return
	}

	respondJSON(w, http.StatusOK, toListResponse(list))
}

func (h *ListHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	list, err := h.listService.Unpublish(user.ID, r.PathValue("id"))
	if errors.Is(err, repository.ErrListNotFound) {
		respondError(w, http.StatusNotFound, "list not found")
		return
	}
	if err != nil {
		slog.Error("failed to unpublish list", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to unpublish list")
		return
	}

	respondJSON(w, http.StatusOK, toListResponse(list))
}

func (h *ListHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverUploadBytes)
	if err := r.ParseMultipartForm(maxCoverUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "cover image too large or malformed")
		return
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing cover file")
		return
	}
	defer file.Close()

	list, err := h.listService.UploadCover(user.ID, r.PathValue("id"), file, header.Filename)
	if errors.Is(err, repository.ErrListNotFound) {
		respondError(w, http.StatusNotFound, "list not found")
		return
	}
	if errors.Is(err, service.ErrInvalidCoverImage) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to upload cover", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to upload cover")
		return
	}

	respondJSON(w, http.StatusOK, toListResponse(list))
}
