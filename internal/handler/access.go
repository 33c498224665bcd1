package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/amellin794/delish/internal/repository"
	"github.com/amellin794/delish/internal/service"
)

type AccessHandler struct {
	accessService *service.AccessService
}

func NewAccessHandler(accessService *service.AccessService) *AccessHandler {
	return &AccessHandler{accessService: accessService}
}

// Resend emails a fresh access link to a buyer. The response is the same
// whether or not a matching purchase exists, so the endpoint cannot be used
// to probe who bought a list.
func (h *AccessHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		ListSlug string `json:"list_slug"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.accessService.RequestAccessLink(input.Email, input.ListSlug)
	switch {
	case err == nil:
	case isValidationError(err):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, repository.ErrListNotFound), errors.Is(err, service.ErrNoPurchase):
		slog.Info("access link request without matching purchase", "slug", input.ListSlug)
	default:
		slog.Error("failed to send access link", "error", err, "slug", input.ListSlug)
		respondError(w, http.StatusInternalServerError, "failed to send access link")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "if a purchase exists for this email, an access link has been sent",
	})
}

// Show resolves an access link token and returns the purchased content.
func (h *AccessHandler) Show(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	list, _, err := h.accessService.ResolveAccessLink(token)
	if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrNoPurchase) {
		respondError(w, http.StatusNotFound, "this link is no longer valid")
		return
	}
	if err != nil {
		slog.Error("failed to resolve access link", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load access link")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"list_title":    list.Title,
		"maps_list_url": list.MapsListURL,
		"hosted_mirror": list.HostedMirror,
	})
}
