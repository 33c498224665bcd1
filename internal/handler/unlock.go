package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/amellin794/delish/internal/service"
)

type UnlockHandler struct {
	unlockService *service.UnlockService
}

func NewUnlockHandler(unlockService *service.UnlockService) *UnlockHandler {
	return &UnlockHandler{unlockService: unlockService}
}

// Unlock redeems a single-use unlock token. Every denial returns the same
// generic 404 so a token holder cannot tell which check failed; the real
// reason is logged.
func (h *UnlockHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	result, err := h.unlockService.Redeem(token)
	if err != nil {
		var unlockErr *service.UnlockError
		if errors.As(err, &unlockErr) {
			slog.Info("unlock denied", "reason", string(unlockErr.Reason))
			respondError(w, http.StatusNotFound, "this link is no longer valid")
			return
		}
		slog.Error("failed to redeem unlock token", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to unlock")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"list_title":    result.List.Title,
		"maps_list_url": result.List.MapsListURL,
		"hosted_mirror": result.List.HostedMirror,
	})
}
