package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/amellin794/delish/internal/repository"
	"github.com/amellin794/delish/internal/service"
	"github.com/amellin794/delish/internal/service/payment"
	"github.com/amellin794/delish/internal/validation"
)

type CheckoutHandler struct {
	listService     *service.ListService
	checkoutService *service.CheckoutService
	paymentService  payment.Provider
	users           repository.UserRepository
}

func NewCheckoutHandler(
	listService *service.ListService,
	checkoutService *service.CheckoutService,
	paymentService payment.Provider,
	users repository.UserRepository,
) *CheckoutHandler {
	return &CheckoutHandler{
		listService:     listService,
		checkoutService: checkoutService,
		paymentService:  paymentService,
		users:           users,
	}
}

// CreateCheckout opens a provider checkout session for a published list and
// returns the URL to redirect the buyer to.
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ListSlug string `json:"list_slug"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if input.Email != "" {
		if err := validation.ValidateEmail(input.Email); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	list, err := h.listService.PublishedBySlug(input.ListSlug)
	if errors.Is(err, repository.ErrListNotFound) {
		respondError(w, http.StatusNotFound, "list not found")
		return
	}
	if err != nil {
		slog.Error("failed to load list for checkout", "error", err, "slug", input.ListSlug)
		respondError(w, http.StatusInternalServerError, "failed to start checkout")
		return
	}

	owner, err := h.users.ByID(list.OwnerID)
	if err != nil {
		slog.Error("failed to load list owner", "error", err, "list_id", list.ID)
		respondError(w, http.StatusInternalServerError, "failed to start checkout")
		return
	}

	checkoutURL, err := h.paymentService.CreateCheckoutURL(list, owner, input.Email)
	if err != nil {
		slog.Error("failed to create checkout", "error", err, "list_id", list.ID, "provider", h.paymentService.Name())
		respondError(w, http.StatusInternalServerError, "failed to start checkout")
		return
	}

	slog.Info("checkout started", "list_id", list.ID, "provider", h.paymentService.Name())
	respondJSON(w, http.StatusOK, map[string]string{"checkout_url": checkoutURL})
}

// SessionStatus reports whether a checkout session has been reconciled into
// an order yet. The post-checkout page polls this until the webhook lands.
func (h *CheckoutHandler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	order, list, err := h.checkoutService.SessionStatus(sessionID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		// webhook not processed yet
		respondJSON(w, http.StatusOK, map[string]any{"status": "pending"})
		return
	}
	if err != nil {
		slog.Error("failed to load session status", "error", err, "session_id", sessionID)
		respondError(w, http.StatusInternalServerError, "failed to load session status")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":      order.Status,
		"list_title":  list.Title,
		"buyer_email": order.BuyerEmail,
	})
}
