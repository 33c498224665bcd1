package handler

import (
	"log/slog"
	"net/http"

	"github.com/amellin794/delish/internal/ctxkeys"
	"github.com/amellin794/delish/internal/repository"
	"github.com/amellin794/delish/internal/service/payment"
)

type PaymentsHandler struct {
	paymentService payment.Provider
	users          repository.UserRepository
}

func NewPaymentsHandler(paymentService payment.Provider, users repository.UserRepository) *PaymentsHandler {
	return &PaymentsHandler{
		paymentService: paymentService,
		users:          users,
	}
}

// Connect starts payout onboarding for the signed-in creator and returns
// the hosted onboarding URL. The provider account ID is stored right away;
// an unfinished onboarding reuses the same account on the next attempt.
func (h *PaymentsHandler) Connect(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	accountID, onboardingURL, err := h.paymentService.ConnectOnboardingURL(user)
	if err != nil {
		slog.Error("failed to start payout onboarding", "error", err, "user_id", user.ID, "provider", h.paymentService.Name())
		respondError(w, http.StatusInternalServerError, "failed to start payout onboarding")
		return
	}

	if !user.HasPaymentAccount() || *user.PaymentAccount != accountID {
		if err := h.users.SetPaymentAccount(user.ID, accountID); err != nil {
			slog.Error("failed to store payment account", "error", err, "user_id", user.ID)
			respondError(w, http.StatusInternalServerError, "failed to store payment account")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"onboarding_url": onboardingURL})
}
