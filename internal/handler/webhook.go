package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/amellin794/delish/internal/service/payment"
)

type WebhookHandler struct {
	paymentService payment.Provider
}

func NewWebhookHandler(paymentService payment.Provider) *WebhookHandler {
	return &WebhookHandler{paymentService: paymentService}
}

// Webhook receives payment provider events. Signature verification and
// event dispatch happen inside the provider; a verification failure returns
// 400 so the provider retries, a successfully ignored event returns 200.
func (h *WebhookHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("failed to read webhook payload", "error", err)
		http.Error(w, "Failed to read payload", http.StatusBadRequest)
		return
	}
	defer func() {
		closeErr := r.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close request body", "error", closeErr)
		}
	}()

	err = h.paymentService.HandleWebhook(payload, r.Header)
	if err != nil {
		slog.Error("failed to handle webhook", "error", err, "provider", h.paymentService.Name())
		http.Error(w, "Failed to process webhook", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"received": true}`))
}
