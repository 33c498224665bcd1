package payment

import (
	"net/http"

	"github.com/amellin794/delish/internal/model"
)

// Provider defines the interface that all payment providers must implement
type Provider interface {
	// CreateCheckoutURL creates a checkout session for one list and returns the URL
	CreateCheckoutURL(list *model.List, owner *model.User, buyerEmail string) (string, error)

	// ConnectOnboardingURL creates a payout account for the creator (if needed)
	// and returns the account ID plus the hosted onboarding URL
	ConnectOnboardingURL(user *model.User) (string, string, error)

	// HandleWebhook processes webhook events from the payment provider
	HandleWebhook(payload []byte, headers http.Header) error

	// Name returns the provider name (e.g., "polar", "stripe")
	Name() string
}
