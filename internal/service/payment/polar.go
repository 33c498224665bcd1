package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	polargo "github.com/polarsource/polar-go"
	"github.com/polarsource/polar-go/models/components"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/amellin794/delish/internal/config"
	"github.com/amellin794/delish/internal/model"
	"github.com/amellin794/delish/internal/service"
)

type PolarProvider struct {
	cfg             *config.Config
	checkoutService *service.CheckoutService
	client          *polargo.Polar
}

func NewPolarProvider(cfg *config.Config, checkoutService *service.CheckoutService) *PolarProvider {
	var serverOption polargo.SDKOption
	if cfg.PolarSandboxMode {
		serverOption = polargo.WithServer(polargo.ServerSandbox)
		slog.Info("polar using sandbox mode", "app_env", cfg.AppEnv)
	} else {
		serverOption = polargo.WithServer(polargo.ServerProduction)
		slog.Info("polar using production mode", "app_env", cfg.AppEnv)
	}

	client := polargo.New(
		polargo.WithSecurity(cfg.PolarAPIKey),
		serverOption,
	)

	return &PolarProvider{
		cfg:             cfg,
		checkoutService: checkoutService,
		client:          client,
	}
}

func (p *PolarProvider) Name() string {
	return model.ProviderPolar
}

// CreateCheckoutURL opens a Polar checkout against the configured catalog
// product. Polar has no per-checkout payout split, so the platform keeps the
// whole amount and creators are paid out of band. The list and owner IDs
// ride along as metadata for webhook reconciliation.
func (p *PolarProvider) CreateCheckoutURL(list *model.List, owner *model.User, buyerEmail string) (string, error) {
	ctx := context.Background()

	if p.cfg.PolarProductID == "" {
		return "", fmt.Errorf("POLAR_PRODUCT_ID is required for polar checkouts")
	}

	successURL := fmt.Sprintf("%s/post-checkout?session_id={CHECKOUT_ID}", p.cfg.AppURL)

	metadata := map[string]components.CheckoutCreateMetadata{
		"list_id":  components.CreateCheckoutCreateMetadataStr(list.ID),
		"owner_id": components.CreateCheckoutCreateMetadataStr(list.OwnerID),
	}

	create := components.CheckoutCreate{
		Products:   []string{p.cfg.PolarProductID},
		SuccessURL: polargo.String(successURL),
		Metadata:   metadata,
	}
	if buyerEmail != "" {
		create.CustomerEmail = polargo.String(buyerEmail)
	}

	res, err := p.client.Checkouts.Create(ctx, create)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout: %w", err)
	}

	if res == nil || res.Checkout == nil {
		return "", fmt.Errorf("checkout response is nil")
	}

	slog.Info("polar checkout created", "list_id", list.ID, "checkout_id", res.Checkout.ID)
	return res.Checkout.URL, nil
}

// ConnectOnboardingURL is unsupported: Polar has no per-creator connected
// accounts, payouts happen through the Polar organization.
func (p *PolarProvider) ConnectOnboardingURL(user *model.User) (string, string, error) {
	return "", "", fmt.Errorf("polar provider does not support payout onboarding")
}

func (p *PolarProvider) HandleWebhook(payload []byte, headers http.Header) error {
	webhookID := headers.Get("webhook-id")
	timestamp := headers.Get("webhook-timestamp")
	signature := headers.Get("webhook-signature")

	if p.cfg.PolarWebhookSecret == "" {
		slog.Warn("polar no webhook secret configured, skipping signature verification")
	} else {
		wh, err := standardwebhooks.NewWebhookRaw([]byte(p.cfg.PolarWebhookSecret))
		if err != nil {
			return fmt.Errorf("failed to create webhook verifier: %w", err)
		}

		httpHeaders := http.Header{}
		httpHeaders.Set("webhook-id", webhookID)
		httpHeaders.Set("webhook-timestamp", timestamp)
		httpHeaders.Set("webhook-signature", signature)

		err = wh.Verify(payload, httpHeaders)
		if err != nil {
			return fmt.Errorf("invalid webhook signature: %w", err)
		}
	}

	var event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	err := json.Unmarshal(payload, &event)
	if err != nil {
		return fmt.Errorf("failed to parse webhook: %w", err)
	}

	slog.Info("polar webhook received", "event_type", event.Type)

	switch event.Type {
	case "order.created":
		return p.handleOrderCreated(event.Data)
	case "order.refunded":
		return p.handleOrderRefunded(event.Data)
	default:
		slog.Warn("polar webhook unknown event type", "event_type", event.Type)
		return nil
	}
}

func (p *PolarProvider) handleOrderCreated(data json.RawMessage) error {
	var order struct {
		ID         string `json:"id"`
		Amount     int    `json:"amount"`
		Currency   string `json:"currency"`
		Paid       bool   `json:"paid"`
		CheckoutID string `json:"checkout_id"`
		Customer   struct {
			Email string `json:"email"`
		} `json:"customer"`
		Metadata map[string]string `json:"metadata"`
	}

	err := json.Unmarshal(data, &order)
	if err != nil {
		return fmt.Errorf("failed to parse order data: %w", err)
	}

	if !order.Paid {
		slog.Info("polar order not yet paid, skipping", "order_id", order.ID)
		return nil
	}

	sessionID := order.CheckoutID
	if sessionID == "" {
		sessionID = order.ID
	}

	return p.checkoutService.CompletePurchase(service.PurchaseCompleted{
		Provider:    model.ProviderPolar,
		SessionID:   sessionID,
		ChargeID:    order.ID,
		ListID:      order.Metadata["list_id"],
		OwnerID:     order.Metadata["owner_id"],
		BuyerEmail:  order.Customer.Email,
		AmountCents: order.Amount,
		Currency:    order.Currency,
	})
}

func (p *PolarProvider) handleOrderRefunded(data json.RawMessage) error {
	var order struct {
		ID string `json:"id"`
	}

	err := json.Unmarshal(data, &order)
	if err != nil {
		return fmt.Errorf("failed to parse order data: %w", err)
	}

	return p.checkoutService.HandleRefund(order.ID)
}
