package payment

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/account"
	"github.com/stripe/stripe-go/v81/accountlink"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/amellin794/delish/internal/config"
	"github.com/amellin794/delish/internal/model"
	"github.com/amellin794/delish/internal/service"
)

type StripeProvider struct {
	cfg             *config.Config
	checkoutService *service.CheckoutService
}

func NewStripeProvider(cfg *config.Config, checkoutService *service.CheckoutService) *StripeProvider {
	// Set Stripe API key
	stripe.Key = cfg.StripeSecretKey

	slog.Info("stripe provider initialized", "app_env", cfg.AppEnv)

	return &StripeProvider{
		cfg:             cfg,
		checkoutService: checkoutService,
	}
}

func (s *StripeProvider) Name() string {
	return model.ProviderStripe
}

// CreateCheckoutURL opens a one-time payment session for a list. The price
// is defined inline from the list, the platform fee is taken as an
// application fee, and the remainder transfers to the creator's connected
// account. The list and owner IDs ride along as metadata so the webhook can
// reconcile the purchase.
func (s *StripeProvider) CreateCheckoutURL(list *model.List, owner *model.User, buyerEmail string) (string, error) {
	if !owner.HasPaymentAccount() {
		return "", fmt.Errorf("list owner has no connected payout account")
	}

	successURL := fmt.Sprintf("%s/post-checkout?session_id={CHECKOUT_SESSION_ID}", s.cfg.AppURL)
	cancelURL := fmt.Sprintf("%s/l/%s", s.cfg.AppURL, list.Slug)

	applicationFee := int64(list.PriceCents) * int64(s.cfg.PlatformFeePct) / 100

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(list.Currency),
					UnitAmount: stripe.Int64(int64(list.PriceCents)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(list.Title),
						Description: stripe.String(list.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(applicationFee),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(*owner.PaymentAccount),
			},
		},
		Metadata: map[string]string{
			"list_id":  list.ID,
			"owner_id": list.OwnerID,
		},
	}
	if buyerEmail != "" {
		params.CustomerEmail = stripe.String(buyerEmail)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	slog.Info("stripe checkout created", "list_id", list.ID, "session_id", sess.ID)
	return sess.URL, nil
}

// ConnectOnboardingURL creates an Express account for the creator (reusing
// an existing one if they already connected) and returns a hosted onboarding
// link.
func (s *StripeProvider) ConnectOnboardingURL(user *model.User) (string, string, error) {
	accountID := ""
	if user.HasPaymentAccount() {
		accountID = *user.PaymentAccount
	} else {
		params := &stripe.AccountParams{
			Type:  stripe.String(string(stripe.AccountTypeExpress)),
			Email: stripe.String(user.Email),
			Capabilities: &stripe.AccountCapabilitiesParams{
				CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{
					Requested: stripe.Bool(true),
				},
				Transfers: &stripe.AccountCapabilitiesTransfersParams{
					Requested: stripe.Bool(true),
				},
			},
		}
		acct, err := account.New(params)
		if err != nil {
			return "", "", fmt.Errorf("failed to create connect account: %w", err)
		}
		accountID = acct.ID
	}

	linkParams := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(fmt.Sprintf("%s/app/payments/connect", s.cfg.AppURL)),
		ReturnURL:  stripe.String(fmt.Sprintf("%s/app/lists", s.cfg.AppURL)),
		Type:       stripe.String("account_onboarding"),
	}
	link, err := accountlink.New(linkParams)
	if err != nil {
		return "", "", fmt.Errorf("failed to create onboarding link: %w", err)
	}

	slog.Info("stripe connect onboarding created", "user_id", user.ID, "account_id", accountID)
	return accountID, link.URL, nil
}

func (s *StripeProvider) HandleWebhook(payload []byte, headers http.Header) error {
	signature := headers.Get("Stripe-Signature")

	// Use ConstructEventWithOptions to ignore API version mismatch
	// Stripe's API versions are backwards compatible, so this is safe
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	slog.Info("stripe webhook received", "event_type", event.Type)

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutSessionCompleted(event.Data.Raw)
	case "charge.refunded":
		return s.handleChargeRefunded(event.Data.Raw)
	default:
		slog.Warn("stripe webhook unknown event type", "event_type", event.Type)
		return nil
	}
}

func (s *StripeProvider) handleCheckoutSessionCompleted(data json.RawMessage) error {
	var checkoutSession struct {
		ID              string `json:"id"`
		PaymentIntent   string `json:"payment_intent"`
		AmountTotal     int64  `json:"amount_total"`
		Currency        string `json:"currency"`
		CustomerDetails struct {
			Email string `json:"email"`
		} `json:"customer_details"`
		Metadata map[string]string `json:"metadata"`
	}

	err := json.Unmarshal(data, &checkoutSession)
	if err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	return s.checkoutService.CompletePurchase(service.PurchaseCompleted{
		Provider:    model.ProviderStripe,
		SessionID:   checkoutSession.ID,
		ChargeID:    checkoutSession.PaymentIntent,
		ListID:      checkoutSession.Metadata["list_id"],
		OwnerID:     checkoutSession.Metadata["owner_id"],
		BuyerEmail:  checkoutSession.CustomerDetails.Email,
		AmountCents: int(checkoutSession.AmountTotal),
		Currency:    checkoutSession.Currency,
	})
}

func (s *StripeProvider) handleChargeRefunded(data json.RawMessage) error {
	var charge struct {
		PaymentIntent string `json:"payment_intent"`
	}

	err := json.Unmarshal(data, &charge)
	if err != nil {
		return fmt.Errorf("failed to parse charge: %w", err)
	}

	if charge.PaymentIntent == "" {
		slog.Warn("stripe refund has no payment intent, skipping")
		return nil
	}

	return s.checkoutService.HandleRefund(charge.PaymentIntent)
}
