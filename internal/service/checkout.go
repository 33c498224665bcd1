package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amellin794/delish/internal/model"
	"github.com/amellin794/delish/internal/repository"
)

// unlockMailer is the slice of EmailService the checkout flow needs.
type unlockMailer interface {
	SendUnlockEmail(email, token, listTitle string) error
}

// PurchaseCompleted is the provider-neutral shape of a completed checkout
// event, extracted from the webhook payload by the payment provider.
type PurchaseCompleted struct {
	Provider    string
	SessionID   string
	ChargeID    string
	ListID      string
	OwnerID     string
	BuyerEmail  string
	AmountCents int
	Currency    string
}

// CheckoutService reconciles payment provider events into orders, access
// grants, and unlock tokens. All entry points are idempotent: providers
// redeliver webhooks, and a redelivered event must be a no-op.
type CheckoutService struct {
	lists         repository.ListRepository
	orders        repository.OrderRepository
	grants        repository.AccessGrantRepository
	sessionTokens repository.SessionTokenRepository
	tokens        *TokenService
	mailer        unlockMailer
}

func NewCheckoutService(
	lists repository.ListRepository,
	orders repository.OrderRepository,
	grants repository.AccessGrantRepository,
	sessionTokens repository.SessionTokenRepository,
	tokens *TokenService,
	mailer unlockMailer,
) *CheckoutService {
	return &CheckoutService{
		lists:         lists,
		orders:        orders,
		grants:        grants,
		sessionTokens: sessionTokens,
		tokens:        tokens,
		mailer:        mailer,
	}
}

// CompletePurchase records a paid checkout: it creates the order and access
// grant, mints a single-use unlock token, and emails the unlock link to the
// buyer. Events for unknown lists or already-recorded sessions are dropped
// without error so the provider stops redelivering them.
func (s *CheckoutService) CompletePurchase(purchase PurchaseCompleted) error {
	if purchase.ListID == "" || purchase.OwnerID == "" {
		slog.Warn("checkout event missing metadata, dropping", "provider", purchase.Provider, "session_id", purchase.SessionID)
		return nil
	}
	if purchase.BuyerEmail == "" {
		slog.Warn("checkout event missing buyer email, dropping", "provider", purchase.Provider, "session_id", purchase.SessionID)
		return nil
	}

	list, err := s.lists.ByID(purchase.ListID)
	if errors.Is(err, repository.ErrListNotFound) {
		slog.Warn("checkout event for unknown list, dropping", "list_id", purchase.ListID, "session_id", purchase.SessionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load list: %w", err)
	}

	if _, err := s.orders.ByProviderSessionID(purchase.SessionID); err == nil {
		slog.Info("checkout session already recorded, skipping", "session_id", purchase.SessionID)
		return nil
	} else if !errors.Is(err, repository.ErrOrderNotFound) {
		return fmt.Errorf("failed to check for existing order: %w", err)
	}

	now := time.Now()
	order := &model.Order{
		ID:                uuid.New().String(),
		BuyerEmail:        purchase.BuyerEmail,
		ListID:            list.ID,
		AmountCents:       purchase.AmountCents,
		Currency:          purchase.Currency,
		Provider:          purchase.Provider,
		ProviderSessionID: purchase.SessionID,
		Status:            model.OrderStatusPaid,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if purchase.ChargeID != "" {
		order.ProviderChargeID = &purchase.ChargeID
	}

	err = s.orders.Create(order)
	if errors.Is(err, repository.ErrDuplicateOrder) {
		// a concurrent delivery of the same event won the insert
		slog.Info("checkout session already recorded, skipping", "session_id", purchase.SessionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	grant := &model.AccessGrant{
		OrderID:    order.ID,
		ListID:     list.ID,
		BuyerEmail: order.BuyerEmail,
	}
	if err := s.grants.Create(grant); err != nil {
		return fmt.Errorf("failed to create access grant: %w", err)
	}

	token, claims, err := s.tokens.IssueUnlockToken(order.ID, list.ID, order.BuyerEmail)
	if err != nil {
		return fmt.Errorf("failed to issue unlock token: %w", err)
	}
	sessionToken := &model.SessionToken{
		ID:        claims.JTI,
		OrderID:   order.ID,
		ExpiresAt: claims.ExpiresAt,
	}
	if err := s.sessionTokens.Create(sessionToken); err != nil {
		return fmt.Errorf("failed to persist session token: %w", err)
	}

	// The order is final once recorded; a failed send must not unwind it.
	// The buyer can still recover access through the resend flow.
	if err := s.mailer.SendUnlockEmail(order.BuyerEmail, token, list.Title); err != nil {
		slog.Error("failed to send unlock email", "error", err, "order_id", order.ID, "email", order.BuyerEmail)
	}

	slog.Info("purchase completed", "order_id", order.ID, "list_id", list.ID, "provider", order.Provider, "amount_cents", order.AmountCents)
	return nil
}

// HandleRefund marks the order behind a refunded charge REFUNDED and revokes
// its access grants. Refunds for unknown charges are dropped; refunds for
// already-refunded orders are no-ops.
func (s *CheckoutService) HandleRefund(chargeID string) error {
	order, err := s.orders.ByProviderChargeID(chargeID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		slog.Warn("refund event for unknown charge, dropping", "charge_id", chargeID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load order for refund: %w", err)
	}

	if order.Status == model.OrderStatusRefunded {
		slog.Info("order already refunded, skipping", "order_id", order.ID)
		return nil
	}

	if err := s.orders.UpdateStatus(order.ID, model.OrderStatusRefunded); err != nil {
		return fmt.Errorf("failed to mark order refunded: %w", err)
	}
	if err := s.grants.RevokeByOrderID(order.ID); err != nil {
		return fmt.Errorf("failed to revoke access grants: %w", err)
	}

	slog.Info("order refunded, access revoked", "order_id", order.ID, "list_id", order.ListID)
	return nil
}

// SessionStatus looks up the order recorded for a checkout session. It reads
// our own table rather than the provider API, so immediately after payment it
// can return ErrOrderNotFound until the webhook lands. Callers should poll.
func (s *CheckoutService) SessionStatus(sessionID string) (*model.Order, *model.List, error) {
	order, err := s.orders.ByProviderSessionID(sessionID)
	if err != nil {
		return nil, nil, err
	}
	list, err := s.lists.ByID(order.ListID)
	if err != nil {
		return nil, nil, err
	}
	return order, list, nil
}
