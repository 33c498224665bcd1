package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/amellin794/delish/internal/model"
	"github.com/amellin794/delish/internal/repository"
)

// DenyReason classifies why an unlock was refused. Reasons are logged for
// operators; callers surface a single generic message so a token holder
// cannot probe which check failed.
type DenyReason string

const (
	DenyInvalidToken  DenyReason = "invalid_token"
	DenyAlreadyUsed   DenyReason = "already_used_or_unknown"
	DenyExpired       DenyReason = "expired"
	DenyOrderNotFound DenyReason = "order_not_found"
	DenyNotPaid       DenyReason = "not_paid"
	DenyNoAccessGrant DenyReason = "no_access_grant"
	DenyRevoked       DenyReason = "revoked"
)

type UnlockError struct {
	Reason DenyReason
}

func (e *UnlockError) Error() string {
	return "unlock denied: " + string(e.Reason)
}

// UnlockResult is a successful redemption: the content the buyer paid for
// plus the records that authorized it.
type UnlockResult struct {
	Order *model.Order
	List  *model.List
	Grant *model.AccessGrant
}

// UnlockService redeems single-use unlock tokens.
type UnlockService struct {
	lists         repository.ListRepository
	orders        repository.OrderRepository
	grants        repository.AccessGrantRepository
	sessionTokens repository.SessionTokenRepository
	tokens        *TokenService
}

func NewUnlockService(
	lists repository.ListRepository,
	orders repository.OrderRepository,
	grants repository.AccessGrantRepository,
	sessionTokens repository.SessionTokenRepository,
	tokens *TokenService,
) *UnlockService {
	return &UnlockService{
		lists:         lists,
		orders:        orders,
		grants:        grants,
		sessionTokens: sessionTokens,
		tokens:        tokens,
	}
}

// Redeem verifies an unlock token and, if every check passes, consumes it
// and returns the purchased content. Checks run in a fixed order so the
// first failure determines the deny reason. The persisted expiry is
// authoritative over the token's exp claim, and a failed redemption leaves
// the session token row intact. Consumption happens last and atomically, so
// of N concurrent redemptions of the same token exactly one succeeds.
func (s *UnlockService) Redeem(tokenString string) (*UnlockResult, error) {
	claims, err := s.tokens.VerifyUnlockToken(tokenString)
	if err != nil {
		return nil, &UnlockError{Reason: DenyInvalidToken}
	}

	sessionToken, err := s.sessionTokens.ByID(claims.JTI)
	if errors.Is(err, repository.ErrSessionTokenNotFound) {
		return nil, &UnlockError{Reason: DenyAlreadyUsed}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session token: %w", err)
	}

	if sessionToken.IsExpired() {
		return nil, &UnlockError{Reason: DenyExpired}
	}

	order, err := s.orders.ByID(claims.OrderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, &UnlockError{Reason: DenyOrderNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !order.IsPaid() {
		return nil, &UnlockError{Reason: DenyNotPaid}
	}

	grant, err := s.grants.ByOrderAndEmail(order.ID, claims.Email)
	if errors.Is(err, repository.ErrAccessGrantNotFound) {
		return nil, &UnlockError{Reason: DenyNoAccessGrant}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load access grant: %w", err)
	}
	if grant.Revoked {
		return nil, &UnlockError{Reason: DenyRevoked}
	}

	// consume last so only a fully authorized redemption spends the token;
	// losing the race means another request already redeemed it
	if _, err := s.sessionTokens.Consume(claims.JTI); err != nil {
		if errors.Is(err, repository.ErrSessionTokenNotFound) {
			return nil, &UnlockError{Reason: DenyAlreadyUsed}
		}
		return nil, fmt.Errorf("failed to consume session token: %w", err)
	}

	if err := s.grants.TouchLastAccess(grant.ID); err != nil {
		slog.Warn("failed to record last access", "error", err, "grant_id", grant.ID)
	}

	list, err := s.lists.ByID(order.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to load list: %w", err)
	}

	slog.Info("unlock redeemed", "order_id", order.ID, "list_id", list.ID, "email", claims.Email)
	return &UnlockResult{Order: order, List: list, Grant: grant}, nil
}
