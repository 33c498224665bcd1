package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/amellin794/delish/internal/model"
	"github.com/amellin794/delish/internal/repository"
	"github.com/amellin794/delish/internal/validation"
)

var ErrNoPurchase = errors.New("no purchase found for this email")

type accessMailer interface {
	SendAccessLinkEmail(email, token, listTitle string) error
}

// AccessService handles recovery of purchased content after the original
// unlock link is spent or expired. It issues time-limited access links and
// resolves them, re-checking payment and revocation state on every view.
type AccessService struct {
	lists  repository.ListRepository
	orders repository.OrderRepository
	grants repository.AccessGrantRepository
	tokens *TokenService
	mailer accessMailer
}

func NewAccessService(
	lists repository.ListRepository,
	orders repository.OrderRepository,
	grants repository.AccessGrantRepository,
	tokens *TokenService,
	mailer accessMailer,
) *AccessService {
	return &AccessService{
		lists:  lists,
		orders: orders,
		grants: grants,
		tokens: tokens,
		mailer: mailer,
	}
}

// RequestAccessLink emails a fresh access link to a buyer, provided the
// email has at least one paid, unrevoked purchase of the list. Refunded or
// revoked purchases report ErrNoPurchase; callers should answer generically
// either way so the endpoint cannot be used to enumerate buyers.
func (s *AccessService) RequestAccessLink(email, listSlug string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	list, err := s.lists.BySlug(listSlug)
	if err != nil {
		return err
	}

	orders, err := s.orders.PaidByEmailAndList(email, list.ID)
	if err != nil {
		return fmt.Errorf("failed to look up orders: %w", err)
	}
	if len(orders) == 0 {
		return ErrNoPurchase
	}

	grants, err := s.grants.UnrevokedByEmailAndList(email, list.ID)
	if err != nil {
		return fmt.Errorf("failed to look up access grants: %w", err)
	}
	if len(grants) == 0 {
		return ErrNoPurchase
	}

	token, err := s.tokens.IssueAccessToken(list.ID, email)
	if err != nil {
		return fmt.Errorf("failed to issue access token: %w", err)
	}

	if err := s.mailer.SendAccessLinkEmail(email, token, list.Title); err != nil {
		return fmt.Errorf("failed to send access link email: %w", err)
	}

	slog.Info("access link sent", "list_id", list.ID, "email", email)
	return nil
}

// ResolveAccessLink verifies an access token and returns the list it grants.
// Payment and revocation are re-checked at view time, so a refund issued
// after the link was sent still blocks access.
func (s *AccessService) ResolveAccessLink(tokenString string) (*model.List, *model.AccessGrant, error) {
	claims, err := s.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	list, err := s.lists.ByID(claims.ListID)
	if errors.Is(err, repository.ErrListNotFound) {
		return nil, nil, ErrInvalidToken
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load list: %w", err)
	}

	orders, err := s.orders.PaidByEmailAndList(claims.Email, list.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, nil, ErrNoPurchase
	}

	grants, err := s.grants.UnrevokedByEmailAndList(claims.Email, list.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up access grants: %w", err)
	}
	if len(grants) == 0 {
		return nil, nil, ErrNoPurchase
	}

	grant := grants[0]
	if err := s.grants.TouchLastAccess(grant.ID); err != nil {
		slog.Warn("failed to record last access", "error", err, "grant_id", grant.ID)
	}

	return list, grant, nil
}
