package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	tokenTypeUnlock = "unlock"
	tokenTypeAccess = "access"
)

// UnlockClaims are the verified contents of a single-use unlock token.
type UnlockClaims struct {
	JTI       string
	OrderID   string
	ListID    string
	Email     string
	ExpiresAt time.Time
}

// AccessClaims are the verified contents of a re-usable access link token.
type AccessClaims struct {
	ListID    string
	Email     string
	ExpiresAt time.Time
}

// TokenService signs and verifies the HS256 tokens that gate list access.
// Unlock tokens are single-use and short-lived; access tokens are the
// longer-lived links sent by the resend flow.
type TokenService struct {
	secret       []byte
	unlockExpiry time.Duration
	accessExpiry time.Duration
}

func NewTokenService(secret string, unlockExpiry, accessExpiry time.Duration) *TokenService {
	return &TokenService{
		secret:       []byte(secret),
		unlockExpiry: unlockExpiry,
		accessExpiry: accessExpiry,
	}
}

// IssueUnlockToken mints a single-use unlock token for a completed order.
// The returned claims carry the jti and expiry the caller must persist so
// redemption can be enforced server-side.
func (s *TokenService) IssueUnlockToken(orderID, listID, email string) (string, *UnlockClaims, error) {
	now := time.Now()
	claims := &UnlockClaims{
		JTI:       uuid.New().String(),
		OrderID:   orderID,
		ListID:    listID,
		Email:     email,
		ExpiresAt: now.Add(s.unlockExpiry),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti":      claims.JTI,
		"typ":      tokenTypeUnlock,
		"order_id": claims.OrderID,
		"list_id":  claims.ListID,
		"email":    claims.Email,
		"iat":      now.Unix(),
		"exp":      claims.ExpiresAt.Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign unlock token: %w", err)
	}
	return signed, claims, nil
}

// VerifyUnlockToken checks the signature, expiry, and type of an unlock
// token. Any failure collapses to ErrInvalidToken; the caller decides what
// to reveal.
func (s *TokenService) VerifyUnlockToken(tokenString string) (*UnlockClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != tokenTypeUnlock {
		return nil, ErrInvalidToken
	}

	jti, _ := claims["jti"].(string)
	orderID, _ := claims["order_id"].(string)
	listID, _ := claims["list_id"].(string)
	email, _ := claims["email"].(string)
	if jti == "" || orderID == "" || listID == "" || email == "" {
		return nil, ErrInvalidToken
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	return &UnlockClaims{
		JTI:       jti,
		OrderID:   orderID,
		ListID:    listID,
		Email:     email,
		ExpiresAt: exp.Time,
	}, nil
}

// IssueAccessToken mints a time-limited access link token for a buyer who
// has previously paid for the list.
func (s *TokenService) IssueAccessToken(listID, email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"typ":     tokenTypeAccess,
		"list_id": listID,
		"email":   email,
		"iat":     now.Unix(),
		"exp":     now.Add(s.accessExpiry).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != tokenTypeAccess {
		return nil, ErrInvalidToken
	}

	listID, _ := claims["list_id"].(string)
	email, _ := claims["email"].(string)
	if listID == "" || email == "" {
		return nil, ErrInvalidToken
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	return &AccessClaims{
		ListID:    listID,
		Email:     email,
		ExpiresAt: exp.Time,
	}, nil
}

func (s *TokenService) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
