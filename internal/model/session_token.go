package model

import (
	"time"
)

// SessionToken is the persisted single-use record behind an issued unlock
// token. Its id equals the token's jti claim. The row is deleted on first
// successful redemption; an expired-but-undeleted row is invalid.
type SessionToken struct {
	ID        string    `db:"id"`
	OrderID   string    `db:"order_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (t *SessionToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
