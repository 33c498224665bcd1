package model

import (
	"time"
)

// AccessGrant authorizes one buyer email to open one list's content. Revocation
// is one-way and independent of any token the buyer may still hold.
type AccessGrant struct {
	ID           string     `db:"id"`
	OrderID      string     `db:"order_id"`
	ListID       string     `db:"list_id"`
	BuyerEmail   string     `db:"buyer_email"`
	Revoked      bool       `db:"revoked"`
	LastAccessAt *time.Time `db:"last_access_at"`
	CreatedAt    time.Time  `db:"created_at"`
}
