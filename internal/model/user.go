package model

import (
	"time"
)

// User is a creator account. Authentication lives with the external identity
// provider; we only keep what the storefront needs, including the connected
// payment account that payouts are routed to.
type User struct {
	ID             string    `db:"id"`
	Email          string    `db:"email"`
	Name           string    `db:"name"`
	PaymentAccount *string   `db:"payment_account"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (u *User) HasPaymentAccount() bool {
	return u.PaymentAccount != nil && *u.PaymentAccount != ""
}
