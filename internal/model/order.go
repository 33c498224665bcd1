package model

import (
	"time"
)

const (
	OrderStatusPaid     = "PAID"
	OrderStatusRefunded = "REFUNDED"
)

// Order is one confirmed purchase. A row only exists once the payment
// provider reports the checkout complete; abandoned checkouts leave nothing.
// PAID -> REFUNDED is the only transition and REFUNDED is terminal.
type Order struct {
	ID                string    `db:"id"`
	BuyerEmail        string    `db:"buyer_email"`
	ListID            string    `db:"list_id"`
	AmountCents       int       `db:"amount_cents"`
	Currency          string    `db:"currency"`
	Provider          string    `db:"provider"`
	ProviderSessionID string    `db:"provider_session_id"`
	ProviderChargeID  *string   `db:"provider_charge_id"`
	Status            string    `db:"status"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}
