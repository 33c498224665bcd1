package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/amellin794/delish/internal/model"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateOrder signals the unique index on provider_session_id fired:
	// this checkout completion was already recorded.
	ErrDuplicateOrder = errors.New("order already exists for session")
)

type OrderRepository interface {
	Create(order *model.Order) error
	ByID(id string) (*model.Order, error)
	ByProviderSessionID(sessionID string) (*model.Order, error)
	ByProviderChargeID(chargeID string) (*model.Order, error)
	PaidByEmailAndList(email, listID string) ([]*model.Order, error)
	CountPaidByList(listID string) (int, error)
	UpdateStatus(orderID, status string) error
}

type orderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *model.Order) error {
	query := `INSERT INTO orders (id, buyer_email, list_id, amount_cents, currency,
	              provider, provider_session_id, provider_charge_id, status,
	              created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(query,
		order.ID,
		order.BuyerEmail,
		order.ListID,
		order.AmountCents,
		order.Currency,
		order.Provider,
		order.ProviderSessionID,
		order.ProviderChargeID,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateOrder
	}
	return err
}

func (r *orderRepository) ByID(id string) (*model.Order, error) {
	order := &model.Order{}
	query := `SELECT * FROM orders WHERE id = $1`

	err := r.db.Get(order, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) ByProviderSessionID(sessionID string) (*model.Order, error) {
	order := &model.Order{}
	query := `SELECT * FROM orders WHERE provider_session_id = $1`

	err := r.db.Get(order, query, sessionID)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) ByProviderChargeID(chargeID string) (*model.Order, error) {
	order := &model.Order{}
	query := `SELECT * FROM orders WHERE provider_charge_id = $1`

	err := r.db.Get(order, query, chargeID)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) PaidByEmailAndList(email, listID string) ([]*model.Order, error) {
	var orders []*model.Order
	query := `SELECT * FROM orders
	          WHERE buyer_email = $1 AND list_id = $2 AND status = $3
	          ORDER BY created_at DESC`

	err := r.db.Select(&orders, query, email, listID, model.OrderStatusPaid)
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepository) CountPaidByList(listID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE list_id = $1 AND status = $2`
	err := r.db.QueryRow(query, listID, model.OrderStatusPaid).Scan(&count)
	return count, err
}

func (r *orderRepository) UpdateStatus(orderID, status string) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, status, time.Now(), orderID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// isUniqueViolation matches unique constraint errors across the supported
// drivers (modernc sqlite and pgx) without importing either error type here.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "constraint failed: UNIQUE") || // modernc sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}
