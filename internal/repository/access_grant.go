package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amellin794/delish/internal/model"
)

var (
	ErrAccessGrantNotFound = errors.New("access grant not found")
)

type AccessGrantRepository interface {
	Create(grant *model.AccessGrant) error
	ByOrderAndEmail(orderID, email string) (*model.AccessGrant, error)
	ByOrderID(orderID string) ([]*model.AccessGrant, error)
	UnrevokedByEmailAndList(email, listID string) ([]*model.AccessGrant, error)
	RevokeByOrderID(orderID string) error
	TouchLastAccess(grantID string) error
}

type accessGrantRepository struct {
	db *sqlx.DB
}

func NewAccessGrantRepository(db *sqlx.DB) AccessGrantRepository {
	return &accessGrantRepository{db: db}
}

func (r *accessGrantRepository) Create(grant *model.AccessGrant) error {
	if grant.ID == "" {
		grant.ID = uuid.New().String()
	}
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now()
	}

	query := `INSERT INTO access_grants (id, order_id, list_id, buyer_email, revoked,
	              last_access_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		grant.ID,
		grant.OrderID,
		grant.ListID,
		grant.BuyerEmail,
		grant.Revoked,
		grant.LastAccessAt,
		grant.CreatedAt,
	)
	return err
}

func (r *accessGrantRepository) ByOrderAndEmail(orderID, email string) (*model.AccessGrant, error) {
	grant := &model.AccessGrant{}
	query := `SELECT * FROM access_grants WHERE order_id = $1 AND buyer_email = $2`

	err := r.db.Get(grant, query, orderID, email)
	if err == sql.ErrNoRows {
		return nil, ErrAccessGrantNotFound
	}
	if err != nil {
		return nil, err
	}

	return grant, nil
}

func (r *accessGrantRepository) ByOrderID(orderID string) ([]*model.AccessGrant, error) {
	var grants []*model.AccessGrant
	query := `SELECT * FROM access_grants WHERE order_id = $1`

	err := r.db.Select(&grants, query, orderID)
	if err != nil {
		return nil, err
	}

	return grants, nil
}

func (r *accessGrantRepository) UnrevokedByEmailAndList(email, listID string) ([]*model.AccessGrant, error) {
	var grants []*model.AccessGrant
	query := `SELECT * FROM access_grants
	          WHERE buyer_email = $1 AND list_id = $2 AND revoked = FALSE`

	err := r.db.Select(&grants, query, email, listID)
	if err != nil {
		return nil, err
	}

	return grants, nil
}

func (r *accessGrantRepository) RevokeByOrderID(orderID string) error {
	query := `UPDATE access_grants SET revoked = TRUE WHERE order_id = $1`
	_, err := r.db.Exec(query, orderID)
	return err
}

func (r *accessGrantRepository) TouchLastAccess(grantID string) error {
	query := `UPDATE access_grants SET last_access_at = $1 WHERE id = $2`

	result, err := r.db.Exec(query, time.Now(), grantID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAccessGrantNotFound
	}

	return nil
}
