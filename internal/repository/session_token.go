package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/amellin794/delish/internal/model"
)

var (
	ErrSessionTokenNotFound = errors.New("session token not found")
)

type SessionTokenRepository interface {
	Create(token *model.SessionToken) error
	ByID(id string) (*model.SessionToken, error)
	Consume(id string) (*model.SessionToken, error)
	DeleteExpired(olderThan time.Duration) (int64, error)
}

type sessionTokenRepository struct {
	db *sqlx.DB
}

func NewSessionTokenRepository(db *sqlx.DB) SessionTokenRepository {
	return &sessionTokenRepository{db: db}
}

func (r *sessionTokenRepository) Create(token *model.SessionToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	query := `INSERT INTO session_tokens (id, order_id, expires_at, created_at)
	          VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(query,
		token.ID,
		token.OrderID,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}

func (r *sessionTokenRepository) ByID(id string) (*model.SessionToken, error) {
	token := &model.SessionToken{}
	query := `SELECT * FROM session_tokens WHERE id = $1`

	err := r.db.Get(token, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrSessionTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return token, nil
}

// Consume atomically deletes the single-use record and returns it.
// Two concurrent redemptions of the same token race on this single statement:
// only one gets the row back, the other gets ErrSessionTokenNotFound.
func (r *sessionTokenRepository) Consume(id string) (*model.SessionToken, error) {
	token := &model.SessionToken{}
	query := `DELETE FROM session_tokens WHERE id = $1 RETURNING *`

	err := r.db.Get(token, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrSessionTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return token, nil
}

// DeleteExpired removes expired single-use records older than the given
// duration. Optional maintenance for long-running deployments; expired rows
// are already treated as invalid, this just reclaims storage.
func (r *sessionTokenRepository) DeleteExpired(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	query := `DELETE FROM session_tokens WHERE expires_at < $1`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
