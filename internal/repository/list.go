package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amellin794/delish/internal/model"
)

const (
	ListFilterAll       = ""
	ListFilterPublished = "published"
	ListFilterDraft     = "draft"
)

var (
	ErrListNotFound = errors.New("list not found")
)

type ListRepository interface {
	Create(list *model.List) error
	ByID(id string) (*model.List, error)
	BySlug(slug string) (*model.List, error)
	ByIDForOwner(ownerID, listID string) (*model.List, error)
	ByOwner(ownerID, filter string) ([]*model.List, error)
	SlugExists(slug string) (bool, error)
	Update(list *model.List) error
	Delete(ownerID, listID string) error
}

type listRepository struct {
	db *sqlx.DB
}

func NewListRepository(db *sqlx.DB) ListRepository {
	return &listRepository{db: db}
}

func (r *listRepository) Create(list *model.List) error {
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	now := time.Now()
	if list.CreatedAt.IsZero() {
		list.CreatedAt = now
	}
	if list.UpdatedAt.IsZero() {
		list.UpdatedAt = now
	}

	query := `INSERT INTO lists (id, owner_id, slug, title, description, maps_list_url,
	              price_cents, currency, cover_image_url, hosted_mirror, published,
	              created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(query,
		list.ID,
		list.OwnerID,
		list.Slug,
		list.Title,
		list.Description,
		list.MapsListURL,
		list.PriceCents,
		list.Currency,
		list.CoverImageURL,
		list.HostedMirror,
		list.Published,
		list.CreatedAt,
		list.UpdatedAt,
	)
	return err
}

func (r *listRepository) ByID(id string) (*model.List, error) {
	list := &model.List{}
	query := `SELECT * FROM lists WHERE id = $1`

	err := r.db.Get(list, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrListNotFound
	}
	if err != nil {
		return nil, err
	}

	return list, nil
}

func (r *listRepository) BySlug(slug string) (*model.List, error) {
	list := &model.List{}
	query := `SELECT * FROM lists WHERE slug = $1`

	err := r.db.Get(list, query, slug)
	if err == sql.ErrNoRows {
		return nil, ErrListNotFound
	}
	if err != nil {
		return nil, err
	}

	return list, nil
}

func (r *listRepository) ByIDForOwner(ownerID, listID string) (*model.List, error) {
	list := &model.List{}
	query := `SELECT * FROM lists WHERE id = $1 AND owner_id = $2`

	err := r.db.Get(list, query, listID, ownerID)
	if err == sql.ErrNoRows {
		return nil, ErrListNotFound
	}
	if err != nil {
		return nil, err
	}

	return list, nil
}

func (r *listRepository) ByOwner(ownerID, filter string) ([]*model.List, error) {
	var lists []*model.List

	query := `SELECT * FROM lists WHERE owner_id = $1`
	switch filter {
	case ListFilterPublished:
		query += ` AND published = TRUE`
	case ListFilterDraft:
		query += ` AND published = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	err := r.db.Select(&lists, query, ownerID)
	if err != nil {
		return nil, err
	}

	return lists, nil
}

func (r *listRepository) SlugExists(slug string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM lists WHERE slug = $1`
	err := r.db.QueryRow(query, slug).Scan(&count)
	return count > 0, err
}

func (r *listRepository) Update(list *model.List) error {
	query := `UPDATE lists
	          SET title = $1, description = $2, maps_list_url = $3, price_cents = $4,
	              currency = $5, cover_image_url = $6, hosted_mirror = $7,
	              published = $8, updated_at = $9
	          WHERE id = $10 AND owner_id = $11`

	result, err := r.db.Exec(query,
		list.Title,
		list.Description,
		list.MapsListURL,
		list.PriceCents,
		list.Currency,
		list.CoverImageURL,
		list.HostedMirror,
		list.Published,
		time.Now(),
		list.ID,
		list.OwnerID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrListNotFound
	}

	return nil
}

func (r *listRepository) Delete(ownerID, listID string) error {
	query := `DELETE FROM lists WHERE id = $1 AND owner_id = $2`

	result, err := r.db.Exec(query, listID, ownerID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrListNotFound
	}

	return nil
}
