package model

import (
	"time"
)

type List struct {
	ID            string    `db:"id"`
	OwnerID       string    `db:"owner_id"`
	Slug          string    `db:"slug"`
	Title         string    `db:"title"`
	Description   string    `db:"description"`
	MapsListURL   string    `db:"maps_list_url"`
	PriceCents    int       `db:"price_cents"`
	Currency      string    `db:"currency"`
	CoverImageURL *string   `db:"cover_image_url"`
	HostedMirror  bool      `db:"hosted_mirror"`
	Published     bool      `db:"published"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
