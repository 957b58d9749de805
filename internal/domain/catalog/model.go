package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Product is a pharmacy catalog item. Prices are stored in cents to keep the
// arithmetic exact.
type Product struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	PriceCents  int64     `db:"price_cents" json:"price_cents"`
	Stock       int       `db:"stock" json:"stock"`
	ImageID     *string   `db:"image_id" json:"image_id,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
