package staff

import (
	"time"

	"github.com/google/uuid"
)

// Doctor maps to the doctor table.
type Doctor struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	FullName    string      `db:"full_name" json:"full_name"`
	Email       *string     `db:"email" json:"email,omitempty"`
	Phone       *string     `db:"phone" json:"phone,omitempty"`
	Bio         *string     `db:"bio" json:"bio,omitempty"`
	PhotoID     *string     `db:"photo_id" json:"photo_id,omitempty"`
	IsActive    bool        `db:"is_active" json:"is_active"`
	Specialties []uuid.UUID `json:"specialties,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// Specialty maps to the specialty table.
type Specialty struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
