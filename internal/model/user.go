package model

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors a record at the identity provider. Records are created and
// updated by webhook deliveries, never by direct API writes.
type User struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ExternalID string    `json:"external_id" db:"external_id"`
	Username   string    `json:"username" db:"username"`
	Email      string    `json:"email" db:"email"`
	ImageURL   string    `json:"image_url,omitempty" db:"image_url"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
