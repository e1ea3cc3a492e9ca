package model

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Slug       string    `json:"slug" db:"slug"`
	Title      string    `json:"title" db:"title"`
	Desc       string    `json:"desc,omitempty" db:"description"`
	Category   string    `json:"category,omitempty" db:"category"`
	Content    string    `json:"content" db:"content"`
	ImageURL   string    `json:"img,omitempty" db:"image_url"`
	IsFeatured bool      `json:"is_featured" db:"is_featured"`

	// Visit only ever grows, and only through the store's atomic increment.
	Visit     int       `json:"visit" db:"visit"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
