package model

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	PostID    uuid.UUID `json:"post_id" db:"post_id"`
	Desc      string    `json:"desc" db:"description"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Author is joined in on reads; it is not a comments column.
	Author string `json:"author,omitempty" db:"-"`
}
