package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the PostgreSQL account record. Password hashes never leave the
// handlers layer.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"-"`
}
