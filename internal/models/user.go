package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time // nil until the first update
}

// PublicUser is the user representation safe to return to clients.
// Timestamps are seconds since epoch.
type PublicUser struct {
	ID        uuid.UUID `json:"uuid"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt *int64    `json:"updated_at"`
}

func (u User) Public() PublicUser {
	pu := PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Unix(),
	}
	if u.UpdatedAt != nil {
		updated := u.UpdatedAt.Unix()
		pu.UpdatedAt = &updated
	}
	return pu
}
