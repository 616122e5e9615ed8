package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/usersvc/internal/models"
)

type CreateUserParams struct {
	// ID is optional. A new random id is used when it is uuid.Nil
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
}

// UpdateUserParams carries a partial update: nil fields are left untouched
type UpdateUserParams struct {
	Email          *string
	HashedPassword *string
	FullName       *string
	IsActive       *bool
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the email exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Update user fields and set 'updated_at'
	// If user not found must return apperrors.ErrUserNotFound
	// If the new email is taken must return apperrors.ErrUserAlreadyExists
	UpdateUser(ctx context.Context, userID uuid.UUID, params UpdateUserParams) (models.User, error)

	// Delete user. Reports whether the user existed
	DeleteUser(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Storage interface {
	User() UserRepo

	// Run fn in a transaction. Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
