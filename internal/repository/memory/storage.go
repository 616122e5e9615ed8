// Package memory keeps users in a map. It backs service and handler tests that don't need postgres.
package memory

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/usersvc/internal/apperrors"
	"github.com/nkiryanov/usersvc/internal/models"
	"github.com/nkiryanov/usersvc/internal/repository"
)

type Storage struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	users map[uuid.UUID]models.User
	calls atomic.Int64
}

func NewStorage() *Storage {
	return &Storage{users: make(map[uuid.UUID]models.User)}
}

// Calls returns how many repository methods were called so far
func (s *Storage) Calls() int64 {
	return s.calls.Load()
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{s: s}
}

// InTx runs fn exclusively with other transactions and restores the previous state if fn fails
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := maps.Clone(s.users)
	s.mu.Unlock()

	err := fn(s)
	if err != nil {
		s.mu.Lock()
		s.users = snapshot
		s.mu.Unlock()
	}

	return err
}

type UserRepo struct {
	s *Storage
}

func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	r.s.calls.Add(1)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id := params.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	if _, ok := r.s.users[id]; ok {
		return models.User{}, apperrors.ErrUserAlreadyExists
	}
	if _, ok := r.byEmail(params.Email); ok {
		return models.User{}, apperrors.ErrUserAlreadyExists
	}

	u := models.User{
		ID:             id,
		Email:          params.Email,
		HashedPassword: params.HashedPassword,
		FullName:       params.FullName,
		IsActive:       true,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	r.s.users[id] = u

	return u, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	r.s.calls.Add(1)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	r.s.calls.Add(1)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.byEmail(email)
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepo) UpdateUser(ctx context.Context, userID uuid.UUID, params repository.UpdateUserParams) (models.User, error) {
	r.s.calls.Add(1)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}

	if params.Email != nil {
		if other, ok := r.byEmail(*params.Email); ok && other.ID != userID {
			return models.User{}, apperrors.ErrUserAlreadyExists
		}
		u.Email = *params.Email
	}
	if params.HashedPassword != nil {
		u.HashedPassword = *params.HashedPassword
	}
	if params.FullName != nil {
		u.FullName = *params.FullName
	}
	if params.IsActive != nil {
		u.IsActive = *params.IsActive
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	u.UpdatedAt = &now

	r.s.users[userID] = u

	return u, nil
}

func (r *UserRepo) DeleteUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	r.s.calls.Add(1)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.users[userID]
	delete(r.s.users, userID)

	return ok, nil
}

// Must be called with the lock held
func (r *UserRepo) byEmail(email string) (models.User, bool) {
	for _, u := range r.s.users {
		if u.Email == email {
			return u, true
		}
	}
	return models.User{}, false
}
