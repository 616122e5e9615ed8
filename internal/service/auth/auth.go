package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nkiryanov/usersvc/internal/apperrors"
	"github.com/nkiryanov/usersvc/internal/events"
	"github.com/nkiryanov/usersvc/internal/logger"
	"github.com/nkiryanov/usersvc/internal/models"
	"github.com/nkiryanov/usersvc/internal/repository"
)

// Password set on reset and for users provisioned by other services.
// Kept for compatibility with existing clients, must be replaced by a real reset flow
const defaultPassword = "123456"

const tracerName = "github.com/nkiryanov/usersvc/internal/service/auth"

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) bool
}

// Interface to issue and parse tokens
type TokenManager interface {
	GeneratePair(userID uuid.UUID) (models.TokenPair, error)

	// Both must return apperrors.ErrTokenInvalid if token is not valid for any reason
	ParseAccess(token string) (uuid.UUID, error)
	ParseRefresh(token string) (uuid.UUID, error)
}

type Config struct {
	// Password set by ResetPassword and GetOrCreate
	// If not set than default is used
	DefaultPassword string

	// Hasher to use during user registration or login process
	// BcryptHasher if not set
	Hasher PasswordHasher

	// Where to send account lifecycle events. Events are dropped if not set
	Publisher events.Publisher

	// NoOp logger if not set
	Logger logger.Logger

	// Clock for event timestamps. time.Now if not set
	Now func() time.Time
}

// Auth service
type AuthService struct {
	// Manager to issue token pairs (access and refresh)
	tokenManager TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Storage to access long term data
	storage repository.Storage

	publisher       events.Publisher
	logger          logger.Logger
	tracer          trace.Tracer
	defaultPassword string
	now             func() time.Time
}

func NewService(cfg Config, tokenManager TokenManager, storage repository.Storage) (*AuthService, error) {
	if cfg.DefaultPassword == "" {
		cfg.DefaultPassword = defaultPassword
	}
	if cfg.Hasher == nil {
		cfg.Hasher = BcryptHasher{}
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.NoopPublisher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &AuthService{
		tokenManager:    tokenManager,
		hasher:          cfg.Hasher,
		storage:         storage,
		publisher:       cfg.Publisher,
		logger:          cfg.Logger,
		tracer:          otel.Tracer(tracerName),
		defaultPassword: cfg.DefaultPassword,
		now:             cfg.Now,
	}, nil
}

// Login verifies credentials and issues a new token pair.
// Unknown email and wrong password both give apperrors.ErrInvalidCredentials.
// Inactive user with correct password gives apperrors.ErrUserInactive
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	const op = "auth.login"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	user, err := s.storage.User().GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.TokenPair{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return models.TokenPair{}, s.unexpected(span, op, err)
	}

	if !s.hasher.Compare(user.HashedPassword, password) {
		return models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return models.TokenPair{}, apperrors.ErrUserInactive
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	pair, err := s.tokenManager.GeneratePair(user.ID)
	if err != nil {
		return pair, s.unexpected(span, op, err)
	}

	return pair, nil
}

// RefreshPair issues a new pair for the refresh token subject. Both tokens are rotated.
// The storage is not touched if the token is not valid
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	const op = "auth.refresh"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	userID, err := s.tokenManager.ParseRefresh(refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.storage.User().GetUserByID(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.TokenPair{}, err
	case err != nil:
		return models.TokenPair{}, s.unexpected(span, op, err)
	}

	pair, err := s.tokenManager.GeneratePair(user.ID)
	if err != nil {
		return pair, s.unexpected(span, op, err)
	}

	return pair, nil
}

// Authenticate returns the access token subject without touching the storage
func (s *AuthService) Authenticate(ctx context.Context, access string) (uuid.UUID, error) {
	return s.tokenManager.ParseAccess(access)
}

// CurrentUser returns the user the access token was issued to
func (s *AuthService) CurrentUser(ctx context.Context, access string) (models.User, error) {
	const op = "auth.current_user"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	userID, err := s.tokenManager.ParseAccess(access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.storage.User().GetUserByID(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return user, err
	case err != nil:
		return user, s.unexpected(span, op, err)
	}

	return user, nil
}

// UserByID returns the user authenticated earlier, e.g. by the auth gate
func (s *AuthService) UserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "auth.user_by_id"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	user, err := s.storage.User().GetUserByID(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return user, err
	case err != nil:
		return user, s.unexpected(span, op, err)
	}

	return user, nil
}

// Register creates a new active user.
// Taken email gives apperrors.ErrUserAlreadyExists, the unique index backs the pre-check
func (s *AuthService) Register(ctx context.Context, email string, password string, fullName string) (models.User, error) {
	const op = "auth.register"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	_, err := s.storage.User().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return models.User{}, apperrors.ErrUserAlreadyExists
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, s.unexpected(span, op, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, s.unexpected(span, op, fmt.Errorf("can't use this as password: %w", err))
	}

	user, err := s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Email:          email,
		HashedPassword: hash,
		FullName:       fullName,
	})
	switch {
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		return user, err
	case err != nil:
		return user, s.unexpected(span, op, err)
	}

	s.publish(ctx, events.TypeUserRegistered, user)

	return user, nil
}

// ResetPassword sets the default password for the user.
// Unknown email gives apperrors.ErrUserNotFound
func (s *AuthService) ResetPassword(ctx context.Context, email string) error {
	const op = "auth.reset_password"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	user, err := s.storage.User().GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return err
	case err != nil:
		return s.unexpected(span, op, err)
	}

	hash, err := s.hasher.Hash(s.defaultPassword)
	if err != nil {
		return s.unexpected(span, op, err)
	}

	user, err = s.storage.User().UpdateUser(ctx, user.ID, repository.UpdateUserParams{HashedPassword: &hash})
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return err
	case err != nil:
		return s.unexpected(span, op, err)
	}

	s.publish(ctx, events.TypePasswordReset, user)

	return nil
}

type GetOrCreateParams struct {
	ID       uuid.UUID
	Email    string
	FullName string
}

// GetOrCreate makes sure the user with the id exists. Reports whether the user was created.
// New users get the default password. Email taken by another user gives apperrors.ErrUserAlreadyExists
func (s *AuthService) GetOrCreate(ctx context.Context, params GetOrCreateParams) (bool, error) {
	const op = "auth.get_or_create"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	var created models.User
	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		_, err := storage.User().GetUserByID(ctx, params.ID)
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}

		hash, err := s.hasher.Hash(s.defaultPassword)
		if err != nil {
			return err
		}

		created, err = storage.User().CreateUser(ctx, repository.CreateUserParams{
			ID:             params.ID,
			Email:          params.Email,
			HashedPassword: hash,
			FullName:       params.FullName,
		})
		return err
	})
	if errors.Is(err, apperrors.ErrUserAlreadyExists) {
		// A concurrent call may have inserted the same id after our lookup
		return false, s.existingAfterConflict(ctx, span, op, params.ID, err)
	}
	if err != nil {
		return false, s.unexpected(span, op, err)
	}

	if created.ID == uuid.Nil {
		return false, nil
	}

	s.publish(ctx, events.TypeUserProvisioned, created)

	return true, nil
}

// existingAfterConflict returns nil if the user with the id is stored, so the conflict came from the same id.
// Otherwise the email belongs to another user and conflictErr is returned
func (s *AuthService) existingAfterConflict(ctx context.Context, span trace.Span, op string, userID uuid.UUID, conflictErr error) error {
	_, err := s.storage.User().GetUserByID(ctx, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrUserNotFound):
		return conflictErr
	default:
		return s.unexpected(span, op, err)
	}
}

// Publication failures are logged only, the account change is already stored
func (s *AuthService) publish(ctx context.Context, eventType string, user models.User) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("event not published", "type", eventType, "user_id", user.ID, "error", err)
	}
}

func (s *AuthService) unexpected(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error("unexpected error", "op", op, "error", err)

	return fmt.Errorf("%s: %w", op, err)
}
