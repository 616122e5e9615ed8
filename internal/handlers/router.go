package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/usersvc/internal/handlers/middleware"
	"github.com/nkiryanov/usersvc/internal/logger"
	"github.com/nkiryanov/usersvc/internal/models"
	"github.com/nkiryanov/usersvc/internal/service/auth"
)

const apiPrefix = "/api/v1/auth"

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	Gate middleware.AuthGateConfig
	CORS middleware.CORSConfig
}

func NewRouter(
	cfg RouterConfig,
	authService authService,
	health healthChecker,
	logger logger.Logger,
) http.Handler {
	api := http.NewServeMux()

	api.Handle("POST /login", handleLogin(authService, logger))
	api.Handle("POST /refresh-token", handleTokenRefresh(authService, logger))
	api.Handle("POST /refresh_token", handleTokenRefresh(authService, logger))
	api.Handle("POST /logout", handleLogout())
	api.Handle("GET /me", handleUserMe(authService, logger))
	api.Handle("POST /reset-password", handleResetPassword(authService, logger))
	api.Handle("POST /register", handleRegister(authService, logger))

	root := http.NewServeMux()
	root.Handle(apiPrefix+"/", http.StripPrefix(apiPrefix, api))
	root.Handle("PATCH /internal/users_services/get_or_create_user", handleGetOrCreateUser(authService, logger))

	root.Handle("GET /openapi.json", handleOpenAPI())
	root.Handle("GET /docs", handleDocs(swaggerPage))
	root.Handle("GET /redoc", handleDocs(redocPage))
	root.Handle("GET /healthz", handleHealth(health, logger))

	handler := chain(root,
		middleware.Recoverer(logger),
		middleware.LoggerMiddleware(logger),
		middleware.CORS(cfg.CORS),
		middleware.NewAuthGate(cfg.Gate, authService).Handler,
	)

	return handler
}

type authService interface {
	// Login user with email and password
	// Has to return apperrors.ErrInvalidCredentials if user not found or password is wrong
	// Has to return apperrors.ErrUserInactive if user is not active
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Refresh tokens using refresh token
	// Has to return apperrors.ErrTokenInvalid if token is not valid
	// Has to return apperrors.ErrUserNotFound if token subject not exists anymore
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Return access token subject. Used by the auth gate
	Authenticate(ctx context.Context, access string) (uuid.UUID, error)

	// Return user the access token issued to
	CurrentUser(ctx context.Context, access string) (models.User, error)

	// Has to return apperrors.ErrUserNotFound if user not exists anymore
	UserByID(ctx context.Context, userID uuid.UUID) (models.User, error)

	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Register(ctx context.Context, email string, password string, fullName string) (models.User, error)

	// Has to return apperrors.ErrUserNotFound if email is unknown
	ResetPassword(ctx context.Context, email string) error

	GetOrCreate(ctx context.Context, params auth.GetOrCreateParams) (bool, error)
}

type healthChecker interface {
	Ping(ctx context.Context) error
}
