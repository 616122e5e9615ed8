package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/usersvc/internal/handlers/render"
	"github.com/nkiryanov/usersvc/internal/handlers/userctx"
)

const (
	DetailMissingToken = "Missing or invalid access token"
	DetailInvalidToken = "Invalid or expired token"

	defaultInternalHeader      = "X-HTTP-PURPOSE"
	defaultInternalHeaderValue = "internal"

	bearerPrefix = "Bearer "
)

// Paths served without a token
var DefaultPublicPaths = []string{
	"/api/v1/auth/login",
	"/api/v1/auth/refresh-token",
	"/api/v1/auth/refresh_token",
	"/api/v1/auth/register",
	"/api/v1/auth/reset-password",
	"/docs",
	"/redoc",
	"/openapi.json",
}

type authService interface {
	// Return token subject
	// Must return error if token is not a valid access token
	Authenticate(ctx context.Context, access string) (uuid.UUID, error)
}

type AuthGateConfig struct {
	// Exact paths let through for any method. DefaultPublicPaths if nil
	PublicPaths []string

	// Requests carrying this header with this value skip authentication.
	// Nothing binds the header to a trusted caller, keep the service behind a gateway that strips it
	InternalHeader      string
	InternalHeaderValue string
}

// AuthGate lets the request through unauthenticated, rejects it with 401 or puts the token subject to the context.
type AuthGate struct {
	as                  authService
	publicPaths         map[string]struct{}
	internalHeader      string
	internalHeaderValue string
}

func NewAuthGate(cfg AuthGateConfig, as authService) *AuthGate {
	if cfg.PublicPaths == nil {
		cfg.PublicPaths = DefaultPublicPaths
	}
	if cfg.InternalHeader == "" {
		cfg.InternalHeader = defaultInternalHeader
	}
	if cfg.InternalHeaderValue == "" {
		cfg.InternalHeaderValue = defaultInternalHeaderValue
	}

	paths := make(map[string]struct{}, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		paths[p] = struct{}{}
	}

	return &AuthGate{
		as:                  as,
		publicPaths:         paths,
		internalHeader:      cfg.InternalHeader,
		internalHeaderValue: cfg.InternalHeaderValue,
	}
}

func (g *AuthGate) bypass(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}

	if r.Header.Get(g.internalHeader) == g.internalHeaderValue {
		return true
	}

	if _, ok := g.publicPaths[r.URL.Path]; ok {
		return true
	}

	return r.Method == http.MethodPost && r.URL.Path == "/auth"
}

func (g *AuthGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.bypass(r) {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := BearerToken(r)
		if !ok {
			render.Unauthorized(w, DetailMissingToken)
			return
		}

		userID, err := g.as.Authenticate(r.Context(), token)
		if err != nil {
			render.Unauthorized(w, DetailInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), userID)))
	})
}

// BearerToken extracts the token from 'Authorization: Bearer <token>'
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}

	return strings.TrimPrefix(header, bearerPrefix), true
}
