package tokenmanager

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/usersvc/internal/apperrors"
	"github.com/nkiryanov/usersvc/internal/models"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

// clock is a manually driven time source
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	newManager := func(t *testing.T, c *clock) *TokenManager {
		m, err := New(Config{
			SecretKey:  "test-secret-key",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 24 * time.Hour,
			Now:        c.Now,
		})
		require.NoError(t, err, "token manager should be created without errors")
		return m
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{SecretKey: "secret"})
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, []byte("secret"), m.key, "secret key should be set")
		require.Equal(t, DefaultAccessTTL, m.accessTTL, "default access token TTL should be set")
		require.Equal(t, DefaultRefreshTTL, m.refreshTTL, "default refresh token TTL")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
		require.NotNil(t, m.now, "default clock should be set")
	})

	t.Run("new fails without secret", func(t *testing.T) {
		_, err := New(Config{})

		require.Error(t, err)
	})

	t.Run("new fails on non hmac alg", func(t *testing.T) {
		for _, alg := range []string{"RS256", "none", "unknown"} {
			_, err := New(Config{SecretKey: "secret", Alg: alg})

			require.Error(t, err, "alg %s should be rejected", alg)
		}
	})

	t.Run("GeneratePair", func(t *testing.T) {
		t.Run("return token pair", func(t *testing.T) {
			c := &clock{now: mustParseTime("2025-03-01 10:00:00.700Z")}
			m := newManager(t, c)

			pair, err := m.GeneratePair(userID)

			require.NoError(t, err)
			assert.Equal(t, models.TokenTypeBearer, pair.TokenType)
			assert.NotEmpty(t, pair.Access.Value, "access token should not be empty")
			assert.Equal(t, mustParseTime("2025-03-01 10:15:00Z"), pair.Access.ExpiresAt)
			assert.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
			assert.Equal(t, mustParseTime("2025-03-02 10:00:00Z"), pair.Refresh.ExpiresAt)
			assert.NotEqual(t, pair.Access.Value, pair.Refresh.Value)
		})

		t.Run("tokens issued in the same second differ", func(t *testing.T) {
			c := &clock{now: mustParseTime("2025-03-01 10:00:00Z")}
			m := newManager(t, c)

			first, err := m.GeneratePair(userID)
			require.NoError(t, err)
			second, err := m.GeneratePair(userID)
			require.NoError(t, err)

			assert.NotEqual(t, first.Access.Value, second.Access.Value, "jti should make tokens unique")
			assert.NotEqual(t, first.Refresh.Value, second.Refresh.Value, "jti should make tokens unique")
		})
	})

	t.Run("Verify", func(t *testing.T) {
		t.Run("claims of issued token", func(t *testing.T) {
			c := &clock{now: mustParseTime("2025-03-01 10:00:00Z")}
			m := newManager(t, c)
			access, err := m.IssueAccess(userID)
			require.NoError(t, err)

			claims, err := m.Verify(access.Value)

			require.NoError(t, err)
			assert.Equal(t, userID.String(), claims.Subject)
			assert.Equal(t, KindAccess, claims.Kind)
			assert.Equal(t, c.now, claims.IssuedAt.Time.UTC())
			assert.Equal(t, access.ExpiresAt, claims.ExpiresAt.Time.UTC())
			assert.NotEmpty(t, claims.ID, "jti should be set")
		})

		t.Run("expired token always fails", func(t *testing.T) {
			c := &clock{now: mustParseTime("2025-03-01 10:00:00Z")}
			m := newManager(t, c)
			access, err := m.IssueAccess(userID)
			require.NoError(t, err)

			for _, after := range []time.Duration{15 * time.Minute, 15*time.Minute + time.Second, 48 * time.Hour} {
				c.now = mustParseTime("2025-03-01 10:00:00Z").Add(after)

				_, err := m.Verify(access.Value)

				require.ErrorIs(t, err, apperrors.ErrTokenInvalid, "token should be expired after %s", after)
			}
		})

		t.Run("valid right before expiration", func(t *testing.T) {
			c := &clock{now: mustParseTime("2025-03-01 10:00:00Z")}
			m := newManager(t, c)
			access, err := m.IssueAccess(userID)
			require.NoError(t, err)

			c.now = c.now.Add(15*time.Minute - time.Second)
			_, err = m.Verify(access.Value)

			require.NoError(t, err)
		})

		t.Run("signed with another secret", func(t *testing.T) {
			c := &clock{now: time.Now()}
			foreign, err := New(Config{SecretKey: "another-secret", Now: c.Now})
			require.NoError(t, err)
			access, err := foreign.IssueAccess(userID)
			require.NoError(t, err)

			_, err = newManager(t, c).Verify(access.Value)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("tampered token", func(t *testing.T) {
			c := &clock{now: time.Now()}
			m := newManager(t, c)
			access, err := m.IssueAccess(userID)
			require.NoError(t, err)

			tampered := []byte(access.Value)
			last := len(tampered) - 2
			if tampered[last] == 'A' {
				tampered[last] = 'B'
			} else {
				tampered[last] = 'A'
			}

			_, err = m.Verify(string(tampered))

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("unsigned token rejected", func(t *testing.T) {
			c := &clock{now: time.Now()}
			m := newManager(t, c)
			unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   userID.String(),
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
				Kind: KindAccess,
			}).SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)

			_, err = m.Verify(unsigned)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("token without expiration rejected", func(t *testing.T) {
			c := &clock{now: time.Now()}
			m := newManager(t, c)
			eternal, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
				Kind:             KindAccess,
			}).SignedString([]byte("test-secret-key"))
			require.NoError(t, err)

			_, err = m.Verify(eternal)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("garbage never panics", func(t *testing.T) {
			m := newManager(t, &clock{now: time.Now()})

			for _, token := range []string{"", "not-a-jwt", "a.b.c", "....."} {
				require.NotPanics(t, func() {
					_, err := m.Verify(token)
					require.ErrorIs(t, err, apperrors.ErrTokenInvalid, "token %q should be invalid", token)
				})
			}
		})
	})

	t.Run("ParseAccess and ParseRefresh", func(t *testing.T) {
		c := &clock{now: time.Now()}
		m := newManager(t, c)
		pair, err := m.GeneratePair(userID)
		require.NoError(t, err)

		t.Run("access ok", func(t *testing.T) {
			got, err := m.ParseAccess(pair.Access.Value)

			require.NoError(t, err)
			require.Equal(t, userID, got)
		})

		t.Run("refresh ok", func(t *testing.T) {
			got, err := m.ParseRefresh(pair.Refresh.Value)

			require.NoError(t, err)
			require.Equal(t, userID, got)
		})

		t.Run("refresh token is not an access token", func(t *testing.T) {
			_, err := m.ParseAccess(pair.Refresh.Value)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("access token is not a refresh token", func(t *testing.T) {
			_, err := m.ParseRefresh(pair.Access.Value)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("subject is not a uuid", func(t *testing.T) {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "42",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
				Kind: KindAccess,
			}).SignedString([]byte("test-secret-key"))
			require.NoError(t, err)

			_, err = m.ParseAccess(token)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})
	})
}
