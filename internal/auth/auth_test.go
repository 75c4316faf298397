package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/helpdesk-io/ticket-service/internal/domain"
	"github.com/helpdesk-io/ticket-service/internal/repository"
	apperrors "github.com/helpdesk-io/ticket-service/pkg/util/errorutil"
)

type stubUsers struct {
	repository.UserRepository
	byID map[int64]*domain.User
}

func (s stubUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

func newTestApp(tokens *TokenManager, users stubUsers, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		domainErr := apperrors.ToDomainError(err)
		return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
	}})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tokens, users).Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.SendString(principal.Role.String())
	})
	app.Get("/", handlers...)
	return app
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	token, exp, err := tm.GenerateToken(42, domain.RoleResponsible)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, domain.RoleResponsible, claims.Role)
}

func TestParseTokenRejectsExpiredAndForeignTokens(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	token, _, err := tm.GenerateToken(1, domain.RoleClient)
	require.NoError(t, err)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tm.ParseToken(token)
	assert.Error(t, err)

	other := NewTokenManager("other-secret", 60)
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRequiresIssuer(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	claims := &Claims{
		Role: domain.RoleAdministrator,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = tm.ParseToken(forged)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestHashPasswordClampsCost(t *testing.T) {
	hash, err := HashPassword("correct horse", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
	assert.NoError(t, ComparePassword(hash, "correct horse"))
	assert.Error(t, ComparePassword(hash, "wrong horse"))
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	users := stubUsers{byID: map[int64]*domain.User{
		1: {ID: 1, Role: domain.RoleAdministrator, Active: true},
		2: {ID: 2, Role: domain.RoleClient, Active: true},
		3: {ID: 3, Role: domain.RoleResponsible, Active: false},
	}}
	bearer := func(id int64, role domain.Role) string {
		token, _, err := tm.GenerateToken(id, role)
		require.NoError(t, err)
		return "Bearer " + token
	}

	tests := []struct {
		name   string
		header string
		guards []fiber.Handler
		status int
		body   string
	}{
		{name: "missing header", status: http.StatusUnauthorized, body: "UNAUTHORIZED"},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "unknown user", header: bearer(99, domain.RoleClient), status: http.StatusUnauthorized},
		{name: "disabled user", header: bearer(3, domain.RoleResponsible), status: http.StatusUnauthorized},
		{name: "role comes from store", header: bearer(2, domain.RoleAdministrator), status: http.StatusOK, body: "client"},
		{name: "staff guard rejects client", header: bearer(2, domain.RoleClient), guards: []fiber.Handler{RequireStaff()}, status: http.StatusForbidden},
		{name: "admin guard admits admin", header: bearer(1, domain.RoleAdministrator), guards: []fiber.Handler{RequireAdmin()}, status: http.StatusOK, body: "administrator"},
		{name: "admin guard rejects client", header: bearer(2, domain.RoleClient), guards: []fiber.Handler{RequireAdmin()}, status: http.StatusForbidden, body: "FORBIDDEN"},
		{name: "role guard admits listed role", header: bearer(2, domain.RoleClient), guards: []fiber.Handler{RequireRole(domain.RoleClient)}, status: http.StatusOK, body: "client"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(tm, users, tc.guards...)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.body != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, tc.body, string(body))
			}
		})
	}
}
