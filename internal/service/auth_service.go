package service

import (
	"context"
	"time"

	"github.com/helpdesk-io/ticket-service/internal/auth"
	"github.com/helpdesk-io/ticket-service/internal/domain"
	"github.com/helpdesk-io/ticket-service/internal/repository"
	apperrors "github.com/helpdesk-io/ticket-service/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users    repository.UserRepository
	accounts *UserService
	tokenMgr *auth.TokenManager
}

// RegisterInput describes a self-service sign-up. Registered accounts are always clients.
type RegisterInput struct {
	Name     string
	Email    string
	RUT      string
	Password string
}

// Session is an issued access token.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(users repository.UserRepository, accounts *UserService, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, accounts: accounts, tokenMgr: tokens}
}

// Register creates a client account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	user, err := s.accounts.create(ctx, CreateUserInput{
		Name:     input.Name,
		Email:    input.Email,
		RUT:      input.RUT,
		Password: input.Password,
		Role:     domain.RoleClient,
	})
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}
