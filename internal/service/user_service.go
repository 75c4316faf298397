package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/helpdesk-io/ticket-service/internal/access"
	"github.com/helpdesk-io/ticket-service/internal/auth"
	"github.com/helpdesk-io/ticket-service/internal/domain"
	"github.com/helpdesk-io/ticket-service/internal/repository"
	apperrors "github.com/helpdesk-io/ticket-service/pkg/util/errorutil"
)

const passwordMinLength = 8

// UserService manages accounts of every role.
type UserService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	bcryptCost  int
	logger      *zap.Logger
}

// UserDependencies bundles collaborators for user management.
type UserDependencies struct {
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	BcryptCost     int
	Logger         *zap.Logger
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Name         string
	Email        string
	RUT          string
	Password     string
	Role         domain.Role
	DepartmentID *int64
}

// UpdateUserInput carries an administrative edit. Nil fields are left untouched.
type UpdateUserInput struct {
	Name         *string
	Role         *domain.Role
	DepartmentID *int64
	Active       *bool
	Password     *string
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		bcryptCost:  deps.BcryptCost,
		logger:      logger,
	}
}

// Get returns a user. Non-administrators may only read themselves.
func (s *UserService) Get(ctx context.Context, principal *access.Principal, id int64) (*domain.User, error) {
	if principal != nil && !access.IsAdmin(principal) && principal.UserID != id {
		return nil, apperrors.NewForbidden("access denied")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, err
	}
	return user, nil
}

// List returns users matching filter. Administrators only.
func (s *UserService) List(ctx context.Context, principal *access.Principal, filter repository.UserFilter) ([]domain.User, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	return s.users.List(ctx, filter)
}

// Create registers an account with any role. Administrators only.
func (s *UserService) Create(ctx context.Context, principal *access.Principal, input CreateUserInput) (*domain.User, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	return s.create(ctx, input)
}

// Update edits an account. Administrators only; an administrator may not
// demote or deactivate their own account.
func (s *UserService) Update(ctx context.Context, principal *access.Principal, id int64, input UpdateUserInput) (*domain.User, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if principal != nil && principal.UserID == id {
		if (input.Role != nil && *input.Role != user.Role) || (input.Active != nil && !*input.Active) {
			return nil, apperrors.NewInvalidOperation("administrators cannot demote or deactivate themselves", map[string]any{"user_id": id})
		}
	}

	details := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name == "" {
			details["name"] = "required"
		} else {
			user.Name = name
		}
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			details["role_id"] = "unknown role"
		} else {
			user.Role = *input.Role
		}
	}
	if input.Password != nil && len(*input.Password) < passwordMinLength {
		details["password"] = "must be at least 8 characters"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid user", details)
	}

	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			if apperrors.IsNoRows(err) {
				return nil, apperrors.NewInvalidReference("department", *input.DepartmentID)
			}
			return nil, err
		}
		user.DepartmentID = input.DepartmentID
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, err
	}
	s.logger.Info("user updated", zap.Int64("user_id", id), zap.Int64p("by", actorID(principal)))
	return user, nil
}

// EmailAvailable reports whether email is free. Lookup failures report false.
func (s *UserService) EmailAvailable(ctx context.Context, email string) bool {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return false
	}
	_, err := s.users.GetByEmail(ctx, email)
	return s.availableFrom(err, "email")
}

// RUTAvailable reports whether a RUT is well formed and free. Lookup failures report false.
func (s *UserService) RUTAvailable(ctx context.Context, rut string) bool {
	normalized, err := domain.NormalizeRUT(rut)
	if err != nil {
		return false
	}
	_, err = s.users.GetByRUT(ctx, normalized)
	return s.availableFrom(err, "rut")
}

func (s *UserService) availableFrom(err error, field string) bool {
	if err == nil {
		return false
	}
	if apperrors.IsNoRows(err) {
		return true
	}
	s.logger.Warn("availability lookup failed", zap.String("field", field), zap.Error(err))
	return false
}

func (s *UserService) create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	user, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, user.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
	} else if !apperrors.IsNoRows(err) {
		return nil, err
	}
	if user.RUT != nil {
		if _, err := s.users.GetByRUT(ctx, *user.RUT); err == nil {
			return nil, apperrors.NewConflict("rut already registered", map[string]any{"rut": *user.RUT})
		} else if !apperrors.IsNoRows(err) {
			return nil, err
		}
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email or rut already registered", nil)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) validate(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	details := map[string]any{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		details["name"] = "required"
	}
	email := normalizeEmail(input.Email)
	if !validEmail(email) {
		details["email"] = "invalid email"
	}
	var rut *string
	if strings.TrimSpace(input.RUT) != "" {
		normalized, err := domain.NormalizeRUT(input.RUT)
		if err != nil {
			details["rut"] = "invalid rut"
		} else {
			rut = &normalized
		}
	}
	if len(input.Password) < passwordMinLength {
		details["password"] = "must be at least 8 characters"
	}
	if !input.Role.Valid() {
		details["role_id"] = "unknown role"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid user", details)
	}

	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			if apperrors.IsNoRows(err) {
				return nil, apperrors.NewInvalidReference("department", *input.DepartmentID)
			}
			return nil, err
		}
	}
	return &domain.User{
		Name:         name,
		Email:        email,
		RUT:          rut,
		Role:         input.Role,
		DepartmentID: input.DepartmentID,
		Active:       true,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
