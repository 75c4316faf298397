package dto

import (
	"time"

	"github.com/helpdesk-io/ticket-service/internal/domain"
)

// UserRegisterRequest payload for self-service sign-up.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	RUT      string `json:"rut"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUserRequest payload for administrators. Role accepts an id or a name.
type CreateUserRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	RUT          string `json:"rut"`
	Password     string `json:"password"`
	RoleID       int    `json:"role_id"`
	Role         string `json:"role"`
	DepartmentID *int64 `json:"department_id"`
}

// UpdateUserRequest is an administrative patch. Role accepts an id or a name.
type UpdateUserRequest struct {
	Name         *string `json:"name"`
	RoleID       *int    `json:"role_id"`
	Role         *string `json:"role"`
	DepartmentID *int64  `json:"department_id"`
	Active       *bool   `json:"active"`
	Password     *string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// AvailabilityResponse answers email and RUT availability checks.
type AvailabilityResponse struct {
	Value     string `json:"value"`
	Available bool   `json:"available"`
}

// UserResponse represents an account without credentials.
type UserResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RUT          *string   `json:"rut"`
	RoleID       int       `json:"role_id"`
	Role         string    `json:"role"`
	DepartmentID *int64    `json:"department_id"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUserResponse maps a user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		RUT:          u.RUT,
		RoleID:       int(u.Role),
		Role:         u.Role.String(),
		DepartmentID: u.DepartmentID,
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
	}
}
