package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/ticket-service/internal/api/dto"
	"github.com/helpdesk-io/ticket-service/internal/auth"
	"github.com/helpdesk-io/ticket-service/internal/domain"
	"github.com/helpdesk-io/ticket-service/internal/repository"
	"github.com/helpdesk-io/ticket-service/internal/service"
	apperrors "github.com/helpdesk-io/ticket-service/pkg/util/errorutil"
)

// UsersHandler exposes auth and account endpoints.
type UsersHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService) *UsersHandler {
	return &UsersHandler{auth: authService, users: userService}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		RUT:      req.RUT,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authResponse(session)})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResponse(session)})
}

// EmailAvailability handles GET /auth/availability/email?email=.
func (h *UsersHandler) EmailAvailability(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	return c.JSON(fiber.Map{"data": dto.AvailabilityResponse{
		Value:     email,
		Available: h.users.EmailAvailable(c.UserContext(), email),
	}})
}

// RUTAvailability handles GET /auth/availability/rut?rut=.
func (h *UsersHandler) RUTAvailability(c *fiber.Ctx) error {
	rut := c.Query("rut")
	if rut == "" {
		return apperrors.NewValidationError("rut required", nil)
	}
	return c.JSON(fiber.Map{"data": dto.AvailabilityResponse{
		Value:     rut,
		Available: h.users.RUTAvailable(c.UserContext(), rut),
	}})
}

// Me handles GET /api/users/me from the account loaded by the auth middleware.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// GetUser handles GET /api/users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ListUsers handles GET /api/users?role=&department_id=&active=.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter := repository.UserFilter{
		ActiveOnly: c.QueryBool("active", false),
		Limit:      c.QueryInt("limit", 0),
		Offset:     c.QueryInt("offset", 0),
	}
	if raw := c.Query("role"); raw != "" {
		role, err := parseRole(raw, 0)
		if err != nil {
			return err
		}
		filter.Role = &role
	}
	if filter.DepartmentID, err = queryID(c, "department_id"); err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext(), p, filter)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateUser handles POST /api/users.
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	role, err := parseRole(req.Role, req.RoleID)
	if err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), p, service.CreateUserInput{
		Name:         req.Name,
		Email:        req.Email,
		RUT:          req.RUT,
		Password:     req.Password,
		Role:         role,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateUser handles PATCH /api/users/:id.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := service.UpdateUserInput{
		Name:         req.Name,
		DepartmentID: req.DepartmentID,
		Active:       req.Active,
		Password:     req.Password,
	}
	if req.Role != nil || req.RoleID != nil {
		var (
			name   string
			roleID int
		)
		if req.Role != nil {
			name = *req.Role
		}
		if req.RoleID != nil {
			roleID = *req.RoleID
		}
		role, err := parseRole(name, roleID)
		if err != nil {
			return err
		}
		input.Role = &role
	}
	user, err := h.users.Update(c.UserContext(), p, id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// parseRole accepts a numeric id or a role name.
func parseRole(name string, id int) (domain.Role, error) {
	if id != 0 {
		role := domain.Role(id)
		if !role.Valid() {
			return 0, apperrors.NewValidationError("unknown role", map[string]any{"role_id": id})
		}
		return role, nil
	}
	if n, err := strconv.Atoi(name); err == nil {
		return parseRole("", n)
	}
	role, err := domain.ParseRole(name)
	if err != nil {
		return 0, apperrors.NewValidationError("unknown role", map[string]any{"role": name})
	}
	return role, nil
}

func authResponse(s *service.Session) dto.AuthResponse {
	return dto.AuthResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, User: dto.NewUserResponse(s.User)}
}
