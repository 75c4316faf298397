package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/ticket-service/internal/access"
	"github.com/helpdesk-io/ticket-service/internal/domain"
	apperrors "github.com/helpdesk-io/ticket-service/pkg/util/errorutil"
)

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return guard(func(p *access.Principal) bool { return access.HasRole(p, allowed...) })
}

// RequireStaff admits responsibles and administrators.
func RequireStaff() fiber.Handler {
	return guard(access.CanWork)
}

// RequireAdmin admits administrators only.
func RequireAdmin() fiber.Handler {
	return guard(access.IsAdmin)
}

func guard(allow func(*access.Principal) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !allow(principal) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
