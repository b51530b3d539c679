package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/chamado-service/internal/domain"
	apperrors "github.com/spec-kit/chamado-service/pkg/util/errorutil"
)

// RequireStaff ensures the caller is a technician or an administrator.
func RequireStaff() fiber.Handler {
	return requireRole("technician or administrator role required", domain.RoleTechnician, domain.RoleAdmin)
}

// RequireAdmin ensures the caller is an administrator.
func RequireAdmin() fiber.Handler {
	return requireRole("administrator role required", domain.RoleAdmin)
}

func requireRole(message string, allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		caller, ok := CallerFromContext(c)
		if !ok {
			return apperrors.NewUnauthenticated("caller identity required")
		}
		if _, exists := allowedSet[caller.Role]; !exists {
			return apperrors.NewUnauthorized(message)
		}
		return c.Next()
	}
}
