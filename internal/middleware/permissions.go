package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/models"
)

// Capability names what a request may do with a resource.
type Capability string

const (
	CapRead  Capability = "read"
	CapWrite Capability = "write"
	CapAdmin Capability = "admin"
)

// capabilities per role, evaluated per request. Roles do not inherit; each
// role lists its full set.
var roleCapabilities = map[string][]Capability{
	models.RoleCustomer: {CapRead},
	models.RoleSeller:   {CapRead, CapWrite},
	models.RoleAdmin:    {CapRead, CapWrite, CapAdmin},
}

// HasCapability reports whether a role grants the capability.
func HasCapability(role string, cap Capability) bool {
	for _, c := range roleCapabilities[role] {
		if c == cap {
			return true
		}
	}
	return false
}

// RequireCapability guards a route behind a capability check on the
// authenticated user's role. Must run after AuthMiddleware.
func RequireCapability(cap Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetCurrentUserRole(c)
		if !HasCapability(role, cap) {
			return fiber.NewError(fiber.StatusForbidden, "permission denied")
		}
		return c.Next()
	}
}
