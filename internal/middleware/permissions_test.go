package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/models"
)

func TestHasCapability(t *testing.T) {
	assert.True(t, HasCapability(models.RoleCustomer, CapRead))
	assert.False(t, HasCapability(models.RoleCustomer, CapWrite))
	assert.False(t, HasCapability(models.RoleCustomer, CapAdmin))

	assert.True(t, HasCapability(models.RoleSeller, CapRead))
	assert.True(t, HasCapability(models.RoleSeller, CapWrite))
	assert.False(t, HasCapability(models.RoleSeller, CapAdmin))

	assert.True(t, HasCapability(models.RoleAdmin, CapRead))
	assert.True(t, HasCapability(models.RoleAdmin, CapWrite))
	assert.True(t, HasCapability(models.RoleAdmin, CapAdmin))

	assert.False(t, HasCapability("", CapRead))
	assert.False(t, HasCapability("unknown", CapRead))
}

func TestRequireCapability(t *testing.T) {
	app := fiber.New()
	app.Get("/admin-only",
		func(c *fiber.Ctx) error {
			c.Locals(roleContextKey, c.Get("X-Test-Role"))
			return c.Next()
		},
		RequireCapability(CapAdmin),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
	)

	req := httptest.NewRequest("GET", "/admin-only", nil)
	req.Header.Set("X-Test-Role", models.RoleAdmin)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin-only", nil)
	req.Header.Set("X-Test-Role", models.RoleCustomer)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
