package rest

import (
	"github.com/begrat/storefront-backend/internal/application/dto"
	"github.com/begrat/storefront-backend/internal/application/query"
	"github.com/gofiber/fiber/v2"
)

const ResolutionKey = "tenantResolution"

// TenantMiddleware resolves the Host header on every request and stores
// the outcome for the storefront routing layer. It never fails the
// request; an unresolvable host just carries an Unresolved resolution.
func TenantMiddleware(resolver *query.ResolveTenant) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resolution := resolver.Query(c.UserContext(), c.Hostname(), c.Path())
		c.Locals(ResolutionKey, resolution)
		return c.Next()
	}
}

// ResolutionFromCtx is what downstream handlers use to pick the tenant
// whose content to serve.
func ResolutionFromCtx(c *fiber.Ctx) dto.Resolution {
	if resolution, ok := c.Locals(ResolutionKey).(dto.Resolution); ok {
		return resolution
	}
	return dto.Resolution{Kind: dto.Unresolved}
}
