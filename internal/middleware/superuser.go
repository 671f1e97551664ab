package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aulavid/aulavid-api/internal/utils"
)

// SuperuserProtected gates account-provisioning routes behind a static
// bearer token. Comparison is constant-time; an unconfigured token disables
// the routes entirely rather than leaving them open.
func SuperuserProtected(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return utils.SendError(c, fiber.StatusForbidden, "superuser access disabled")
		}

		authorization := c.Get("Authorization")
		const bearer = "Bearer "
		if !strings.HasPrefix(authorization, bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		presented := strings.TrimSpace(authorization[len(bearer):])
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		return c.Next()
	}
}
