package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"gigmarket_backend/internal/utils"
)

// JWTBearer authenticates the Authorization: Bearer <token> header and
// stashes the verified claims for downstream handlers.
func JWTBearer(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "No token provided. Authorization required.",
			})
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token. Authorization required.",
			})
		}

		c.Locals("claims", claims)
		return c.Next()
	}
}
