package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"gigmarket_backend/internal/models"
	"gigmarket_backend/internal/store"
)

// RequireAdmin re-fetches the user's current role instead of trusting the
// role claim baked into a possibly stale token. Runs after AttachJWTLocals.
func RequireAdmin(users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := c.Locals("userId").(string)
		if !ok || uid == "" {
			return fiber.ErrUnauthorized
		}
		userUUID, err := uuid.Parse(uid)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		user, err := users.Get(c.Context(), userUUID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Server error during token verification.",
			})
		}
		if user == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "User not found",
			})
		}
		if user.Role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Access denied. Admin privileges required.",
			})
		}

		c.Locals("adminUser", user)
		return c.Next()
	}
}
