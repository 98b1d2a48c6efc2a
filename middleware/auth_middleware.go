package middleware

import (
	config "github.com/anjiri1684/etuition_backend/configs"
	"github.com/anjiri1684/etuition_backend/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

func Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(config.Config("JWT_SECRET")),
		ErrorHandler: jwtError,
	})
}

// Missing and invalid credentials are both 401; only role and
// ownership failures are 403.
func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

// Role gates only read the verified claims; ownership checks against
// loaded rows stay inside the handlers.
func roleRequired(role string, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Locals("user").(*jwt.Token)
		claims := token.Claims.(jwt.MapClaims)
		claimed, _ := claims["role"].(string)

		if claimed != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": message,
			})
		}
		return c.Next()
	}
}

func AdminRequired() fiber.Handler {
	return roleRequired(models.RoleAdmin, "Forbidden: Admin access required")
}

func StudentRequired() fiber.Handler {
	return roleRequired(models.RoleStudent, "Forbidden: Student access required")
}

func TutorRequired() fiber.Handler {
	return roleRequired(models.RoleTutor, "Forbidden: Tutor access required")
}

// TokenEmail returns the verified email claim for the current request.
func TokenEmail(c *fiber.Ctx) string {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	email, _ := claims["email"].(string)
	return email
}

// TokenRole returns the verified role claim for the current request.
func TokenRole(c *fiber.Ctx) string {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	role, _ := claims["role"].(string)
	return role
}

// TokenUserID returns the verified user id claim for the current request.
func TokenUserID(c *fiber.Ctx) string {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	id, _ := claims["user_id"].(string)
	return id
}
