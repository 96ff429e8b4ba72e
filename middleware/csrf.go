package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// CSRFSessionKey is where the session keeps its CSRF token.
const CSRFSessionKey = "csrf_token"

// CSRFHeader carries the token on state-changing requests.
const CSRFHeader = "X-CSRF-Token"

func GenerateCSRFToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// NewCSRFMiddleware compares the X-CSRF-Token header with the token stored
// in the session for every method except GET, HEAD and OPTIONS.
func NewCSRFMiddleware(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Session error"})
		}

		storedToken, _ := sess.Get(CSRFSessionKey).(string)
		if storedToken == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "CSRF token not found in session"})
		}

		clientToken := c.Get(CSRFHeader)
		if clientToken == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "CSRF token missing from request header"})
		}

		if subtle.ConstantTimeCompare([]byte(clientToken), []byte(storedToken)) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "CSRF token mismatch"})
		}

		return c.Next()
	}
}
