package tokens

import (
	"github.com/gofiber/fiber/v2"
)

// Fiber-native accessors for handlers written against *fiber.Ctx instead of
// the router abstraction. The authorization gate stores its results in
// request locals, which fiber exposes unchanged.

// GetFiberClaims reads the validated claims the gate stored under key.
// Pass the configured context key, or an empty string for the default.
func GetFiberClaims(c *fiber.Ctx, key string) (AuthClaims, error) {
	if key == "" {
		key = "user"
	}

	v := c.Locals(key)
	if v == nil {
		return nil, ErrUnauthenticated
	}

	claims, ok := v.(AuthClaims)
	if !ok {
		return nil, ErrUnauthenticated
	}

	return claims, nil
}

// GetFiberUser reads the resolved user record the gate stored for the
// current request.
func GetFiberUser(c *fiber.Ctx) (*User, error) {
	user, ok := c.Locals("auth_user").(*User)
	if !ok || user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// GetFiberToken reads the raw access token for the current request, for
// handlers that forward it to downstream services.
func GetFiberToken(c *fiber.Ctx) (string, error) {
	token, ok := c.Locals("jwt_token").(string)
	if !ok || token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}
