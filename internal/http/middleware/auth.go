package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/model"
)

const (
	// ActorLocalKey is the key used to store the resolved actor in Fiber's context locals.
	ActorLocalKey = "actor"
)

// actorClaims is the shape of the token issued by the external auth service:
// subject carries the user identity, role the privilege tag.
type actorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth verifies the bearer token issued by the external authentication
// service and stores the resolved actor in context locals. The vault itself
// never checks credentials or issues tokens; it trusts the token's claims.
//
// Requests without a valid token are rejected with 401 before reaching any
// handler.
func Auth(secret string) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims := &actorClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		if claims.Subject == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(ActorLocalKey, model.Actor{
			ID:   claims.Subject,
			Role: model.ParseRole(claims.Role),
		})

		return c.Next()
	}
}

// ActorFromCtx extracts the actor previously stored by Auth.
func ActorFromCtx(c *fiber.Ctx) (model.Actor, bool) {
	actor, ok := c.Locals(ActorLocalKey).(model.Actor)
	return actor, ok
}
