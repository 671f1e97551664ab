package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/aulavid/aulavid-api/internal/utils"
)

// Roles carried in session tokens.
const (
	RoleProfessor = "professor"
	RoleStudent   = "student"
)

// SessionClaims is the claim set issued for both identity domains. Student
// tokens additionally carry the code and the bound device identifier;
// allowed subjects are absent on purpose; scope is re-derived from the
// store on every access-sensitive read.
type SessionClaims struct {
	Role     string `json:"role"`
	Code     string `json:"code,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for the given identity.
func IssueToken(secret string, subjectID uint, role, code, deviceID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Role:     role,
		Code:     code,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", subjectID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates a session token and returns its claims.
func ParseToken(secret, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// JWTProtected returns a middleware that validates bearer tokens and binds
// the session identity into request locals.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, err := ParseToken(secret, tokenString)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		var userID uint
		if _, scanErr := fmt.Sscanf(claims.Subject, "%d", &userID); scanErr != nil || userID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token subject")
		}

		c.Locals("user_id", userID)
		c.Locals("user_role", strings.ToLower(strings.TrimSpace(claims.Role)))
		if claims.Code != "" {
			c.Locals("student_code", claims.Code)
		}
		if claims.DeviceID != "" {
			c.Locals("device_id", claims.DeviceID)
		}

		return c.Next()
	}
}

// RequireRole guards a route group for one role.
func RequireRole(role string) fiber.Handler {
	role = strings.ToLower(strings.TrimSpace(role))
	return func(c *fiber.Ctx) error {
		current, _ := c.Locals("user_role").(string)
		if current != role {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
