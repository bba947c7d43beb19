package middleware

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"intern_certify_v1/model/response"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session roles.
const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
)

// CookieName is the cookie carrying the session token.
const CookieName = "jwt"

var (
	SecretKey      string
	SessionTTL     = 72 * time.Hour
	tokenBlacklist = make(map[string]time.Time)
	mu             sync.Mutex
)

// InitAuth sets the signing secret and session lifetime.
func InitAuth(secret string, ttl time.Duration) {
	SecretKey = secret
	if ttl > 0 {
		SessionTTL = ttl
	}
}

// GenerateJWT creates a JWT token for the given user ID and role
func GenerateJWT(userID uint, role string) (string, error) {
	if SecretKey == "" {
		return "", fmt.Errorf("session secret is not configured")
	}
	claims := jwt.MapClaims{
		"jti":     uuid.NewString(),
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(SessionTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(SecretKey))
}

// VerifyJWT parses and validates a JWT token
func VerifyJWT(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token is using the correct signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(SecretKey), nil
	})
}

// BlacklistToken invalidates a token until it would have expired anyway.
func BlacklistToken(token string) {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now()
	for t, exp := range tokenBlacklist {
		if now.After(exp) {
			delete(tokenBlacklist, t)
		}
	}
	tokenBlacklist[token] = now.Add(SessionTTL)
}

// IsTokenBlacklisted checks if the JWT is blacklisted
func IsTokenBlacklisted(token string) bool {
	mu.Lock()
	defer mu.Unlock()
	_, ok := tokenBlacklist[token]
	return ok
}

// SessionCookie builds the cookie that carries token.
func SessionCookie(token string, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(SessionTTL),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(response.ResponseModel{
		RetCode: "401",
		Message: message,
	})
}

// sessionToken reads the "jwt" cookie first and falls back to an
// "Authorization: Bearer <token>" header.
func sessionToken(c *fiber.Ctx) string {
	if token := strings.TrimSpace(c.Cookies(CookieName)); token != "" {
		return token
	}
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// JWTMiddleware checks the session token for a valid JWT of the given role and
// sets the user ID, role and raw token in context
func JWTMiddleware(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := sessionToken(c)

		if tokenString == "" {
			return unauthorized(c, "Unauthorized: No token provided")
		}

		if IsTokenBlacklisted(tokenString) {
			return unauthorized(c, "Unauthorized: Token has been invalidated")
		}

		token, err := VerifyJWT(tokenString)
		if err != nil || !token.Valid {
			return unauthorized(c, "Unauthorized: Invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c, "Unauthorized: Invalid token")
		}
		userID, ok := claims["user_id"].(float64)
		if !ok || userID <= 0 {
			return unauthorized(c, "Unauthorized: Invalid token")
		}
		if claimRole, _ := claims["role"].(string); claimRole != role {
			return c.Status(fiber.StatusForbidden).JSON(response.ResponseModel{
				RetCode: "403",
				Message: "Forbidden: insufficient role",
			})
		}

		c.Locals("user", uint(userID))
		c.Locals("role", role)
		c.Locals("token", tokenString)

		return c.Next()
	}
}

// CurrentUserID returns the authenticated user ID set by JWTMiddleware.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("user").(uint)
	return id
}
