package controller

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"intern_certify_v1/mailer"
	"intern_certify_v1/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	resetCodeTTL     = 5 * time.Minute
	resetVerifiedTTL = 15 * time.Minute
	// verifiedMarker replaces the code once it has been verified.
	verifiedMarker = "VERIFIED"

	// PasswordResetEmailKey is the email template carrying the reset code.
	PasswordResetEmailKey = "password_reset"
)

// ResetCodeStore keeps pending reset codes by email.
type ResetCodeStore interface {
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, bool, error)
	Delete(ctx context.Context, email string) error
}

// MemoryResetCodes is a process-local ResetCodeStore.
type MemoryResetCodes struct {
	mu    sync.RWMutex
	now   func() time.Time
	codes map[string]resetCode
}

type resetCode struct {
	Code      string
	ExpiresAt time.Time
}

func NewMemoryResetCodes() *MemoryResetCodes {
	return &MemoryResetCodes{now: time.Now, codes: make(map[string]resetCode)}
}

func (m *MemoryResetCodes) Put(_ context.Context, email, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, v := range m.codes {
		if now.After(v.ExpiresAt) {
			delete(m.codes, k)
		}
	}
	m.codes[email] = resetCode{Code: code, ExpiresAt: now.Add(ttl)}
	return nil
}

func (m *MemoryResetCodes) Get(_ context.Context, email string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.codes[email]
	if !ok || m.now().After(data.ExpiresAt) {
		return "", false, nil
	}
	return data.Code, true, nil
}

func (m *MemoryResetCodes) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, email)
	return nil
}

// RedisResetCodes shares reset codes between instances.
type RedisResetCodes struct {
	client *redis.Client
}

func NewRedisResetCodes(client *redis.Client) *RedisResetCodes {
	return &RedisResetCodes{client: client}
}

func resetKey(email string) string { return "intern-certify:reset:" + email }

func (r *RedisResetCodes) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	return r.client.Set(ctx, resetKey(email), code, ttl).Err()
}

func (r *RedisResetCodes) Get(ctx context.Context, email string) (string, bool, error) {
	code, err := r.client.Get(ctx, resetKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}

func (r *RedisResetCodes) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, resetKey(email)).Err()
}

type Mailer interface {
	Send(ctx context.Context, n mailer.Notification) error
}

// PasswordResetHandler lets coordinators reset a forgotten password with a
// code sent to their email.
type PasswordResetHandler struct {
	coordinators CoordinatorStore
	codes        ResetCodeStore
	mailer       Mailer
}

// NewPasswordResetHandler accepts a nil mailer, in which case resets are
// refused with 503.
func NewPasswordResetHandler(coordinators CoordinatorStore, codes ResetCodeStore, m Mailer) *PasswordResetHandler {
	return &PasswordResetHandler{coordinators: coordinators, codes: codes, mailer: m}
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GenerateRandomCode creates a random 6-digit verification code
func GenerateRandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	if h.mailer == nil {
		return respond(c, fiber.StatusServiceUnavailable, "Email is not configured", nil)
	}

	coord, err := h.coordinators.FindByEmail(c.UserContext(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return respond(c, fiber.StatusNotFound, "Email not found", nil)
	} else if err != nil {
		return storeError(c, err, "")
	}

	code, err := GenerateRandomCode()
	if err != nil {
		return respond(c, fiber.StatusInternalServerError, "Error generating code", nil)
	}

	err = h.mailer.Send(c.UserContext(), mailer.Notification{
		To:          coord.Email,
		TemplateKey: PasswordResetEmailKey,
		Vars: map[string]any{
			"name":      coord.Name,
			"code":      code,
			"expiresIn": "5 minutes",
		},
	})
	if err != nil {
		log.Printf("[MAILER] reset code for %s: %v", coord.Email, err)
		return respond(c, fiber.StatusInternalServerError, "Error sending email", nil)
	}

	if err := h.codes.Put(c.UserContext(), coord.Email, code, resetCodeTTL); err != nil {
		log.Printf("[RESET] storing code for %s: %v", coord.Email, err)
		return respond(c, fiber.StatusInternalServerError, "Error storing code", nil)
	}
	return respond(c, fiber.StatusOK, "Verification code sent to your email", nil)
}

func (h *PasswordResetHandler) VerifyResetCode(c *fiber.Ctx) error {
	var req VerifyCodeRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	email := normalizeEmail(req.Email)

	stored, ok, err := h.codes.Get(c.UserContext(), email)
	if err != nil {
		log.Printf("[RESET] reading code for %s: %v", email, err)
		return respond(c, fiber.StatusInternalServerError, "Error reading code", nil)
	}
	if !ok || stored == verifiedMarker {
		return respond(c, fiber.StatusUnauthorized, "Code expired or not found", nil)
	}
	// a wrong guess burns the code
	if subtle.ConstantTimeCompare([]byte(stored), []byte(req.Code)) != 1 {
		if err := h.codes.Delete(c.UserContext(), email); err != nil {
			log.Printf("[RESET] clearing code for %s: %v", email, err)
		}
		return respond(c, fiber.StatusUnauthorized, "Incorrect code, request a new one", nil)
	}

	if err := h.codes.Put(c.UserContext(), email, verifiedMarker, resetVerifiedTTL); err != nil {
		return respond(c, fiber.StatusInternalServerError, "Error storing code", nil)
	}
	return respond(c, fiber.StatusOK, "Code verified. You may now reset your password.", nil)
}

func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	email := normalizeEmail(req.Email)

	stored, ok, err := h.codes.Get(c.UserContext(), email)
	if err != nil {
		return respond(c, fiber.StatusInternalServerError, "Error reading code", nil)
	}
	if !ok || stored != verifiedMarker {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized or session expired", nil)
	}

	coord, err := h.coordinators.FindByEmail(c.UserContext(), email)
	if err != nil {
		return storeError(c, err, "User not found")
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return respond(c, fiber.StatusInternalServerError, "Password encryption failed", nil)
	}
	if err := h.coordinators.SetPassword(c.UserContext(), coord.ID, hash); err != nil {
		return storeError(c, err, "User not found")
	}

	if err := h.codes.Delete(c.UserContext(), email); err != nil {
		log.Printf("[RESET] clearing code for %s: %v", email, err)
	}
	return respond(c, fiber.StatusOK, "Password successfully reset", nil)
}
