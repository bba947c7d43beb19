package controller

import (
	"context"
	"errors"
	"time"

	"intern_certify_v1/middleware"
	"intern_certify_v1/model"
	"intern_certify_v1/repository"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type CoordinatorStore interface {
	Create(ctx context.Context, c *model.Coordinator) error
	FindByID(ctx context.Context, id uint) (*model.Coordinator, error)
	FindByEmail(ctx context.Context, email string) (*model.Coordinator, error)
	List(ctx context.Context) ([]model.Coordinator, error)
	Update(ctx context.Context, id uint, columns map[string]any) error
	Delete(ctx context.Context, id uint) error
	TouchLogin(ctx context.Context, id uint, at time.Time) error
	SetPassword(ctx context.Context, id uint, hash string) error
	SetFCMToken(ctx context.Context, id uint, token string) error
}

type AdminStore interface {
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
}

// AuthHandler serves login, logout and account endpoints for both roles.
type AuthHandler struct {
	coordinators CoordinatorStore
	admins       AdminStore
	secureCookie bool
}

func NewAuthHandler(coordinators CoordinatorStore, admins AdminStore, secureCookie bool) *AuthHandler {
	return &AuthHandler{coordinators: coordinators, admins: admins, secureCookie: secureCookie}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type FCMTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *AuthHandler) CoordinatorLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	coord, err := h.coordinators.FindByEmail(c.UserContext(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return respond(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	} else if err != nil {
		return storeError(c, err, "")
	}

	// Check password
	if err := bcrypt.CompareHashAndPassword([]byte(coord.Password), []byte(req.Password)); err != nil {
		return respond(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	}
	if !coord.IsActive {
		return respond(c, fiber.StatusForbidden, "Account is inactive", nil)
	}

	token, err := middleware.GenerateJWT(coord.ID, middleware.RoleCoordinator)
	if err != nil {
		return respond(c, fiber.StatusInternalServerError, "Error generating token", nil)
	}

	loginAt := time.Now()
	if err := h.coordinators.TouchLogin(c.UserContext(), coord.ID, loginAt); err != nil {
		return storeError(c, err, "")
	}
	coord.LastLoginAt = &loginAt

	c.Cookie(middleware.SessionCookie(token, h.secureCookie))
	return respond(c, fiber.StatusOK, "Login successful", fiber.Map{
		"token":       token,
		"coordinator": coord,
	})
}

func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	admin, err := h.admins.FindByEmail(c.UserContext(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return respond(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	} else if err != nil {
		return storeError(c, err, "")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		return respond(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	}

	token, err := middleware.GenerateJWT(admin.ID, middleware.RoleAdmin)
	if err != nil {
		return respond(c, fiber.StatusInternalServerError, "Error generating token", nil)
	}

	c.Cookie(middleware.SessionCookie(token, h.secureCookie))
	return respond(c, fiber.StatusOK, "Admin login successful", fiber.Map{
		"token": token,
		"admin": admin,
	})
}

// Logout blacklists the current token and clears the cookie. It serves both
// roles.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if token, ok := c.Locals("token").(string); ok && token != "" {
		middleware.BlacklistToken(token)
	}
	c.Cookie(middleware.ClearSessionCookie(h.secureCookie))
	return respond(c, fiber.StatusOK, "Logout successful", nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	coord, err := h.coordinators.FindByID(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return storeError(c, err, "Coordinator not found")
	}
	return respond(c, fiber.StatusOK, "Coordinator retrieved", coord)
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	id := middleware.CurrentUserID(c)
	coord, err := h.coordinators.FindByID(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Coordinator not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(coord.Password), []byte(req.CurrentPassword)); err != nil {
		return respond(c, fiber.StatusUnauthorized, "Current password is incorrect", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return respond(c, fiber.StatusInternalServerError, "Error hashing password", nil)
	}
	if err := h.coordinators.SetPassword(c.UserContext(), id, string(hash)); err != nil {
		return storeError(c, err, "Coordinator not found")
	}
	return respond(c, fiber.StatusOK, "Password changed", nil)
}

// RequirePasswordChanged blocks coordinators that still carry the password
// an admin assigned them, and coordinators deactivated mid-session.
func (h *AuthHandler) RequirePasswordChanged() fiber.Handler {
	return func(c *fiber.Ctx) error {
		coord, err := h.coordinators.FindByID(c.UserContext(), middleware.CurrentUserID(c))
		if errors.Is(err, repository.ErrNotFound) {
			return respond(c, fiber.StatusUnauthorized, "Unauthorized: account no longer exists", nil)
		} else if err != nil {
			return storeError(c, err, "")
		}
		if !coord.IsActive {
			return respond(c, fiber.StatusForbidden, "Account is inactive", nil)
		}
		if coord.MustChangePassword {
			return respond(c, fiber.StatusForbidden, "Password change required", nil)
		}
		return c.Next()
	}
}
