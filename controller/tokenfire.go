package controller

import (
	"log"

	"intern_certify_v1/middleware"

	"github.com/gofiber/fiber/v2"
)

// SaveFCMToken stores the device token certificate push notifications are
// sent to.
func (h *AuthHandler) SaveFCMToken(c *fiber.Ctx) error {
	var req FCMTokenRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	id := middleware.CurrentUserID(c)
	if err := h.coordinators.SetFCMToken(c.UserContext(), id, req.Token); err != nil {
		return storeError(c, err, "Coordinator not found")
	}
	log.Printf("[PUSH] registered device token for coordinator %d", id)
	return respond(c, fiber.StatusOK, "Token saved successfully", nil)
}
