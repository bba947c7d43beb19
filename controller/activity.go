package controller

import (
	"intern_certify_v1/middleware"
	"intern_certify_v1/repository"

	"github.com/gofiber/fiber/v2"
)

type ActivityHandler struct {
	activity ActivityStore
}

func NewActivityHandler(activity ActivityStore) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// Mine lists the calling coordinator's own activity.
func (h *ActivityHandler) Mine(c *fiber.Ctx) error {
	return h.list(c, middleware.CurrentUserID(c))
}

// All lists every coordinator's activity, optionally narrowed by ?coordinatorId.
func (h *ActivityHandler) All(c *fiber.Ctx) error {
	coordinatorID := c.QueryInt("coordinatorId")
	if coordinatorID < 0 {
		return respond(c, fiber.StatusBadRequest, "Invalid coordinatorId", nil)
	}
	return h.list(c, uint(coordinatorID))
}

func (h *ActivityHandler) list(c *fiber.Ctx, coordinatorID uint) error {
	filter := repository.ActivityFilter{
		CoordinatorID: coordinatorID,
		Limit:         c.QueryInt("limit"),
		Offset:        c.QueryInt("offset"),
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	logs, total, err := h.activity.List(c.UserContext(), filter)
	if err != nil {
		return storeError(c, err, "")
	}
	return respond(c, fiber.StatusOK, "Activity logs retrieved", fiber.Map{
		"logs":  logs,
		"total": total,
	})
}
