package controller

import (
	"intern_certify_v1/model"
	"intern_certify_v1/repository"

	"github.com/gofiber/fiber/v2"
)

// AdminInternHandler gives admins a read-only view across coordinators.
type AdminInternHandler struct {
	interns InternStore
}

func NewAdminInternHandler(interns InternStore) *AdminInternHandler {
	return &AdminInternHandler{interns: interns}
}

// filter reads ?status and ?coordinatorId. ok is false once a 400 has been
// written.
func (h *AdminInternHandler) filter(c *fiber.Ctx) (repository.InternFilter, bool, error) {
	status := c.Query("status")
	switch status {
	case "", model.InternActive, model.InternCompleted, model.InternTerminated:
	default:
		return repository.InternFilter{}, false, respond(c, fiber.StatusBadRequest, "Invalid status", nil)
	}
	coordinatorID := c.QueryInt("coordinatorId")
	if coordinatorID < 0 {
		return repository.InternFilter{}, false, respond(c, fiber.StatusBadRequest, "Invalid coordinatorId", nil)
	}
	return repository.InternFilter{Status: status, CoordinatorID: uint(coordinatorID)}, true, nil
}

// GetAllInterns lists interns with their coordinator.
func (h *AdminInternHandler) GetAllInterns(c *fiber.Ctx) error {
	filter, ok, err := h.filter(c)
	if !ok {
		return err
	}
	interns, err := h.interns.ListWithCoordinator(c.UserContext(), filter)
	if err != nil {
		return storeError(c, err, "")
	}
	return respond(c, fiber.StatusOK, "Interns retrieved", interns)
}
