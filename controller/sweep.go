package controller

import (
	"context"
	"errors"
	"log"

	"intern_certify_v1/scheduler"

	"github.com/gofiber/fiber/v2"
)

type Sweeper interface {
	Sweep(ctx context.Context) (scheduler.SweepReport, error)
}

// SweepHandler lets an admin run the completion sweep on demand.
type SweepHandler struct {
	job Sweeper
}

func NewSweepHandler(job Sweeper) *SweepHandler {
	return &SweepHandler{job: job}
}

func (h *SweepHandler) Run(c *fiber.Ctx) error {
	report, err := h.job.Sweep(c.UserContext())
	if errors.Is(err, scheduler.ErrSweepRunning) {
		return respond(c, fiber.StatusConflict, "A completion sweep is already running", nil)
	}
	if err != nil {
		log.Printf("[SWEEP] manual run: %v", err)
		return respond(c, fiber.StatusInternalServerError, "Completion sweep failed", report)
	}
	return respond(c, fiber.StatusOK, "Completion sweep finished", report)
}
