package controller

import (
	"context"
	"log"
	"time"

	"intern_certify_v1/certificate"
	"intern_certify_v1/middleware"
	"intern_certify_v1/model"
	"intern_certify_v1/repository"

	"github.com/gofiber/fiber/v2"
)

type InternStore interface {
	Create(ctx context.Context, intern *model.Intern) error
	FindOwned(ctx context.Context, id, coordinatorID uint) (*model.Intern, error)
	FindByCode(ctx context.Context, code string) (*model.Intern, error)
	List(ctx context.Context, filter repository.InternFilter) ([]model.Intern, error)
	ListWithCoordinator(ctx context.Context, filter repository.InternFilter) ([]model.Intern, error)
	Update(ctx context.Context, intern *model.Intern, patch repository.InternPatch) ([]model.FieldChange, error)
	Delete(ctx context.Context, id uint) error
}

type ActivityStore interface {
	Record(ctx context.Context, coordinatorID uint, action string, intern *model.Intern, details map[string]any) (*model.ActivityLog, error)
	List(ctx context.Context, filter repository.ActivityFilter) ([]model.ActivityLog, int64, error)
}

type CertificateIssuer interface {
	IssueJoining(ctx context.Context, intern *model.Intern) certificate.Outcome
	Regenerate(ctx context.Context, intern *model.Intern) []certificate.Outcome
	FillTemplate(tmpl string, intern *model.Intern, kind model.CertificateKind, issuedAt time.Time) (string, error)
	Now() time.Time
}

// regenerateOn lists the fields that appear on certificates.
var regenerateOn = map[string]bool{
	"name":               true,
	"position":           true,
	"joiningDate":        true,
	"internshipDuration": true,
}

// InternHandler serves a coordinator's own interns.
type InternHandler struct {
	interns  InternStore
	activity ActivityStore
	issuer   CertificateIssuer
}

func NewInternHandler(interns InternStore, activity ActivityStore, issuer CertificateIssuer) *InternHandler {
	return &InternHandler{interns: interns, activity: activity, issuer: issuer}
}

type CreateInternRequest struct {
	Name               string `json:"name" validate:"required"`
	Email              string `json:"email" validate:"required,email"`
	Role               string `json:"role"`
	Position           string `json:"position" validate:"required"`
	JoiningDate        string `json:"joiningDate" validate:"required"`
	InternshipDuration int    `json:"internshipDuration" validate:"required,gt=0"`
}

// UpdateInternRequest is a partial update: absent fields are left unchanged.
type UpdateInternRequest struct {
	Name               *string `json:"name" validate:"omitempty,min=1"`
	Email              *string `json:"email" validate:"omitempty,email"`
	Role               *string `json:"role"`
	Position           *string `json:"position" validate:"omitempty,min=1"`
	JoiningDate        *string `json:"joiningDate" validate:"omitempty,min=1"`
	InternshipDuration *int    `json:"internshipDuration" validate:"omitempty,gt=0"`
}

type InternResponse struct {
	Intern       *model.Intern         `json:"intern"`
	Changes      []model.FieldChange   `json:"changes,omitempty"`
	Certificates []certificate.Outcome `json:"certificates,omitempty"`
}

func (h *InternHandler) List(c *fiber.Ctx) error {
	interns, err := h.interns.List(c.UserContext(), repository.InternFilter{
		Status:        c.Query("status"),
		CoordinatorID: middleware.CurrentUserID(c),
	})
	if err != nil {
		return storeError(c, err, "")
	}
	return respond(c, fiber.StatusOK, "Interns retrieved", interns)
}

func (h *InternHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	intern, err := h.interns.FindOwned(c.UserContext(), id, middleware.CurrentUserID(c))
	if err != nil {
		return storeError(c, err, "Intern not found")
	}
	return respond(c, fiber.StatusOK, "Intern retrieved", intern)
}

func (h *InternHandler) Create(c *fiber.Ctx) error {
	var req CreateInternRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	joining, err := model.ParseJoiningDate(req.JoiningDate)
	if err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid joiningDate", fiber.Map{"joiningDate": "date"})
	}

	coordinatorID := middleware.CurrentUserID(c)
	intern := &model.Intern{
		Name:               req.Name,
		Email:              req.Email,
		Role:               req.Role,
		Position:           req.Position,
		JoiningDate:        joining,
		InternshipDuration: req.InternshipDuration,
		CoordinatorID:      coordinatorID,
	}
	if err := h.interns.Create(c.UserContext(), intern); err != nil {
		return storeError(c, err, "")
	}

	outcome := h.issuer.IssueJoining(c.UserContext(), intern)
	h.record(c.UserContext(), coordinatorID, model.ActionInternAdded, intern, map[string]any{
		"internEmployeeId":   intern.Code,
		"joiningCertificate": string(outcome.Status),
	})

	return respond(c, fiber.StatusCreated, "Intern created", InternResponse{
		Intern:       intern,
		Certificates: []certificate.Outcome{outcome},
	})
}

func (h *InternHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var req UpdateInternRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	patch := repository.InternPatch{
		Name:               req.Name,
		Email:              req.Email,
		Role:               req.Role,
		Position:           req.Position,
		InternshipDuration: req.InternshipDuration,
	}
	if req.JoiningDate != nil {
		joining, err := model.ParseJoiningDate(*req.JoiningDate)
		if err != nil {
			return respond(c, fiber.StatusBadRequest, "Invalid joiningDate", fiber.Map{"joiningDate": "date"})
		}
		patch.JoiningDate = &joining
	}

	coordinatorID := middleware.CurrentUserID(c)
	intern, err := h.interns.FindOwned(c.UserContext(), id, coordinatorID)
	if err != nil {
		return storeError(c, err, "Intern not found")
	}

	changes, err := h.interns.Update(c.UserContext(), intern, patch)
	if err != nil {
		return storeError(c, err, "Intern not found")
	}
	if len(changes) == 0 {
		return respond(c, fiber.StatusOK, "No changes", InternResponse{Intern: intern})
	}

	var outcomes []certificate.Outcome
	for _, ch := range changes {
		if regenerateOn[ch.Field] {
			outcomes = h.issuer.Regenerate(c.UserContext(), intern)
			break
		}
	}

	h.record(c.UserContext(), coordinatorID, model.ActionInternEdited, intern, map[string]any{
		"changes":     changes,
		"regenerated": len(outcomes) > 0,
	})

	return respond(c, fiber.StatusOK, "Intern updated", InternResponse{
		Intern:       intern,
		Changes:      changes,
		Certificates: outcomes,
	})
}

func (h *InternHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}

	coordinatorID := middleware.CurrentUserID(c)
	intern, err := h.interns.FindOwned(c.UserContext(), id, coordinatorID)
	if err != nil {
		return storeError(c, err, "Intern not found")
	}
	if err := h.interns.Delete(c.UserContext(), intern.ID); err != nil {
		return storeError(c, err, "Intern not found")
	}

	h.record(c.UserContext(), coordinatorID, model.ActionInternDeleted, intern, map[string]any{
		"name":             intern.Name,
		"internEmployeeId": intern.Code,
	})
	return respond(c, fiber.StatusOK, "Intern deleted", nil)
}

// record appends to the activity log. The mutation has already committed, so
// a failed write is only logged.
func (h *InternHandler) record(ctx context.Context, coordinatorID uint, action string, intern *model.Intern, details map[string]any) {
	if _, err := h.activity.Record(ctx, coordinatorID, action, intern, details); err != nil {
		log.Printf("[ACTIVITY] %s for %s: %v", action, intern.Code, err)
	}
}
