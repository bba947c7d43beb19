package controller

import (
	"context"
	"log"

	"intern_certify_v1/model"
	"intern_certify_v1/repository"

	"github.com/gofiber/fiber/v2"
)

type TemplateStore interface {
	Create(ctx context.Context, t *model.CertificateTemplate) error
	Update(ctx context.Context, id uint, patch repository.TemplatePatch) (*model.CertificateTemplate, error)
	Activate(ctx context.Context, id uint) (*model.CertificateTemplate, error)
	FindByID(ctx context.Context, id uint) (*model.CertificateTemplate, error)
	FindActive(ctx context.Context, t model.TemplateType) (*model.CertificateTemplate, error)
	List(ctx context.Context, t model.TemplateType) ([]model.CertificateTemplate, error)
	Delete(ctx context.Context, id uint) error
}

// TemplateHandler is the admin's certificate template management.
type TemplateHandler struct {
	templates TemplateStore
	issuer    CertificateIssuer
}

func NewTemplateHandler(templates TemplateStore, issuer CertificateIssuer) *TemplateHandler {
	return &TemplateHandler{templates: templates, issuer: issuer}
}

type CreateTemplateRequest struct {
	Type   model.TemplateType `json:"type" validate:"required,oneof=joining_letter hiring_certificate completion_certificate"`
	Name   string             `json:"name" validate:"required"`
	HTML   string             `json:"html" validate:"required"`
	Active bool               `json:"active"`
}

type UpdateTemplateRequest struct {
	Type   *model.TemplateType `json:"type" validate:"omitempty,oneof=joining_letter hiring_certificate completion_certificate"`
	Name   *string             `json:"name" validate:"omitempty,min=1"`
	HTML   *string             `json:"html" validate:"omitempty,min=1"`
	Active *bool               `json:"active"`
}

func (h *TemplateHandler) List(c *fiber.Ctx) error {
	typ := model.TemplateType(c.Query("type"))
	if typ != "" && !model.ValidTemplateType(typ) {
		return respond(c, fiber.StatusBadRequest, "Invalid template type", nil)
	}
	list, err := h.templates.List(c.UserContext(), typ)
	if err != nil {
		return storeError(c, err, "")
	}
	return respond(c, fiber.StatusOK, "Templates retrieved", list)
}

func (h *TemplateHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	tmpl, err := h.templates.FindByID(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Template not found")
	}
	return respond(c, fiber.StatusOK, "Template retrieved", tmpl)
}

// Create saves a template. An active template replaces the active one of
// the same type.
func (h *TemplateHandler) Create(c *fiber.Ctx) error {
	var req CreateTemplateRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	tmpl := &model.CertificateTemplate{
		Type:   req.Type,
		Name:   req.Name,
		HTML:   req.HTML,
		Active: req.Active,
	}
	if err := h.templates.Create(c.UserContext(), tmpl); err != nil {
		return storeError(c, err, "")
	}
	if tmpl.Active {
		log.Printf("[TEMPLATE] %s template %d is now active", tmpl.Type, tmpl.ID)
	}
	return respond(c, fiber.StatusCreated, "Template created", tmpl)
}

func (h *TemplateHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var req UpdateTemplateRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	tmpl, err := h.templates.Update(c.UserContext(), id, repository.TemplatePatch{
		Name:   req.Name,
		HTML:   req.HTML,
		Type:   req.Type,
		Active: req.Active,
	})
	if err != nil {
		return storeError(c, err, "Template not found")
	}
	return respond(c, fiber.StatusOK, "Template updated", tmpl)
}

func (h *TemplateHandler) Activate(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	tmpl, err := h.templates.Activate(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Template not found")
	}
	log.Printf("[TEMPLATE] %s template %d is now active", tmpl.Type, tmpl.ID)
	return respond(c, fiber.StatusOK, "Template activated", tmpl)
}

func (h *TemplateHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.templates.Delete(c.UserContext(), id); err != nil {
		return storeError(c, err, "Template not found")
	}
	return respond(c, fiber.StatusOK, "Template deleted", nil)
}

// Preview fills the template with a sample intern.
func (h *TemplateHandler) Preview(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	tmpl, err := h.templates.FindByID(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Template not found")
	}

	kind := model.JoiningKind
	if tmpl.Type == model.CompletionCertificate {
		kind = model.CompletionKind
	}
	html, err := h.issuer.FillTemplate(tmpl.HTML, sampleIntern(h.issuer, kind), kind, h.issuer.Now())
	if err != nil {
		log.Printf("[TEMPLATE] preview of %d: %v", id, err)
		return respond(c, fiber.StatusInternalServerError, "Failed to render preview", nil)
	}
	return respond(c, fiber.StatusOK, "Template preview", fiber.Map{"html": html})
}

func sampleIntern(issuer CertificateIssuer, kind model.CertificateKind) *model.Intern {
	today := model.CalendarDay(issuer.Now(), nil)
	intern := &model.Intern{
		Name:               "Jane Doe",
		Email:              "jane.doe@example.com",
		Code:               "SAMPLE-0001",
		Role:               "Engineering",
		Position:           "Software Engineering Intern",
		JoiningDate:        today.AddDate(0, 0, -90),
		InternshipDuration: 90,
		Status:             model.InternActive,
	}
	if kind == model.CompletionKind {
		intern.Status = model.InternCompleted
		intern.CompletionDate = &today
	}
	return intern
}
