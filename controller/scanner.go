package controller

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"intern_certify_v1/model"
	"intern_certify_v1/repository"

	"github.com/gofiber/fiber/v2"
)

// PublicHandler answers the verification links printed on certificates as
// QR codes. It needs no session.
type PublicHandler struct {
	interns   InternStore
	templates TemplateStore
	issuer    CertificateIssuer
	certDir   string
}

func NewPublicHandler(interns InternStore, templates TemplateStore, issuer CertificateIssuer, certDir string) *PublicHandler {
	return &PublicHandler{interns: interns, templates: templates, issuer: issuer, certDir: certDir}
}

type CertificateSummary struct {
	Name             string                `json:"name"`
	InternEmployeeID string                `json:"internEmployeeId"`
	Role             string                `json:"role"`
	Position         string                `json:"position"`
	JoiningDate      string                `json:"joiningDate"`
	CompletionDate   string                `json:"completionDate,omitempty"`
	Duration         string                `json:"duration"`
	Status           string                `json:"status"`
	CertificateType  model.CertificateKind `json:"certificateType"`
	Downloadable     bool                  `json:"downloadable"`
	URL              string                `json:"url,omitempty"`
}

// lookup resolves the :segment and :internEmployeeId params to an intern
// holding that kind of certificate. A completion certificate exists only
// once the intern has completed.
func (h *PublicHandler) lookup(c *fiber.Ctx) (*model.Intern, model.CertificateKind, error) {
	kind, ok := model.KindFromSegment(c.Params("segment"))
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	intern, err := h.interns.FindByCode(c.UserContext(), c.Params("internEmployeeId"))
	if err != nil {
		return nil, "", err
	}
	if kind == model.CompletionKind && intern.Status != model.InternCompleted {
		return nil, "", repository.ErrNotFound
	}
	return intern, kind, nil
}

func (h *PublicHandler) VerifyCertificate(c *fiber.Ctx) error {
	intern, kind, err := h.lookup(c)
	if err != nil {
		return publicError(c, err)
	}
	tmpl, err := h.templates.FindActive(c.UserContext(), kind.TemplateType())
	if err != nil {
		return publicError(c, err)
	}

	issuedAt := issuedAtFromPath(intern.CertificatePath(kind), h.issuer.Now())
	html, err := h.issuer.FillTemplate(tmpl.HTML, intern, kind, issuedAt)
	if err != nil {
		log.Printf("[PUBLIC] rendering %s certificate for %s: %v", kind, intern.Code, err)
		return respond(c, fiber.StatusInternalServerError, "Failed to render certificate", nil)
	}

	summary := CertificateSummary{
		Name:             intern.Name,
		InternEmployeeID: intern.Code,
		Role:             intern.Role,
		Position:         intern.Position,
		JoiningDate:      intern.JoiningDate.UTC().Format(model.DateLayout),
		Duration:         model.FormatDuration(intern.InternshipDuration),
		Status:           intern.Status,
		CertificateType:  kind,
		Downloadable:     intern.CertificatePath(kind) != "",
	}
	if intern.CompletionDate != nil {
		summary.CompletionDate = intern.CompletionDate.UTC().Format(model.DateLayout)
	}
	if kind == model.CompletionKind {
		summary.URL = intern.CompletionCertificateURL
	} else {
		summary.URL = intern.JoiningCertificateURL
	}

	return respond(c, fiber.StatusOK, "Certificate verified", fiber.Map{
		"html":   html,
		"intern": summary,
	})
}

// DownloadCertificate streams the stored PDF.
func (h *PublicHandler) DownloadCertificate(c *fiber.Ctx) error {
	intern, kind, err := h.lookup(c)
	if err != nil {
		return publicError(c, err)
	}
	stored := intern.CertificatePath(kind)
	if stored == "" {
		return respond(c, fiber.StatusNotFound, "Certificate has not been generated", nil)
	}

	name := filepath.Base(stored)
	file := filepath.Join(h.certDir, name)
	if info, err := os.Stat(file); err != nil || info.IsDir() {
		return respond(c, fiber.StatusNotFound, "Certificate file not found", nil)
	}
	return c.Download(file, name)
}

func publicError(c *fiber.Ctx, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return respond(c, fiber.StatusNotFound, "Certificate not found", nil)
	}
	log.Printf("[PUBLIC] %s: %v", c.Path(), err)
	return respond(c, fiber.StatusInternalServerError, "Something went wrong", nil)
}

// issuedAtFromPath recovers the issue time from a "<kind>_<code>_<millis>.pdf"
// file name.
func issuedAtFromPath(path string, fallback time.Time) time.Time {
	base := strings.TrimSuffix(filepath.Base(path), ".pdf")
	idx := strings.LastIndex(base, "_")
	if path == "" || idx < 0 {
		return fallback
	}
	millis, err := strconv.ParseInt(base[idx+1:], 10, 64)
	if err != nil || millis <= 0 {
		return fallback
	}
	return time.UnixMilli(millis)
}
