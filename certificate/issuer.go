// Package certificate renders, stores and delivers intern certificates.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"time"

	"intern_certify_v1/mailer"
	"intern_certify_v1/model"
	"intern_certify_v1/queue"
	"intern_certify_v1/render"
	"intern_certify_v1/repository"
)

// PublicDir is the prefix of persisted certificate paths and of the static
// route serving them.
const PublicDir = "certificates"

type Status string

const (
	StatusIssued  Status = "issued"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

type EmailStatus string

const (
	EmailSent    EmailStatus = "sent"
	EmailSkipped EmailStatus = "skipped"
	EmailFailed  EmailStatus = "failed"
)

// Stage names the step an issuance stopped at.
type Stage string

const (
	StageTemplate Stage = "template"
	StageQR       Stage = "qr"
	StageRender   Stage = "render"
	StagePersist  Stage = "persist"
)

// Outcome reports what happened to one certificate. A failed or skipped
// certificate never fails the intern operation that triggered it.
type Outcome struct {
	Type        model.CertificateKind `json:"type"`
	Status      Status                `json:"status"`
	Stage       Stage                 `json:"stage,omitempty"`
	FilePath    string                `json:"filePath,omitempty"`
	Err         error                 `json:"-"`
	EmailStatus EmailStatus           `json:"emailStatus"`
	EmailErr    error                 `json:"-"`
}

type InternStore interface {
	SetCertificatePath(ctx context.Context, id uint, kind model.CertificateKind, path string) error
	SetCertificateURL(ctx context.Context, id uint, kind model.CertificateKind, url string) error
}

type TemplateStore interface {
	FindActive(ctx context.Context, t model.TemplateType) (*model.CertificateTemplate, error)
}

type Mailer interface {
	Send(ctx context.Context, n mailer.Notification) error
}

type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

type Publisher interface {
	PublishCertificateIssued(ctx context.Context, evt queue.CertificateIssued) error
}

type Pusher interface {
	NotifyCoordinator(ctx context.Context, coordinatorID uint, title, body string) error
}

type Options struct {
	FrontendURL string
	Location    *time.Location
	Now         func() time.Time
}

type Issuer struct {
	interns   InternStore
	templates TemplateStore
	renderer  Renderer
	mailer    Mailer

	uploader  Uploader
	publisher Publisher
	pusher    Pusher

	frontendURL string
	loc         *time.Location
	now         func() time.Time
}

func NewIssuer(interns InternStore, templates TemplateStore, renderer Renderer, m Mailer, opts Options) *Issuer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Issuer{
		interns:     interns,
		templates:   templates,
		renderer:    renderer,
		mailer:      m,
		frontendURL: opts.FrontendURL,
		loc:         opts.Location,
		now:         opts.Now,
	}
}

// WithUploader, WithPublisher and WithPusher enable the optional side effects
// run after a certificate is stored.
func (i *Issuer) WithUploader(u Uploader) *Issuer   { i.uploader = u; return i }
func (i *Issuer) WithPublisher(p Publisher) *Issuer { i.publisher = p; return i }
func (i *Issuer) WithPusher(p Pusher) *Issuer       { i.pusher = p; return i }

func (i *Issuer) IssueJoining(ctx context.Context, intern *model.Intern) Outcome {
	return i.issue(ctx, intern, model.JoiningKind)
}

func (i *Issuer) IssueCompletion(ctx context.Context, intern *model.Intern) Outcome {
	return i.issue(ctx, intern, model.CompletionKind)
}

// Regenerate reissues the joining certificate and, for completed interns,
// the completion certificate.
func (i *Issuer) Regenerate(ctx context.Context, intern *model.Intern) []Outcome {
	outcomes := []Outcome{i.IssueJoining(ctx, intern)}
	if intern.Status == model.InternCompleted {
		outcomes = append(outcomes, i.IssueCompletion(ctx, intern))
	}
	return outcomes
}

func (i *Issuer) issue(ctx context.Context, intern *model.Intern, kind model.CertificateKind) Outcome {
	out := Outcome{Type: kind, EmailStatus: EmailSkipped}
	fail := func(stage Stage, err error) Outcome {
		out.Status, out.Stage, out.Err = StatusFailed, stage, err
		log.Printf("[ISSUER] %s certificate for %s failed at %s: %v", kind, intern.Code, stage, err)
		return out
	}

	tmpl, err := i.templates.FindActive(ctx, kind.TemplateType())
	if errors.Is(err, repository.ErrNotFound) {
		out.Status, out.Stage = StatusSkipped, StageTemplate
		log.Printf("[ISSUER] no active %s template, skipping %s certificate for %s", kind.TemplateType(), kind, intern.Code)
		return out
	}
	if err != nil {
		return fail(StageTemplate, err)
	}

	issuedAt := i.now()
	qr, err := GenerateQRDataURL(VerificationURL(i.frontendURL, kind.PathSegment(), intern.Code))
	if err != nil {
		return fail(StageQR, err)
	}

	vars := i.Variables(intern, kind, issuedAt)
	vars["qrCode"] = qr
	html := render.Fill(tmpl.HTML, vars)

	filename := fmt.Sprintf("%s_%s_%d.pdf", kind, intern.Code, issuedAt.UnixMilli())
	absPath, err := i.renderer.Render(ctx, html, filename)
	if err != nil {
		return fail(StageRender, err)
	}

	relPath := path.Join(PublicDir, filename)
	if err := i.interns.SetCertificatePath(ctx, intern.ID, kind, relPath); err != nil {
		return fail(StagePersist, err)
	}
	if kind == model.CompletionKind {
		intern.CompletionCertificatePath = relPath
	} else {
		intern.JoiningCertificatePath = relPath
	}
	out.Status, out.FilePath = StatusIssued, relPath
	log.Printf("[ISSUER] issued %s certificate for %s: %s", kind, intern.Code, relPath)

	i.afterIssue(ctx, intern, kind, relPath, absPath, issuedAt)

	if i.mailer == nil || intern.Email == "" {
		return out
	}
	err = i.mailer.Send(ctx, mailer.Notification{
		To:           intern.Email,
		TemplateKey:  kind.EmailKey(),
		TemplateType: string(kind),
		Vars:         vars,
		Attachments:  []string{absPath},
	})
	if err != nil {
		out.EmailStatus, out.EmailErr = EmailFailed, err
		log.Printf("[ISSUER] %s certificate email for %s failed: %v", kind, intern.Code, err)
		return out
	}
	out.EmailStatus = EmailSent
	return out
}

// afterIssue runs the optional integrations. Each is best-effort.
func (i *Issuer) afterIssue(ctx context.Context, intern *model.Intern, kind model.CertificateKind, relPath, absPath string, issuedAt time.Time) {
	var url string
	if i.uploader != nil {
		uploaded, err := i.uploader.Upload(ctx, absPath)
		if err != nil {
			log.Printf("[ISSUER] upload of %s failed: %v", relPath, err)
		} else if err := i.interns.SetCertificateURL(ctx, intern.ID, kind, uploaded); err != nil {
			log.Printf("[ISSUER] saving upload url for %s failed: %v", intern.Code, err)
		} else {
			url = uploaded
			if kind == model.CompletionKind {
				intern.CompletionCertificateURL = uploaded
			} else {
				intern.JoiningCertificateURL = uploaded
			}
		}
	}

	if i.publisher != nil {
		err := i.publisher.PublishCertificateIssued(ctx, queue.CertificateIssued{
			InternID:      intern.ID,
			InternCode:    intern.Code,
			CoordinatorID: intern.CoordinatorID,
			Type:          string(kind),
			FilePath:      relPath,
			URL:           url,
			IssuedAt:      issuedAt,
		})
		if err != nil {
			log.Printf("[ISSUER] publishing %s event for %s failed: %v", kind, intern.Code, err)
		}
	}

	if i.pusher != nil {
		title := fmt.Sprintf("%s certificate issued", titleCase(string(kind)))
		body := fmt.Sprintf("%s (%s) has a new %s certificate.", intern.Name, intern.Code, kind)
		if err := i.pusher.NotifyCoordinator(ctx, intern.CoordinatorID, title, body); err != nil {
			log.Printf("[ISSUER] push for %s failed: %v", intern.Code, err)
		}
	}
}

// Variables is the placeholder mapping for a certificate of kind, without the
// QR code. The public lookup pages reuse it.
func (i *Issuer) Variables(intern *model.Intern, kind model.CertificateKind, issuedAt time.Time) map[string]any {
	completion := ""
	if kind == model.CompletionKind {
		if intern.CompletionDate != nil {
			completion = intern.CompletionDate.UTC().Format(model.DateLayout)
		} else {
			completion = model.CalendarDay(issuedAt, i.loc).Format(model.DateLayout)
		}
	}
	return map[string]any{
		"name":             intern.Name,
		"email":            intern.Email,
		"role":             intern.Role,
		"position":         intern.Position,
		"joiningDate":      intern.JoiningDate.UTC().Format(model.DateLayout),
		"completionDate":   completion,
		"duration":         model.FormatDuration(intern.InternshipDuration),
		"internEmployeeId": intern.Code,
		"code":             intern.Code,
		"certificateType":  string(kind.TemplateType()),
		"issueDate":        model.CalendarDay(issuedAt, i.loc).Format(model.DateLayout),
	}
}

// FillTemplate renders tmpl for intern exactly as an issuance at issuedAt
// would, QR code included, without producing a PDF.
func (i *Issuer) FillTemplate(tmpl string, intern *model.Intern, kind model.CertificateKind, issuedAt time.Time) (string, error) {
	qr, err := GenerateQRDataURL(i.VerificationURL(intern, kind))
	if err != nil {
		return "", err
	}
	vars := i.Variables(intern, kind, issuedAt)
	vars["qrCode"] = qr
	return render.Fill(tmpl, vars), nil
}

// Now is the issuer's clock.
func (i *Issuer) Now() time.Time { return i.now() }

// VerificationURL is the public verification link of intern's certificate.
func (i *Issuer) VerificationURL(intern *model.Intern, kind model.CertificateKind) string {
	return VerificationURL(i.frontendURL, kind.PathSegment(), intern.Code)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
