package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"intern_certify_v1/certificate"
	"intern_certify_v1/controller"
	"intern_certify_v1/internal/testdb"
	"intern_certify_v1/mailer"
	"intern_certify_v1/middleware"
	"intern_certify_v1/model"
	"intern_certify_v1/repository"
	"intern_certify_v1/routes"
	"intern_certify_v1/scheduler"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// fixedNow is the day a 30 day internship starting 2025-01-01 completes.
var fixedNow = time.Date(2025, 1, 31, 2, 0, 0, 0, time.UTC)

const (
	joiningHTML    = `<h1>{{name}}</h1><p>{{position}} since {{joiningDate}}</p><img src="{{qrCode}}">`
	completionHTML = `<h1>{{name}}</h1><p>{{joiningDate}} to {{completionDate}}</p>`
)

type fileRenderer struct{ dir string }

func (r fileRenderer) Render(_ context.Context, html, filename string) (string, error) {
	out := filepath.Join(r.dir, filename)
	return out, os.WriteFile(out, []byte(html), 0o644)
}

// outbox captures mail instead of sending it.
type outbox struct {
	sent []mailer.Notification
}

func (o *outbox) Send(_ context.Context, n mailer.Notification) error {
	o.sent = append(o.sent, n)
	return nil
}

type harness struct {
	t            *testing.T
	app          *fiber.App
	db           *gorm.DB
	interns      *repository.InternRepository
	coordinators *repository.CoordinatorRepository
	templates    *repository.TemplateRepository
	activity     *repository.ActivityRepository
	certDir      string
	outbox       *outbox
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	middleware.InitAuth("test-secret", time.Hour)

	db := testdb.New(t)
	h := &harness{
		t:            t,
		db:           db,
		interns:      repository.NewInternRepository(db, testdb.CodePrefix),
		coordinators: repository.NewCoordinatorRepository(db),
		templates:    repository.NewTemplateRepository(db),
		activity:     repository.NewActivityRepository(db),
		certDir:      t.TempDir(),
		outbox:       &outbox{},
	}

	now := func() time.Time { return fixedNow }
	issuer := certificate.NewIssuer(h.interns, h.templates, fileRenderer{dir: h.certDir}, nil, certificate.Options{
		FrontendURL: "https://portal.example.com",
		Location:    time.UTC,
		Now:         now,
	})
	job := scheduler.NewCompletionJob(h.interns, issuer, scheduler.Options{Location: time.UTC, Now: now})

	h.app = fiber.New()
	routes.AppRoutes(h.app, routes.Handlers{
		Auth:            controller.NewAuthHandler(h.coordinators, repository.NewAdminRepository(db), false),
		Interns:         controller.NewInternHandler(h.interns, h.activity, issuer),
		Activity:        controller.NewActivityHandler(h.activity),
		Coordinators:    controller.NewCoordinatorHandler(h.coordinators),
		Templates:       controller.NewTemplateHandler(h.templates, issuer),
		AdminInterns:    controller.NewAdminInternHandler(h.interns),
		Public:          controller.NewPublicHandler(h.interns, h.templates, issuer, h.certDir),
		Sweep:           controller.NewSweepHandler(job),
		Reset:           controller.NewPasswordResetHandler(h.coordinators, controller.NewMemoryResetCodes(), h.outbox),
		CertificatesDir: h.certDir,
	})
	return h
}

func hash(t *testing.T, password string) string {
	t.Helper()
	out, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(out)
}

// coordinator seeds a coordinator who has already changed their password and
// returns a session token for them.
func (h *harness) coordinator(email string) (*model.Coordinator, string) {
	h.t.Helper()
	coord := &model.Coordinator{Name: email, Email: email, Password: hash(h.t, "password123"), IsActive: true}
	require.NoError(h.t, h.coordinators.Create(context.Background(), coord))
	token, err := middleware.GenerateJWT(coord.ID, middleware.RoleCoordinator)
	require.NoError(h.t, err)
	return coord, token
}

func (h *harness) admin() string {
	h.t.Helper()
	admin := &model.Admin{Name: "Root", Email: "root@example.com", Password: hash(h.t, "rootpass123")}
	require.NoError(h.t, repository.NewAdminRepository(h.db).Create(context.Background(), admin))
	token, err := middleware.GenerateJWT(admin.ID, middleware.RoleAdmin)
	require.NoError(h.t, err)
	return token
}

func (h *harness) activeTemplates() {
	h.t.Helper()
	ctx := context.Background()
	require.NoError(h.t, h.templates.Create(ctx, &model.CertificateTemplate{
		Type: model.JoiningLetter, Name: "joining", HTML: joiningHTML, Active: true,
	}))
	require.NoError(h.t, h.templates.Create(ctx, &model.CertificateTemplate{
		Type: model.CompletionCertificate, Name: "completion", HTML: completionHTML, Active: true,
	}))
}

type envelope struct {
	RetCode string          `json:"retCode"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (h *harness) do(method, path string, body any, token string) (*http.Response, envelope) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)

	var env envelope
	if resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func (h *harness) createIntern(token string, body map[string]any) controller.InternResponse {
	h.t.Helper()
	resp, env := h.do(http.MethodPost, "/intern-coordinator/interns", body, token)
	require.Equal(h.t, http.StatusCreated, resp.StatusCode, env.Message)
	return decode[controller.InternResponse](h.t, env.Data)
}

func internBody(name string) map[string]any {
	return map[string]any{
		"name":               name,
		"email":              "asha@example.com",
		"role":               "Engineering",
		"position":           "Backend Intern",
		"joiningDate":        "2025-01-01",
		"internshipDuration": 30,
	}
}
