package controller_test

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"intern_certify_v1/controller"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verification struct {
	HTML   string                        `json:"html"`
	Intern controller.CertificateSummary `json:"intern"`
}

func TestPublicVerificationRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.activeTemplates()
	adminToken := h.admin()
	_, token := h.coordinator("coord@example.com")
	created := h.createIntern(token, internBody("Asha Rao"))
	code := created.Intern.Code

	resp, env := h.do(http.MethodGet, "/public/joiningcertificate/"+code, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[verification](t, env.Data)
	assert.Contains(t, page.HTML, "<h1>Asha Rao</h1>")
	assert.Contains(t, page.HTML, "since January 1, 2025")
	assert.Equal(t, code, page.Intern.InternEmployeeID)
	assert.Equal(t, "30 days", page.Intern.Duration)
	assert.True(t, page.Intern.Downloadable)

	// not completed yet
	resp, _ = h.do(http.MethodGet, "/public/completioncertificate/"+code, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.do(http.MethodPost, "/admin/completion-sweep", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = h.do(http.MethodGet, "/public/completioncertificate/"+code, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[verification](t, env.Data)
	assert.Contains(t, page.HTML, "<h1>Asha Rao</h1>")
	assert.Contains(t, page.HTML, "January 1, 2025 to January 31, 2025")
	assert.Equal(t, "January 31, 2025", page.Intern.CompletionDate)
	assert.Equal(t, "completed", page.Intern.Status)
}

func TestPublicVerificationNotFound(t *testing.T) {
	h := newHarness(t)
	_, token := h.coordinator("coord@example.com")
	created := h.createIntern(token, internBody("A"))

	// no active template
	resp, env := h.do(http.MethodGet, "/public/joiningcertificate/"+created.Intern.Code, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Certificate not found", env.Message)

	h.activeTemplates()
	resp, _ = h.do(http.MethodGet, "/public/joiningcertificate/INT-9999", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.do(http.MethodGet, "/public/diploma/"+created.Intern.Code, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPublicDownload(t *testing.T) {
	h := newHarness(t)
	_, token := h.coordinator("coord@example.com")

	// created before any template exists, so no file was ever generated
	bare := h.createIntern(token, internBody("A"))
	resp, env := h.do(http.MethodGet, "/public/joiningcertificate/"+bare.Intern.Code+"/download", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Certificate has not been generated", env.Message)

	h.activeTemplates()
	created := h.createIntern(token, internBody("B"))
	url := "/public/joiningcertificate/" + created.Intern.Code + "/download"

	resp, _ = h.do(http.MethodGet, url, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "joining_"+created.Intern.Code)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<h1>B</h1>")

	// the static route serves the same file under its persisted path
	resp, _ = h.do(http.MethodGet, "/"+created.Certificates[0].FilePath, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, os.Remove(filepath.Join(h.certDir, filepath.Base(created.Certificates[0].FilePath))))
	resp, env = h.do(http.MethodGet, url, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Certificate file not found", env.Message)
}
