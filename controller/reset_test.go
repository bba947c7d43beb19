package controller_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"intern_certify_v1/controller"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func (h *harness) lastCode() string {
	h.t.Helper()
	require.NotEmpty(h.t, h.outbox.sent)
	code, ok := h.outbox.sent[len(h.outbox.sent)-1].Vars["code"].(string)
	require.True(h.t, ok)
	return code
}

func TestPasswordResetFlow(t *testing.T) {
	h := newHarness(t)
	coord, _ := h.coordinator("coord@example.com")

	resp, env := h.do(http.MethodPost, "/intern-coordinator/forgot-password", map[string]any{"email": "Coord@Example.com"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	require.Len(t, h.outbox.sent, 1)
	sent := h.outbox.sent[0]
	assert.Equal(t, "coord@example.com", sent.To)
	assert.Equal(t, controller.PasswordResetEmailKey, sent.TemplateKey)
	code := h.lastCode()
	assert.Len(t, code, 6)

	// not verified yet
	resp, _ = h.do(http.MethodPost, "/intern-coordinator/reset-password", map[string]any{
		"email": "coord@example.com", "newPassword": "brand-new-pass", "confirmPassword": "brand-new-pass",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env = h.do(http.MethodPost, "/intern-coordinator/verify-code", map[string]any{"email": "coord@example.com", "code": code}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	// a verified code cannot be verified twice
	resp, _ = h.do(http.MethodPost, "/intern-coordinator/verify-code", map[string]any{"email": "coord@example.com", "code": code}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env = h.do(http.MethodPost, "/intern-coordinator/reset-password", map[string]any{
		"email": "coord@example.com", "newPassword": "brand-new-pass", "confirmPassword": "brand-new-pass",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	stored, err := h.coordinators.FindByID(context.Background(), coord.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("brand-new-pass")))
	assert.False(t, stored.MustChangePassword)

	resp, _ = h.do(http.MethodPost, "/intern-coordinator/login", map[string]any{"email": "coord@example.com", "password": "brand-new-pass"}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the session is consumed by the reset
	resp, _ = h.do(http.MethodPost, "/intern-coordinator/reset-password", map[string]any{
		"email": "coord@example.com", "newPassword": "another-pass-1", "confirmPassword": "another-pass-1",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordResetWrongCodeBurnsIt(t *testing.T) {
	h := newHarness(t)
	h.coordinator("coord@example.com")

	resp, _ := h.do(http.MethodPost, "/intern-coordinator/forgot-password", map[string]any{"email": "coord@example.com"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	code := h.lastCode()

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	resp, env := h.do(http.MethodPost, "/intern-coordinator/verify-code", map[string]any{"email": "coord@example.com", "code": wrong}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Incorrect code, request a new one", env.Message)

	resp, env = h.do(http.MethodPost, "/intern-coordinator/verify-code", map[string]any{"email": "coord@example.com", "code": code}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Code expired or not found", env.Message)

	resp, env = h.do(http.MethodPost, "/intern-coordinator/verify-code", map[string]any{"email": "coord@example.com", "code": "12ab"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "len", decode[map[string]string](t, env.Data)["code"])
}

func TestPasswordResetRejections(t *testing.T) {
	h := newHarness(t)
	h.coordinator("coord@example.com")

	resp, env := h.do(http.MethodPost, "/intern-coordinator/forgot-password", map[string]any{"email": "nobody@example.com"}, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Email not found", env.Message)
	assert.Empty(t, h.outbox.sent)

	resp, env = h.do(http.MethodPost, "/intern-coordinator/reset-password", map[string]any{
		"email": "coord@example.com", "newPassword": "brand-new-pass", "confirmPassword": "different-pass",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "eqfield", decode[map[string]string](t, env.Data)["confirmPassword"])
}

func TestPasswordResetWithoutMailer(t *testing.T) {
	h := newHarness(t)
	h.coordinator("coord@example.com")
	handler := controller.NewPasswordResetHandler(h.coordinators, controller.NewMemoryResetCodes(), nil)
	h.app.Post("/no-mail/forgot-password", handler.ForgotPassword)

	resp, env := h.do(http.MethodPost, "/no-mail/forgot-password", map[string]any{"email": "coord@example.com"}, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Email is not configured", env.Message)
}

func TestMemoryResetCodesExpire(t *testing.T) {
	codes := controller.NewMemoryResetCodes()
	ctx := context.Background()

	require.NoError(t, codes.Put(ctx, "a@example.com", "123456", -time.Second))
	_, ok, err := codes.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, codes.Put(ctx, "b@example.com", "654321", time.Minute))
	got, ok, err := codes.Get(ctx, "b@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "654321", got)

	require.NoError(t, codes.Delete(ctx, "b@example.com"))
	_, ok, _ = codes.Get(ctx, "b@example.com")
	assert.False(t, ok)
}
