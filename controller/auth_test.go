package controller_test

import (
	"context"
	"net/http"
	"testing"

	"intern_certify_v1/middleware"
	"intern_certify_v1/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.CookieName {
			return c.Value
		}
	}
	return ""
}

func TestCoordinatorLogin(t *testing.T) {
	h := newHarness(t)
	coord, _ := h.coordinator("coord@example.com")

	resp, env := h.do(http.MethodPost, "/intern-coordinator/login", map[string]string{
		"email": "coord@example.com", "password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", env.Message)

	resp, _ = h.do(http.MethodPost, "/intern-coordinator/login", map[string]string{
		"email": "nobody@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env = h.do(http.MethodPost, "/intern-coordinator/login", map[string]string{"email": "not-an-email"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	fields := decode[map[string]string](t, env.Data)
	assert.Equal(t, "email", fields["email"])
	assert.Equal(t, "required", fields["password"])

	resp, _ = h.do(http.MethodPost, "/intern-coordinator/login", map[string]string{
		"email": "Coord@Example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := sessionCookie(resp)
	require.NotEmpty(t, token)

	stored, err := h.coordinators.FindByID(context.Background(), coord.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)

	resp, env = h.do(http.MethodGet, "/intern-coordinator/me", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[model.Coordinator](t, env.Data)
	assert.Equal(t, "coord@example.com", me.Email)
	assert.NotContains(t, string(env.Data), "password123")

	resp, _ = h.do(http.MethodPost, "/intern-coordinator/logout", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(http.MethodGet, "/intern-coordinator/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInactiveCoordinatorCannotLogIn(t *testing.T) {
	h := newHarness(t)
	coord, token := h.coordinator("coord@example.com")
	require.NoError(t, h.coordinators.Update(context.Background(), coord.ID, map[string]any{"is_active": false}))

	resp, env := h.do(http.MethodPost, "/intern-coordinator/login", map[string]string{
		"email": "coord@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Account is inactive", env.Message)

	// an existing session loses write access too
	resp, _ = h.do(http.MethodPost, "/intern-coordinator/interns", internBody("A"), token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestForcedPasswordChangeGatesMutations(t *testing.T) {
	h := newHarness(t)
	coord, token := h.coordinator("coord@example.com")
	require.NoError(t, h.coordinators.Update(context.Background(), coord.ID, map[string]any{"must_change_password": true}))

	resp, env := h.do(http.MethodPost, "/intern-coordinator/interns", internBody("A"), token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Password change required", env.Message)

	resp, _ = h.do(http.MethodGet, "/intern-coordinator/interns", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(http.MethodPut, "/intern-coordinator/change-password", map[string]string{
		"currentPassword": "not-it", "newPassword": "brand-new-pass",
	}, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = h.do(http.MethodPut, "/intern-coordinator/change-password", map[string]string{
		"currentPassword": "password123", "newPassword": "short",
	}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.do(http.MethodPut, "/intern-coordinator/change-password", map[string]string{
		"currentPassword": "password123", "newPassword": "brand-new-pass",
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	h.createIntern(token, internBody("A"))
}

func TestSaveFCMToken(t *testing.T) {
	h := newHarness(t)
	coord, token := h.coordinator("coord@example.com")

	resp, _ := h.do(http.MethodPut, "/intern-coordinator/fcm-token", map[string]string{}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.do(http.MethodPut, "/intern-coordinator/fcm-token", map[string]string{"token": "device-1"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := h.coordinators.FindByID(context.Background(), coord.ID)
	require.NoError(t, err)
	assert.Equal(t, "device-1", stored.FCMToken)
}

func TestRolesAreSeparated(t *testing.T) {
	h := newHarness(t)
	_, coordToken := h.coordinator("coord@example.com")
	adminToken := h.admin()

	resp, _ := h.do(http.MethodGet, "/admin/coordinators", nil, coordToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(http.MethodGet, "/intern-coordinator/interns", nil, adminToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(http.MethodGet, "/admin/coordinators", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminLogin(t *testing.T) {
	h := newHarness(t)
	h.admin()

	resp, _ := h.do(http.MethodPost, "/admin/login", map[string]string{
		"email": "root@example.com", "password": "nope-nope",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = h.do(http.MethodPost, "/admin/login", map[string]string{
		"email": "root@example.com", "password": "rootpass123",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := sessionCookie(resp)
	require.NotEmpty(t, token)

	resp, _ = h.do(http.MethodGet, "/admin/coordinators", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(http.MethodPost, "/admin/logout", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = h.do(http.MethodGet, "/admin/coordinators", nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
