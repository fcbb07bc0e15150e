package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/utils"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, 7, role, "u@example.com", "U", 15)
	require.NoError(t, err)
	return tok.Token
}

func doSession(t *testing.T, target, bearer string) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewSessionHandler(testSecret)
	var err error
	if strings.HasPrefix(target, "/v1/session/decision") {
		err = h.Decision(c)
	} else {
		err = h.Bootstrap(c)
	}
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestBootstrapWithoutTokenIsAnonymous(t *testing.T) {
	code, body := doSession(t, "/v1/session", "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "resolved", body["state"])
	assert.Equal(t, true, body["anonymous"])
	assert.Equal(t, "/", body["home_path"])
}

func TestBootstrapWithGarbageTokenIsAnonymousNotAnError(t *testing.T) {
	code, body := doSession(t, "/v1/session", "not-a-jwt")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["anonymous"])
}

func TestBootstrapResolvesRoleAndHomePath(t *testing.T) {
	code, body := doSession(t, "/v1/session", mintToken(t, model.RoleRestaurantOwner))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["anonymous"])
	assert.Equal(t, "/dashboard", body["home_path"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, model.RoleRestaurantOwner, user["role"])
}

func TestDecisionRedirectsAnonymousToSignIn(t *testing.T) {
	code, body := doSession(t, "/v1/session/decision?roles=STAFF", "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "redirect", body["decision"])
	assert.Equal(t, "/auth/sign-in", body["path"])
}

func TestDecisionAllowsMatchingRole(t *testing.T) {
	code, body := doSession(t, "/v1/session/decision?roles=STAFF,RESTAURANT_OWNER", mintToken(t, model.RoleStaff))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "show", body["decision"])
}

func TestDecisionSuperAdminRedirectsToAdmin(t *testing.T) {
	_, body := doSession(t, "/v1/session/decision?roles=STAFF", mintToken(t, model.RoleSuperAdmin))

	assert.Equal(t, "redirect", body["decision"])
	assert.Equal(t, "/admin", body["path"])
}

func TestDecisionPublicOnlySendsSignedInUserHome(t *testing.T) {
	_, body := doSession(t, "/v1/session/decision?public_only=true", mintToken(t, model.RoleCustomer))

	assert.Equal(t, "redirect", body["decision"])
	assert.Equal(t, "/", body["path"])
}

func TestDecisionPublicOnlyShowsForAnonymous(t *testing.T) {
	_, body := doSession(t, "/v1/session/decision?public_only=true", "")

	assert.Equal(t, "show", body["decision"])
}
