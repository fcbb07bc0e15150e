package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/guard"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/utils"
)

// SessionHandler is the bootstrap surface the routing shell calls on
// every app load: it resolves the presented credential to a principal
// and answers guard questions so the shell renders loading, children
// or a redirect without duplicating any rule locally.
type SessionHandler struct {
	JWTSecret string
}

func NewSessionHandler(jwtSecret string) *SessionHandler {
	return &SessionHandler{JWTSecret: jwtSecret}
}

type sessionResp struct {
	State     string          `json:"state"`
	User      model.Principal `json:"user"`
	HomePath  string          `json:"home_path"`
	Anonymous bool            `json:"anonymous"`
}

// resolveRequest turns an optional bearer token into a principal.
// This endpoint is public: a missing or invalid token is the
// anonymous principal, never an error, because the shell needs a
// renderable answer on every load.
func (h *SessionHandler) resolveRequest(c echo.Context) model.Principal {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return model.Anonymous()
	}
	claims, err := utils.ParseAccessToken(h.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return model.Anonymous()
	}
	role := claims.Role
	if !model.KnownRole(role) {
		role = model.RoleCustomer
	}
	return model.Principal{ID: claims.UserID, Email: claims.Email, DisplayName: claims.Name, Role: role}
}

// Bootstrap handles GET /v1/session.
func (h *SessionHandler) Bootstrap(c echo.Context) error {
	p := h.resolveRequest(c)
	return c.JSON(http.StatusOK, sessionResp{
		State:     "resolved",
		User:      p,
		HomePath:  guard.HomePath(p.Role),
		Anonymous: !p.Authenticated(),
	})
}

type decisionResp struct {
	Decision string `json:"decision"`
	Path     string `json:"path,omitempty"`
}

// Decision handles GET /v1/session/decision. Query parameters:
//
//	roles       : comma-separated allow-list for the route (optional)
//	public_only : "true" evaluates the signed-out-only guard instead
//
// The shell calls this for route transitions it cannot decide from
// its cached bootstrap, and tests use it to pin the guard contract.
func (h *SessionHandler) Decision(c echo.Context) error {
	p := h.resolveRequest(c)

	if strings.EqualFold(c.QueryParam("public_only"), "true") {
		return c.JSON(http.StatusOK, toDecisionResp(guard.DecidePublicOnly(guard.StateResolved, p)))
	}

	var roles []string
	if raw := strings.TrimSpace(c.QueryParam("roles")); raw != "" {
		for _, r := range strings.Split(raw, ",") {
			if r = strings.ToUpper(strings.TrimSpace(r)); r != "" {
				roles = append(roles, r)
			}
		}
	}
	return c.JSON(http.StatusOK, toDecisionResp(guard.Decide(guard.StateResolved, p, roles)))
}

func toDecisionResp(d guard.Decision) decisionResp {
	switch d.Kind {
	case guard.ShowChildren:
		return decisionResp{Decision: "show"}
	case guard.Redirect:
		return decisionResp{Decision: "redirect", Path: d.Path}
	default:
		return decisionResp{Decision: "loading"}
	}
}
