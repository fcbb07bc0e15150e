package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/utils"
)

// Context keys set by JWTAuth for downstream middleware and handlers.
const (
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxPrincipal = "principal"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the caller's principal into the request context.
// Token parsing goes through utils.ParseAccessToken so claim handling
// cannot diverge from the session resolver's. This middleware wraps
// protected routes; handlers read the principal via Principal(c).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			role := claims.Role
			if !model.KnownRole(role) {
				role = model.RoleCustomer
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxRole, role)
			c.Set(CtxPrincipal, model.Principal{
				ID:          claims.UserID,
				Email:       claims.Email,
				DisplayName: claims.Name,
				Role:        role,
			})
			return next(c)
		}
	}
}

// Principal extracts the principal stored by JWTAuth. The anonymous
// principal is returned on unauthenticated routes.
func Principal(c echo.Context) model.Principal {
	if v := c.Get(CtxPrincipal); v != nil {
		if p, ok := v.(model.Principal); ok {
			return p
		}
	}
	return model.Anonymous()
}
