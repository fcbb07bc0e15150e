package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/auth"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/config"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/guard"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/middleware"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/repository"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"` // CUSTOMER | STAFF | RESTAURANT_OWNER
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User     model.Principal `json:"user"`
	HomePath string          `json:"home_path"`
	Access   tokenPart       `json:"access"`
	Refresh  tokenPart       `json:"refresh"`
}

// Register creates a user and returns tokens immediately. Self-served
// registration never grants SUPER_ADMIN; that role is provisioned out
// of band.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != model.RoleStaff && role != model.RoleRestaurantOwner {
		role = model.RoleCustomer
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.OpTimeout)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, strings.TrimSpace(req.DisplayName), role, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return h.issuePair(c, ctx, http.StatusCreated, model.Principal{
		ID: uid, Email: req.Email, DisplayName: strings.TrimSpace(req.DisplayName), Role: role,
	})
}

// Login verifies credentials through the session resolver and returns
// the minted token pair. Auth failures surface as a message for
// inline display; they never trigger a redirect (that would lose the
// user's form state).
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	// A fresh authenticator per request: the cached token pair is this
	// sign-in's credential, not shared state.
	authn := auth.NewBackendAuthenticator(h.Cfg, h.Users, h.Tokens)
	resolver := auth.NewResolver(authn, auth.ProfileRoles{Users: h.Users}, h.Cfg.OpTimeout)

	p, err := resolver.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	pair := authn.Pair()
	return c.JSON(http.StatusOK, authResp{
		User:     p,
		HomePath: guard.HomePath(p.Role),
		Access:   tokenPart{Token: pair.Access.Token, Expires: pair.Access.Exp},
		Refresh:  tokenPart{Token: pair.RefreshRaw, Expires: pair.RefreshExp},
	})
}

// Refresh rotates a refresh token: the presented token is revoked and
// a fresh pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.OpTimeout)
	defer cancel()

	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))
	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}

	return h.issuePair(c, ctx, http.StatusOK, model.Principal{
		ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: u.Role,
	})
}

// Logout invalidates the presented refresh token. A 204 is returned
// even when the token was already revoked; signing out twice is fine.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.OpTimeout)
	defer cancel()

	if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated principal as seen by the API.
func (h *AuthHandler) Me(c echo.Context) error {
	p := middleware.Principal(c)
	if !p.Authenticated() {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": p, "home_path": guard.HomePath(p.Role)})
}

// issuePair mints and persists a token pair for the given principal
// and writes the auth response. The home path in the response is the
// post-sign-in redirect target and comes from the same guard table
// every other redirect uses.
func (h *AuthHandler) issuePair(c echo.Context, ctx context.Context, status int, p model.Principal) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, p.ID, p.Role, p.Email, p.DisplayName, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, p.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	return c.JSON(status, authResp{
		User:     p,
		HomePath: guard.HomePath(p.Role),
		Access:   tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh:  tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}
