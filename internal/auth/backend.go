package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/config"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/repository"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/utils"
)

// BackendAuthenticator implements Authenticator against the user and
// refresh-token repositories. The "persisted credential" is the token
// pair cached on this instance: the access token carries the role
// metadata claim, the refresh token keeps the session alive after the
// access token expires. When only the refresh token is still valid,
// CurrentCredential returns a credential without a metadata role and
// the resolver falls back to the stored profile role.
type BackendAuthenticator struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo

	mu          sync.Mutex
	accessToken string // cached serialized JWT; empty when signed out
	refreshHash string // SHA-256 of the cached refresh token
	pair        TokenPair
}

// TokenPair is the minted credential material from the last Exchange,
// exposed so the HTTP layer can hand the raw tokens to the client.
type TokenPair struct {
	Access     utils.AccessToken
	RefreshRaw string
	RefreshExp time.Time
}

// NewBackendAuthenticator wires the authenticator to its repositories.
func NewBackendAuthenticator(cfg config.Config, users *repository.UserRepo, tokens *repository.TokenRepo) *BackendAuthenticator {
	return &BackendAuthenticator{Cfg: cfg, Users: users, Tokens: tokens}
}

// CurrentCredential returns the credential for the cached token pair,
// or (nil, nil) when signed out. An access token that still validates
// yields a credential with the metadata role; otherwise the refresh
// token is checked against the store and the credential is rebuilt
// from the user row without a metadata role.
func (b *BackendAuthenticator) CurrentCredential(ctx context.Context) (*Credential, error) {
	b.mu.Lock()
	access, refresh := b.accessToken, b.refreshHash
	b.mu.Unlock()
	if access == "" && refresh == "" {
		return nil, nil
	}
	if access != "" {
		if claims, err := utils.ParseAccessToken(b.Cfg.JWTSecret, access); err == nil {
			return &Credential{
				UserID:      claims.UserID,
				Email:       claims.Email,
				DisplayName: claims.Name,
				Role:        claims.Role,
			}, nil
		}
	}
	if refresh == "" {
		return nil, nil
	}
	userID, err := b.Tokens.ValidateRefresh(ctx, refresh)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // revoked or expired; signed out
		}
		return nil, err
	}
	u, err := b.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	// No metadata role here: the refresh token carries no claims.
	return &Credential{UserID: u.ID, Email: u.Email, DisplayName: u.DisplayName}, nil
}

// Exchange verifies email/password, mints and persists a fresh token
// pair and caches it as the current credential. Bad credentials map
// onto repository.ErrAuth without distinguishing unknown email from
// wrong password.
func (b *BackendAuthenticator) Exchange(ctx context.Context, email, password string) (*Credential, error) {
	u, err := b.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: invalid credentials", repository.ErrAuth)
		}
		return nil, err
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid credentials", repository.ErrAuth)
	}
	access, err := utils.NewAccessToken(b.Cfg.JWTSecret, u.ID, u.Role, u.Email, u.DisplayName, b.Cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(b.Cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	hash := utils.HashRefreshRaw(refresh.Raw)
	if err := b.Tokens.StoreRefresh(ctx, u.ID, hash, refresh.Exp); err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.accessToken = access.Token
	b.refreshHash = hash
	b.pair = TokenPair{Access: access, RefreshRaw: refresh.Raw, RefreshExp: refresh.Exp}
	b.mu.Unlock()
	return &Credential{UserID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: u.Role}, nil
}

// Pair returns the token material minted by the last Exchange. Zero
// when no exchange has happened on this instance.
func (b *BackendAuthenticator) Pair() TokenPair {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pair
}

// ClearCredential revokes the cached refresh token and forgets the
// pair. The local cache is always cleared, even when the revocation
// write fails.
func (b *BackendAuthenticator) ClearCredential(ctx context.Context) error {
	b.mu.Lock()
	hash := b.refreshHash
	b.accessToken = ""
	b.refreshHash = ""
	b.pair = TokenPair{}
	b.mu.Unlock()
	if hash == "" {
		return nil
	}
	return b.Tokens.RevokeByHash(ctx, hash)
}

// ProfileRoles adapts UserRepo to the resolver's ProfileStore.
type ProfileRoles struct {
	Users *repository.UserRepo
}

// RoleByID returns the stored profile role for a user.
func (p ProfileRoles) RoleByID(ctx context.Context, userID uint64) (string, error) {
	u, err := p.Users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// UpdateRole overwrites the stored profile role.
func (p ProfileRoles) UpdateRole(ctx context.Context, userID uint64, role string) error {
	return p.Users.UpdateRole(ctx, userID, role)
}
