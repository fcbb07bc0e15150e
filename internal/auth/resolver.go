// Package auth owns principal resolution: turning a persisted
// credential into a Principal with a known role, exactly once per
// app load, and keeping it current across sign-in and sign-out.
// Resolution state lives in an explicit Resolver instance rather than
// package-level globals so the single-resolution rule is enforceable
// and testable.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/guard"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/repository"
)

// Credential is the authenticated identity handed back by the
// Authenticator. Role carries the token metadata role claim and may
// be empty for tokens minted before roles were added; the resolver
// then falls back to the stored profile role.
type Credential struct {
	UserID      uint64
	Email       string
	DisplayName string
	Role        string
}

// Authenticator is the external auth collaborator. CurrentCredential
// returns (nil, nil) when no credential is persisted; Exchange trades
// email/password for a fresh credential and must return
// repository.ErrAuth for bad credentials.
type Authenticator interface {
	CurrentCredential(ctx context.Context) (*Credential, error)
	Exchange(ctx context.Context, email, password string) (*Credential, error)
	ClearCredential(ctx context.Context) error
}

// ProfileStore exposes the cached profile role used when token
// metadata carries no role, and the corrective write used when the
// two disagree.
type ProfileStore interface {
	RoleByID(ctx context.Context, userID uint64) (string, error)
	UpdateRole(ctx context.Context, userID uint64, role string) error
}

// Resolver resolves and caches the current principal. All methods are
// safe for concurrent use. Once resolved, the role is immutable for
// the session; changing roles requires sign-out and a fresh sign-in.
type Resolver struct {
	authn    Authenticator
	profiles ProfileStore
	timeout  time.Duration

	mu        sync.Mutex
	state     guard.State
	principal model.Principal
	inflight  chan struct{} // non-nil while a resolution is running
}

// NewResolver constructs a Resolver in the uninitialized state.
// timeout bounds every backend call made during resolution.
func NewResolver(authn Authenticator, profiles ProfileStore, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{
		authn:     authn,
		profiles:  profiles,
		timeout:   timeout,
		state:     guard.StateUninitialized,
		principal: model.Anonymous(),
	}
}

// Snapshot returns the current state and principal for guard
// evaluation.
func (r *Resolver) Snapshot() (guard.State, model.Principal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.principal
}

// Initialize resolves the persisted credential into a principal. Only
// one resolution may be in flight at a time: a concurrent call
// observes the first call's result instead of issuing a duplicate
// credential fetch. Backend failures are non-fatal; the resolver
// degrades to the anonymous principal and stays renderable rather
// than sticking in the resolving state.
func (r *Resolver) Initialize(ctx context.Context) model.Principal {
	r.mu.Lock()
	if r.state == guard.StateResolved {
		p := r.principal
		r.mu.Unlock()
		return p
	}
	if r.inflight != nil {
		done := r.inflight
		r.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		_, p := r.Snapshot()
		return p
	}
	done := make(chan struct{})
	r.inflight = done
	r.state = guard.StateResolving
	r.mu.Unlock()

	p, err := r.resolve(ctx)

	r.mu.Lock()
	if err != nil {
		log.Printf("auth: resolution failed, degrading to anonymous: %v", err)
		r.state = guard.StateDegraded
		r.principal = model.Anonymous()
	} else {
		r.state = guard.StateResolved
		r.principal = p
	}
	r.inflight = nil
	r.mu.Unlock()
	close(done)

	_, out := r.Snapshot()
	return out
}

// SignIn exchanges credentials and re-resolves the principal. On
// failure the resolver keeps its prior state and the error is
// returned to the caller for inline presentation; sign-in errors
// never redirect.
func (r *Resolver) SignIn(ctx context.Context, email, password string) (model.Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return model.Principal{}, fmt.Errorf("%w: email and password are required", repository.ErrValidation)
	}
	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	cred, err := r.authn.Exchange(opCtx, email, password)
	if err != nil {
		if errors.Is(err, repository.ErrAuth) {
			return model.Principal{}, err
		}
		return model.Principal{}, repository.AsTransient(err)
	}
	p := r.principalFrom(opCtx, cred)
	r.mu.Lock()
	r.state = guard.StateResolved
	r.principal = p
	r.mu.Unlock()
	return p, nil
}

// SignOut clears the persisted credential and resolves to anonymous.
// A failure to clear the remote side still resolves locally; the
// local session must always end.
func (r *Resolver) SignOut(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	err := r.authn.ClearCredential(opCtx)
	r.mu.Lock()
	r.state = guard.StateResolved
	r.principal = model.Anonymous()
	r.mu.Unlock()
	if err != nil {
		return repository.AsTransient(err)
	}
	return nil
}

func (r *Resolver) resolve(ctx context.Context) (model.Principal, error) {
	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	cred, err := r.authn.CurrentCredential(opCtx)
	if err != nil {
		return model.Principal{}, err
	}
	if cred == nil {
		return model.Anonymous(), nil
	}
	return r.principalFrom(opCtx, cred), nil
}

// principalFrom derives the principal's role. Token metadata wins;
// the stored profile role is only consulted when metadata is absent.
// When both exist and disagree, the profile row is corrected in the
// background so the discrepancy heals without blocking resolution.
func (r *Resolver) principalFrom(ctx context.Context, cred *Credential) model.Principal {
	role := cred.Role
	if role == "" {
		stored, err := r.profiles.RoleByID(ctx, cred.UserID)
		if err != nil {
			log.Printf("auth: profile role lookup failed for user %d: %v", cred.UserID, err)
			stored = model.RoleCustomer
		}
		role = stored
	} else if model.KnownRole(role) {
		if stored, err := r.profiles.RoleByID(ctx, cred.UserID); err == nil && stored != role {
			go r.correctProfileRole(cred.UserID, role)
		}
	}
	if !model.KnownRole(role) {
		role = model.RoleCustomer
	}
	return model.Principal{
		ID:          cred.UserID,
		Email:       cred.Email,
		DisplayName: cred.DisplayName,
		Role:        role,
	}
}

func (r *Resolver) correctProfileRole(userID uint64, role string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.profiles.UpdateRole(ctx, userID, role); err != nil {
		log.Printf("auth: profile role correction failed for user %d: %v", userID, err)
	}
}
