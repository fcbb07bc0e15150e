package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/config"
)

func cacheTestConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{"GET": true},
		TTL:         10 * time.Second,
		KeyStrategy: "path_query",
		Prefix:      "qrs-cache",
	}
}

func listingContext(t *testing.T, target string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	// Routing fills in the registered pattern; the key must not be
	// built from it.
	c.SetPath("/v1/restaurants/:id/tables")
	c.SetParamNames("id")
	return c
}

func TestCacheKeySeparatesRestaurants(t *testing.T) {
	cfg := cacheTestConfig()

	// Two restaurants hitting the same registered route must never
	// share a cache entry; a collision serves one tenant's table list
	// to another.
	k1 := cacheKeyFrom(cfg, listingContext(t, "/v1/restaurants/1/tables"))
	k2 := cacheKeyFrom(cfg, listingContext(t, "/v1/restaurants/2/tables"))
	assert.NotEqual(t, k1, k2)

	// The same concrete request keys identically across instances.
	assert.Equal(t, k1, cacheKeyFrom(cfg, listingContext(t, "/v1/restaurants/1/tables")))
}

func TestCacheKeyVariesWithQuery(t *testing.T) {
	cfg := cacheTestConfig()

	plain := cacheKeyFrom(cfg, listingContext(t, "/v1/restaurants/1/tables"))
	filtered := cacheKeyFrom(cfg, listingContext(t, "/v1/restaurants/1/tables?active=true"))
	assert.NotEqual(t, plain, filtered)
}

func TestInvalidationTargetsStoredKey(t *testing.T) {
	cfg := cacheTestConfig()

	// The invalidator deletes cacheKey(GET, path, ""): it must be the
	// exact key the middleware stores for a bare listing GET, or
	// writes would delete nothing and staff would read stale status
	// until the TTL expires.
	stored := cacheKeyFrom(cfg, listingContext(t, "/v1/restaurants/7/tables"))
	invalidated := cacheKey(cfg, http.MethodGet, "/v1/restaurants/7/tables", "")
	assert.Equal(t, stored, invalidated)
}

func TestInvalidatorDegradesToNoop(t *testing.T) {
	// Nil receiver and nil client are both fine; the write path never
	// observes an error from invalidation.
	var nilInv *CacheInvalidator
	nilInv.Invalidate(context.Background(), "/v1/restaurants/1/tables")
	NewCacheInvalidator(cacheTestConfig(), nil).Invalidate(context.Background(), "/v1/restaurants/1/tables")
}
