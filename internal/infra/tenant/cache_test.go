package tenant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestCache(t *testing.T, serverURL string) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "tenants.db"), zap.NewNop(), WithBaseURL(serverURL))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestLookup_DiscoversAndCaches(t *testing.T) {
	var probes atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes.Add(1)
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "/contoso", r.URL.Path)
		w.Header().Set("X-Vss-Resourcetenant", "11111111-2222-3333-4444-555555555555")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cache := openTestCache(t, server.URL)

	tenant, err := cache.Lookup(context.Background(), "contoso")
	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", tenant)

	// Second lookup is served from the cache.
	tenant, err = cache.Lookup(context.Background(), "contoso")
	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", tenant)
	assert.Equal(t, int64(1), probes.Load())
}

func TestLookup_ExpiredEntryReprobes(t *testing.T) {
	var probes atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes.Add(1)
		w.Header().Set("X-Vss-Resourcetenant", "tenant-fresh")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cache := openTestCache(t, server.URL)

	_, err := cache.Lookup(context.Background(), "contoso")
	require.NoError(t, err)

	// Age the cached entry past the TTL.
	cache.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	tenant, err := cache.Lookup(context.Background(), "contoso")
	require.NoError(t, err)
	assert.Equal(t, "tenant-fresh", tenant)
	assert.Equal(t, int64(2), probes.Load())
}

func TestLookup_StaleEntrySurvivesProbeFailure(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-Vss-Resourcetenant", "tenant-old")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cache := openTestCache(t, server.URL)

	_, err := cache.Lookup(context.Background(), "contoso")
	require.NoError(t, err)

	healthy = false
	cache.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	tenant, err := cache.Lookup(context.Background(), "contoso")
	require.NoError(t, err)
	assert.Equal(t, "tenant-old", tenant)
}

func TestLookup_NoHeaderIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cache := openTestCache(t, server.URL)

	_, err := cache.Lookup(context.Background(), "contoso")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contoso")
}

func TestLookup_UnexpectedStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cache := openTestCache(t, server.URL)

	_, err := cache.Lookup(context.Background(), "contoso")
	assert.Error(t, err)
}
