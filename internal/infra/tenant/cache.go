// Package tenant discovers which AAD tenant owns an Azure DevOps
// organization and caches the answer on disk, so interactive sign-in
// lands in the right tenant without a flag.
package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const vsspsHost = "https://vssps.dev.azure.com"

// Cached discoveries stay valid this long before a re-probe.
const cacheTTL = 7 * 24 * time.Hour

var bucketTenants = []byte("tenants")

type entry struct {
	Tenant       string    `json:"tenant"`
	DiscoveredAt time.Time `json:"discoveredAt"`
}

type Cache struct {
	db         *bbolt.DB
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*Cache)

// WithBaseURL points discovery at a different host, used by tests.
func WithBaseURL(base string) Option {
	return func(c *Cache) { c.baseURL = base }
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) { c.httpClient = client }
}

// Open creates or opens the cache file at path.
func Open(path string, logger *zap.Logger, opts ...Option) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening tenant cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTenants)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing tenant cache: %w", err)
	}

	c := &Cache{
		db:         db,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    vsspsHost,
		logger:     logger.Named("tenant"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the tenant ID for org, probing the service when the
// cached entry is missing or stale. A stale entry is reused when the
// probe fails.
func (c *Cache) Lookup(ctx context.Context, org string) (string, error) {
	cached, ok := c.load(org)
	if ok && c.now().Sub(cached.DiscoveredAt) < cacheTTL {
		return cached.Tenant, nil
	}

	tenant, err := c.discover(ctx, org)
	if err != nil {
		if ok {
			c.logger.Warn("tenant discovery failed, using stale cache entry",
				zap.String("organization", org),
				zap.Error(err),
			)
			return cached.Tenant, nil
		}
		return "", err
	}

	c.store(org, tenant)
	return tenant, nil
}

// discover probes the organization's identity endpoint. The service
// answers 404 for anonymous requests and names the owning tenant in a
// response header.
func (c *Cache) discover(ctx context.Context, org string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/"+org, nil)
	if err != nil {
		return "", fmt.Errorf("building tenant probe: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("probing tenant for %q: %w", org, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		return "", fmt.Errorf("unexpected status %d probing tenant for %q", resp.StatusCode, org)
	}

	tenant := resp.Header.Get("X-Vss-Resourcetenant")
	if tenant == "" {
		return "", fmt.Errorf("no tenant header for organization %q", org)
	}

	c.logger.Debug("tenant discovered",
		zap.String("organization", org),
		zap.String("tenant", tenant),
	)
	return tenant, nil
}

func (c *Cache) load(org string) (entry, bool) {
	var e entry
	var found bool
	_ = c.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketTenants).Get([]byte(org))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil
		}
		found = true
		return nil
	})
	return e, found
}

func (c *Cache) store(org, tenant string) {
	raw, err := json.Marshal(entry{Tenant: tenant, DiscoveredAt: c.now()})
	if err != nil {
		return
	}
	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTenants).Put([]byte(org), raw)
	})
	if err != nil {
		c.logger.Warn("failed to persist tenant entry",
			zap.String("organization", org),
			zap.Error(err),
		)
	}
}
