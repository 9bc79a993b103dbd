package azdo

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"adomcp/internal/domain"
)

// Factory mints one Client per credential. The shared http.Client
// keeps connection pooling across calls while credentials stay per
// Client.
type Factory struct {
	organization string
	httpClient   *http.Client
	logger       *zap.Logger

	orgBase    string
	searchBase string
	advsecBase string
	vsspsBase  string

	mu        sync.Mutex
	userAgent string
	infoSet   bool
}

type FactoryOption func(*Factory)

// WithHTTPClient overrides the transport, used by tests to point the
// factory at a local server.
func WithHTTPClient(client *http.Client) FactoryOption {
	return func(f *Factory) { f.httpClient = client }
}

// WithBaseURL points every host at one base, used by tests.
func WithBaseURL(base string) FactoryOption {
	return func(f *Factory) {
		f.orgBase = base + "/" + f.organization
		f.searchBase = base + "/" + f.organization
		f.advsecBase = base + "/" + f.organization
		f.vsspsBase = base + "/" + f.organization
	}
}

func NewFactory(organization, version string, logger *zap.Logger, opts ...FactoryOption) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Factory{
		organization: organization,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		logger:       logger.Named("azdo"),
		orgBase:      orgHost + "/" + organization,
		searchBase:   searchHost + "/" + organization,
		advsecBase:   advsecHost + "/" + organization,
		vsspsBase:    vsspsHost + "/" + organization,
		userAgent:    fmt.Sprintf("AzureDevOps.MCP/%s", version),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetClientInfo appends the connected MCP client's name and version to
// the User-Agent once. Later calls are ignored.
func (f *Factory) SetClientInfo(name, version string) {
	if name == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.infoSet {
		return
	}
	f.infoSet = true
	if version != "" {
		f.userAgent = fmt.Sprintf("%s (%s/%s)", f.userAgent, name, version)
	} else {
		f.userAgent = fmt.Sprintf("%s (%s)", f.userAgent, name)
	}
}

// New returns a Client bound to one credential.
func (f *Factory) New(credential domain.Credential) *Client {
	f.mu.Lock()
	userAgent := f.userAgent
	f.mu.Unlock()

	return &Client{
		httpClient: f.httpClient,
		credential: credential,
		userAgent:  userAgent,
		logger:     f.logger,
		orgBase:    f.orgBase,
		searchBase: f.searchBase,
		advsecBase: f.advsecBase,
		vsspsBase:  f.vsspsBase,
	}
}

// Organization returns the configured organization name.
func (f *Factory) Organization() string {
	return f.organization
}
