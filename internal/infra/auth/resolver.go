// Package auth resolves the credential attached to every tool call.
// Startup-resolved modes (interactive, azcli, env) cache one credential
// for the process; the pat mode reads a fresh token from each HTTP
// request and never caches.
package auth

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"go.uber.org/zap"

	"adomcp/internal/domain"
)

// Azure DevOps resource scope for AAD token requests.
const Scope = "499b84ac-1321-427f-aa17-267ca6975798/.default"

// First-party client ID used for interactive browser sign-in.
const interactiveClientID = "0d50963b-7bb9-4fe7-94c7-a99af00b5136"

// PAT environment variables read by the env mode. The fallback is the
// variable the Azure DevOps CLI extension uses.
const (
	patEnvVar         = "AZURE_DEVOPS_PAT"
	patEnvVarFallback = "AZURE_DEVOPS_EXT_PAT"
)

// Tokens are refreshed this long before their reported expiry.
const refreshMargin = 2 * time.Minute

// Resolver produces the credential for one tool call. Resolve is safe
// for concurrent use.
type Resolver interface {
	// Startup eagerly resolves the credential so misconfiguration
	// surfaces before the transport accepts traffic. Per-request
	// modes have nothing to resolve and return nil.
	Startup(ctx context.Context) error

	Resolve(ctx context.Context) (domain.Credential, error)
}

// ValidatePairing rejects auth/transport combinations that cannot
// work, such as per-request PAT extraction over stdio where no HTTP
// headers exist.
func ValidatePairing(auth domain.AuthMode, transport domain.TransportMode) error {
	if auth.PerRequest() && transport == domain.TransportStdio {
		return fmt.Errorf("%w: %q authentication requires the http transport", domain.ErrIncompatibleAuthMode, auth)
	}
	return nil
}

// NewResolver builds the resolver for the configured auth mode.
func NewResolver(cfg domain.Config, logger *zap.Logger) (Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("auth")

	switch cfg.Auth {
	case domain.AuthEnv:
		token := os.Getenv(patEnvVar)
		if token == "" {
			token = os.Getenv(patEnvVarFallback)
		}
		if token == "" {
			return nil, fmt.Errorf("%w: neither %s nor %s is set", domain.ErrAuth, patEnvVar, patEnvVarFallback)
		}
		return &staticResolver{credential: domain.Credential{Token: token, Mode: domain.AuthEnv}}, nil

	case domain.AuthPAT:
		return &requestResolver{}, nil

	case domain.AuthAzCLI:
		cli, err := azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
			TenantID: cfg.Tenant,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: azure cli credential: %v", domain.ErrAuth, err)
		}
		fallback, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
			TenantID: cfg.Tenant,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: default credential: %v", domain.ErrAuth, err)
		}
		chain, err := azidentity.NewChainedTokenCredential([]azcore.TokenCredential{cli, fallback}, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: credential chain: %v", domain.ErrAuth, err)
		}
		return newAADResolver(chain, domain.AuthAzCLI, logger), nil

	case domain.AuthInteractive:
		cred, err := azidentity.NewInteractiveBrowserCredential(&azidentity.InteractiveBrowserCredentialOptions{
			ClientID: interactiveClientID,
			TenantID: cfg.Tenant,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: interactive browser credential: %v", domain.ErrAuth, err)
		}
		return newAADResolver(cred, domain.AuthInteractive, logger), nil

	default:
		return nil, fmt.Errorf("%w: unsupported auth mode %q", domain.ErrAuth, cfg.Auth)
	}
}

// staticResolver serves one token resolved at startup.
type staticResolver struct {
	credential domain.Credential
}

func (r *staticResolver) Startup(context.Context) error { return nil }

func (r *staticResolver) Resolve(context.Context) (domain.Credential, error) {
	return r.credential, nil
}

// requestResolver reads the PAT the HTTP middleware stored in the
// request context. Each call gets whatever token arrived with it.
type requestResolver struct{}

func (r *requestResolver) Startup(context.Context) error { return nil }

func (r *requestResolver) Resolve(ctx context.Context) (domain.Credential, error) {
	token, ok := requestTokenFromContext(ctx)
	if !ok || token == "" {
		return domain.Credential{}, fmt.Errorf("%w: no token on request", domain.ErrMissingCredential)
	}
	return domain.Credential{Token: token, Mode: domain.AuthPAT}, nil
}

// aadResolver caches an AAD access token and refreshes it shortly
// before expiry. Concurrent callers during a refresh block on the
// mutex and reuse the token the winner fetched.
type aadResolver struct {
	source azcore.TokenCredential
	mode   domain.AuthMode
	logger *zap.Logger

	mu        sync.RWMutex
	token     string
	expiresOn time.Time
}

func newAADResolver(source azcore.TokenCredential, mode domain.AuthMode, logger *zap.Logger) *aadResolver {
	return &aadResolver{source: source, mode: mode, logger: logger}
}

func (r *aadResolver) Startup(ctx context.Context) error {
	_, err := r.Resolve(ctx)
	return err
}

func (r *aadResolver) Resolve(ctx context.Context) (domain.Credential, error) {
	r.mu.RLock()
	token, expiresOn := r.token, r.expiresOn
	r.mu.RUnlock()

	if token != "" && time.Until(expiresOn) > refreshMargin {
		return domain.Credential{Token: token, Mode: r.mode}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if r.token != "" && time.Until(r.expiresOn) > refreshMargin {
		return domain.Credential{Token: r.token, Mode: r.mode}, nil
	}

	access, err := r.source.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{Scope}})
	if err != nil {
		return domain.Credential{}, fmt.Errorf("%w: acquiring token: %v", domain.ErrAuth, err)
	}

	r.token = access.Token
	r.expiresOn = access.ExpiresOn
	r.logger.Debug("access token refreshed",
		zap.String("mode", string(r.mode)),
		zap.Time("expires_on", access.ExpiresOn),
	)
	return domain.Credential{Token: r.token, Mode: r.mode}, nil
}
