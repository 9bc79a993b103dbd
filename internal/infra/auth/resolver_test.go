package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"adomcp/internal/domain"
)

type fakeTokenSource struct {
	calls     atomic.Int64
	token     string
	expiresOn time.Time
	err       error
}

func (f *fakeTokenSource) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	f.calls.Add(1)
	if f.err != nil {
		return azcore.AccessToken{}, f.err
	}
	if len(opts.Scopes) != 1 || opts.Scopes[0] != Scope {
		return azcore.AccessToken{}, errors.New("unexpected scope")
	}
	return azcore.AccessToken{Token: f.token, ExpiresOn: f.expiresOn}, nil
}

func TestValidatePairing(t *testing.T) {
	assert.NoError(t, ValidatePairing(domain.AuthEnv, domain.TransportStdio))
	assert.NoError(t, ValidatePairing(domain.AuthAzCLI, domain.TransportStdio))
	assert.NoError(t, ValidatePairing(domain.AuthPAT, domain.TransportHTTP))

	err := ValidatePairing(domain.AuthPAT, domain.TransportStdio)
	assert.ErrorIs(t, err, domain.ErrIncompatibleAuthMode)
}

func TestNewResolver_EnvMode(t *testing.T) {
	t.Setenv("AZURE_DEVOPS_PAT", "env-pat")

	resolver, err := NewResolver(domain.Config{Auth: domain.AuthEnv}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, resolver.Startup(context.Background()))

	cred, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "env-pat", cred.Token)
	assert.Equal(t, domain.AuthEnv, cred.Mode)
}

func TestNewResolver_EnvModeFallbackVariable(t *testing.T) {
	t.Setenv("AZURE_DEVOPS_PAT", "")
	t.Setenv("AZURE_DEVOPS_EXT_PAT", "ext-pat")

	resolver, err := NewResolver(domain.Config{Auth: domain.AuthEnv}, zap.NewNop())
	require.NoError(t, err)

	cred, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ext-pat", cred.Token)
	assert.Equal(t, domain.AuthEnv, cred.Mode)
}

func TestNewResolver_EnvModePrimaryVariableWins(t *testing.T) {
	t.Setenv("AZURE_DEVOPS_PAT", "primary-pat")
	t.Setenv("AZURE_DEVOPS_EXT_PAT", "ext-pat")

	resolver, err := NewResolver(domain.Config{Auth: domain.AuthEnv}, zap.NewNop())
	require.NoError(t, err)

	cred, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "primary-pat", cred.Token)
}

func TestNewResolver_EnvModeMissingVariable(t *testing.T) {
	t.Setenv("AZURE_DEVOPS_PAT", "")
	t.Setenv("AZURE_DEVOPS_EXT_PAT", "")

	_, err := NewResolver(domain.Config{Auth: domain.AuthEnv}, zap.NewNop())
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Contains(t, err.Error(), "AZURE_DEVOPS_PAT")
	assert.Contains(t, err.Error(), "AZURE_DEVOPS_EXT_PAT")
}

func TestRequestResolver(t *testing.T) {
	resolver, err := NewResolver(domain.Config{Auth: domain.AuthPAT}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, resolver.Startup(context.Background()))

	_, err = resolver.Resolve(context.Background())
	assert.ErrorIs(t, err, domain.ErrMissingCredential)

	ctx := WithRequestToken(context.Background(), "header-pat")
	cred, err := resolver.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "header-pat", cred.Token)
	assert.Equal(t, domain.AuthPAT, cred.Mode)
}

func TestRequestResolver_DistinctTokensPerRequest(t *testing.T) {
	resolver := &requestResolver{}

	first, err := resolver.Resolve(WithRequestToken(context.Background(), "pat-one"))
	require.NoError(t, err)
	second, err := resolver.Resolve(WithRequestToken(context.Background(), "pat-two"))
	require.NoError(t, err)

	assert.Equal(t, "pat-one", first.Token)
	assert.Equal(t, "pat-two", second.Token)
}

func TestAADResolver_CachesUntilNearExpiry(t *testing.T) {
	source := &fakeTokenSource{token: "aad-token", expiresOn: time.Now().Add(time.Hour)}
	resolver := newAADResolver(source, domain.AuthAzCLI, zap.NewNop())

	for i := 0; i < 5; i++ {
		cred, err := resolver.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "aad-token", cred.Token)
		assert.Equal(t, domain.AuthAzCLI, cred.Mode)
	}
	assert.Equal(t, int64(1), source.calls.Load())
}

func TestAADResolver_RefreshesExpiringToken(t *testing.T) {
	// Expires inside the refresh margin, so every resolve refetches.
	source := &fakeTokenSource{token: "aad-token", expiresOn: time.Now().Add(30 * time.Second)}
	resolver := newAADResolver(source, domain.AuthInteractive, zap.NewNop())

	_, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), source.calls.Load())
}

func TestAADResolver_SingleRefreshUnderConcurrency(t *testing.T) {
	source := &fakeTokenSource{token: "aad-token", expiresOn: time.Now().Add(time.Hour)}
	resolver := newAADResolver(source, domain.AuthAzCLI, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cred, err := resolver.Resolve(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "aad-token", cred.Token)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), source.calls.Load())
}

func TestAADResolver_StartupSurfacesFailure(t *testing.T) {
	source := &fakeTokenSource{err: errors.New("az login required")}
	resolver := newAADResolver(source, domain.AuthAzCLI, zap.NewNop())

	err := resolver.Startup(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Contains(t, err.Error(), "az login required")
}
