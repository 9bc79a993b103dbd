package app

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"adomcp/internal/domain"
)

func TestValidate_MissingOrganization(t *testing.T) {
	t.Setenv("AZURE_DEVOPS_ORG", "")

	err := New(zap.NewNop()).Validate(ServeOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "organization")
}

func TestValidate_UnknownDomainFailsFast(t *testing.T) {
	err := New(zap.NewNop()).Validate(ServeOptions{
		Overrides: Overrides{
			Organization: "contoso",
			Domains:      []string{"work-items", "nonsense"},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownDomain)
	assert.Contains(t, err.Error(), "nonsense")
}

func TestValidate_PATOverStdioRejected(t *testing.T) {
	err := New(zap.NewNop()).Validate(ServeOptions{
		Overrides: Overrides{
			Organization: "contoso",
			Auth:         "pat",
			Mode:         "stdio",
		},
	})
	assert.ErrorIs(t, err, domain.ErrIncompatibleAuthMode)
}

func TestValidate_PATOverHTTPAccepted(t *testing.T) {
	err := New(zap.NewNop()).Validate(ServeOptions{
		Overrides: Overrides{
			Organization: "contoso",
			Auth:         "pat",
			Mode:         "http",
		},
	})
	assert.NoError(t, err)
}

func TestApplyOverrides_FlagsWin(t *testing.T) {
	base := domain.Config{
		Organization: "file-org",
		Domains:      []string{"all"},
		Auth:         domain.AuthInteractive,
		Mode:         domain.TransportStdio,
		Host:         "127.0.0.1",
		Port:         3000,
	}

	cfg, err := applyOverrides(base, Overrides{
		Organization:         "flag-org",
		Domains:              []string{"wiki"},
		Auth:                 "azcli",
		Mode:                 "http",
		Port:                 8080,
		ObservabilityAddress: "127.0.0.1:9191",
	})
	require.NoError(t, err)

	assert.Equal(t, "flag-org", cfg.Organization)
	assert.Equal(t, []string{"wiki"}, cfg.Domains)
	assert.Equal(t, domain.AuthAzCLI, cfg.Auth)
	assert.Equal(t, domain.TransportHTTP, cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "127.0.0.1:9191", cfg.Observability.ListenAddress)
}

func TestServe_TransportBindFailureReturns(t *testing.T) {
	t.Setenv("AZURE_DEVOPS_PAT", "test-pat")

	// Occupy the transport port so ListenAndServe fails immediately.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	port := listener.Addr().(*net.TCPAddr).Port

	done := make(chan error, 1)
	go func() {
		done <- New(zap.NewNop()).Serve(context.Background(), ServeOptions{
			Overrides: Overrides{
				Organization:         "contoso",
				Auth:                 "env",
				Mode:                 "http",
				Host:                 "127.0.0.1",
				Port:                 port,
				ObservabilityAddress: "127.0.0.1:0",
				EnableHealthz:        true,
			},
		})
	}()

	// Serve must stop the observability listener and return the bind
	// error instead of waiting on it forever.
	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http server failed")
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after the transport failed to bind")
	}
}

func TestApplyOverrides_InvalidAuth(t *testing.T) {
	_, err := applyOverrides(domain.Config{}, Overrides{Auth: "certificate"})
	assert.Error(t, err)
}
