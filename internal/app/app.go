// Package app wires configuration, authentication, the tool catalog,
// and a transport into a running server.
package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"adomcp/internal/domain"
	"adomcp/internal/infra/auth"
	"adomcp/internal/infra/azdo"
	"adomcp/internal/infra/config"
	"adomcp/internal/infra/dispatch"
	"adomcp/internal/infra/registry"
	"adomcp/internal/infra/telemetry"
	"adomcp/internal/infra/tenant"
	"adomcp/internal/infra/tools"
	"adomcp/internal/infra/transport"
)

type App struct {
	logger *zap.Logger
}

// Overrides carries the command-line values that win over the config
// file. Zero values mean "not set".
type Overrides struct {
	Organization         string
	Domains              []string
	Auth                 string
	Tenant               string
	Mode                 string
	Host                 string
	Port                 int
	ObservabilityAddress string
	EnableMetrics        bool
	EnableHealthz        bool
}

type ServeOptions struct {
	ConfigPath string
	Overrides  Overrides
}

func New(logger *zap.Logger) *App {
	return &App{
		logger: logger.Named("app"),
	}
}

// Serve runs the server until ctx is cancelled.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	cfg, enabled, err := a.resolveConfig(opts)
	if err != nil {
		return err
	}

	a.logger.Info("configuration loaded",
		zap.String("organization", cfg.Organization),
		zap.Strings("domains", cfg.Domains),
		zap.String("authentication", string(cfg.Auth)),
		zap.String("mode", string(cfg.Mode)),
	)

	if cfg.Auth == domain.AuthInteractive && cfg.Tenant == "" {
		cfg.Tenant = a.discoverTenant(ctx, cfg)
	}

	resolver, err := auth.NewResolver(cfg, a.logger)
	if err != nil {
		return err
	}
	if !cfg.Auth.PerRequest() {
		if err := resolver.Startup(ctx); err != nil {
			return fmt.Errorf("resolving startup credential: %w", err)
		}
	}

	factory := azdo.NewFactory(cfg.Organization, cfg.Version, a.logger)

	var metrics domain.Metrics = telemetry.NewNoopMetrics()
	promRegistry := prometheus.NewRegistry()
	if cfg.Observability.EnableMetrics {
		metrics = telemetry.NewPrometheusMetrics(promRegistry)
	}

	reg, err := registry.New(tools.Catalog(factory), enabled, a.logger)
	if err != nil {
		return err
	}
	dispatcher := dispatch.New(reg, metrics, a.logger)

	health := telemetry.NewHealthTracker()
	health.SetHealthy("dispatcher")

	// The observability listener must stop when the transport does,
	// not only on outer cancellation, or a transport failure would
	// leave Serve waiting on it forever.
	serveCtx, cancelServe := context.WithCancel(ctx)
	defer cancelServe()

	observabilityDone := make(chan error, 1)
	go func() {
		observabilityDone <- telemetry.StartHTTPServer(serveCtx, telemetry.HTTPServerOptions{
			Addr:          cfg.Observability.ListenAddress,
			EnableMetrics: cfg.Observability.EnableMetrics,
			EnableHealthz: cfg.Observability.EnableHealthz,
			Health:        health,
			Registry:      promRegistry,
		}, a.logger)
	}()

	domainNames := enabledDomainNames(enabled)

	server := transport.NewServer(transport.ServerOptions{
		Version:      cfg.Version,
		OrgURL:       cfg.OrgURL(),
		Domains:      domainNames,
		AuthMode:     cfg.Auth,
		Dispatcher:   dispatcher,
		Resolver:     resolver,
		Factory:      factory,
		Logger:       a.logger,
		UtilityTools: cfg.Mode == domain.TransportHTTP,
	})

	health.SetHealthy("transport")

	switch cfg.Mode {
	case domain.TransportHTTP:
		handler := transport.NewHTTPHandler(transport.HTTPOptions{
			Server:       server,
			Dispatcher:   dispatcher,
			Version:      cfg.Version,
			Organization: cfg.Organization,
			OrgURL:       cfg.OrgURL(),
			Domains:      domainNames,
			AuthMode:     cfg.Auth,
			Logger:       a.logger,
		})
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		err = transport.ServeHTTP(serveCtx, addr, handler, a.logger)
	default:
		err = transport.RunStdio(serveCtx, server, a.logger)
	}

	health.SetUnhealthy("transport", "stopped")
	cancelServe()
	if obsErr := <-observabilityDone; err == nil {
		err = obsErr
	}
	return err
}

// Validate loads and checks the configuration without serving.
func (a *App) Validate(opts ServeOptions) error {
	cfg, enabled, err := a.resolveConfig(opts)
	if err != nil {
		return err
	}
	a.logger.Info("configuration validated",
		zap.String("organization", cfg.Organization),
		zap.Int("domains", len(enabled)),
		zap.String("authentication", string(cfg.Auth)),
		zap.String("mode", string(cfg.Mode)),
	)
	return nil
}

func (a *App) resolveConfig(opts ServeOptions) (domain.Config, map[domain.Domain]bool, error) {
	cfg, err := config.NewLoader(a.logger).Load(opts.ConfigPath)
	if err != nil {
		return domain.Config{}, nil, err
	}
	cfg, err = applyOverrides(cfg, opts.Overrides)
	if err != nil {
		return domain.Config{}, nil, err
	}
	cfg.Version = Version

	if cfg.Organization == "" {
		return domain.Config{}, nil, fmt.Errorf("organization is required: pass it as an argument or set AZURE_DEVOPS_ORG")
	}

	enabled, err := domain.ResolveDomains(cfg.Domains)
	if err != nil {
		return domain.Config{}, nil, err
	}

	if err := auth.ValidatePairing(cfg.Auth, cfg.Mode); err != nil {
		return domain.Config{}, nil, err
	}

	return cfg, enabled, nil
}

// enabledDomainNames lists the enabled domains in catalog order.
func enabledDomainNames(enabled map[domain.Domain]bool) []string {
	names := make([]string, 0, len(enabled))
	for _, d := range domain.AvailableDomains() {
		if enabled[d] {
			names = append(names, string(d))
		}
	}
	return names
}

func applyOverrides(cfg domain.Config, overrides Overrides) (domain.Config, error) {
	if overrides.Organization != "" {
		cfg.Organization = overrides.Organization
	}
	if len(overrides.Domains) > 0 {
		cfg.Domains = overrides.Domains
	}
	if overrides.Auth != "" {
		mode, err := domain.ParseAuthMode(overrides.Auth)
		if err != nil {
			return domain.Config{}, err
		}
		cfg.Auth = mode
	}
	if overrides.Tenant != "" {
		cfg.Tenant = overrides.Tenant
	}
	if overrides.Mode != "" {
		mode, err := domain.ParseTransportMode(overrides.Mode)
		if err != nil {
			return domain.Config{}, err
		}
		cfg.Mode = mode
	}
	if overrides.Host != "" {
		cfg.Host = overrides.Host
	}
	if overrides.Port != 0 {
		cfg.Port = overrides.Port
	}
	if overrides.ObservabilityAddress != "" {
		cfg.Observability.ListenAddress = overrides.ObservabilityAddress
	}
	if overrides.EnableMetrics {
		cfg.Observability.EnableMetrics = true
	}
	if overrides.EnableHealthz {
		cfg.Observability.EnableHealthz = true
	}
	return cfg, nil
}

// discoverTenant is best effort: interactive sign-in works without a
// tenant hint, just with more prompts.
func (a *App) discoverTenant(ctx context.Context, cfg domain.Config) string {
	if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0o700); err != nil {
		a.logger.Warn("cannot create cache directory", zap.Error(err))
		return ""
	}
	cache, err := tenant.Open(cfg.CachePath, a.logger)
	if err != nil {
		a.logger.Warn("cannot open tenant cache", zap.Error(err))
		return ""
	}
	defer func() { _ = cache.Close() }()

	discovered, err := cache.Lookup(ctx, cfg.Organization)
	if err != nil {
		a.logger.Warn("tenant discovery failed",
			zap.String("organization", cfg.Organization),
			zap.Error(err),
		)
		return ""
	}
	return discovered
}
