package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"adomcp/internal/app"
)

type serveOptions struct {
	configPath    string
	domains       []string
	auth          string
	tenant        string
	mode          string
	host          string
	port          int
	obsAddress    string
	enableMetrics bool
	enableHealthz bool
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	var opts serveOptions

	root := &cobra.Command{
		Use:     "adomcp",
		Short:   "MCP server for Azure DevOps",
		Version: app.Version,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringSliceVarP(&opts.domains, "domains", "d", nil, "tool domains to enable, or 'all'")
	flags.StringVarP(&opts.auth, "authentication", "a", "", "authentication mode: interactive, azcli, env, or pat")
	flags.StringVarP(&opts.tenant, "tenant", "t", "", "Azure AD tenant ID")
	flags.StringVarP(&opts.mode, "mode", "m", "", "transport mode: stdio or http")
	flags.StringVar(&opts.host, "host", "", "host to bind in http mode")
	flags.IntVarP(&opts.port, "port", "p", 0, "port to bind in http mode")
	flags.StringVar(&opts.obsAddress, "observability-address", "", "listen address for the metrics and health endpoints")
	flags.BoolVar(&opts.enableMetrics, "enable-metrics", false, "expose Prometheus metrics on the observability listener")
	flags.BoolVar(&opts.enableHealthz, "enable-healthz", false, "expose a health endpoint on the observability listener")

	root.AddCommand(
		newServeCmd(logger, &opts),
		newValidateCmd(logger, &opts),
	)

	return root
}

func serveOptionsToApp(opts *serveOptions, args []string) app.ServeOptions {
	organization := ""
	if len(args) > 0 {
		organization = args[0]
	}
	return app.ServeOptions{
		ConfigPath: opts.configPath,
		Overrides: app.Overrides{
			Organization:         organization,
			Domains:              opts.domains,
			Auth:                 opts.auth,
			Tenant:               opts.tenant,
			Mode:                 opts.mode,
			Host:                 opts.host,
			Port:                 opts.port,
			ObservabilityAddress: opts.obsAddress,
			EnableMetrics:        opts.enableMetrics,
			EnableHealthz:        opts.enableHealthz,
		},
	}
}

func newServeCmd(logger *zap.Logger, opts *serveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve [organization]",
		Short: "Run the Azure DevOps MCP server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application := app.New(logger)
			return application.Serve(ctx, serveOptionsToApp(opts, args))
		},
	}
}

func newValidateCmd(logger *zap.Logger, opts *serveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [organization]",
		Short: "Validate configuration without starting the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application := app.New(logger)
			return application.Validate(serveOptionsToApp(opts, args))
		},
	}
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
