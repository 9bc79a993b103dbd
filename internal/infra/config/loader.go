// Package config loads server settings from an optional YAML file,
// environment variables, and built-in defaults. Flag values override
// whatever was loaded; that merge happens in the command layer.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"adomcp/internal/domain"
)

const (
	// Organization fallback when neither the positional argument nor
	// the config file names one.
	orgEnvVar = "AZURE_DEVOPS_ORG"

	DefaultHost                = "127.0.0.1"
	DefaultPort                = 3000
	DefaultObservabilityListen = "127.0.0.1:9090"
)

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("config")}
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("domains", []string{domain.AllDomains})
	v.SetDefault("authentication", string(DefaultAuthMode()))
	v.SetDefault("mode", string(domain.TransportStdio))
	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("observability.listenAddress", DefaultObservabilityListen)
	v.SetDefault("observability.enableMetrics", false)
	v.SetDefault("observability.enableHealthz", false)
	v.SetDefault("cachePath", defaultCachePath())
}

type rawConfig struct {
	Organization   string                 `mapstructure:"organization"`
	Domains        []string               `mapstructure:"domains"`
	Authentication string                 `mapstructure:"authentication"`
	Tenant         string                 `mapstructure:"tenant"`
	Mode           string                 `mapstructure:"mode"`
	Host           string                 `mapstructure:"host"`
	Port           int                    `mapstructure:"port"`
	CachePath      string                 `mapstructure:"cachePath"`
	Observability  rawObservabilityConfig `mapstructure:"observability"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
	EnableMetrics bool   `mapstructure:"enableMetrics"`
	EnableHealthz bool   `mapstructure:"enableHealthz"`
}

// Load reads the file at path when given, otherwise returns defaults.
// Scalars in the file may reference environment variables with $VAR
// syntax.
func (l *Loader) Load(path string) (domain.Config, error) {
	v := newConfigViper()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.Config{}, fmt.Errorf("read config: %w", err)
		}
		expanded, missing, err := expandConfigEnv(data)
		if err != nil {
			return domain.Config{}, err
		}
		if len(missing) > 0 {
			l.logger.Warn("missing environment variables in config",
				zap.String("path", path),
				zap.Strings("missing", missing),
			)
		}
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return domain.Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return domain.Config{}, fmt.Errorf("decode config: %w", err)
	}

	return normalize(raw)
}

func normalize(raw rawConfig) (domain.Config, error) {
	var errs []string

	organization := strings.TrimSpace(raw.Organization)
	if organization == "" {
		organization = strings.TrimSpace(os.Getenv(orgEnvVar))
	}

	auth, err := domain.ParseAuthMode(raw.Authentication)
	if err != nil {
		errs = append(errs, err.Error())
	}

	mode, err := domain.ParseTransportMode(raw.Mode)
	if err != nil {
		errs = append(errs, err.Error())
	}

	if raw.Port < 1 || raw.Port > 65535 {
		errs = append(errs, fmt.Sprintf("port must be between 1 and 65535, got %d", raw.Port))
	}

	domains := raw.Domains
	if len(domains) == 0 {
		domains = []string{domain.AllDomains}
	}

	if len(errs) > 0 {
		return domain.Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	return domain.Config{
		Organization: organization,
		Domains:      domains,
		Auth:         auth,
		Tenant:       strings.TrimSpace(raw.Tenant),
		Mode:         mode,
		Host:         raw.Host,
		Port:         raw.Port,
		CachePath:    raw.CachePath,
		Observability: domain.ObservabilityConfig{
			ListenAddress: raw.Observability.ListenAddress,
			EnableMetrics: raw.Observability.EnableMetrics,
			EnableHealthz: raw.Observability.EnableHealthz,
		},
	}, nil
}

// DefaultAuthMode is azcli inside GitHub Codespaces, where no browser
// is available for interactive sign-in, and interactive everywhere
// else.
func DefaultAuthMode() domain.AuthMode {
	if os.Getenv("CODESPACES") == "true" && os.Getenv("CODESPACE_NAME") != "" {
		return domain.AuthAzCLI
	}
	return domain.AuthInteractive
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "adomcp", "tenants.db")
}
