package domain

import (
	"context"
	"fmt"
)

// AuthMode selects how the credential used for backend calls is obtained.
type AuthMode string

const (
	// AuthInteractive: browser-based Entra ID sign-in, resolved once at startup.
	AuthInteractive AuthMode = "interactive"

	// AuthAzCLI: token delegated from an existing `az` CLI login.
	AuthAzCLI AuthMode = "azcli"

	// AuthEnv: personal access token read from the environment.
	AuthEnv AuthMode = "env"

	// AuthPAT: personal access token supplied per request via the
	// X-Azure-DevOps-PAT header. HTTP transport only.
	AuthPAT AuthMode = "pat"
)

func ParseAuthMode(s string) (AuthMode, error) {
	switch AuthMode(s) {
	case AuthInteractive, AuthAzCLI, AuthEnv, AuthPAT:
		return AuthMode(s), nil
	}
	return "", fmt.Errorf("unknown authentication mode %q (expected interactive, azcli, env, or pat)", s)
}

// PerRequest reports whether credentials for this mode are resolved
// freshly on every inbound call instead of once per process.
func (m AuthMode) PerRequest() bool {
	return m == AuthPAT
}

// TransportMode selects the channel serving tool calls.
type TransportMode string

const (
	TransportStdio TransportMode = "stdio"
	TransportHTTP  TransportMode = "http"
)

func ParseTransportMode(s string) (TransportMode, error) {
	switch TransportMode(s) {
	case TransportStdio, TransportHTTP:
		return TransportMode(s), nil
	}
	return "", fmt.Errorf("unknown server mode %q (expected stdio or http)", s)
}

// Credential is the opaque identity material a handler presents to the
// backend. PAT-mode credentials are scoped to a single request and must
// never be cached across calls.
type Credential struct {
	Token string
	Mode  AuthMode
}

func (c Credential) Empty() bool {
	return c.Token == ""
}

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// Param describes one tool parameter. Default is only legal on
// optional parameters; the registry rejects descriptors that violate
// this at startup.
type Param struct {
	Name        string
	Type        ParamType
	Required    bool
	Default     any
	Description string
}

// Handler executes one tool against the backend with validated
// arguments and a resolved credential. Handlers report upstream
// failures as *BackendError.
type Handler func(ctx context.Context, args map[string]any, cred Credential) (any, error)

// ToolDescriptor declares a tool: its name, owning domain, input
// schema, and handler. Descriptors are built once at startup from the
// built-in catalog and are immutable afterwards.
type ToolDescriptor struct {
	Name        string
	Domain      Domain
	Description string
	Params      []Param
	Handler     Handler
}

// CallRequest is the transport-independent invocation contract.
type CallRequest struct {
	Tool       string
	Args       map[string]any
	Credential Credential
}

// CallResult carries either a value or an error, never both.
type CallResult struct {
	Value any
	Err   error
}

// ToolSummary is the discovery view of a registered tool.
type ToolSummary struct {
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	Description string `json:"description"`
}

// Config is the resolved process configuration.
type Config struct {
	Organization  string
	Domains       []string
	Auth          AuthMode
	Tenant        string
	Mode          TransportMode
	Host          string
	Port          int
	Observability ObservabilityConfig
	CachePath     string
	Version       string
}

type ObservabilityConfig struct {
	ListenAddress string
	EnableMetrics bool
	EnableHealthz bool
}

// OrgURL is the canonical Azure DevOps organization URL.
func (c Config) OrgURL() string {
	return "https://dev.azure.com/" + c.Organization
}
