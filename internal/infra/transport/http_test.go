package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"adomcp/internal/domain"
	"adomcp/internal/infra/auth"
	"adomcp/internal/infra/azdo"
	"adomcp/internal/infra/dispatch"
	"adomcp/internal/infra/registry"
)

type headerRoundTripper struct {
	header string
	value  string
	next   http.RoundTripper
}

func (h headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set(h.header, h.value)
	return h.next.RoundTrip(clone)
}

func newHTTPTestServer(t *testing.T, mode domain.AuthMode) *httptest.Server {
	t.Helper()

	enabled, err := domain.ResolveDomains([]string{"all"})
	require.NoError(t, err)

	catalog := []domain.ToolDescriptor{
		{
			Name:        "core_list_projects",
			Domain:      domain.DomainCore,
			Description: "List projects.",
			Handler: func(_ context.Context, _ map[string]any, cred domain.Credential) (any, error) {
				return map[string]any{"token": cred.Token}, nil
			},
		},
	}

	reg, err := registry.New(catalog, enabled, zap.NewNop())
	require.NoError(t, err)
	dispatcher := dispatch.New(reg, nil, zap.NewNop())
	factory := azdo.NewFactory("contoso", "test", zap.NewNop())

	var resolver auth.Resolver = staticTestResolver{credential: domain.Credential{Token: "static", Mode: domain.AuthEnv}}
	if mode.PerRequest() {
		cfg := domain.Config{Auth: domain.AuthPAT}
		resolver, err = auth.NewResolver(cfg, zap.NewNop())
		require.NoError(t, err)
	}

	server := NewServer(ServerOptions{
		Version:      "test",
		OrgURL:       "https://dev.azure.com/contoso",
		Domains:      []string{"core"},
		AuthMode:     mode,
		Dispatcher:   dispatcher,
		Resolver:     resolver,
		Factory:      factory,
		Logger:       zap.NewNop(),
		UtilityTools: true,
	})

	handler := NewHTTPHandler(HTTPOptions{
		Server:       server,
		Dispatcher:   dispatcher,
		Version:      "test",
		Organization: "contoso",
		OrgURL:       "https://dev.azure.com/contoso",
		Domains:      []string{"core"},
		AuthMode:     mode,
		Logger:       zap.NewNop(),
	})

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestMetadataEndpoint(t *testing.T) {
	ts := newHTTPTestServer(t, domain.AuthEnv)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Name           string               `json:"name"`
		Organization   string               `json:"organization"`
		OrgURL         string               `json:"orgUrl"`
		EnabledDomains []string             `json:"enabledDomains"`
		Authentication string               `json:"authentication"`
		Endpoint       string               `json:"endpoint"`
		Tools          []domain.ToolSummary `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "azure-devops-mcp", body.Name)
	assert.Equal(t, "contoso", body.Organization)
	assert.Equal(t, "https://dev.azure.com/contoso", body.OrgURL)
	assert.Equal(t, []string{"core"}, body.EnabledDomains)
	assert.Equal(t, "env", body.Authentication)
	assert.Equal(t, "/mcp", body.Endpoint)
	require.Len(t, body.Tools, 1)
	assert.Equal(t, "core_list_projects", body.Tools[0].Name)
}

func TestPATMode_MissingHeaderIs401(t *testing.T) {
	ts := newHTTPTestServer(t, domain.AuthPAT)

	resp, err := http.Post(ts.URL+"/mcp", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Authentication required", body.Error)
	assert.NotEmpty(t, body.Message)
}

func TestPATMode_GetWithoutHeaderNot401(t *testing.T) {
	ts := newHTTPTestServer(t, domain.AuthPAT)

	resp, err := http.Get(ts.URL + "/mcp")
	require.NoError(t, err)
	defer resp.Body.Close()

	// GET opens the event stream and carries no tool call, so the
	// PAT guard lets it through. Whatever the MCP handler answers, it
	// must not be an authentication rejection.
	assert.NotEqual(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPATMode_HeaderFlowsToHandler(t *testing.T) {
	ts := newHTTPTestServer(t, domain.AuthPAT)

	client := &http.Client{
		Transport: headerRoundTripper{
			header: "x-azure-devops-pat",
			value:  "caller-pat",
			next:   http.DefaultTransport,
		},
	}
	clientTransport := &mcp.StreamableClientTransport{
		Endpoint:   ts.URL + "/mcp",
		HTTPClient: client,
	}

	mcpClient := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := mcpClient.Connect(context.Background(), clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "core_list_projects",
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.JSONEq(t, `{"token":"caller-pat"}`, text.Text)
}

func TestStartupMode_NoHeaderRequired(t *testing.T) {
	ts := newHTTPTestServer(t, domain.AuthEnv)

	clientTransport := &mcp.StreamableClientTransport{
		Endpoint: ts.URL + "/mcp",
	}
	mcpClient := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := mcpClient.Connect(context.Background(), clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "core_list_projects",
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
}

func TestUnknownPathIs404(t *testing.T) {
	ts := newHTTPTestServer(t, domain.AuthEnv)

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
