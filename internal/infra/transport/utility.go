package transport

import (
	"context"
	"net/url"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Diagnostics tools registered only on the HTTP transport, outside
// the domain catalog so domain filtering never hides them.
func addUtilityTools(server *mcp.Server, opts ServerOptions) {
	emptySchema := &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}

	server.AddTool(&mcp.Tool{
		Name:        "test_connection",
		Description: "Verify that the server can reach Azure DevOps with the caller's credential.",
		InputSchema: emptySchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cred, err := opts.Resolver.Resolve(ctx)
		if err != nil {
			return errorResult(err), nil
		}

		client := opts.Factory.New(cred)
		query := url.Values{}
		query.Set("$top", "1")
		if _, err := client.Get(ctx, client.OrgURL("_apis", "projects"), query); err != nil {
			return errorResult(err), nil
		}

		return valueResult(map[string]any{
			"status":       "success",
			"organization": opts.Factory.Organization(),
		})
	})

	server.AddTool(&mcp.Tool{
		Name:        "get_server_info",
		Description: "Return server version, organization, and the enabled tool count.",
		InputSchema: emptySchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return valueResult(map[string]any{
			"name":           serverName,
			"version":        opts.Version,
			"organization":   opts.Factory.Organization(),
			"orgUrl":         opts.OrgURL,
			"enabledDomains": opts.Domains,
			"authentication": string(opts.AuthMode),
			"transport":      "http",
			"toolCount":      len(opts.Dispatcher.ListTools()),
		})
	})
}
