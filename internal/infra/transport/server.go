// Package transport exposes the dispatcher over the two MCP surfaces:
// stdio for local clients and streamable HTTP for remote ones.
package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"adomcp/internal/domain"
	"adomcp/internal/infra/auth"
	"adomcp/internal/infra/azdo"
	"adomcp/internal/infra/dispatch"
)

const serverName = "azure-devops-mcp"

type ServerOptions struct {
	Version    string
	OrgURL     string
	Domains    []string
	AuthMode   domain.AuthMode
	Dispatcher *dispatch.Dispatcher
	Resolver   auth.Resolver
	Factory    *azdo.Factory
	Logger     *zap.Logger

	// UtilityTools adds the connection diagnostics tools that only
	// make sense on the remote transport.
	UtilityTools bool
}

// NewServer builds an MCP server with one tool per enabled
// descriptor.
func NewServer(opts ServerOptions) *mcp.Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("mcp")

	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: opts.Version,
	}, &mcp.ServerOptions{
		HasTools: true,
	})

	for _, desc := range opts.Dispatcher.ListTools() {
		server.AddTool(&mcp.Tool{
			Name:        desc.Name,
			Description: desc.Description,
			InputSchema: dispatch.InputSchema(desc),
		}, toolHandler(desc.Name, opts, logger))
	}

	if opts.UtilityTools {
		addUtilityTools(server, opts)
	}

	return server
}

func toolHandler(name string, opts ServerOptions, logger *zap.Logger) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		captureClientInfo(req, opts.Factory)

		args, err := decodeArguments(req.Params.Arguments)
		if err != nil {
			return errorResult(fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)), nil
		}

		cred, err := opts.Resolver.Resolve(ctx)
		if err != nil {
			return errorResult(err), nil
		}

		result := opts.Dispatcher.Invoke(ctx, domain.CallRequest{
			Tool:       name,
			Args:       args,
			Credential: cred,
		})
		if result.Err != nil {
			return errorResult(result.Err), nil
		}
		return valueResult(result.Value)
	}
}

// captureClientInfo records the connected client's identity in the
// outbound User-Agent. The factory ignores everything after the first
// client.
func captureClientInfo(req *mcp.CallToolRequest, factory *azdo.Factory) {
	if req.Session == nil || factory == nil {
		return
	}
	params := req.Session.InitializeParams()
	if params == nil || params.ClientInfo == nil {
		return
	}
	factory.SetClientInfo(params.ClientInfo.Name, params.ClientInfo.Version)
}

func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %v", err)
	}
	return args, nil
}

func valueResult(value any) (*mcp.CallToolResult, error) {
	var text string
	switch v := value.(type) {
	case json.RawMessage:
		text = string(v)
	case string:
		text = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return errorResult(fmt.Errorf("encoding tool result: %v", err)), nil
		}
		text = string(encoded)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
