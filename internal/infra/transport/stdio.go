package transport

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// RunStdio serves MCP over stdin and stdout until the client
// disconnects or ctx is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("serving on stdio")
	return server.Run(ctx, &mcp.StdioTransport{})
}
