package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"adomcp/internal/domain"
	"adomcp/internal/infra/auth"
	"adomcp/internal/infra/dispatch"
)

// PAT header read in pat authentication mode. Header lookup is
// case-insensitive.
const patHeader = "X-Azure-DevOps-PAT"

// MCPPath is where the streamable MCP endpoint is mounted.
const MCPPath = "/mcp"

type HTTPOptions struct {
	Server       *mcp.Server
	Dispatcher   *dispatch.Dispatcher
	Version      string
	Organization string
	OrgURL       string
	Domains      []string
	AuthMode     domain.AuthMode
	Logger       *zap.Logger
}

// NewHTTPHandler builds the remote surface: server metadata at the
// root and the MCP endpoint at /mcp.
func NewHTTPHandler(opts HTTPOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return opts.Server
	}, &mcp.StreamableHTTPOptions{
		JSONResponse: true,
	})

	mux := http.NewServeMux()
	mux.Handle(MCPPath, guardPAT(opts.AuthMode, mcpHandler))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"name":           serverName,
			"version":        opts.Version,
			"organization":   opts.Organization,
			"orgUrl":         opts.OrgURL,
			"enabledDomains": opts.Domains,
			"authentication": string(opts.AuthMode),
			"endpoint":       MCPPath,
			"tools":          opts.Dispatcher.Summaries(),
		})
	})

	return accessLog(logger, mux)
}

// guardPAT stashes the PAT header on the context for the per-request
// resolver and rejects unauthenticated tool traffic when the server
// runs in pat mode. GET requests (SSE stream opens) carry no tool
// call and pass through unchallenged.
func guardPAT(mode domain.AuthMode, next http.Handler) http.Handler {
	if !mode.PerRequest() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(patHeader)
		if token == "" && r.Method != http.MethodGet {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error":   "Authentication required",
				"message": fmt.Sprintf("missing %s header", patHeader),
			})
			return
		}
		if token != "" {
			r = r.WithContext(auth.WithRequestToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ServeHTTP runs the listener until ctx is cancelled, then shuts it
// down gracefully.
func ServeHTTP(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("serving on http", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", zap.Error(err))
			return err
		}
		logger.Info("http server stopped")
		return nil
	}
}
