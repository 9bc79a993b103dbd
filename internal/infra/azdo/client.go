// Package azdo is the REST client the tool handlers use to talk to
// Azure DevOps. One Client wraps one credential; the Factory mints a
// Client per resolved credential so per-request tokens never leak
// between calls.
package azdo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"adomcp/internal/domain"
)

const apiVersion = "7.1"

const (
	orgHost    = "https://dev.azure.com"
	searchHost = "https://almsearch.dev.azure.com"
	advsecHost = "https://advsec.dev.azure.com"
	vsspsHost  = "https://vssps.dev.azure.com"
)

type Client struct {
	httpClient *http.Client
	credential domain.Credential
	userAgent  string
	logger     *zap.Logger

	orgBase    string
	searchBase string
	advsecBase string
	vsspsBase  string
}

// Request describes one REST call. APIVersion and ContentType default
// to 7.1 and application/json.
type Request struct {
	Method      string
	URL         string
	Query       url.Values
	Body        any
	ContentType string
	APIVersion  string
}

// OrgURL joins path segments under https://dev.azure.com/{org}.
func (c *Client) OrgURL(segments ...string) string {
	return joinURL(c.orgBase, segments)
}

// SearchURL joins path segments under the almsearch host.
func (c *Client) SearchURL(segments ...string) string {
	return joinURL(c.searchBase, segments)
}

// AdvSecURL joins path segments under the advanced security host.
func (c *Client) AdvSecURL(segments ...string) string {
	return joinURL(c.advsecBase, segments)
}

// VsspsURL joins path segments under the identity host.
func (c *Client) VsspsURL(segments ...string) string {
	return joinURL(c.vsspsBase, segments)
}

func joinURL(base string, segments []string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, base)
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return strings.Join(parts, "/")
}

func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Query: query})
}

func (c *Client) PostJSON(ctx context.Context, rawURL string, query url.Values, body any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, URL: rawURL, Query: query, Body: body})
}

func (c *Client) PatchJSON(ctx context.Context, rawURL string, query url.Values, body any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, URL: rawURL, Query: query, Body: body})
}

// Do performs the call and returns the raw response body. Non-2xx
// responses become *domain.BackendError carrying the upstream status.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	version := req.APIVersion
	if version == "" {
		version = apiVersion
	}

	query := url.Values{}
	for k, vs := range req.Query {
		query[k] = vs
	}
	query.Set("api-version", version)

	var bodyReader io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL+"?"+query.Encode(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	if req.Body != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	c.setAuthorization(httpReq)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.BackendError{Message: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.BackendError{Status: resp.StatusCode, Message: err.Error()}
	}

	c.logger.Debug("rest call",
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.BackendError{
			Status:  resp.StatusCode,
			Message: backendMessage(resp.StatusCode, payload),
		}
	}
	return json.RawMessage(payload), nil
}

func (c *Client) setAuthorization(req *http.Request) {
	if c.credential.Mode.PerRequest() || c.credential.Mode == domain.AuthEnv {
		basic := base64.StdEncoding.EncodeToString([]byte(":" + c.credential.Token))
		req.Header.Set("Authorization", "Basic "+basic)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.credential.Token)
}

// backendMessage prefers the service's own error message when the
// body carries one.
func backendMessage(status int, payload []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Message != "" {
		return body.Message
	}
	if len(payload) > 0 {
		const maxLen = 512
		text := string(payload)
		if len(text) > maxLen {
			text = text[:maxLen]
		}
		return text
	}
	return http.StatusText(status)
}
