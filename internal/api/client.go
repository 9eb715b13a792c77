// Package api implements the outbound gateway to the AI Copilot backend:
// JSON requests to a fixed base address plus a per-action path.
package api

import (
	"context"
	"fmt"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"go.uber.org/zap"

	"github.com/bizcopilot/copilot/internal/metrics"
	"github.com/bizcopilot/copilot/internal/models"
)

// Doer sends a single HTTP request. tls_client.HttpClient satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientInterface is the gateway surface used by the commands and the TUI
type ClientInterface interface {
	BaseURL() string
	PostJSON(ctx context.Context, path string, request, response any) error
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	Health(ctx context.Context) (*models.HealthResponse, error)
}

// Client is the gateway to the backend. It holds no conversation state.
type Client struct {
	baseURL string
	doer    Doer
	timeout time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
	headers map[string]string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithDoer replaces the HTTP transport
func WithDoer(d Doer) ClientOption {
	return func(c *Client) {
		c.doer = d
	}
}

// WithTimeout bounds every round trip. Zero leaves the transport default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the structured logger
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics records round trips on m
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHeader adds a header sent with every request
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// NewClient creates a gateway for baseURL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	client := &Client{
		baseURL: trimSlash(baseURL),
		log:     zap.NewNop(),
		headers: models.DefaultHeaders(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.doer == nil {
		doer, err := newTransport(client.timeout)
		if err != nil {
			return nil, err
		}
		client.doer = doer
	}

	return client, nil
}

// newTransport builds the default tls-client transport
func newTransport(timeout time.Duration) (Doer, error) {
	options := []tls_client.HttpClientOption{
		tls_client.WithClientProfile(profiles.Chrome_120),
	}
	if timeout > 0 {
		options = append(options, tls_client.WithTimeoutSeconds(int(timeout/time.Second)))
	}

	httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return httpClient, nil
}

// BaseURL returns the configured base address
func (c *Client) BaseURL() string {
	return c.baseURL
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
