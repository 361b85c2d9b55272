// Package api is the network boundary between the client and the churn
// analysis service.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/csheth/churnscout/internal/response"
)

const (
	DefaultEndpoint     = "http://localhost:8000/api/query"
	DefaultRequestField = "user_query"
	defaultHTTPTimeout  = 2 * time.Minute
	maxErrorBody        = 512
)

// ErrTransport wraps every failure that prevented a decodable reply from
// arriving: dial errors, non-2xx statuses, unreadable or malformed bodies.
var ErrTransport = errors.New("api: transport failure")

// StatusError records a non-2xx reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("service returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("service returned %d %s (%s)", e.Code, http.StatusText(e.Code), e.Body)
}

// Config describes how to build a Client.
type Config struct {
	Endpoint string
	// RequestField names the JSON key that carries the query text.
	RequestField string
	HTTPClient   *http.Client
	Timeout      time.Duration
	Logger       zerolog.Logger
}

// Client sends one query and returns the decoded reply.
type Client interface {
	Query(ctx context.Context, text string) (response.QueryResponse, error)
	Endpoint() string
}

// New builds the HTTP client for cfg, filling in defaults.
func New(cfg Config) (Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("api: endpoint %q must be an http(s) URL", endpoint)
	}
	field := strings.TrimSpace(cfg.RequestField)
	if field == "" {
		field = DefaultRequestField
	}
	return &httpClient{
		endpoint: endpoint,
		field:    field,
		client:   pickHTTPClient(cfg.HTTPClient, cfg.Timeout),
		logger:   cfg.Logger.With().Str("component", "api").Logger(),
	}, nil
}

func pickHTTPClient(custom *http.Client, timeout time.Duration) *http.Client {
	if custom != nil {
		return custom
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	// Agent runs behind the service can take a while; the timeout is the only bound on a query.
	return &http.Client{Timeout: timeout}
}
