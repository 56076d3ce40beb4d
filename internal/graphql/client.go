// Package graphql is a minimal GraphQL-over-HTTP transport.
package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/hay-kot/oauth-sessions/pkg/randid"
)

// ErrUnauthorized is wrapped by HTTPError for 401 and 403 responses.
var ErrUnauthorized = errors.New("unauthorized")

// Options configures a Client.
type Options struct {
	Endpoint  string
	Token     string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the underlying client, mostly for tests.
	HTTPClient *http.Client
}

// Client posts GraphQL operations to a single endpoint.
type Client struct {
	http     *resty.Client
	endpoint string
	log      zerolog.Logger
}

// Request is the JSON body of a GraphQL operation.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// response is the JSON envelope every GraphQL server replies with.
type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []ErrorEntry    `json:"errors,omitempty"`
}

// ErrorEntry is one element of a GraphQL errors array.
type ErrorEntry struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// Error is returned when the server answers with a non-empty errors array.
type Error struct {
	Operation string
	Entries   []ErrorEntry
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Entries))
	for _, entry := range e.Entries {
		msgs = append(msgs, entry.Message)
	}
	return fmt.Sprintf("graphql %s: %s", e.Operation, strings.Join(msgs, "; "))
}

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// New creates a Client for opts.Endpoint.
func New(opts Options, log zerolog.Logger) *Client {
	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}

	rc.SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.Token != "" {
		rc.SetAuthToken(opts.Token)
	}
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Client{
		http:     rc,
		endpoint: opts.Endpoint,
		log:      log,
	}
}

// Do executes operation and decodes its data field into out. out may be nil.
func (c *Client) Do(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	requestID := randid.Generate(16)
	start := time.Now()

	var env response
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", requestID).
		SetBody(Request{
			Query:         query,
			OperationName: operation,
			Variables:     variables,
		}).
		SetResult(&env).
		ForceContentType("application/json").
		Post(c.endpoint)
	if err != nil {
		// resty hands back the response when only decoding the result failed
		if resp != nil && resp.IsSuccess() {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return fmt.Errorf("post %s: %w", operation, err)
	}

	c.log.Debug().
		Str("operation", operation).
		Str("request_id", requestID).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("graphql request")

	if resp.IsError() {
		return &HTTPError{
			StatusCode: resp.StatusCode(),
			Body:       truncate(strings.TrimSpace(resp.String()), 200),
		}
	}

	if len(env.Errors) > 0 {
		return &Error{Operation: operation, Entries: env.Errors}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", operation, err)
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
