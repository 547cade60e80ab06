// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bureau-foundation/console/lib/netutil"
)

// DefaultRequestTimeout bounds one JSON request when Config leaves
// RequestTimeout unset.
const DefaultRequestTimeout = 30 * time.Second

// Config holds configuration for creating a Client.
type Config struct {
	// ServerURL is the base URL of the agent server (e.g.,
	// "http://127.0.0.1:4096").
	ServerURL string

	// Directory is sent with every request as the "directory" query
	// parameter. Empty means the server's own working directory.
	Directory string

	// RequestTimeout bounds each JSON request. It does not apply to
	// the event stream. Zero means DefaultRequestTimeout.
	RequestTimeout time.Duration

	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used. Its Timeout must be zero or the event stream will be cut.
	HTTPClient *http.Client

	// Logger is used for structured logging. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// Client talks to one agent server.
type Client struct {
	baseURL        string
	directory      string
	requestTimeout time.Duration
	httpClient     *http.Client
	logger         *slog.Logger
}

// New creates a Client.
func New(config Config) (*Client, error) {
	if config.ServerURL == "" {
		return nil, fmt.Errorf("agentclient: ServerURL is required")
	}
	parsed, err := url.Parse(config.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("agentclient: invalid ServerURL %q: %w", config.ServerURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("agentclient: ServerURL %q must be http or https", config.ServerURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &Client{
		baseURL:        strings.TrimRight(config.ServerURL, "/"),
		directory:      config.Directory,
		requestTimeout: timeout,
		httpClient:     httpClient,
		logger:         logger,
	}, nil
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's pool. The reconnection loop calls this after a stream
// failure so the next attempt does not reuse a dead connection.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// requestURL builds the URL for path with query plus the directory
// parameter.
func (c *Client) requestURL(path string, query url.Values) string {
	if c.directory != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("directory", c.directory)
	}
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}
	return requestURL
}

// get issues a GET for path and decodes the JSON response into result.
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(path, query), nil)
	if err != nil {
		return fmt.Errorf("agentclient: failed to create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("agentclient: request to GET %s failed: %w", path, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return decodeError(response)
	}

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("agentclient: failed to read response body from GET %s: %w", path, err)
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("agentclient: decoding response from GET %s: %w", path, err)
	}
	return nil
}

// decodeError turns a non-2xx response into an *APIError.
func decodeError(response *http.Response) error {
	raw := netutil.ErrorBody(response.Body)
	var body errorBody
	if err := json.Unmarshal([]byte(raw), &body); err != nil || body.Name == "" {
		return &APIError{StatusCode: response.StatusCode, Message: strings.TrimSpace(raw)}
	}
	return &APIError{StatusCode: response.StatusCode, Name: body.Name, Message: body.Data.Message}
}

func sessionPath(sessionID string, suffix string) string {
	return "/session/" + url.PathEscape(sessionID) + suffix
}
