package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultURL is the public Piston execute endpoint.
const DefaultURL = "https://emkc.org/api/v2/piston/execute"

// Client is the HTTP implementation of Runner.
type Client struct {
	url  string
	http *http.Client
	log  *zerolog.Logger
}

// NewClient builds a runner client for the given execute URL. A zero
// timeout means the transport default applies.
func NewClient(url string, timeout time.Duration, logger *zerolog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
		log:  logger,
	}
}

// Execute performs a single best-effort call to the execution service.
// Any failure comes back as *Error with a message suitable for users.
func (c *Client) Execute(ctx context.Context, req ExecRequest) (*ExecResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal exec request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build exec request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn().Err(err).Str("url", c.url).Msg("execution service unreachable")
		return nil, &Error{Message: FallbackMessage}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn().Err(err).Msg("read execution response")
		return nil, &Error{Message: FallbackMessage}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn().Int("status", resp.StatusCode).Msg("execution service rejected request")
		return nil, &Error{Message: errorMessage(data)}
	}

	var out ExecResponse
	if err := json.Unmarshal(data, &out); err != nil {
		c.log.Warn().Err(err).Msg("malformed execution response")
		return nil, &Error{Message: FallbackMessage}
	}
	return &out, nil
}

// errorMessage digs a message field out of an error body, falling back
// to the fixed string when there is none.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return FallbackMessage
}
