// Package forward delivers booking job payloads to the external execution
// service as JSON POSTs. Delivery failures are reported as values so callers
// can record them without aborting the operation.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	URL     string        `split_words:"true"`
	Token   string        `split_words:"true"`
	Timeout time.Duration `split_words:"true" default:"10s"`
}

// Client posts JSON payloads to a single configured endpoint with an optional
// bearer token.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// Result captures one delivery attempt. Err is set on transport failures and
// non-2xx statuses; the body tail is kept for debugging either way.
type Result struct {
	Delivered  bool   `json:"delivered"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`
	Err        string `json:"error,omitempty"`
}

func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, errors.New("forward url is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid forward url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Post marshals payload and delivers it synchronously. The returned error is
// reserved for programmer mistakes (unmarshalable payload); delivery problems
// land in Result.Err.
func (c *Client) Post(ctx context.Context, payload any) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal forward payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Err: err.Error()}, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return Result{StatusCode: resp.StatusCode, Err: fmt.Sprintf("read forward response: %v", err)}, nil
	}

	res := Result{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(raw)),
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		res.Err = fmt.Sprintf("forward http status=%d", resp.StatusCode)
		return res, nil
	}
	res.Delivered = true
	return res, nil
}
