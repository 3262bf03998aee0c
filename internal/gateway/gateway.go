// Package gateway issues JSON requests against the Replay API.
//
// Every response body is read as text first. Failure statuses become a
// *NetworkError carrying that text; success bodies are parsed as JSON when
// possible and returned as the raw string otherwise, since the token endpoints
// answer with a bare string.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Transport replaces the default transport; tests point it at httptest servers.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Options describe one call. Method defaults to GET, or POST when Body is set.
type Options struct {
	Method string
	Query  url.Values
	Body   any
	Token  string
}

// Result is a successful response. Value is the parsed JSON document, or the
// raw text when the body was not JSON.
type Result struct {
	Status int
	Text   string
	Value  any
}

func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	base := cfg.Transport
	if base == nil {
		base = DefaultTransport()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: Wrap(
				base,
				RequestID,
				RequestGetBodySetter,
				Logger(logger, 512),
			),
		},
		logger: logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Call(ctx context.Context, path string, opts Options) (Result, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
		if opts.Body != nil {
			method = http.MethodPost
		}
	}

	target := c.baseURL + path
	if len(opts.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + opts.Query.Encode()
	}

	var body io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return Result{}, fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Result{}, &NetworkError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &NetworkError{Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	text := string(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &NetworkError{Method: method, Path: path, Status: resp.StatusCode, Body: text}
	}
	return Result{Status: resp.StatusCode, Text: text, Value: parseLenient(text)}, nil
}

func parseLenient(text string) any {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	return v
}

// Decode unmarshals the response text into v.
func (r Result) Decode(v any) error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal([]byte(r.Text), v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// AsString returns the value when the response was a bare or JSON-encoded string.
func (r Result) AsString() (string, bool) {
	s, ok := r.Value.(string)
	return s, ok
}
