package gateway

import (
	"bytes"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTransport returns a configured http.Transport for API calls.
func DefaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Middleware wraps an http.RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Wrap applies middlewares in order; the first one is the outermost.
func Wrap(base http.RoundTripper, middlewares ...Middleware) http.RoundTripper {
	for i := len(middlewares) - 1; i >= 0; i-- {
		base = middlewares[i](base)
	}
	return base
}

// RequestID tags every request with an X-Request-ID unless the caller set one.
func RequestID(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("X-Request-ID") == "" {
			req = req.Clone(req.Context())
			req.Header.Set("X-Request-ID", uuid.NewString())
		}
		return next.RoundTrip(req)
	})
}

// RequestGetBodySetter makes request bodies replayable for redirects.
func RequestGetBodySetter(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			req.Body.Close()
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.GetBody = func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(body)), nil
			}
		}
		return next.RoundTrip(req)
	})
}

// Logger logs each exchange. Request bodies are never logged since they carry
// credentials; error response bodies are logged up to maxErrorBody bytes.
func Logger(logger *slog.Logger, maxErrorBody int) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			logger.LogAttrs(req.Context(), slog.LevelDebug, "http request",
				slog.String("method", req.Method),
				slog.String("url", req.URL.Redacted()),
				slog.String("request_id", req.Header.Get("X-Request-ID")),
				slog.Any("headers", headerGroup(req.Header)),
			)

			start := time.Now()
			resp, err := next.RoundTrip(req)
			duration := time.Since(start)
			if err != nil {
				logger.LogAttrs(req.Context(), slog.LevelError, "http request failed",
					slog.String("method", req.Method),
					slog.String("url", req.URL.Redacted()),
					slog.Duration("duration", duration),
					slog.Any("error", err),
				)
				return resp, err
			}

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("url", req.URL.Redacted()),
				slog.Int("status", resp.StatusCode),
				slog.Duration("duration", duration),
			}
			level := slog.LevelDebug
			if resp.StatusCode >= 400 {
				level = slog.LevelWarn
				if body, ok := peekBody(resp, maxErrorBody); ok {
					attrs = append(attrs, slog.String("body", body))
				}
			}
			if resp.StatusCode >= 500 {
				level = slog.LevelError
			}
			logger.LogAttrs(req.Context(), level, "http response", attrs...)
			return resp, nil
		})
	}
}

func headerGroup(h http.Header) slog.Value {
	attrs := make([]slog.Attr, 0, len(h))
	for k, v := range h {
		if isSensitiveHeader(k) {
			attrs = append(attrs, slog.String(k, "[REDACTED]"))
			continue
		}
		attrs = append(attrs, slog.String(k, strings.Join(v, ", ")))
	}
	return slog.GroupValue(attrs...)
}

// peekBody reads the whole body, restores it for the caller and returns a prefix.
func peekBody(resp *http.Response, max int) (string, bool) {
	if max == 0 || resp.Body == nil {
		return "", false
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return "", false
	}
	if max > 0 && len(body) > max {
		body = body[:max]
	}
	return string(body), true
}

func isSensitiveHeader(name string) bool {
	switch strings.ToLower(name) {
	case "authorization", "cookie", "set-cookie", "x-api-key", "x-auth-token":
		return true
	}
	return false
}
