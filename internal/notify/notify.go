// Package notify listens for pushed notifications on the backend websocket.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"replay/internal/api"
)

const Path = "/ws/echo"

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Listener struct {
	url    string
	token  string
	dialer *websocket.Dialer
	logger *slog.Logger
}

// New derives the websocket URL from the API base URL.
func New(baseURL, token string, logger *slog.Logger) (*Listener, error) {
	u, err := WebsocketURL(baseURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Listener{url: u, token: token, dialer: websocket.DefaultDialer, logger: logger}, nil
}

func WebsocketURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("notify: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("notify: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + Path
	return u.String(), nil
}

func (l *Listener) URL() string { return l.url }

// Run reads pushed notifications into out until ctx is done or the socket
// fails. Frames of other types and malformed payloads are skipped.
func (l *Listener) Run(ctx context.Context, out chan<- api.Notification) error {
	header := http.Header{}
	if l.token != "" {
		header.Set("Authorization", "Bearer "+l.token)
	}
	conn, _, err := l.dialer.DialContext(ctx, l.url, header)
	if err != nil {
		return fmt.Errorf("notify: dial: %w", err)
	}
	l.logger.Info("notification socket connected", "url", l.url)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-stop:
			_ = conn.Close()
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("notify: read: %w", err)
		}
		n, err := decode(raw)
		if err != nil {
			if !errors.Is(err, errIgnored) {
				l.logger.Warn("bad notification frame", "err", err, "raw", string(raw))
			}
			continue
		}
		select {
		case out <- n:
		case <-ctx.Done():
			return nil
		}
	}
}

var errIgnored = errors.New("not a notification")

func decode(raw []byte) (api.Notification, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return api.Notification{}, err
	}
	if env.Type != "notification" || len(env.Payload) == 0 {
		return api.Notification{}, errIgnored
	}
	var n api.Notification
	if err := json.Unmarshal(env.Payload, &n); err != nil {
		return api.Notification{}, err
	}
	return n, nil
}
