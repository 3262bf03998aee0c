package doctor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"replay/internal/config"
	"replay/internal/gateway"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestCheckAcceptsAnyHTTPAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	gw := gateway.New(gateway.Config{BaseURL: srv.URL})
	if err := Check(context.Background(), cfg, fakePinger{}, gw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckReportsUnreachableAPI(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := config.Default()
	cfg.API.BaseURL = url
	gw := gateway.New(gateway.Config{BaseURL: url})
	err := Check(context.Background(), cfg, fakePinger{}, gw)
	if err == nil || !strings.Contains(err.Error(), "unreachable") {
		t.Fatalf("expected unreachable error, got %v", err)
	}
}

func TestCheckReportsStoreFailure(t *testing.T) {
	err := Check(context.Background(), config.Default(), fakePinger{err: errors.New("locked")}, nil)
	if err == nil || !strings.Contains(err.Error(), "token store") {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestCheckRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.API.BaseURL = "ftp://example.test"
	if err := Check(context.Background(), cfg, nil, nil); err == nil {
		t.Fatalf("expected config error")
	}
}
