package doctor

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"replay/internal/config"
	"replay/internal/gateway"
)

// ProbePath is requested to confirm the backend answers. Any HTTP status
// counts as reachable.
const ProbePath = "/api/v1/schools"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Caller interface {
	Call(ctx context.Context, path string, opts gateway.Options) (gateway.Result, error)
}

func Check(ctx context.Context, cfg config.Config, db Pinger, gw Caller) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if db != nil {
		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("token store: %w", err)
		}
	}
	if gw == nil {
		return nil
	}
	_, err := gw.Call(ctx, ProbePath, gateway.Options{Query: url.Values{"page": {"1"}, "size": {"1"}}})
	var ne *gateway.NetworkError
	if err == nil || (errors.As(err, &ne) && !ne.Transport()) {
		return nil
	}
	return fmt.Errorf("api %s unreachable: %w", cfg.API.BaseURL, err)
}
