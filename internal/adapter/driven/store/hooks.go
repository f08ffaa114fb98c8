package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
)

var _ bun.QueryHook = (*slowQueryHook)(nil)

// slowQueryHook logs successful queries that ran longer than threshold.
type slowQueryHook struct {
	threshold time.Duration
	logger    *slog.Logger
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if event.Err != nil {
		return
	}

	duration := time.Since(event.StartTime)
	if duration <= h.threshold {
		return
	}

	h.logger.Warn("slow query",
		"operation", event.Operation(),
		"duration", duration.Round(time.Microsecond),
		"threshold", h.threshold,
		"query", event.Query,
	)
}
