package dining

import (
	"context"
	"diningbot-backend/lib/chrono"
	"diningbot-backend/lib/timezone"
	"log/slog"
	"time"
)

// SyncDaemon synchronizes the catalog on a cron schedule.
type SyncDaemon struct {
	service *Service
	spec    string
}

func NewSyncDaemon(service *Service, spec string) SyncDaemon {
	return SyncDaemon{service: service, spec: spec}
}

// Register schedules the daemon, every run is bounded by ctx.
func (d SyncDaemon) Register(ctx context.Context, scheduler chrono.Scheduler) error {
	return scheduler.Cron(d.spec, func() {
		d.Run(ctx)
	})
}

// Run performs one synchronization pass and waits for the cache to
// catch up.
func (d SyncDaemon) Run(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "SyncDaemon:Run")
	defer span.End()

	started := timezone.Now()

	result, err := d.service.Synchronize(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "scheduled synchronization failed", "err", err)
		return
	}
	err = result.Rebuild.Wait(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "food cache rebuild failed", "err", err)
		return
	}
	slog.InfoContext(
		ctx, "scheduled synchronization done",
		"added", result.AddedCount(),
		"failed_places", len(result.Failed),
		"foods", d.service.Catalog().Len(),
		"started", started.Format(time.DateTime),
		"took", time.Since(started),
	)
}
