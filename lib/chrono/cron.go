package chrono

import (
	"context"
	"diningbot-backend/lib/timezone"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler is what anything that runs on a cron schedule depends on.
type Scheduler interface {
	Cron(spec string, callback func()) error
}

// Cron is the standard Scheduler backed by `github.com/robfig/cron/v3`,
// schedules are interpreted in timezone.Location.
type Cron struct {
	cron *cron.Cron
}

func NewCron() Cron {
	return Cron{
		cron: cron.New(
			cron.WithLogger(cronLogger{}),
			cron.WithLocation(timezone.Location),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
		),
	}
}

func (c Cron) Cron(spec string, callback func()) error {
	_, err := c.cron.AddFunc(spec, callback)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	return nil
}

// Run starts the scheduler and blocks until the context is cancelled,
// then waits for running jobs to finish.
func (c Cron) Run(ctx context.Context) {
	c.cron.Start()
	<-ctx.Done()
	<-c.cron.Stop().Done()
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(fmt.Sprintf("cron: %s", msg), keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(fmt.Sprintf("cron: %s", msg), append(keysAndValues, "err", err)...)
}
