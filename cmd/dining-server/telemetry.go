package main

import (
	"context"
	"diningbot-backend/lib/restyutil"
	"diningbot-backend/lib/telemetry"
	"errors"
	"log/slog"
	"os"
)

// InitTelemetry sets up logging and, if a telemetry.json5 can be found,
// exporting traces and metrics. Request dumps are only written when
// verbose.
func InitTelemetry(ctx context.Context, verbose bool) restyutil.DumpOutput {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	tel, err := telemetry.SetupFromEnv(ctx, "dining-server")
	if errors.Is(err, os.ErrNotExist) {
		slog.WarnContext(ctx, "no telemetry.json5 found, traces and metrics will not be exported")
	} else if err != nil {
		slog.ErrorContext(ctx, "failed to setup telemetry", "err", err)
	} else {
		go func() {
			<-ctx.Done()
			tel.Shutdown(context.Background())
		}()
	}
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return nil
	}
	output, err := restyutil.NewFilesystemOutput("<dev_state>/resty/dining")
	if err != nil {
		slog.WarnContext(ctx, "request dumps disabled", "err", err)
		return nil
	}
	return output
}
