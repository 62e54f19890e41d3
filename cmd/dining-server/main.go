package main

import (
	"diningbot-backend/lib/chrono"
	"diningbot-backend/lib/configutil"
	"diningbot-backend/lib/util/serviceutil"
	"diningbot-backend/services/dining"
	"flag"
	"log/slog"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "The path to the config file.")
	initialSync := flag.Bool("sync", false, "Synchronize the catalog immediately on run.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	dumps := InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[dining.Config](*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.SyncCron == "" {
		cfg.SyncCron = dining.DefaultSyncCron
	}

	service, database, err := dining.Open(cfg, dumps)
	if err != nil {
		serviceutil.Fatal("init dining service", err)
	}
	defer database.Close()

	err = service.Load(ctx)
	if err != nil {
		serviceutil.Fatal("load catalog", err)
	}

	daemon := dining.NewSyncDaemon(service, cfg.SyncCron)
	cron := chrono.NewCron()
	err = daemon.Register(ctx, cron)
	if err != nil {
		serviceutil.Fatal("schedule synchronization", err)
	}
	if *initialSync || cfg.SyncOnStart {
		go daemon.Run(ctx)
	}

	slog.Info(
		"dining server started",
		"places", cfg.Places,
		"sync_cron", cfg.SyncCron,
		"foods", service.Catalog().Len(),
	)
	cron.Run(ctx)
	slog.Info("dining server stopped")
}
