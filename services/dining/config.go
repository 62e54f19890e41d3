package dining

import (
	"database/sql"
	"diningbot-backend/lib/restyutil"
	scraper "diningbot-backend/lib/scrapers/dining"
	"diningbot-backend/lib/sqliteutil"
	"diningbot-backend/services/dining/db"
	"fmt"
	"time"
)

type PortalConfig struct {
	SsoBaseUrl       string `json:"sso_base_url"`
	DiningBaseUrl    string `json:"dining_base_url"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
}

type AdminConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Config struct {
	Database sqliteutil.Config `json:"database"`
	Portal   PortalConfig      `json:"portal"`
	Admin    AdminConfig       `json:"admin"`
	Places   []string          `json:"places"`
	// SyncCron is a cron spec in the portal's timezone.
	SyncCron          string `json:"sync_cron"`
	SyncOnStart       bool   `json:"sync_on_start"`
	SessionTtlMinutes int    `json:"session_ttl_minutes"`
}

const DefaultSyncCron = "0 */6 * * *"

// Open opens the database and builds the service described by the
// config, Service.Load must still be called before the catalog is used.
func Open(cfg Config, dumps restyutil.DumpOutput) (*Service, *sql.DB, error) {
	if cfg.Admin.Username == "" || cfg.Admin.Password == "" {
		return nil, nil, fmt.Errorf("admin username and password are required")
	}

	client, err := scraper.NewClient(scraper.ClientOptions{
		SsoBaseUrl:       cfg.Portal.SsoBaseUrl,
		DiningBaseUrl:    cfg.Portal.DiningBaseUrl,
		Timeout:          time.Duration(cfg.Portal.TimeoutSeconds) * time.Second,
		CloudflareBypass: cfg.Portal.CloudflareBypass,
		DumpOutput:       dumps,
	})
	if err != nil {
		return nil, nil, err
	}

	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		return nil, nil, err
	}

	service := NewService(database, Options{
		Client: client,
		Admin: scraper.Credential{
			Identifier: cfg.Admin.Username,
			Secret:     cfg.Admin.Password,
		},
		Places:     cfg.Places,
		SessionTTL: time.Duration(cfg.SessionTtlMinutes) * time.Minute,
	})
	return service, database, nil
}
