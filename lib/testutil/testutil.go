package testutil

import (
	"database/sql"
	"diningbot-backend/lib/sqliteutil"
	"diningbot-backend/lib/telemetry"
	"fmt"
	"testing"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`, "<dev_state>" paths are
	// resolved
	DbPath string
}

type ServiceResult struct {
	DB *sql.DB
}

// SetupService sets up telemetry and a database with the given schema
// for a test, the returned function tears both down.
func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanupTelemetry := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))
	if params.DbSchema == "" {
		return ServiceResult{}, cleanupTelemetry
	}

	var database *sql.DB
	var err error
	if params.DbPath == "" || params.DbPath == ":memory:" {
		database, err = sqliteutil.OpenMemory(params.DbSchema)
	} else {
		database, err = sqliteutil.Config{File: params.DbPath}.OpenDB(params.DbSchema)
	}
	if err != nil {
		t.Fatal(err)
	}

	return ServiceResult{DB: database}, func() {
		database.Close()
		cleanupTelemetry()
	}
}
