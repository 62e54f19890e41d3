package main

import (
	devenv "diningbot-backend/dev/env"
	"diningbot-backend/lib/sqliteutil"
	"diningbot-backend/services/dining/db"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

func CreateDiningDB() error {
	path, err := devenv.ResolvePath("<dev_state>/dining.db")
	if err != nil {
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	database, err := sqliteutil.Config{File: path}.OpenDB(db.Schema)
	if err != nil {
		return err
	}
	return database.Close()
}

const diningConfigTemplate = `{
  // copy to dining_config.json5 to run the tests that talk to the real portal
  sso_base_url: "https://sso.stu.sharif.ir",
  dining_base_url: "https://dining.sharif.ir",
  username: "",
  password: "",
  place_id: "21",
}
`

const serverConfigTemplate = `{
  database: { file: "<dev_state>/dining.db" },
  portal: { timeout_seconds: 30 },
  admin: { username: "", password: "" },
  places: ["21"],
  sync_cron: "0 */6 * * *",
  sync_on_start: false,
  session_ttl_minutes: 15,
}
`

func writeTemplate(name, contents string) error {
	path, err := devenv.GetStateFilePath(name)
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	fmt.Println("writing template config to", path)
	return os.WriteFile(path, []byte(contents), 0600)
}

// WriteConfigTemplates writes the dining_config.json5 template under a
// different name so the live tests stay skipped until it is filled in.
func WriteConfigTemplates() error {
	err := writeTemplate("dining_config.template.json5", diningConfigTemplate)
	if err != nil {
		return err
	}
	return writeTemplate("config.template.json5", serverConfigTemplate)
}

func PrintConfigLocations() {
	slog.Info("live portal tests are skipped until dev/.state/dining_config.json5 exists, copy dining_config.template.json5 there and fill in your credentials. config.template.json5 is a starting point for the config.json5 read by dining-server and dining-cli.")
}
