package commands

import (
	"diningbot-backend/lib/scrapers/dining"
	"diningbot-backend/lib/util/serviceutil"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Logs into the portal with the admin account and prints the session.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		client, err := dining.NewClient(dining.ClientOptions{
			SsoBaseUrl:       cfg.Portal.SsoBaseUrl,
			DiningBaseUrl:    cfg.Portal.DiningBaseUrl,
			Timeout:          time.Duration(cfg.Portal.TimeoutSeconds) * time.Second,
			CloudflareBypass: cfg.Portal.CloudflareBypass,
			DumpOutput:       dumpOutput(),
		})
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}

		session, err := client.Login(cmd.Context(), dining.Credential{
			Identifier: cfg.Admin.Username,
			Secret:     cfg.Admin.Password,
		})
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Field", "Value"})
		t.AppendRow(table.Row{"Identifier", session.Identifier()})
		t.AppendRow(table.Row{"User ID", session.UserId()})
		for name := range session.Cookies() {
			t.AppendRow(table.Row{fmt.Sprintf("Cookie %s", name), "(set)"})
		}
		t.Render()
	},
}
