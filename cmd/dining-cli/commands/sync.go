package commands

import (
	"diningbot-backend/lib/util/serviceutil"
	"fmt"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronizes the catalog against every configured place and prints the new foods.",
	Run: func(cmd *cobra.Command, args []string) {
		service, cleanup := openService(cmd.Context())
		defer cleanup()

		result, err := service.Synchronize(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to synchronize", err)
		}
		err = result.Rebuild.Wait(cmd.Context())
		if err != nil {
			slog.Warn("failed to rebuild the food cache", "err", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"ID", "Added food"})
		for _, food := range result.Added {
			t.AppendRow(table.Row{food.Id, food.Name})
		}
		t.AppendFooter(table.Row{"Total", result.AddedCount()})
		t.Render()

		for place, err := range result.Failed {
			fmt.Fprintf(os.Stderr, "place %s was skipped: %s\n", place, err.Error())
		}
	},
}
