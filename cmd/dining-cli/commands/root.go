package commands

import (
	"context"
	"diningbot-backend/lib/configutil"
	"diningbot-backend/lib/restyutil"
	"diningbot-backend/lib/telemetry"
	"diningbot-backend/lib/util/serviceutil"
	"diningbot-backend/services/dining"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "dining-cli",
	Short: "dining-cli is a CLI for logging into the dining portal and managing the food catalog.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The path to the config file.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logs and request dumps.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig() dining.Config {
	cfg, err := configutil.ReadConfig[dining.Config](configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

func dumpOutput() restyutil.DumpOutput {
	if !verbose {
		return nil
	}
	output, err := restyutil.NewFilesystemOutput("<dev_state>/resty/dining-cli")
	if err != nil {
		serviceutil.Fatal("failed to create request dump directory", err)
	}
	return output
}

// openService opens the service described by the config with its
// catalog loaded, the returned function closes the database.
func openService(ctx context.Context) (*dining.Service, func()) {
	service, database, err := dining.Open(readConfig(), dumpOutput())
	if err != nil {
		serviceutil.Fatal("failed to initialize dining service", err)
	}
	err = service.Load(ctx)
	if err != nil {
		database.Close()
		serviceutil.Fatal("failed to load catalog", err)
	}
	return service, func() { database.Close() }
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
