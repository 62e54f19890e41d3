package commands

import (
	"diningbot-backend/lib/textutil"
	"diningbot-backend/lib/util/serviceutil"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var foodsMatch []string

func init() {
	foodsCmd.Flags().StringSliceVar(&foodsMatch, "match", nil, "Only print foods whose names contain one of these words.")
	rootCmd.AddCommand(foodsCmd)
}

var foodsCmd = &cobra.Command{
	Use:   "foods <place_id> [--match <word>,...]",
	Short: "Lists the foods served at a place this week and whether the catalog knows them.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, cleanup := openService(cmd.Context())
		defer cleanup()

		foods, err := service.ListFoods(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to list foods", err)
		}

		matchers := make([]string, len(foodsMatch))
		for i, m := range foodsMatch {
			matchers[i] = textutil.SearchKey(m)
		}

		names := make([]string, 0, len(foods))
		for name := range foods {
			if len(matchers) > 0 && !textutil.MatchName(name, matchers) {
				continue
			}
			names = append(names, name)
		}
		slices.Sort(names)

		t := newTable()
		t.AppendHeader(table.Row{"Food", "In catalog"})
		for _, name := range names {
			t.AppendRow(table.Row{name, service.Catalog().Known(name)})
		}
		t.Render()
	},
}
