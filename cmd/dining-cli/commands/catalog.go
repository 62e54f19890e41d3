package commands

import (
	"diningbot-backend/lib/catalog"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	listPage    int
	listSize    int
	searchLimit int
)

func init() {
	catalogListCmd.Flags().IntVar(&listPage, "page", 1, "The page to print, starting at 1.")
	catalogListCmd.Flags().IntVar(&listSize, "size", 20, "The number of foods per page.")
	catalogSearchCmd.Flags().IntVar(&searchLimit, "limit", 10, "The maximum number of results.")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Reads the persisted food catalog.",
}

func renderFoods(foods []catalog.Food, footer string) {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Food"})
	for _, food := range foods {
		t.AppendRow(table.Row{food.Id, food.Name})
	}
	if footer != "" {
		t.AppendFooter(table.Row{"", footer})
	}
	t.Render()
}

var catalogListCmd = &cobra.Command{
	Use:   "list [--page <n>] [--size <n>]",
	Short: "Prints a page of the catalog.",
	Run: func(cmd *cobra.Command, args []string) {
		service, cleanup := openService(cmd.Context())
		defer cleanup()

		c := service.Catalog()
		renderFoods(
			c.Page(listPage, listSize),
			fmt.Sprintf("page %d of %d (%d foods)", listPage, c.Pages(listSize), c.Len()),
		)
	},
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Searches the catalog for foods with similar names.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, cleanup := openService(cmd.Context())
		defer cleanup()

		renderFoods(service.Catalog().Search(args[0], searchLimit), "")
	},
}
