package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"coinranking_go/internal/domain"
)

var (
	listPages   int
	listSort    string
	listRefresh bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the coin catalog",
	Long: `Loads the catalog page by page up to the configured cap and prints it
in the requested order.

Examples:
  coinranking list --pages 5
  coinranking list --sort change:desc`,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVar(&listPages, "pages", 1, "number of pages to load")
	listCmd.Flags().StringVar(&listSort, "sort", "", "rank | price[:asc|desc] | change[:asc|desc]")
	listCmd.Flags().BoolVar(&listRefresh, "refresh", false, "reload the first page after loading")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctrl, err := boot.NewCatalog()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	for i := 0; i < listPages; i++ {
		if ctrl.Pagination().Exhausted() {
			break
		}
		if err := ctrl.FetchNextPage(ctx); err != nil {
			return err
		}
	}
	if listRefresh {
		if err := ctrl.Refresh(ctx); err != nil {
			return err
		}
	}

	if listSort != "" {
		sc, err := domain.ParseSortCriterion(listSort)
		if err != nil {
			return err
		}
		if err := ctrl.ApplyFilter(sc); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	p := ctrl.Pagination()
	fmt.Fprintf(out, "%s · %d coins · offset %d/%d\n\n",
		ctrl.Criterion().Title(), len(ctrl.Assets()), p.Offset, p.Cap)
	return printAssets(out, ctrl.Assets(), boot.Favorites.IsFavorite)
}
