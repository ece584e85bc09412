package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"coinranking_go/internal/domain"
)

var detailPeriod string

var detailCmd = &cobra.Command{
	Use:   "detail <coin-uuid>",
	Short: "Show one coin and its price history",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetail,
}

func init() {
	detailCmd.Flags().StringVar(&detailPeriod, "period", "", "1h | 7d | 30d | 1y | 3y | 5y (or 24H, 7D, ...)")
}

func runDetail(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ctrl, err := boot.NewDetail(args[0])
	if err != nil {
		return err
	}
	defer ctrl.Close()

	// Detail failures are only logged; the history is still shown.
	_ = ctrl.FetchAll(ctx)

	if detailPeriod != "" {
		p, err := domain.ParseTimePeriod(detailPeriod)
		if err != nil {
			return err
		}
		_ = ctrl.FetchHistory(ctx, p)
	}

	if d, ok := ctrl.Detail(); ok {
		rank := domain.Unknown
		if d.Rank != nil {
			rank = fmt.Sprint(*d.Rank)
		}
		fmt.Fprintf(out, "%s %s (%s)  rank %s\n", star(ctrl.IsFavorite()), d.Name, d.Symbol, rank)
		fmt.Fprintf(out, "  price       %s\n", domain.OrUnknown(d.Price))
		fmt.Fprintf(out, "  24h change  %s\n", domain.OrUnknown(d.Change))
		fmt.Fprintf(out, "  market cap  %s\n", domain.OrUnknown(d.MarketCap))
		fmt.Fprintf(out, "  24h volume  %s\n", domain.OrUnknown(d.Volume24h))
		fmt.Fprintf(out, "  website     %s\n", domain.OrUnknown(d.WebsiteURL))
		for _, l := range d.Links {
			fmt.Fprintf(out, "  link        %s (%s) %s\n", l.Name, l.Type, l.URL)
		}
	} else {
		fmt.Fprintf(out, "%s (details unavailable)\n", ctrl.CoinUUID())
	}

	points := ctrl.HistoryPoints()
	fmt.Fprintf(out, "\nHistory %s: %d points\n", ctrl.Period().Label(), len(points))
	if len(points) > 0 {
		first, last := points[len(points)-1], points[0]
		fmt.Fprintf(out, "  %s  %s\n", formatTs(first.Timestamp), domain.OrUnknown(first.Price))
		fmt.Fprintf(out, "  %s  %s\n", formatTs(last.Timestamp), domain.OrUnknown(last.Price))
	}
	return nil
}
