package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"coinranking_go/internal/domain"
	"coinranking_go/internal/event"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func star(on bool) string {
	if on {
		return "★"
	}
	return " "
}

func printAssets(w io.Writer, assets []domain.Asset, isFavorite func(string) bool) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "\tRANK\tSYMBOL\tNAME\tPRICE\t24H\tMARKET CAP\tUUID")
	for _, a := range assets {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			star(isFavorite(a.UUID)), a.Rank, a.Symbol, a.Name,
			domain.OrUnknown(a.Price), domain.OrUnknown(a.Change), domain.OrUnknown(a.MarketCap), a.UUID)
	}
	return tw.Flush()
}

func printFailure(w io.Writer, f event.Failure) {
	fmt.Fprintf(w, "%s: %s\n", f.Error.Title, f.Error.Message)
}

func formatTs(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}
