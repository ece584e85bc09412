package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	watchFollow   bool
	watchInterval time.Duration
)

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Show favorites from the top of the catalog",
	Long: `Fetches the top of the catalog once and keeps the favorites. Favorites
ranked below the window are not listed.

With --follow the stored favorites are polled every --interval and the list
is reprinted whenever they change, including changes made by another
process such as "coinranking favorites add". Runs until interrupted.`,
	RunE: runWatchlist,
}

func init() {
	watchlistCmd.Flags().BoolVarP(&watchFollow, "follow", "f", false, "keep running and reprint on changes")
	watchlistCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "favorites poll interval with --follow")
}

func runWatchlist(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	agg := boot.NewWatchlist()
	defer agg.Close()

	updates := agg.Updates().Subscribe()
	defer updates.Close()
	failures := agg.Errors().Subscribe()
	defer failures.Close()

	if err := agg.Refresh(ctx); err != nil && !watchFollow {
		return err
	}
	if watchFollow {
		if watchInterval <= 0 {
			return fmt.Errorf("--interval must be positive")
		}
		go boot.Favorites.Watch(ctx, watchInterval)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-updates.C:
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "Watchlist · %d coins\n", len(ev.Coins))
			if err := printAssets(out, ev.Coins, boot.Favorites.IsFavorite); err != nil {
				return err
			}
			if !watchFollow {
				return nil
			}
		case f, ok := <-failures.C:
			if !ok {
				return nil
			}
			printFailure(cmd.ErrOrStderr(), f)
			if !watchFollow {
				return fmt.Errorf("%s", f.Error.Message)
			}
		}
	}
}
