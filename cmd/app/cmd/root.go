// Package cmd holds the coinranking CLI commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"coinranking_go/internal/app"
)

var (
	cfgFile  string
	verbose  bool
	noBanner bool

	boot *app.Bootstrap
)

var rootCmd = &cobra.Command{
	Use:   "coinranking",
	Short: "Coin market catalog, detail and watchlist client",
	Long: `Coinranking market client

Commands:
    list         paginated, sortable coin catalog
    detail       one coin with its price history
    favorites    add / remove / toggle / list / export / restore
    watchlist    favorites filtered from the top of the catalog
    mock-server  local fake of the upstream API
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdownApp()
	},
}

// Execute runs the root command with a signal-aware context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noBanner, "no-banner", false, "skip the startup banner")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(detailCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(watchlistCmd)
	rootCmd.AddCommand(mockServerCmd)
}

func initApp(c *cobra.Command) error {
	boot = app.NewBootstrap()
	boot.Stderr = c.ErrOrStderr()
	if err := boot.Initialize(c.Context(), cfgFile, verbose); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		return err
	}
	if !noBanner {
		boot.PrintBanner()
	}
	return nil
}

func shutdownApp() error {
	if boot == nil {
		return nil
	}
	err := boot.Shutdown()
	boot = nil
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
