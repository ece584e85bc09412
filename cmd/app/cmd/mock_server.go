package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"coinranking_go/internal/mockapi"
)

var (
	mockAddr  string
	mockToken string
	mockCoins int
)

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Run a local fake of the upstream API",
	Long: `Serves /v2/coins, /v2/coin/{uuid} and /v2/coin/{uuid}/history from a
generated universe. Point CRYPTO_COINRANKING_BASE_URL at it.

Example:
  coinranking mock-server --addr :8089 --token dev`,
	// No config needed.
	PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return nil },
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:               runMockServer,
}

func init() {
	mockServerCmd.Flags().StringVar(&mockAddr, "addr", "localhost:8089", "listen address")
	mockServerCmd.Flags().StringVar(&mockToken, "token", "", "required x-access-token (empty accepts any)")
	mockServerCmd.Flags().IntVar(&mockCoins, "coins", 200, "generated coins after the majors")
}

func runMockServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	srv := &http.Server{
		Addr:              mockAddr,
		Handler:           mockapi.New(mockapi.WithToken(mockToken), mockapi.WithGenerated(mockCoins)).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	fmt.Fprintf(cmd.OutOrStdout(), "mock API listening on http://%s/v2\n", mockAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Mock server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
