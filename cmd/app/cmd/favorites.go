package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"coinranking_go/internal/storage"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage favorite coins",
	Long: `Favorites are stored locally (or in Redis) under one key and shared by
every screen.

Examples:
  coinranking favorites add Qwsogvtv82FCd
  coinranking favorites toggle razxDUgYGNAdQ
  coinranking favorites export`,
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <coin-uuid>...",
	Short: "Mark coins as favorites",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if err := boot.Favorites.Add(cmd.Context(), id); err != nil {
				return err
			}
		}
		return printFavorites(cmd)
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <coin-uuid>...",
	Short: "Unmark favorite coins",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if err := boot.Favorites.Remove(cmd.Context(), id); err != nil {
				return err
			}
		}
		return printFavorites(cmd)
	},
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle <coin-uuid>",
	Short: "Flip one coin's favorite state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := boot.Favorites.Toggle(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", star(on), args[0])
		return nil
	},
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print favorite ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printFavorites(cmd)
	},
}

var exportKeep int

var favoritesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the favorites to a snapshot file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := boot.AcquireLock(); err != nil {
			return err
		}
		snap, err := boot.Snapshots.Save(storage.FavoritesKey, boot.Favorites.AllIDs())
		if err != nil {
			return err
		}
		if exportKeep > 0 {
			if err := boot.Snapshots.Cleanup(exportKeep); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "snapshot %d: %d favorites\n", snap.Seq, len(snap.IDs))
		return nil
	},
}

var favoritesRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the favorites with the newest snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := boot.AcquireLock(); err != nil {
			return err
		}
		snap, err := boot.Snapshots.LoadLatest()
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("no snapshot found")
		}
		if err := boot.Favorites.Replace(cmd.Context(), snap.IDs); err != nil {
			return err
		}
		return printFavorites(cmd)
	},
}

func init() {
	favoritesExportCmd.Flags().IntVar(&exportKeep, "keep", 5, "snapshots to keep (0 keeps all)")

	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
	favoritesCmd.AddCommand(favoritesToggleCmd)
	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesExportCmd)
	favoritesCmd.AddCommand(favoritesRestoreCmd)
}

func printFavorites(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	ids := boot.Favorites.AllIDs()
	fmt.Fprintf(out, "%d favorites\n", len(ids))
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}
