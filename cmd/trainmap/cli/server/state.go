package server

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	config "github.com/mwantia/trainmap/internal/config/server"
	"github.com/mwantia/trainmap/pkg/db/store"
)

func NewStateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the local state store",
		Long: `Inspect or reset the local state store.

The store keeps the feed snapshot, the manual position, the last map
view and the favourites.`,
	}

	cmd.AddCommand(newStateStatusCommand())
	cmd.AddCommand(newStateResetCommand())

	return cmd
}

func withStateStore(ctx context.Context, fn func(*store.SQLiteStore) error) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path:     cfg.Metadata.SQLite.Path,
		LogLevel: store.ParseLogLevel(cfg.Log.SQL),
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect state store: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate state store: %w", err)
	}
	return fn(db)
}

func newStateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show schema versions and stored slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStateStore(ctx, func(db *store.SQLiteStore) error {
				statuses, err := db.MigrationStatus(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tDESCRIPTION\tAPPLIED")
				for _, st := range statuses {
					applied := "-"
					if st.Applied {
						applied = st.AppliedAt.Local().Format(time.DateTime)
					}
					fmt.Fprintf(w, "%d\t%s\t%s\n", st.Version, st.Description, applied)
				}
				if err := w.Flush(); err != nil {
					return err
				}

				if snapshot, err := db.GetFeedSnapshot(ctx); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "\nFeed snapshot from %s (%s)\n", snapshot.FetchedAt.Local().Format(time.DateTime), snapshot.Source)
				}
				if ids, err := db.ListFavorites(ctx); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%d favourites\n", len(ids))
				}
				return nil
			})
		},
	}
}

func newStateResetCommand() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every stored slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("this deletes favourites and the saved position, pass --confirm to continue")
			}

			ctx := cmd.Context()
			return withStateStore(ctx, func(db *store.SQLiteStore) error {
				if err := db.Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "State store reset")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&confirm, "confirm", "c", false, "confirm the deletion")

	return cmd
}
