package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mwantia/trainmap/internal/agent"
)

func NewFavoritesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favourite trainings",
	}

	cmd.AddCommand(newFavoritesListCommand())
	cmd.AddCommand(newFavoritesSetCommand("add", "Mark trainings as favourite", true))
	cmd.AddCommand(newFavoritesSetCommand("rm", "Remove trainings from the favourites", false))

	return cmd
}

func newFavoritesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List favourite trainings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd, func(ctx context.Context, a *agent.TrainmapAgent) error {
				snap := a.Store().Snapshot()
				for _, id := range snap.FavoriteIDs() {
					t, _ := snap.Training(id)
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s %s\t%s\t%s\n", t.ID, t.Weekday, t.Start, t.Type, t.Location)
				}
				return nil
			})
		},
	}
}

func newFavoritesSetCommand(use, short string, favorite bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args))
			for _, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid training id '%s'", arg)
				}
				ids = append(ids, id)
			}

			return withAgent(cmd, func(ctx context.Context, a *agent.TrainmapAgent) error {
				snap := a.Store().Snapshot()
				for _, id := range ids {
					if _, ok := snap.Training(id); !ok && favorite {
						return fmt.Errorf("unknown training %d", id)
					}
					if err := a.Favorites().Set(ctx, id, favorite); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
