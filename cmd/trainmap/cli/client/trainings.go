package client

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mwantia/trainmap/internal/agent"
	"github.com/mwantia/trainmap/internal/state"
	"github.com/mwantia/trainmap/pkg/filter"
	"github.com/mwantia/trainmap/pkg/training"
)

type filterFlags struct {
	weekdays  []string
	locations []string
	types     []string
	ageGroups []string
	typeText  string
	search    string
	quick     string
	distance  float64
	query     string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.weekdays, "weekday", "d", nil, "weekdays (Montag, Dienstag, ...)")
	cmd.Flags().StringSliceVarP(&f.locations, "location", "o", nil, "locations")
	cmd.Flags().StringSliceVarP(&f.types, "type", "t", nil, "training types")
	cmd.Flags().StringSliceVarP(&f.ageGroups, "age-group", "a", nil, "age groups")
	cmd.Flags().StringVar(&f.typeText, "type-text", "", "case-insensitive part of a training type")
	cmd.Flags().StringVarP(&f.search, "search", "q", "", "fuzzy search term")
	cmd.Flags().StringVar(&f.quick, "quick", "", "quick filter (heute, morgen, wochenende, probetraining, in-der-naehe, favoriten)")
	cmd.Flags().Float64Var(&f.distance, "distance", 0, "maximum distance in km from your position")
	cmd.Flags().StringVar(&f.query, "query", "", "filter as URL query string, e.g. 'wochentag=Montag&ort=Halle+A'")
}

// state builds the filter through the same URL parameters the renderer uses.
func (f *filterFlags) state() (filter.State, error) {
	values := url.Values{}
	if f.query != "" {
		parsed, err := url.ParseQuery(f.query)
		if err != nil {
			return filter.State{}, fmt.Errorf("invalid query: %w", err)
		}
		values = parsed
	}

	values[filter.ParamWeekday] = append(values[filter.ParamWeekday], f.weekdays...)
	values[filter.ParamLocation] = append(values[filter.ParamLocation], f.locations...)
	values[filter.ParamType] = append(values[filter.ParamType], f.types...)
	values[filter.ParamAgeGroup] = append(values[filter.ParamAgeGroup], f.ageGroups...)
	if f.typeText != "" {
		values.Set(filter.ParamTypeText, f.typeText)
	}
	if f.search != "" {
		values.Set(filter.ParamSearch, f.search)
	}
	if f.quick != "" {
		if _, ok := filter.ParseQuickFilter(f.quick); !ok {
			return filter.State{}, fmt.Errorf("unknown quick filter '%s'", f.quick)
		}
		values.Set(filter.ParamQuick, f.quick)
	}
	if f.distance != 0 {
		if !filter.ValidDistance(f.distance) {
			return filter.State{}, fmt.Errorf("distance must be between %.0f and %.0f km", filter.MinDistanceKm, filter.MaxDistanceKm)
		}
		values.Set(filter.ParamDistance, strconv.FormatFloat(f.distance, 'f', -1, 64))
	}

	return filter.ParseQuery(values), nil
}

func NewListCommand() *cobra.Command {
	var flags filterFlags
	var asJSON, refresh bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List trainings",
		Long:    "List the trainings matching the given filters, nearest first when a position is set.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := flags.state()
			if err != nil {
				return err
			}

			return withAgent(cmd, func(ctx context.Context, a *agent.TrainmapAgent) error {
				if refresh {
					if err := a.Reload(ctx); err != nil {
						return err
					}
				}

				snap := a.Store().Dispatch(state.SetFilter{State: st})
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), snap.Filtered)
				}
				return printTrainings(cmd.OutOrStdout(), snap)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the feed even when the snapshot is fresh")

	return cmd
}

func NewExportCommand() *cobra.Command {
	var flags filterFlags
	var favoritesOnly bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export trainings as JSON",
		Long:  "Export the filtered trainings, or only the favourites, as a JSON array.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := flags.state()
			if err != nil {
				return err
			}
			if favoritesOnly {
				st = filter.ApplyQuick(filter.State{}, filter.FavoritesOnly{})
			}

			return withAgent(cmd, func(ctx context.Context, a *agent.TrainmapAgent) error {
				snap := a.Store().Dispatch(state.SetFilter{State: st})
				list := snap.Filtered
				if list == nil {
					list = []training.Training{}
				}
				return writeJSON(cmd.OutOrStdout(), list)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&favoritesOnly, "favorites", false, "export favourites only")

	return cmd
}

func printTrainings(w io.Writer, snap state.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTAG\tZEIT\tTRAINING\tORT\tENTFERNUNG\t")

	for _, t := range snap.Filtered {
		fav := ""
		if snap.Favorites[t.ID] {
			fav = " *"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%s-%s\t%s\t%s\t%s\t\n", t.ID, fav, t.Weekday, t.Start, t.End, t.Type, t.Location, t.DistanceText)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d von %d Trainings\n", len(snap.Filtered), len(snap.Trainings))
	return nil
}
