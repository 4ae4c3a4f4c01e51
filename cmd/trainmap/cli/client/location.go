package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwantia/trainmap/internal/agent"
	"github.com/mwantia/trainmap/internal/location"
)

func NewLocationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "location",
		Aliases: []string{"loc"},
		Short:   "Manage your position",
		Long:    "Set, show or reset the position used for distances and the nearby filter.",
	}

	cmd.AddCommand(newLocationShowCommand())
	cmd.AddCommand(newLocationSetCommand())
	cmd.AddCommand(newLocationDeviceCommand())
	cmd.AddCommand(newLocationResetCommand())
	cmd.AddCommand(newLocationLookupCommand())

	return cmd
}

func newLocationShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd, func(ctx context.Context, a *agent.TrainmapAgent) error {
				pos := a.Store().Snapshot().Position
				if pos == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Kein Standort gesetzt")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) %s\n", pos.LatLng, pos.Source, pos.Label)
				return nil
			})
		},
	}
}

func newLocationSetCommand() *cobra.Command {
	var lat, lng float64
	var label, address string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set a manual position",
		Long:  "Set a manual position from coordinates (--lat/--lng) or by looking up an address.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hasCoords := cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng")
			if !hasCoords && address == "" {
				return fmt.Errorf("either --lat and --lng or --address is required")
			}

			return withAgent(cmd, func(ctx context.Context, a *agent.TrainmapAgent) error {
				if !hasCoords {
					suggestion, err := a.Geocoder().Resolve(ctx, address)
					if err != nil {
						return err
					}
					lat, lng = suggestion.Lat, suggestion.Lng
					if label == "" {
						label = suggestion.Label
					}
				}

				if err := a.Location().SetManualLocation(ctx, lat, lng, label); err != nil {
					return errors.New(location.Message(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Standort gesetzt: %.5f, %.5f %s\n", lat, lng, label)
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().StringVar(&label, "label", "", "label shown on the map")
	cmd.Flags().StringVar(&address, "address", "", "address to look up")

	return cmd
}

func newLocationDeviceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "device",
		Short: "Use the configured device position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd, func(ctx context.Context, a *agent.TrainmapAgent) error {
				pos, err := a.Location().RequestDeviceLocation(ctx)
				if err != nil {
					return errors.New(location.Message(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Standort gesetzt: %s\n", pos)
				return nil
			})
		},
	}
}

func newLocationResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd, func(ctx context.Context, a *agent.TrainmapAgent) error {
				a.Location().ResetLocation(ctx)
				return nil
			})
		},
	}
}

func newLocationLookupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <address>",
		Short: "Look up address suggestions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd, func(ctx context.Context, a *agent.TrainmapAgent) error {
				suggestions, err := a.Geocoder().SearchAddress(ctx, args[0])
				if err != nil {
					return err
				}
				for _, s := range suggestions {
					fmt.Fprintf(cmd.OutOrStdout(), "%.5f\t%.5f\t%s\n", s.Lat, s.Lng, s.Label)
				}
				return nil
			})
		},
	}
}
