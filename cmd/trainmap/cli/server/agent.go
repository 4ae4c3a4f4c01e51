package server

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwantia/trainmap/internal/agent"
	config "github.com/mwantia/trainmap/internal/config/server"
)

func NewAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the Trainmap agent",
		Long: `Start the Trainmap agent.

The agent loads the training feed, keeps the map model up to date and
serves it on the local bridge until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			return agent.NewAgent(cfg).Serve(context.Background())
		},
	}

	cmd.Flags().String("bridge", "", "bridge listen address (host:port)")
	bindFlag(cmd, "bridge.address", "bridge")

	return cmd
}
