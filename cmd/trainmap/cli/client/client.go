package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mwantia/trainmap/internal/agent"
	config "github.com/mwantia/trainmap/internal/config/server"
)

// openAgent loads the configuration and opens the state without serving
// the map. The caller must Close the returned agent.
func openAgent(cmd *cobra.Command) (*agent.TrainmapAgent, error) {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	a := agent.NewAgent(cfg)
	if err := a.Open(cmd.Context()); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func withAgent(cmd *cobra.Command, fn func(ctx context.Context, a *agent.TrainmapAgent) error) error {
	a, err := openAgent(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
