package main

import (
	"fmt"
	"os"

	"github.com/mwantia/trainmap/cmd/trainmap/cli"
	"github.com/mwantia/trainmap/cmd/trainmap/cli/client"
	"github.com/mwantia/trainmap/cmd/trainmap/cli/server"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewVersionCommand())

	root.AddCommand(server.NewAgentCommand())
	root.AddCommand(server.NewConfigCommand())
	root.AddCommand(server.NewStateCommand())

	root.AddCommand(client.NewListCommand())
	root.AddCommand(client.NewExportCommand())
	root.AddCommand(client.NewFavoritesCommand())
	root.AddCommand(client.NewLocationCommand())

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
