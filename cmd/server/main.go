package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/multicloud/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug     bool `help:"Enable debug mode."`
		Version   kong.VersionFlag
		Serve     commands.ServeCmd     `cmd:"" default:"withargs" help:"Start the API server"`
		Migrate   commands.MigrateCmd   `cmd:"" help:"Apply database migrations and exit"`
		Bootstrap commands.BootstrapCmd `cmd:"" help:"Seed accounts and organizations from a YAML or JSON file"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Description("Multi-tenant cloud account API."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
