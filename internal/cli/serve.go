package cli

import (
	"github.com/spf13/cobra"

	"coursebook/internal/app"
	"coursebook/internal/config"
)

func (c *CLI) newServeCmd() *cobra.Command {
	var addr string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the import watcher and scheduled exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mutate := func(cfg *config.Config) {
				if addr != "" {
					cfg.HTTP.Enabled = true
					cfg.HTTP.Addr = addr
				}
				if watch {
					cfg.Importer.Enabled = true
				}
			}
			return c.withApp(mutate, func(a *app.App) error {
				return a.Serve(cmd.Context())
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides http.addr")
	cmd.Flags().BoolVar(&watch, "watch", false, "Enable the import directory watcher")
	return cmd
}

func (c *CLI) newMCPCmd() *cobra.Command {
	var noHTTP bool
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the authoring tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mutate := func(cfg *config.Config) {
				if noHTTP {
					cfg.HTTP.Enabled = false
				}
			}
			return c.withApp(mutate, func(a *app.App) error {
				return a.ServeMCP(cmd.Context())
			})
		},
	}
	cmd.Flags().BoolVar(&noHTTP, "no-http", false, "Do not start the HTTP API next to the MCP server")
	return cmd
}
