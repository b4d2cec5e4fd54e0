package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/orthoroute/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the routing HTTP API",
		Long: `Serve runs the HTTP API with the cache backend from the configuration.

  POST /v1/route                  route a scene, store and return the layout
  POST /v1/render/{format}        route a scene and return one drawing
  GET  /v1/layouts/{id}           fetch a stored layout
  GET  /v1/layouts/{id}/{format}  draw a stored layout
  GET  /healthz                   liveness and build information`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.Config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			printInfo("Serving on %s (cache: %s)", StyleHighlight.Render(cfg.Addr), c.Config.Cache.Backend)
			return server.New(runner, c.Logger, cfg, c.baseOptions()).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
