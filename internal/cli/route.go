package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orthoroute/pkg/client"
	"github.com/matzehuels/orthoroute/pkg/pipeline"
	"github.com/matzehuels/orthoroute/pkg/render"
	"github.com/matzehuels/orthoroute/pkg/scene"
)

type routeOpts struct {
	renderFlags
	margin       float64
	channelWidth float64
	slotSpacing  float64
	resize       bool
	noCache      bool
	refresh      bool
	server       string
	graph        string
	stats        bool
}

// routeCommand routes a scene file and writes the layout in the requested
// formats.
func (c *CLI) routeCommand() *cobra.Command {
	var opts routeOpts

	cmd := &cobra.Command{
		Use:   "route [scene]",
		Short: "Route the connections of a scene (JSON or TOML)",
		Long: `Route reads a scene of boxes and connections, routes every connection
along the channels between the boxes and writes the result.

The json format is the routed layout, which render and inspect read back.`,
		Example: `  orthoroute route diagram.toml
  orthoroute route diagram.json -f svg,json --resize --channels
  orthoroute route diagram.json --server http://localhost:8080`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoute(cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().Float64Var(&opts.margin, "margin", 0, "space between the scene and the outer channels")
	cmd.Flags().Float64Var(&opts.channelWidth, "channel-width", 0, "width of an empty channel when resizing")
	cmd.Flags().Float64Var(&opts.slotSpacing, "slot-spacing", 0, "distance between parallel tracks when resizing")
	cmd.Flags().BoolVar(&opts.resize, "resize", false, "move boxes apart so every channel fits its tracks")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "route again even if a cached layout exists")
	cmd.Flags().StringVar(&opts.server, "server", "", "route on an orthoroute server instead of locally")
	cmd.Flags().StringVar(&opts.graph, "graph", "", "also write the routing graph as DOT to this file")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print routing statistics")

	return cmd
}

func (c *CLI) routeOptions(cmd *cobra.Command, opts *routeOpts) (pipeline.Options, error) {
	p := c.baseOptions()
	if err := opts.apply(cmd, &p); err != nil {
		return p, err
	}
	if cmd.Flags().Changed("margin") {
		p.Margin = opts.margin
	}
	if cmd.Flags().Changed("channel-width") {
		p.BaseChannelWidth = opts.channelWidth
	}
	if cmd.Flags().Changed("slot-spacing") {
		p.SlotSpacing = opts.slotSpacing
	}
	if cmd.Flags().Changed("resize") {
		p.Resize = opts.resize
	}
	p.Refresh = opts.refresh
	return p, p.ValidateAndSetDefaults()
}

func (c *CLI) runRoute(cmd *cobra.Command, input string, opts *routeOpts) error {
	ctx := cmd.Context()
	p, err := c.routeOptions(cmd, opts)
	if err != nil {
		return err
	}

	s, err := scene.ImportScene(input)
	if err != nil {
		return err
	}
	c.Logger.Debug("loaded scene", "path", input, "boxes", len(s.Boxes), "connections", len(s.Connections))

	var (
		layout    *scene.Layout
		artifacts map[string][]byte
		cached    bool
	)
	spinner := newSpinner(ctx, fmt.Sprintf("Routing %d connections...", len(s.Connections)))
	spinner.Start()
	prog := newProgress(c.Logger)
	if opts.server != "" {
		layout, artifacts, cached, err = c.routeRemote(ctx, opts.server, s, p)
	} else {
		layout, artifacts, cached, err = c.routeLocal(ctx, s, p, opts.noCache)
	}
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("routed scene", "edges", len(layout.Edges), "cached", cached)

	printSuccess("Routed %s", input)
	printStats(layout, cached)
	if err := writeArtifacts(artifacts, p.Formats, opts.output, input); err != nil {
		return err
	}

	if opts.graph != "" {
		if err := c.writeGraph(ctx, s, p, opts.graph); err != nil {
			return err
		}
		printFile(opts.graph)
	}
	if opts.stats {
		fmt.Fprintln(stdout, statsTable(layout))
	}
	return nil
}

func (c *CLI) routeLocal(ctx context.Context, s *scene.Scene, p pipeline.Options, noCache bool) (*scene.Layout, map[string][]byte, bool, error) {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return nil, nil, false, err
	}
	defer runner.Close()

	res, err := runner.Execute(ctx, s, p)
	if err != nil {
		return nil, nil, false, err
	}
	return res.Layout, res.Artifacts, res.CacheInfo.RouteHit, nil
}

func (c *CLI) routeRemote(ctx context.Context, url string, s *scene.Scene, p pipeline.Options) (*scene.Layout, map[string][]byte, bool, error) {
	api := client.New(url, nil)
	layout, cached, err := api.Route(ctx, s, p)
	if err != nil {
		return nil, nil, false, err
	}
	c.Logger.Debug("routed remotely", "server", url, "id", layout.ID)

	artifacts := make(map[string][]byte, len(p.Formats))
	for _, f := range p.Formats {
		data, err := api.RenderLayout(ctx, layout.ID, f, p)
		if err != nil {
			return nil, nil, false, err
		}
		artifacts[f] = data
	}
	return layout, artifacts, cached, nil
}

// writeGraph routes s again without cache and writes the routing graph.
func (c *CLI) writeGraph(ctx context.Context, s *scene.Scene, p pipeline.Options, path string) error {
	_, res, err := pipeline.RouteScene(ctx, s, p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(render.GraphDOT(res.Graph)), 0o644)
}
