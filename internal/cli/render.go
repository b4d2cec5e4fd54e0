package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/orthoroute/pkg/client"
	apperrors "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/scene"
)

type renderOpts struct {
	renderFlags
	noCache bool
	server  string
}

// renderCommand draws a routed layout file, or a layout stored on a
// server, in the requested formats.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [layout.json | layout-id]",
		Short: "Draw a routed layout as SVG, PNG or DOT",
		Example: `  orthoroute render diagram.json -f svg,png
  orthoroute render 2f1c0c3e-... --server http://localhost:8080 -o out.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().StringVar(&opts.server, "server", "", "draw a layout stored on an orthoroute server, by ID")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()
	p := c.baseOptions()
	if err := opts.apply(cmd, &p); err != nil {
		return err
	}
	if err := p.ValidateForRender(); err != nil {
		return err
	}

	if opts.server != "" {
		if err := apperrors.ValidateLayoutID(input); err != nil {
			return err
		}
		api := client.New(opts.server, nil)
		artifacts := make(map[string][]byte, len(p.Formats))
		for _, f := range p.Formats {
			data, err := api.RenderLayout(ctx, input, f, p)
			if err != nil {
				return err
			}
			artifacts[f] = data
		}
		printSuccess("Rendered layout %s", input)
		return writeArtifacts(artifacts, p.Formats, opts.output, input)
	}

	layout, err := scene.ImportLayout(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	artifacts, cached, err := runner.Render(ctx, layout, p)
	if err != nil {
		return err
	}
	prog.done("rendered layout", "formats", p.Formats, "cached", cached)

	printSuccess("Rendered %s", input)
	return writeArtifacts(artifacts, p.Formats, opts.output, input)
}
