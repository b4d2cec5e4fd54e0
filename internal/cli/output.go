package cli

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orthoroute/pkg/pipeline"
)

// basePath derives the base output path. Without an explicit output the
// input path minus its extension is used; a known format extension on the
// output is stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if slices.Contains(pipeline.ValidFormats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath returns the file for format. A single requested format is
// written to output verbatim when one is given.
func outputPath(output, input, format string, single bool) string {
	if single && output != "" {
		return output
	}
	return basePath(output, input) + "." + format
}

// writeArtifacts writes each artifact and prints the paths in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, input string) error {
	for _, f := range formats {
		path := outputPath(output, input, f, len(formats) == 1)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

// renderFlags are the drawing flags shared by route and render.
type renderFlags struct {
	formats  string
	output   string
	stroke   float64
	padding  float64
	channels bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().Float64Var(&f.stroke, "stroke", 0, "edge stroke width")
	cmd.Flags().Float64Var(&f.padding, "padding", 0, "padding around the drawing")
	cmd.Flags().BoolVar(&f.channels, "channels", false, "draw the routing channels")
}

// apply copies the flags the user set onto opts.
func (f *renderFlags) apply(cmd *cobra.Command, opts *pipeline.Options) error {
	opts.Formats = parseFormats(f.formats)
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		return err
	}
	if cmd.Flags().Changed("stroke") {
		opts.Stroke = f.stroke
	}
	if cmd.Flags().Changed("padding") {
		opts.Padding = f.padding
	}
	if cmd.Flags().Changed("channels") {
		opts.ShowChannels = f.channels
	}
	return nil
}
