package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	inkio "github.com/matzehuels/inkframe/pkg/io"
	"github.com/matzehuels/inkframe/pkg/page"
	"github.com/matzehuels/inkframe/pkg/pipeline"
)

// renderFlags holds render command flags that do not map onto pipeline.Options.
type renderFlags struct {
	output   string // output file (single format) or base path (several)
	formats  string // comma-separated output formats
	noCache  bool
	isLayout bool // input is a layout.json, not a page record
	pick     bool
}

// renderCommand lays out and renders a page to image and document formats.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [page.json]",
		Short: "Render a comic page to PNG, PDF, SVG or JSON",
		Long: `Render a comic page to PNG, PDF, SVG or JSON.

The input is a page record; it is laid out first (see 'layout'). With
--layout the input is a layout.json produced earlier and layout is skipped.
Panel images are fetched over HTTP or read from disk, cropped to fill their
panel and drawn with borders and bubbles on top.

Several formats can be requested at once (-f png,pdf). With one format,
-o names the output file; with several, it is the base path and each
format's extension is appended.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = pipeline.ParseFormats(flags.formats)
			c.Config.applyRender(&opts)
			if len(opts.Formats) == 0 {
				opts.Formats = []string{pipeline.FormatPNG}
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if flags.pick {
				id, err := c.pickTemplate()
				if err != nil {
					return err
				}
				if id == "" {
					return nil
				}
				opts.TemplateID = id
			}
			return c.runRender(cmd.Context(), args[0], opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (several)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): png (default), pdf, svg, json (comma-separated)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.isLayout, "layout", false, "input is a layout.json from 'layout'")
	cmd.Flags().BoolVar(&flags.pick, "pick-template", false, "choose the layout template interactively")
	cmd.Flags().StringVarP(&opts.TemplateID, "template", "t", "", "layout template id (overrides the page)")
	cmd.Flags().BoolVar(&opts.PageNumbers, "page-numbers", false, "print the page number in the bottom margin")
	cmd.Flags().StringVar(&opts.Background, "background", "", "page background color (#rrggbb)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "raster scale factor for PNG and PDF")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached layouts and artifacts")
	c.registerTemplateCompletion(cmd, "template")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, flags renderFlags) error {
	reg, err := c.registry()
	if err != nil {
		return err
	}
	opts.Registry = reg

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, "Laying out page...")
	spinner.Start()

	var (
		rp        *page.RenderedPage
		layoutHit bool
	)
	if flags.isLayout {
		rp, err = readLayout(input)
	} else {
		var p *page.Page
		if p, err = inkio.ImportJSON(input); err == nil {
			rp, layoutHit, err = runner.LayoutWithCacheInfo(ctx, *p, opts)
		}
	}
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}

	spinner.SetMessage(fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	artifacts, renderHit, err := runner.RenderWithCacheInfo(ctx, rp, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	prog.done("Page rendered", "page", rp.PageID, "formats", strings.Join(opts.Formats, ","))
	base := basePath(flags.output, input)
	printSuccess("Rendered %s", pageLabel(rp))
	for _, format := range opts.Formats {
		path := outputPath(flags.output, base, format, len(opts.Formats))
		if err := writeArtifact(path, artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}
	printStats(len(rp.Panels), rp.BubbleCount(), layoutHit && renderHit)

	return nil
}

func readLayout(path string) (*page.RenderedPage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	rp, err := page.UnmarshalRendered(data)
	if err != nil {
		return nil, fmt.Errorf("load layout %s: %w", path, err)
	}
	return rp, nil
}

// basePath derives the output base (path without extension) from the -o
// flag or, failing that, the input file. A ".layout" suffix is dropped so
// page.layout.json renders to page.png.
func basePath(output, input string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return strings.TrimSuffix(base, ".layout")
}

// outputPath returns the file for one format. A single format honours -o
// as given; several formats share the base path.
func outputPath(output, base, format string, count int) string {
	if count == 1 && output != "" {
		return output
	}
	return base + "." + format
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func pageLabel(rp *page.RenderedPage) string {
	if rp.Number > 0 {
		return fmt.Sprintf("page %d", rp.Number)
	}
	return rp.PageID
}
