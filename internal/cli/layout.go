package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	inkio "github.com/matzehuels/inkframe/pkg/io"
	"github.com/matzehuels/inkframe/pkg/pipeline"
)

// layoutCommand resolves a page record into a rendered page layout.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		pick    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [page.json]",
		Short: "Resolve panel rectangles and bubble positions for a page",
		Long: `Resolve panel rectangles and bubble positions for a page.

The layout command reads a page record, places every panel in its template
slot (or at its explicit geometry) and positions speech bubbles so they stay
inside their panel and avoid each other. The result is a layout.json file
(same format as 'render -f json') that 'render --layout' accepts.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pick {
				id, err := c.pickTemplate()
				if err != nil {
					return err
				}
				if id == "" {
					return nil
				}
				opts.TemplateID = id
			}
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when a cached layout exists")
	cmd.Flags().StringVarP(&opts.TemplateID, "template", "t", "", "layout template id (overrides the page)")
	cmd.Flags().BoolVar(&pick, "pick-template", false, "choose the layout template interactively")
	c.registerTemplateCompletion(cmd, "template")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	p, err := inkio.ImportJSON(input)
	if err != nil {
		return fmt.Errorf("load page %s: %w", input, err)
	}

	reg, err := c.registry()
	if err != nil {
		return err
	}
	opts.Registry = reg

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, "Laying out page...")
	spinner.Start()

	rp, cacheHit, err := runner.LayoutWithCacheInfo(ctx, *p, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}
	if err := inkio.ExportJSON(outputPath, rp); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	prog.done("Layout computed", "page", rp.PageID, "cached", cacheHit)
	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(rp.Panels), rp.BubbleCount(), cacheHit)
	printDetail("Template: %s", rp.LayoutTemplateID)
	printNewline()
	printNextStep("Render", appName+" render --layout "+outputPath)

	return nil
}
