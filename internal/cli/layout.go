package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/pipeline"
	"github.com/matzehuels/boxdeck/pkg/render"
)

// layoutCommand creates the layout command, which prints the resolved
// rectangles and anchors of every slide.
func (c *CLI) layoutCommand() *cobra.Command {
	var output string
	opts := pipeline.Options{Formats: []string{render.FormatJSON}}

	cmd := &cobra.Command{
		Use:   "layout [deck]",
		Short: "Print the resolved layout of a deck as JSON",
		Long: `Print the resolved layout of a deck as JSON.

For every page the dump lists each box with its rectangle, the anchors
(named boxes and inline text ranges) and the paint items. Use it to check
positions without rendering, or to drive other tools.

The output goes to stdout unless -o is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			return c.runLayout(cmd.Context(), opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "slides laid out in parallel (default: number of CPUs)")
	cmd.Flags().BoolVar(&opts.Fixed, "fixed-metrics", false, "measure text with fixed advances (font independent)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "disable caching")

	return cmd
}

// runLayout computes the layout dump and writes it to output or stdout.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string) error {
	runner, err := c.newRunner(opts.NoCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	result, err := runner.Execute(ctx, opts)
	var slideErrs deck.SlideErrors
	if err != nil && !(result != nil && stderrors.As(err, &slideErrs)) {
		return err
	}
	data := result.Artifacts[render.FormatJSON][0]

	if output == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
		printSuccess("Layout complete")
		printFile(output)
		printStats(result.Stats, len(slideErrs), result.CacheHit)
		printNewline()
		printNextStep("Render", appName+" render "+opts.Path)
	}

	for _, se := range slideErrs {
		c.Logger.Error("slide failed", "slide", se.Index+1, "name", se.Name, "err", se.Err)
	}
	if len(slideErrs) > 0 {
		return fmt.Errorf("%d slides failed", len(slideErrs))
	}
	return nil
}
