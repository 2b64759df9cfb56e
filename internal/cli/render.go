package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/observability"
	"github.com/matzehuels/boxdeck/pkg/pipeline"
	"github.com/matzehuels/boxdeck/pkg/render"
)

// renderCommand creates the render command for producing deck output files.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [deck]",
		Short: "Render a deck file to PDF, SVG, PNG or JSON",
		Long: `Render a deck file (.toml, .yaml or .yml) to one or more output formats.

PDF output contains one page per slide. SVG and PNG output write one file per
slide, numbered from 01. JSON output is the resolved layout of every page.

Slides that fail to lay out are reported and left out of the output; the
command then exits with an error after writing the remaining pages.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): pdf (default), svg, png, json (comma-separated)")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "render only this slide (1-based, svg and png)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "slides laid out in parallel (default: number of CPUs)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "pixel ratio for png output")
	cmd.Flags().IntVar(&opts.Quality, "quality", pipeline.DefaultQuality, "JPEG quality of raster pdf pages")
	cmd.Flags().BoolVar(&opts.Raster, "raster", false, "build pdf pages from rasterized slides instead of vector graphics")
	cmd.Flags().BoolVar(&opts.Fixed, "fixed-metrics", false, "measure text with fixed advances (font independent)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "disable caching")

	return cmd
}

// runRender executes the pipeline and writes every artifact to disk.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string) error {
	runner, err := c.newRunner(opts.NoCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	spin := newSpinner(ctx, os.Stderr, "Reading "+filepath.Base(opts.Path))
	prev := observability.Pipeline()
	observability.SetPipelineHooks(spin)
	spin.Start()

	result, err := runner.Execute(ctx, opts)
	observability.SetPipelineHooks(prev)
	var slideErrs deck.SlideErrors
	if err != nil && !(result != nil && stderrors.As(err, &slideErrs)) {
		spin.StopWithError("Render failed")
		return err
	}
	spin.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := basePath(output, opts.Path)
	single := len(opts.Formats) == 1 && output != ""
	var written []string
	for _, format := range opts.Formats {
		paths := outputPaths(base, format, pageNumbers(result, opts.Page, len(result.Artifacts[format])))
		if single && len(paths) == 1 {
			paths[0] = output
		}
		for i, path := range paths {
			if err := os.WriteFile(path, result.Artifacts[format][i], 0o644); err != nil {
				return fmt.Errorf("write output %s: %w", path, err)
			}
			written = append(written, path)
		}
	}
	prog.done("rendered", "formats", strings.Join(opts.Formats, ","), "pages", result.Stats.Pages)

	if len(slideErrs) > 0 {
		printWarning("%d of %d slides failed", len(slideErrs), result.Stats.Slides)
		for _, se := range slideErrs {
			printSlideError(se)
		}
	} else {
		printSuccess("Render complete")
	}
	for _, path := range written {
		printFile(path)
	}
	printStats(result.Stats, len(slideErrs), result.CacheHit)

	if len(slideErrs) > 0 {
		return fmt.Errorf("%d slides failed", len(slideErrs))
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if slices.Contains(render.Formats, strings.TrimPrefix(strings.ToLower(ext), ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// pageNumbers returns the 1-based slide number of each of n rendered pages.
// Failed slides leave gaps, so the numbers follow the document when one
// was assembled.
func pageNumbers(result *pipeline.Result, page, n int) []int {
	nums := make([]int, n)
	for i := range nums {
		switch {
		case page > 0:
			nums[i] = page
		case result.Document != nil && i < len(result.Document.Pages):
			nums[i] = result.Document.Pages[i].Index + 1
		default:
			nums[i] = i + 1
		}
	}
	return nums
}

// outputPaths names the files of one format. Paged formats get a two-digit
// slide number.
func outputPaths(base, format string, nums []int) []string {
	switch format {
	case render.FormatPDF:
		return []string{base + ".pdf"}
	case render.FormatJSON:
		return []string{base + ".layout.json"}
	}
	paths := make([]string, len(nums))
	for i, num := range nums {
		paths[i] = fmt.Sprintf("%s-%02d.%s", base, num, format)
	}
	return paths
}
