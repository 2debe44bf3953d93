package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/structdocs/docroute/constants"
	"github.com/structdocs/docroute/internal/engine"
	"github.com/structdocs/docroute/internal/router"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		engineName  string
		format      string
		concurrency int
		outputDir   string
	)

	cmd := &cobra.Command{
		Use:   "batch <file-or-dir>...",
		Short: "Extract many documents concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			of, err := engine.ParseOutputFormat(format)
			if err != nil {
				return err
			}
			paths, err := collectInputs(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no supported documents found in %s", strings.Join(args, ", "))
			}

			res := a.router.ProcessBatch(cmd.Context(), paths, router.BatchOptions{
				Process:     engine.ProcessOptions{Format: of},
				EngineHint:  engineName,
				Concurrency: concurrency,
				OnProgress: func(ev router.ProgressEvent) {
					switch ev.Status {
					case router.StatusCompleted:
						fmt.Fprintf(os.Stderr, "[%d/%d] done   %s (%s)\n", ev.Current, ev.Total, ev.FilePath, ev.EngineName)
					case router.StatusFailed:
						fmt.Fprintf(os.Stderr, "[%d/%d] failed %s: %v\n", ev.Current, ev.Total, ev.FilePath, ev.Err)
					}
				},
			})

			if outputDir != "" {
				if err := writeOutputs(outputDir, of, res); err != nil {
					return err
				}
			}

			fmt.Printf("processed %d documents: %d succeeded, %d failed (%.1f%%) in %dms\n",
				res.Total, res.Succeeded, res.Failed, res.SuccessRate()*100, res.TotalTimeMS())
			if res.Failed > 0 {
				return fmt.Errorf("%d of %d documents failed", res.Failed, res.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&engineName, "engine", "e", "", "force a specific engine for every file")
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format (markdown|html|json|text)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "max documents processed in parallel (default 3)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory to write extracted content into")
	return cmd
}

// collectInputs expands directories into the supported documents they
// contain; explicit file arguments are taken as-is.
func collectInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if constants.CategoryOf(constants.ExtOf(path)) != constants.CategoryUnknown {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func writeOutputs(dir string, of engine.OutputFormat, res *router.BatchResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	ext := outputExt(of)
	for path, r := range res.Results {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out := filepath.Join(dir, base+ext)
		if err := os.WriteFile(out, []byte(r.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
	}
	return nil
}

func outputExt(of engine.OutputFormat) string {
	switch of {
	case engine.FormatHTML:
		return ".html"
	case engine.FormatJSON:
		return ".json"
	case engine.FormatText:
		return ".txt"
	default:
		return ".md"
	}
}
