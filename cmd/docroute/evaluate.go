package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/structdocs/docroute/internal/evaluation"
)

func newEvaluateCmd(a *app) *cobra.Command {
	var (
		engineNames []string
		categories  []string
		output      string
		xlsxPath    string
	)

	cmd := &cobra.Command{
		Use:   "evaluate <dataset-dir>",
		Short: "Score engines against a labeled dataset",
		Long: `Walks a dataset directory of category subdirectories, each holding
documents next to <name>.ground_truth.json sidecars, runs every selected
engine over every document and reports accuracy metrics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := evaluation.NewRunner(a.router, args[0], a.logger)
			report, err := runner.Run(cmd.Context(), engineNames, categories)
			if err != nil {
				return err
			}

			data, err := report.ToJSON()
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return err
				}
				a.logger.Info("report written", "path", output, "documents", len(report.Scores))
			} else {
				fmt.Println(string(data))
			}

			if xlsxPath != "" {
				if err := report.WriteXLSX(xlsxPath); err != nil {
					return fmt.Errorf("writing workbook: %w", err)
				}
				a.logger.Info("workbook written", "path", xlsxPath)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&engineNames, "engine", "e", nil, "engines to evaluate (default: all available)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "restrict to dataset categories")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write JSON report to file instead of stdout")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write an XLSX workbook")
	return cmd
}
