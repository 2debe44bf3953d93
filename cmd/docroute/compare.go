package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/structdocs/docroute/internal/engine"
)

func newCompareCmd(a *app) *cobra.Command {
	var (
		engineNames []string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "compare <file>",
		Short: "Run several engines on one document and show each result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			of, err := engine.ParseOutputFormat(format)
			if err != nil {
				return err
			}
			var names []string
			if len(engineNames) > 0 {
				names = engineNames
			}
			results := a.router.Compare(cmd.Context(), args[0], engine.ProcessOptions{Format: of}, names)

			type entry struct {
				Content    string   `json:"content"`
				Pages      int      `json:"pages"`
				Confidence *float64 `json:"confidence,omitempty"`
				DurationMS int64    `json:"duration_ms"`
			}
			out := make(map[string]entry, len(results))
			for name, res := range results {
				out[name] = entry{
					Content:    res.Content,
					Pages:      res.Pages,
					Confidence: res.Confidence,
					DurationMS: res.DurationMS(),
				}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringSliceVarP(&engineNames, "engine", "e", nil, "engines to compare (default: all compatible)")
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format (markdown|html|json|text)")
	return cmd
}
