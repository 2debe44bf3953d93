package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/structdocs/docroute/internal/engine"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		engineName string
		format     string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Extract a single document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			of, err := engine.ParseOutputFormat(format)
			if err != nil {
				return err
			}
			res, err := a.router.Process(cmd.Context(), args[0], engine.ProcessOptions{Format: of}, engineName)
			if err != nil {
				return err
			}
			a.logger.Info("conversion complete",
				"engine", res.EngineName,
				"pages", res.Pages,
				"duration_ms", res.DurationMS())

			if output != "" {
				return os.WriteFile(output, []byte(res.Content), 0o644)
			}
			fmt.Println(res.Content)
			return nil
		},
	}

	cmd.Flags().StringVarP(&engineName, "engine", "e", "", "force a specific engine")
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format (markdown|html|json|text)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write content to file instead of stdout")
	return cmd
}
