// docroute routes documents to interchangeable extraction backends and
// scores their output quality against labeled datasets.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/structdocs/docroute/internal/backends"
	"github.com/structdocs/docroute/internal/config"
	"github.com/structdocs/docroute/internal/router"
)

func main() {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		if _, werr := fmt.Fprintln(os.Stderr, "Error:", err); werr != nil {
			fmt.Println("Error:", err)
		}
		os.Exit(1)
	}
}

// app carries the assembled runtime shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	router *router.Router
}

func newRootCmd() *cobra.Command {
	var (
		a          app
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "docroute",
		Short:         "Turn any document into structured data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(a.logger)

			a.cfg = config.Load()
			if configPath != "" {
				if err := a.cfg.MergeFile(configPath); err != nil {
					return err
				}
			}

			a.router = router.New(router.Config{
				DefaultEngine:  a.cfg.Router.DefaultEngine,
				FallbackOrder:  a.cfg.Router.FallbackOrder,
				AllowedEngines: a.cfg.Router.AllowedEngines,
			}, a.logger)
			backends.RegisterAll(cmd.Context(), a.router, a.cfg, a.logger)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newConvertCmd(&a),
		newEnginesCmd(&a),
		newCompareCmd(&a),
		newBatchCmd(&a),
		newEvaluateCmd(&a),
	)
	return root
}
