package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/asdscreen/internal/config"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "asdscreen",
		Short: "Image upload front end for the autism detection analysis service",
		Long: `asdscreen serves a single-page form that uploads an image to the
analysis service and displays the returned classification.

The analysis service is external; point ASDSCREEN_API_URL at its base URL.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newAnalyzeCmd(opts))

	return cmd
}

// loadConfig reads the layered configuration; flag overrides are applied by each command.
func (o *rootOptions) loadConfig() (config.Config, error) {
	return config.Load(o.configPath)
}
