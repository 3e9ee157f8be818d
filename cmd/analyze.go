package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/asdscreen/internal/inference"
	"github.com/lehigh-university-libraries/asdscreen/internal/workflow"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		apiURL  string
		timeout time.Duration
		format  string
	)

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze a single image file from the command line",
		Long: `Runs the same select, validate and analyze cycle as the web form
against a local image file and prints the result.`,
		Example: `  asdscreen analyze face.jpg
  asdscreen analyze face.png --format json --api-url http://localhost:8000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormat(format) {
				return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.APIURL = apiURL
			}
			if timeout > 0 {
				cfg.RequestTimeout = timeout
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			file, err := workflow.LoadFile(args[0], cfg.MaxFileSizeBytes())
			if err != nil {
				return err
			}

			client := inference.NewClient(inference.Config{BaseURL: cfg.APIURL, Timeout: cfg.RequestTimeout})
			wf := workflow.New(client,
				workflow.WithMaxFileSize(cfg.MaxFileSizeBytes()),
				workflow.WithPreviewEncoder(func(string, []byte) string { return "" }),
				workflow.WithLogger(slog.Default()),
			)

			snap, err := runAnalysis(cmd.Context(), wf, file)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), format, snap)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Base URL of the analysis service (overrides ASDSCREEN_API_URL)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Request timeout (overrides ASDSCREEN_REQUEST_TIMEOUT)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")

	return cmd
}

// runAnalysis drives wf through one select and submit cycle and returns the
// final snapshot. A recorded workflow error is returned as an error.
func runAnalysis(ctx context.Context, wf *workflow.Workflow, file *workflow.SelectedFile) (workflow.Snapshot, error) {
	if err := wf.SelectFile(file); err != nil {
		return wf.Snapshot(), err
	}

	done, err := wf.Submit(ctx)
	if err != nil {
		return wf.Snapshot(), err
	}

	select {
	case <-done:
	case <-ctx.Done():
		wf.Reset()
		return wf.Snapshot(), ctx.Err()
	}

	snap := wf.Snapshot()
	if snap.Error != "" {
		return snap, errors.New(snap.Error)
	}
	return snap, nil
}

func validFormat(format string) bool {
	switch format {
	case formatText, formatJSON, formatYAML:
		return true
	}
	return false
}
