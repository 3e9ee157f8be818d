package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/asdscreen/internal/handlers"
	"github.com/lehigh-university-libraries/asdscreen/internal/inference"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the upload form",
		Long: `Starts the upload form on the specified port.

Each browser gets its own upload workflow, kept in memory until it has been
idle for ASDSCREEN_SESSION_TTL. Images are forwarded to <api-url>/predict.`,
		Example: `  # Start server on default port 8888
  ASDSCREEN_API_URL=http://localhost:8000 asdscreen serve

  # Start server on custom port
  asdscreen serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			client := inference.NewClient(inference.Config{BaseURL: cfg.APIURL, Timeout: cfg.RequestTimeout})
			checkCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			if err := client.Health(checkCtx); err != nil {
				slog.Warn("Analysis API health check failed", "url", cfg.APIURL, "err", err)
			}
			cancel()

			handler := handlers.New(client, cfg.MaxFileSizeBytes())

			// Set up routes
			mux := http.NewServeMux()
			handler.Register(mux)

			cleanupCtx, stopCleanup := context.WithCancel(cmd.Context())
			defer stopCleanup()
			go handler.RunCleanup(cleanupCtx, cfg.SessionTTL, time.Minute)

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Upload form available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"predict_url", client.PredictURL(),
					"max_file_size_mb", cfg.MaxFileSizeMB,
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default $PORT or 8888)")

	return cmd
}
