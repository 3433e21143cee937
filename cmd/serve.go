package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/zonarhotels/liftselfie/internal/capture"
	"github.com/zonarhotels/liftselfie/internal/composite"
	"github.com/zonarhotels/liftselfie/internal/config"
	"github.com/zonarhotels/liftselfie/internal/delivery"
	"github.com/zonarhotels/liftselfie/internal/directory"
	"github.com/zonarhotels/liftselfie/internal/events"
	"github.com/zonarhotels/liftselfie/internal/handlers"
	"github.com/zonarhotels/liftselfie/internal/session"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the kiosk backend",
		Long: `Starts the Lift Selfie kiosk backend on the specified port.

The kiosk front-end connects to the HTTP API for scan/consent input and to
the WebSocket stream for countdowns, notices and screen changes.`,
		Example: `  # Start on the default port 8888
  liftselfie serve

  # Start on a custom port
  liftselfie serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}

			brand, err := composite.LoadBrand(cfg.BrandPath)
			if err != nil {
				return err
			}
			renderer, err := composite.NewRenderer(brand)
			if err != nil {
				return err
			}

			dir, err := directory.NewFixtureClient(cfg.FixturePath, cfg.DirectoryLatency)
			if err != nil {
				return err
			}

			var sender delivery.Sender = delivery.LogSender{}
			if cfg.DeliveryURL != "" {
				sender = delivery.NewWebhookSender(cfg.DeliveryURL)
			} else {
				slog.Warn("No delivery gateway configured, logging deliveries only")
			}

			hub := events.NewHub()
			go hub.Run()

			machine := session.New(session.Config{
				VerifyDwell:        cfg.VerifyDwell,
				NoticeDwell:        cfg.NoticeDwell,
				ConsentDeniedDwell: cfg.ConsentDeniedDwell,
				DeclineDwell:       cfg.DeclineDwell,
				PreviewDwell:       cfg.PreviewDwell,
				ResetDwell:         cfg.ResetDwell,
				Capture: capture.Timings{
					PreRoll:       cfg.PreRoll,
					CountdownStep: cfg.CountdownStep,
					InterShot:     cfg.InterShot,
					Settle:        cfg.Settle,
				},
			}, dir, renderer, sender, func() capture.FrameSource {
				return capture.NewSnapshotSource(cfg.SnapshotURL)
			}, hub)
			machine.Start()
			defer machine.Stop()

			handler := handlers.New(machine, hub)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/scan", handler.HandleScan)
			mux.HandleFunc("/api/consent", handler.HandleConsent)
			mux.HandleFunc("/api/reset", handler.HandleReset)
			mux.HandleFunc("/api/session", handler.HandleSession)
			mux.HandleFunc("/api/artifact", handler.HandleArtifact)
			mux.HandleFunc("/ws", handler.HandleWS)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Lift Selfie kiosk backend available", "addr", addr, "url", "http://localhost"+addr)
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

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides KIOSK_PORT)")

	return cmd
}
