package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/koscakluka/ema-talk/core/avatar"
	"github.com/koscakluka/ema-talk/core/widget"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat widget bridge over a websocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		hub := widget.NewHub()
		driver := avatar.NewRendererDriver(hub, avatar.WithFallback(avatar.NewFallback(hub.Status)))

		a, err := newApp(ctx, cfg, appOptions{
			driver:   driver,
			onChange: hub.PublishTranscript,
		})
		if err != nil {
			return err
		}
		defer a.Close()

		serverOpts := []widget.ServerOption{
			widget.WithAvatarSignals(driver),
			widget.WithBaseContext(ctx),
		}
		if len(cfg.Widget.AllowedOrigins) > 0 {
			serverOpts = append(serverOpts, widget.WithAllowedOrigins(cfg.Widget.AllowedOrigins...))
		}
		bridge := widget.NewServer(hub, a.session, serverOpts...)

		mux := http.NewServeMux()
		mux.Handle("/ws", bridge)
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		server := &http.Server{Addr: cfg.Widget.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		errCh := make(chan error, 1)
		go func() {
			cmd.Printf("widget bridge listening on %s\n", cfg.Widget.Addr)
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		bridge.Wait()
		return nil
	},
}
