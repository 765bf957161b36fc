package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"rtmbot/internal/exitcode"
	"rtmbot/internal/httpapi"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat webhook and websocket API",
		Long: `Serve the chat API.

Endpoints:
  POST /v1/messages   {"user_id": "...", "text": "..."} -> {"id": "...", "reply": "..."}
  GET  /v1/chat/ws    websocket chat, ?user_id=...
  GET  /healthz
  GET  /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides RTMBOT_BIND_ADDR)")
	return cmd
}

func runServe(ctx context.Context, opts *globalOptions, addr string) error {
	a, err := newApp(ctx, opts, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	if addr == "" {
		addr = a.cfg.BindAddr
	}

	api := httpapi.New(a.dispatcher, httpapi.Options{
		Logger:   a.logger,
		Metrics:  a.metrics,
		Gatherer: a.registry,
		Token:    a.cfg.WebhookToken,
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return withCode(exitcode.BackendError, err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return withCode(exitcode.BackendError, err)
	}
	return nil
}
