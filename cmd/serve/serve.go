// Package serve provides the "sheetsplit serve" HTTP command.
package serve

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetsplit/internal/config"
	"github.com/klytics/sheetsplit/internal/formats/xlsx"
	"github.com/klytics/sheetsplit/internal/output"
	"github.com/klytics/sheetsplit/internal/server"
	"github.com/klytics/sheetsplit/internal/split"
)

// NewCommand returns the serve command.
func NewCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the split engine over HTTP",
		Long: `Start an HTTP server that accepts workbook uploads.

Endpoints:
  POST /api/columns   multipart "file"                   -> JSON column list
  POST /api/split     multipart "file", "key", "columns" -> split-result.xlsx
  GET  /healthz

Example:
  sheetsplit serve --addr :8080
  curl -F file=@sales.xlsx -F key=Region -F columns=Rep,Amount \
       -o split-result.xlsx http://localhost:8080/api/split`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Serve.Addr
			}

			srv := server.NewServer(split.New(xlsx.Codec{}, cfg.SplitOptions()), server.Options{
				MaxUploadBytes: cfg.MaxUploadBytes(),
				Timeout:        timeout,
			})

			// Graceful shutdown
			errCh := make(chan error, 1)
			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh

				slog.Info("shutting down...")
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				errCh <- srv.Shutdown(ctx)
			}()

			output.Hint(cmd.ErrOrStderr(), "Listening on %s (Ctrl+C to stop)", addr)
			if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address (default from serve.addr)")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Per-request timeout")

	return cmd
}
