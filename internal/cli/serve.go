// ABOUTME: serve command: HTTP API over a generated sidecar

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/infparquet/infparquet/internal/logger"
	"github.com/infparquet/infparquet/internal/metrics"
	"github.com/infparquet/infparquet/internal/server"
)

var (
	serveAddr    string
	serveSidecar string
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a metadata sidecar over HTTP",
		Long: `Load a metadata sidecar and expose it over a JSON HTTP API, including
row-group pruning queries, Prometheus metrics, health probes, and pprof
endpoints. The server runs until interrupted and shuts down gracefully.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().StringVar(&serveSidecar, "sidecar", "", "Metadata sidecar to serve (required)")
	cmd.MarkFlagRequired("sidecar")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger()

	addr := cfg.Server.Addr
	if cmd.Flags().Changed("addr") {
		addr = serveAddr
	}

	srv, err := server.NewServer(server.Config{Addr: addr, SidecarPath: serveSidecar}, log, metrics.Default())
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	log.LogServerReady(addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigChan:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	return <-errCh
}
