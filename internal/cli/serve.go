package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mdpolish/internal/pipeline"
	"github.com/ppiankov/mdpolish/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve <book-dir>",
	Short: "Serve a built book with pages enhanced on the fly",
	Long: `Serve exposes a built book over HTTP. HTML pages are enhanced per
request using the request URL for share links; every other file is served
unchanged. GET /healthz reports liveness.

Example:
  mdpolish serve book
  mdpolish serve book --addr 0.0.0.0:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default serve.addr)")
	addEnhanceFlags(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, args []string) error {
	root := args[0]

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Serve.Addr = serveAddr
	}

	logger := slog.Default()
	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Serve, root, p, cfg.HTTP.MaxBodyBytes, logger)

	ctx, cancel := signalContext(0)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Fprintf(os.Stderr, "Serving %s on http://%s\n", root, cfg.Serve.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	fmt.Fprintf(os.Stderr, "Shutting down...\n")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
