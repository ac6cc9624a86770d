package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/colinfo/colinfo/internal/api"
	"github.com/colinfo/colinfo/internal/ingest"
	"github.com/colinfo/colinfo/internal/ws"
)

var (
	servePort int
	serveCORS bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the schema and CSV ingestion over HTTP",
	Long: `Start an HTTP API on localhost. POST a CSV body to /api/ingest to get the
coerced rows back as JSON; GET /api/schema shows the registry and
POST /api/schema/reload re-reads the schema file. Events are pushed on /api/ws.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, closer, err := setupLogger(cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hub := ws.NewHub(logger)
		go hub.Run(ctx)

		csvOpts := csvOptions(cfg)
		srv := api.New(reg, cfg.Schema.Path, logger, servePort,
			api.WithHub(hub),
			api.WithCORS(serveCORS),
			api.WithCSVOptions(csvOpts...),
			api.WithIngestOptions(
				ingest.WithStrict(cfg.Schema.Strict),
				ingest.WithDateLayouts(cfg.Source.DateLayouts),
			),
		)
		hub.SetStateProvider(srv.StateJSON)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		fmt.Fprintf(os.Stderr, "colinfo API: http://localhost:%d/api/schema\n", servePort)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8230, "port for the API server")
	serveCmd.Flags().BoolVar(&serveCORS, "cors", false, "allow cross-origin requests")
	rootCmd.AddCommand(serveCmd)
}
