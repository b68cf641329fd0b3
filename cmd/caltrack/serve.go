package caltrack

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saadjs/caltrack/internal/logger"
	"github.com/saadjs/caltrack/internal/server"
)

var (
	serveAddr     string
	serveDetector string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}
		log := logger.L()
		return withDB(func(sqldb *sql.DB) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			foods, err := foodSource("")
			if err != nil {
				log.Warn("food search disabled", zap.Error(err))
			}
			detect, err := configuredDetector(ctx, sqldb, serveDetector)
			if err != nil {
				return err
			}
			h := server.NewHandler(server.Options{
				DB:        sqldb,
				Log:       log,
				Foods:     foods,
				Barcodes:  barcodeLookup,
				Detector:  detect,
				Location:  time.Local,
				SearchTTL: cfg.SearchCacheTTL,
			})

			purge, err := server.StartCachePurge(sqldb, cfg.Server.PurgeSchedule, log)
			if err != nil {
				return err
			}
			defer func() { <-purge.Stop().Done() }()

			c := cors.New(cors.Options{
				AllowedOrigins: cfg.CORS.AllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
				AllowedHeaders: []string{"*"},
			})
			srv := &http.Server{
				Addr:              addr,
				Handler:           c.Handler(h.Router()),
				ReadHeaderTimeout: cfg.Server.ReadTimeout,
				ReadTimeout:       cfg.Server.ReadTimeout,
				WriteTimeout:      cfg.Server.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("http server listening", zap.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("listen on %s: %w", addr, err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down http server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown http server: %w", err)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default $CALTRACK_ADDR or :8080)")
	serveCmd.Flags().StringVar(&serveDetector, "detector", "", "mock or rekognition (default from config)")
}
