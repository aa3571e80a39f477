package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/alienxp03/debatearena/internal/stream"
	"github.com/alienxp03/debatearena/web/handlers"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("port") && appConfig.Server.Port != 0 {
			servePort = appConfig.Server.Port
		}
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		defer a.Close()

		sweepCtx, stopSweep := context.WithCancel(ctx)
		defer stopSweep()
		go a.arenas.RunSweeper(sweepCtx, appConfig.Arena.SweepInterval)

		emitter := stream.NewEmitter(appConfig.Stream.ChunkSize, appConfig.Stream.ChunkDelay)
		h := handlers.New(a.arenas, a.engine, a.registry, emitter)

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", servePort),
			Handler:           h.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			slog.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Warn("Graceful shutdown failed", "error", err)
				server.Close()
			}
		}()

		slog.Info("Starting debatearena server",
			"url", fmt.Sprintf("http://localhost:%d", servePort),
			"providers", a.registry.Names(),
			"default_provider", appConfig.Defaults.Provider,
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8182, "Server port")
}
