package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/constituent-twin/internal/monitoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, cfg, appOptions{})
		if err != nil {
			return err
		}
		defer env.Close()

		startMonitoring(ctx, env)

		var health pinger
		if env.Store != nil {
			health = env.Store
		}
		router := buildRouter(env.Service, health, cfg.Server.AllowedOrigins, cfg.Generator.DefaultPersonas)

		return startServer(ctx, router, resolvePort(servePort, cfg.Server.Port))
	},
}

// startMonitoring runs the cache janitor and alert loop until ctx ends.
func startMonitoring(ctx context.Context, env *appEnv) {
	var (
		cache    monitoring.CacheStatter
		purger   monitoring.Purger
		breakers monitoring.BreakerReporter
	)
	if env.Store != nil {
		cache = env.Store
		purger = env.Store
	}
	if env.Breakers != nil {
		breakers = env.Breakers
	}
	checker := monitoring.NewChecker(
		monitoring.NewCollector(cache, breakers),
		monitoring.NewAlerter(cfg.Monitoring),
		purger,
		cfg.Monitoring,
	)
	go checker.Run(ctx)
}

// resolvePort prefers the --port flag over the configured port.
func resolvePort(flagPort, configPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return configPort
}

// startServer serves handler on port until ctx is cancelled, then shuts
// down gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}

	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
