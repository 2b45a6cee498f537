package appbootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"incidesk/api"
	"incidesk/config"
	"incidesk/core/bootstrap"
	"incidesk/core/store"
	"incidesk/core/utils"
)

// Run wires the full runtime: database, migrations, default admin,
// background workers and the HTTP server. It blocks until SIGINT or
// SIGTERM and then shuts down gracefully.
func Run(cfg *config.AppConfig, logger *utils.Logger) error {
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.ApplyMigrations(ctx, db, logger); err != nil {
		return err
	}

	comp, err := composeRuntime(cfg, db, logger)
	if err != nil {
		return err
	}
	if err := bootstrap.EnsureDefaultAdmin(ctx, comp.serverDeps.Users, cfg, logger); err != nil {
		return err
	}

	for _, w := range comp.workers {
		w.Start()
	}
	defer func() {
		for _, w := range comp.workers {
			w.Stop()
		}
	}()

	server := api.NewServer(cfg, comp.serverDeps, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		if logger != nil {
			logger.Printf("received %s, shutting down", sig)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
