package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"backend/config"
	"backend/database"
	"backend/metrics"
	"backend/utils"
)

var (
	// ErrDatabaseUnavailable means the connector failed and no listener was bound.
	ErrDatabaseUnavailable = errors.New("database unavailable")

	errListenerStopped = errors.New("listener stopped unexpectedly")
)

// Run connects the data store and only then binds the HTTP listener. It
// serves until ctx is cancelled, drains in-flight requests, and releases the
// store before returning.
func Run(ctx context.Context, cfg *config.Config, connect database.Connector) error {
	startTime := time.Now()
	driver := database.DriverName(cfg.DatabaseURL)

	utils.LogInfo("connecting to database", "driver", driver, "url", database.RedactURL(cfg.DatabaseURL))
	store, err := connect(ctx)
	metrics.RecordDatabaseConnect(driver, err)
	if err != nil {
		utils.LogError("Database connection failed", err, "driver", driver)
		return fmt.Errorf("%w: %w", ErrDatabaseUnavailable, err)
	}
	metrics.SetDatabaseUp(true)
	utils.LogInfo("database connected", "driver", store.Kind(), "elapsed", time.Since(startTime).String())

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			utils.LogError("failed to close data store", err, "driver", store.Kind())
		} else {
			utils.LogInfo("data store closed", "driver", store.Kind())
		}
		metrics.SetDatabaseUp(false)
	}()

	readyState := NewReadyState(store, cfg, startTime)
	app := CreateFiberApp(readyState)

	ln, err := Listen(ctx, cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to bind port %d: %w", cfg.Port, err)
	}
	readyState.MarkServing()
	utils.LogInfo(fmt.Sprintf("Server is running on port: %d", cfg.Port), "startup", time.Since(startTime).String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.Listener(ln); err != nil {
			return fmt.Errorf("http listener: %w", err)
		}
		if ctx.Err() == nil {
			return errListenerStopped
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		readyState.MarkDraining()
		utils.LogInfo("shutting down HTTP server", "timeout", cfg.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := app.ShutdownWithContext(shutdownCtx)
		// Unblocks Accept if shutdown raced ahead of Serve registering the listener.
		_ = ln.Close()
		if err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
