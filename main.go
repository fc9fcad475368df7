// main.go - backend bootstrap: connect the data store, then serve HTTP
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"backend/config"
	"backend/database"
	"backend/server"
	"backend/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		utils.LogWarn("failed to load .env file", "error", err.Error())
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("invalid configuration", err)
		return 1
	}

	utils.InitLogging(cfg.IsProduction(), cfg.LogLevel)
	for _, warning := range cfg.Warnings {
		utils.LogWarn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connect := database.NewConnector(database.Options{
		URL:     cfg.DatabaseURL,
		Name:    cfg.DatabaseName,
		Timeout: cfg.DatabaseTimeout,
	})

	err = server.Run(ctx, cfg, connect)
	switch {
	case err == nil:
		utils.LogInfo("server stopped")
		return 0
	case errors.Is(err, server.ErrDatabaseUnavailable):
		if cfg.ExitOnDatabaseFailure {
			return 1
		}
		// No listener is bound; stay up until a signal so the supervisor sees a live process.
		utils.LogWarn("no HTTP listener bound; waiting for shutdown signal")
		<-ctx.Done()
		return 0
	default:
		utils.LogError("server exited", err)
		return 1
	}
}
