package main

import (
	"os"
	"strconv"
	"syscall"
	"time"

	"backend/config"
	"backend/utils"
)

// A tiny entrypoint that ensures sane env defaults and then execs the main binary.
func main() {
	if os.Getenv("PORT") == "" {
		_ = os.Setenv("PORT", strconv.Itoa(config.DefaultPort))
	}

	// Optional startup delay for platforms that start the app before its database.
	delay, err := config.GetEnvAsDuration("STARTUP_DELAY", 0)
	if err != nil {
		utils.LogWarn("ignoring invalid STARTUP_DELAY", "error", err.Error())
	} else if delay > 0 {
		utils.LogInfo("applying startup delay", "delay", delay.String())
		time.Sleep(delay)
	}

	target := config.GetEnvOrDefault("BACKEND_BINARY", "/app/main")
	if err := syscall.Exec(target, []string{target}, os.Environ()); err != nil {
		utils.LogError("failed to exec backend binary", err, "target", target)
		os.Exit(1)
	}
}
