package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cocursor/backend/internal/infrastructure/config"
	applog "github.com/cocursor/backend/internal/infrastructure/log"
	"github.com/cocursor/backend/internal/infrastructure/singleton"
	"github.com/cocursor/backend/internal/wire"
)

func main() {
	// Initialize the logging system.
	applog.Init(nil)

	// Load configuration to get the port.
	cfg := config.NewConfig()
	port := cfg.Server.HTTPPort

	// Singleton check: try to acquire the port lock.
	listener, err := singleton.CheckAndLock(port)
	if err != nil {
		log.Fatalf("singleton lock check failed: %v", err)
	}
	if listener == nil {
		// Another instance is already running; exit immediately.
		log.Println("another instance is already running, exiting")
		os.Exit(0)
	}
	// Close the temporary listener; the HTTP server owns the real one.
	_ = listener.Close()

	// Wire-generated initialization function.
	app, err := wire.InitializeAll()
	if err != nil {
		applog.GetLogger().Error("Failed to initialize application",
			"error", err,
		)
		os.Exit(1)
	}

	// Start every service.
	if err := app.Start(); err != nil {
		applog.GetLogger().Error("Failed to start application",
			"error", err,
		)
		os.Exit(1)
	}

	// Graceful shutdown.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	applog.GetLogger().Info("Shutting down application...")
	if err := app.Stop(); err != nil {
		applog.GetLogger().Error("Error during application shutdown",
			"error", err,
		)
	}
	applog.GetLogger().Info("Application stopped")
}
