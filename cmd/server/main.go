// Package main is the entry point for the student records API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studentrecords/internal/bootstrap"
	"studentrecords/internal/config"
	v1 "studentrecords/internal/infrastructure/http/v1"
	"studentrecords/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting studentrecords server",
		"env", cfg.Env,
		"record_store", cfg.RecordStore,
		"mirror", cfg.Mirror.Backend,
	)

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			log.Warnw("failed to close stores", "error", err)
		}
	}()

	router := v1.NewRouter(v1.RouterConfig{
		Logger:  log,
		Records: app.Records,
		Auth:    app.Auth,
		Store:   app.Store,
		Debug:   cfg.IsDevelopment(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serveErr:
		log.Errorw("server failed", "error", err)
	}

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
