package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"retail-intel/internal/api"
	"retail-intel/internal/config"
	"retail-intel/internal/db"
	"retail-intel/internal/engine"
	"retail-intel/internal/logger"
	"retail-intel/internal/resolver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zl.Sync()

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		zl.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	ctx := context.Background()

	// The resolver matches against a fixed snapshot of the location table,
	// loaded once at startup.
	refs, err := database.ListLocationRefs(ctx)
	if err != nil {
		zl.Fatal("failed to load location refs", zap.Error(err))
	}
	res := resolver.New(refs)

	eng := engine.New(database, engine.Options{
		DefaultRadiusKm:  cfg.Engine.DefaultRadiusKm,
		MaxCompetitors:   cfg.Engine.MaxCompetitors,
		UseSpatialIndex:  cfg.Engine.UseSpatialIndex,
		MinBrandPresence: cfg.Engine.MinBrandPresence,
	}, zl)

	router := api.NewRouter(api.RouterConfig{
		DB:          database,
		Engine:      eng,
		Resolver:    res,
		Logger:      zl,
		VoiceSecret: cfg.Voice.Secret,
		SearchLimit: cfg.Engine.SearchDefaultLimit,
	})

	timeout := time.Duration(cfg.Server.RequestTimeout) * time.Second
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		IdleTimeout:  2 * timeout,
	}

	go func() {
		zl.Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("database", cfg.Database.Path),
			zap.Int("locations", len(refs)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown failed", zap.Error(err))
	}
}
