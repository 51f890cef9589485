// Command apuestas serves apuestas games over websockets.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aguszorza/apuestas-game/internal/auth"
	"github.com/aguszorza/apuestas-game/internal/cache"
	"github.com/aguszorza/apuestas-game/internal/config"
	"github.com/aguszorza/apuestas-game/internal/database"
	"github.com/aguszorza/apuestas-game/internal/registry"
	"github.com/aguszorza/apuestas-game/internal/server"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keys, err := auth.NewKeys([]byte(cfg.KeySecret))
	if err != nil {
		log.Fatalf("auth: %v", err)
	}
	if cfg.KeySecret == "" {
		log.Warn("APUESTAS_KEY_SECRET not set, using a random secret")
	}

	var opts []server.Option
	if cfg.RedisURL != "" {
		pub, err := cache.Connect(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatalf("cache: %v", err)
		}
		defer pub.Close()
		opts = append(opts, server.WithPublisher(pub))
	}
	if cfg.DatabaseURL != "" {
		store, err := database.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			log.Fatalf("database: %v", err)
		}
		opts = append(opts, server.WithResultStore(store))
	}

	srv := server.New(cfg, registry.New(), keys, log, opts...)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.RegisterRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("http server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("shutdown: %v", err)
	}
}
