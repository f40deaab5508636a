package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smarttravel/internal/api"
	"smarttravel/internal/cache"
	"smarttravel/internal/config"
	"smarttravel/internal/lta"
	"smarttravel/internal/nea"

	"golang.org/x/time/rate"
)

func main() {
	logger := log.New(os.Stdout, "[smarttravel] ", log.LstdFlags)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	logger.Printf("configuration loaded | addr: %s | cache_ttl: %v | lta_key_configured: %t",
		cfg.Server.Addr, cfg.CacheTTL, cfg.Upstream.LTAAccountKey != "")

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Printf("invalid timezone %q, falling back to UTC: %v", cfg.Timezone, err)
		loc = time.UTC
	}

	responseCache := cache.New(cfg.CacheTTL, loc)

	// Datamall allows short bursts but not sustained hammering.
	limiter := rate.NewLimiter(rate.Every(250*time.Millisecond), 10)
	ltaClient := lta.NewClient(cfg.Upstream, limiter, logger)
	ltaService := lta.NewService(ltaClient, responseCache, logger)
	neaService := nea.NewService(cfg.Upstream, logger)

	server := api.NewServer(cfg, ltaService, neaService, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatalf("server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Println("shutdown signal received, cleaning up...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown error: %v", err)
		}
	}

	logger.Println("application stopped")
}
