package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wayfarer/internal/api"
	"wayfarer/internal/buildinfo"
	"wayfarer/internal/config"
	"wayfarer/internal/store"
	"wayfarer/internal/webhooks"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	version := flag.Bool("version", false, "print the version and exit")
	flag.Parse()
	if *version {
		fmt.Println(buildinfo.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	st, err := api.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreBackend, err)
	}
	broker := api.OpenBroker(cfg)
	srv := api.NewServer(cfg, st, broker)

	if len(cfg.WebhookURLs) > 0 {
		q := webhooks.NewMemoryQueue()
		pub := webhooks.NewPublisher(q, cfg.WebhookURLs, cfg.WebhookSecret)
		go pub.Run(ctx, broker, api.TopicAll)
		webhooks.NewWorker(q, cfg.WebhookMaxAttempts).Start(ctx)
		log.Printf("webhook delivery enabled for %d target(s)", len(cfg.WebhookURLs))
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("itinerary-api %s listening on %s (store=%s)", buildinfo.String(), server.Addr, cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("shutdown signal received; shutting down gracefully")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	_ = broker.Close()
	closeStore(shutdownCtx, st)
	log.Println("server stopped")
}

func closeStore(ctx context.Context, st store.Store) {
	var err error
	switch s := st.(type) {
	case *store.Postgres:
		err = s.Close()
	case *store.Mongo:
		err = s.Close(ctx)
	}
	if err != nil {
		log.Printf("closing store: %v", err)
	}
}
