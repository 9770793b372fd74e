package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/topichub/pubsub/pkg/config"
	"github.com/topichub/pubsub/pkg/pubsub"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []pubsub.Option{pubsub.WithLogger(log)}
	if cfg.Broker.Workers > 0 || cfg.Broker.QueueSize > 0 {
		opts = append(opts, pubsub.WithDispatcher(pubsub.NewAsyncDispatcher(
			pubsub.WithWorkers(cfg.Broker.Workers),
			pubsub.WithQueueSize(cfg.Broker.QueueSize),
			pubsub.WithDispatchLogger(log),
		)))
	}
	broker := pubsub.New(opts...)

	gw := NewGateway(broker, log)
	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: gw.Routes(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()
	log.Info("server started", "addr", cfg.Server.ListenAddr)

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeoutS)*time.Second)
	defer cancel()

	if err := broker.Shutdown(shutdownCtx); err != nil {
		log.Warn("broker shutdown incomplete", "error", err)
	} else {
		log.Info("broker shutdown complete")
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", "error", err)
	}
	log.Info("all done, exiting")
}
