package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"stress-backend/internal/events"
	"stress-backend/internal/followups"
	"stress-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	handler, err := followups.NewHandler(cfg.FollowupMinCategory)
	if err != nil {
		log.Fatalf("followups: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer, err := events.NewSQSConsumer(ctx, cfg.AWSRegion, cfg.EventsQueueURL, handler)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}
	consumer.Concurrency = cfg.WorkerConcurrency
	consumer.Visibility = cfg.WorkerVisibility

	if err := consumer.Run(ctx); err != nil {
		log.Printf("worker stopped: %v", err)
		stop()
		os.Exit(1)
	}
}
