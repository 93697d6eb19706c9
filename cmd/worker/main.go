package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/logging"
	"github.com/example/storefront/pkg/repository"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting audit worker",
		zap.String("queue", cfg.RabbitMQ.Queue),
		zap.String("collection", cfg.MongoDB.Collection))

	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoRepo.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mongoRepo.Ping(ctx); err != nil {
		logger.Fatal("MongoDB ping failed", zap.Error(err))
	}

	rmq, err := events.NewRabbitMQ(&cfg.RabbitMQ)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rmq.Close()

	if err := rmq.SetupQueues(); err != nil {
		logger.Fatal("Failed to setup queues", zap.Error(err))
	}

	consumer := events.NewConsumer(events.AuditHandler(mongoRepo), logger)

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- consumer.Run(ctx, rmq.Channel, cfg.RabbitMQ.Queue)
	}()

	logger.Info("Audit worker started successfully")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-consumerErr:
		if err != nil {
			logger.Error("Consumer stopped", zap.Error(err))
		}
	}

	cancel()
	logger.Info("Audit worker stopped")
}
