package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/trustgate/platform/internal/domain"
	"github.com/trustgate/platform/internal/infra"
	"github.com/trustgate/platform/internal/repository"
)

const consumerGroup = "trustgate-audit-consumer"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("audit consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("audit-consumer connected to postgres")

	consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaAuditTopic, consumerGroup, cfg.KafkaEnabled, logger)
	defer consumer.Close()
	if !consumer.Enabled() {
		return fmt.Errorf("kafka is disabled; nothing to consume")
	}

	repo := repository.NewAuditRepository()
	logger.Info("audit-consumer starting", "topic", cfg.KafkaAuditTopic)

	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("audit-consumer shutting down")
				return nil
			}
			logger.Error("read message", "error", err)
			continue
		}

		var event domain.AuditEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("decode audit event", "error", err, "offset", msg.Offset)
			continue
		}

		if err := repo.Insert(ctx, pool, event); err != nil {
			logger.Error("store audit event", "error", err, "event_id", event.EventID)
			continue
		}

		logger.Info("audit event stored",
			"event_id", event.EventID,
			"event_type", event.Type,
			"scan_id", event.ScanID,
		)
	}
}
