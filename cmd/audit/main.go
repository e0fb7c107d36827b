package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/merchstore/go-points-orders/internal/config"
	kafkax "github.com/merchstore/go-points-orders/internal/kafka"
	"github.com/merchstore/go-points-orders/internal/orders"
	"github.com/merchstore/go-points-orders/internal/redisx"
)

// audit tails the order event stream and writes one structured log line per
// event, deduped by event id so replays do not double-log.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	group := getenv("AUDIT_GROUP", "order-audit")
	workers := mustAtoi(os.Getenv("AUDIT_WORKERS"), 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderEvents, workers, logger)

	handler := func(ctx context.Context, m kafkago.Message) error {
		var env orders.Envelope
		if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
			return err
		}

		dkey := fmt.Sprintf(redisx.KeyDedup, "audit", env.EventID)
		if seen, _ := redisx.Exists(ctx, rdb, dkey); seen {
			return nil
		}
		_ = rdb.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

		logger.Info("order event",
			zap.String("event_id", env.EventID),
			zap.String("event_type", env.EventType),
			zap.String("order_id", env.CorrelationID),
			zap.String("producer", env.Producer),
			zap.Time("occurred_at", env.OccurredAt),
		)
		return nil
	}

	logger.Info("audit consumer started",
		zap.String("group", group),
		zap.String("topic", orders.TopicOrderEvents),
		zap.Int("workers", workers))
	if err := cons.Start(ctx, handler); err != nil {
		logger.Error("consumer exit", zap.Error(err))
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
