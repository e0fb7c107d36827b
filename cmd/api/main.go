package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/merchstore/go-points-orders/internal/catalog"
	"github.com/merchstore/go-points-orders/internal/config"
	"github.com/merchstore/go-points-orders/internal/httpx"
	kafkax "github.com/merchstore/go-points-orders/internal/kafka"
	"github.com/merchstore/go-points-orders/internal/orders"
	"github.com/merchstore/go-points-orders/internal/points"
	"github.com/merchstore/go-points-orders/internal/postgres"
	"github.com/merchstore/go-points-orders/internal/redisx"
	"github.com/merchstore/go-points-orders/internal/store"
	"github.com/merchstore/go-points-orders/internal/validation"
)

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

	// Store
	var st store.Store
	switch cfg.StoreDriver {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		st = pg
	default:
		st = store.NewMemory()
	}

	if err := points.Seed(ctx, st, cfg.SeedAccounts); err != nil {
		logger.Fatal("seed accounts", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer. Runs on its own context so shutdown order is explicit:
	// the HTTP server drains first, then Close flushes the inbox.
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderEvents, 1024)
	prod.Start(context.Background())

	// Services & handler
	locks := store.NewKeyLocks()
	catalogSvc := catalog.NewService(st, locks)
	ordersSvc := orders.NewService(st, locks, prod, logger, cfg.ServiceName)

	router := httpx.NewRouter()
	h := &httpx.Handler{
		Catalog:  catalogSvc,
		Orders:   ordersSvc,
		Redis:    rdb,
		Validate: validation.New(),
		Log:      logger,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server", zap.Error(err))
	}

	logger.Info("shutting down")
	prod.Close()
	prod.WaitClosed()
}
