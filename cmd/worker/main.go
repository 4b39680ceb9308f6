package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"eventra/internal/audit"
	"eventra/internal/config"
	"eventra/internal/queue"
	"eventra/internal/store"
)

// Worker consumes audit messages published by the API and appends them to the
// audit_log table, keeping the write off the request path.
func main() {
	cfg := config.Load()

	logger := zap.Must(zap.NewDevelopment())
	if cfg.Env == "production" || cfg.Env == "prod" {
		logger = zap.Must(zap.NewProduction())
	}
	defer logger.Sync()
	log := logger.Sugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnLifetime)
	if err != nil {
		log.Fatalw("db connect failed", "error", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalw("ensure schema failed", "error", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisTimeout)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "eventra:audit")
	}

	recorder := audit.NewRecorder(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalw("queue consume init failed", "error", err)
	}

	log.Info("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != audit.MessageType {
			continue
		}

		entry, err := audit.Decode(msg)
		if err != nil {
			log.Warnw("drop malformed audit message", "error", err)
			continue
		}

		if err := recorder.Record(ctx, entry); err != nil {
			log.Errorw("record audit entry failed", "action", entry.Action, "entity", entry.EntityID, "error", err)
			continue
		}
		log.Debugw("audit entry recorded", "action", entry.Action, "entity", entry.EntityID)
	}

	log.Info("worker stopped")
}
