package app

import (
	"context"
	"os/signal"
	"syscall"

	"go-leave/internal/calendarsync"
	"go-leave/internal/config"
	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka/consumer"
	"go-leave/internal/shared/connection"

	"go.uber.org/zap"
)

// RunConsumer syncs approved leave to the calendar provider until a signal
// arrives or a sync fails with a retryable error.
func RunConsumer(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, connectRetries)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	leaveRepo := leave.NewRepository(gormDB)
	syncer := calendarsync.NewSyncer(leaveRepo, cfg.CalendarSync.Enabled, cfg.Graph, logger)

	reader := connection.NewKafkaReader(cfg.KafkaBroker, cfg.CalendarSync.Topic, cfg.CalendarSync.ConsumerGroup)
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.ConsumeCalendarSync(ctx, reader, syncer, logger); err != nil {
		log.Error("calendar sync consumer stopped on error", zap.Error(err))
		return err
	}

	log.Info("consumer shutting down")
	return nil
}
