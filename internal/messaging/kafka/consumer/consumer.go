package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"go-leave/internal/calendarsync"
	calendarsyncerrors "go-leave/internal/calendarsync/errors"
	"go-leave/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Reader is satisfied by *kafkago.Reader.
type Reader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// ConsumeCalendarSync runs until ctx is cancelled or a sync fails with a
// retryable error. The failing message is left uncommitted so the group
// redelivers it after restart.
func ConsumeCalendarSync(
	ctx context.Context,
	reader Reader,
	syncer calendarsync.Syncer,
	logger *zap.Logger,
) error {
	log := logger.Named("kafka.consumer.calendar_sync")
	log.Info("calendar sync consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("calendar sync consumer stopped")
				return nil
			}
			log.Error("fetch calendar sync message failed", zap.Error(err))
			return err
		}

		var event events.CalendarSyncRequestedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil || event.RequestID == "" {
			log.Error("decode calendar_sync_requested event failed",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			if err := reader.CommitMessages(ctx, msg); err != nil {
				log.Error("commit calendar sync message failed", zap.Error(err))
				return err
			}
			continue
		}

		if err := syncer.SyncLeaveRequest(ctx, event.RequestID); err != nil {
			if !errors.Is(err, calendarsyncerrors.ErrLeaveNotApproved) {
				log.Error("calendar sync failed",
					zap.String("request_id", event.RequestID),
					zap.Int("attempt", event.Attempt),
					zap.Error(err),
				)
				return err
			}

			log.Warn("leave request not eligible for calendar sync, skipping",
				zap.String("request_id", event.RequestID),
			)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit calendar sync message failed", zap.Error(err))
			return err
		}

		log.Info("calendar sync message processed", zap.String("request_id", event.RequestID))
	}
}
