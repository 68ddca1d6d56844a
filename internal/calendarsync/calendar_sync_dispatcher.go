package calendarsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	calendarsyncerrors "go-leave/internal/calendarsync/errors"
	"go-leave/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	HeaderMessageGroupID         = "message_group_id"
	HeaderMessageDeduplicationID = "message_deduplication_id"
	HeaderEventType              = "event_type"
)

// Writer is satisfied by *kafkago.Writer.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type DispatcherConfig struct {
	Enabled bool
	Topic   string
	// Ordered keys every message by request so one request's syncs stay in
	// order on a single partition.
	Ordered bool
}

type Dispatcher struct {
	writer Writer
	cfg    DispatcherConfig
	now    func() time.Time
	logger *zap.Logger
}

func NewDispatcher(writer Writer, cfg DispatcherConfig, logger ...*zap.Logger) *Dispatcher {
	l := zap.L().Named("calendarsync.dispatcher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("calendarsync.dispatcher")
	}
	return &Dispatcher{
		writer: writer,
		cfg:    cfg,
		now:    time.Now,
		logger: l,
	}
}

// EnqueueCalendarSync publishes a sync request for requestID. It is a no-op
// when calendar sync is disabled.
func (d *Dispatcher) EnqueueCalendarSync(ctx context.Context, requestID string) error {
	if !d.cfg.Enabled {
		d.logger.Debug("calendar sync disabled, skipping enqueue", zap.String("leave_id", requestID))
		return nil
	}
	if d.cfg.Topic == "" || d.writer == nil {
		d.logger.Error("calendar sync queue not configured", zap.String("leave_id", requestID))
		return calendarsyncerrors.ErrQueueNotConfigured
	}

	payload, err := json.Marshal(events.NewCalendarSyncRequested(requestID))
	if err != nil {
		return err
	}

	msg := kafkago.Message{
		Topic: d.cfg.Topic,
		Value: payload,
		Headers: []kafkago.Header{
			{Key: HeaderEventType, Value: []byte(events.CalendarSyncRequestedType)},
		},
	}
	if d.cfg.Ordered {
		group := "leave-" + requestID
		msg.Key = []byte(group)
		msg.Headers = append(msg.Headers,
			kafkago.Header{Key: HeaderMessageGroupID, Value: []byte(group)},
			kafkago.Header{Key: HeaderMessageDeduplicationID, Value: []byte(fmt.Sprintf("%s-%d", group, d.now().UnixMilli()))},
		)
	}

	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		d.logger.Error("calendar sync publish failed",
			zap.String("leave_id", requestID),
			zap.String("topic", d.cfg.Topic),
			zap.Error(err),
		)
		return calendarsyncerrors.ErrEnqueueFailed.WithCause(err)
	}

	d.logger.Info("calendar sync queued",
		zap.String("leave_id", requestID),
		zap.String("topic", d.cfg.Topic),
		zap.Bool("ordered", d.cfg.Ordered),
	)
	return nil
}
