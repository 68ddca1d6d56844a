package producer

import (
	"context"

	"go-leave/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

// Writer is satisfied by *kafkago.Writer.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// buildMessage keys by aggregate so every event of one leave request lands on
// the same partition. The outbox id doubles as the deduplication id since a
// relay retry may publish the same row twice.
func buildMessage(event kafka.OutboxEvent) kafkago.Message {
	group := event.AggregateType + "-" + event.AggregateID
	headers := []kafkago.Header{
		{Key: "event_type", Value: []byte(event.EventType)},
		{Key: "aggregate_type", Value: []byte(event.AggregateType)},
		{Key: "message_group_id", Value: []byte(group)},
		{Key: "message_deduplication_id", Value: []byte(event.ID)},
	}
	if event.RequestID != "" {
		headers = append(headers, kafkago.Header{Key: "request_id", Value: []byte(event.RequestID)})
	}

	return kafkago.Message{
		Topic:   event.Topic,
		Key:     []byte(group),
		Value:   event.Payload,
		Headers: headers,
	}
}

func publishEvent(ctx context.Context, writer Writer, event kafka.OutboxEvent) error {
	return writer.WriteMessages(ctx, buildMessage(event))
}
