package leave

import (
	"context"
	"encoding/json"

	"leave-review/internal/events"

	"github.com/segmentio/kafka-go"
)

type EventPublisher interface {
	PublishLeaveRequestReviewed(ctx context.Context, event events.LeaveRequestReviewedEvent) error
}

type noopEventPublisher struct{}

func NewNoopEventPublisher() EventPublisher {
	return noopEventPublisher{}
}

func (noopEventPublisher) PublishLeaveRequestReviewed(context.Context, events.LeaveRequestReviewedEvent) error {
	return nil
}

type kafkaEventPublisher struct {
	writer *kafka.Writer
}

func NewKafkaEventPublisher(writer *kafka.Writer) EventPublisher {
	return &kafkaEventPublisher{writer: writer}
}

func (p *kafkaEventPublisher) PublishLeaveRequestReviewed(
	ctx context.Context,
	event events.LeaveRequestReviewedEvent,
) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: events.LeaveRequestReviewedTopic,
		Key:   []byte(event.LeaveRequestID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "session_id", Value: []byte(event.SessionID)},
		},
	})
}
