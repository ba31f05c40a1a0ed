package kafka

import (
	"context"
	"fmt"

	"PaymentWebhookGateway/internal/domain/order"
	"PaymentWebhookGateway/internal/messaging"
)

var _ order.EventSink = (*EventSink)(nil)

// EventSink publishes webhook audit events to Kafka. Messages are keyed by
// order id so all events for one order land on the same partition.
type EventSink struct {
	publisher messaging.Publisher
}

func NewEventSink(publisher messaging.Publisher) *EventSink {
	return &EventSink{publisher: publisher}
}

func (s *EventSink) RecordWebhookEvent(ctx context.Context, event order.WebhookEvent) error {
	envelope, err := messaging.NewEnvelope(event.OrderID, "order.webhook."+string(event.Kind), event)
	if err != nil {
		return fmt.Errorf("create envelope: %w", err)
	}
	return s.publisher.Publish(ctx, envelope)
}

func (s *EventSink) Close() error {
	return s.publisher.Close()
}
