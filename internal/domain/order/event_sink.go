package order

import (
	"context"
	"time"
)

// EventSink receives an audit event for every processed webhook. Sinks are
// best-effort: failures are logged by the caller and never change the
// webhook response.
type EventSink interface {
	RecordWebhookEvent(ctx context.Context, event WebhookEvent) error
}

type WebhookEventKind string

const (
	WebhookEventApplied       WebhookEventKind = "transition_applied"
	WebhookEventSkipped       WebhookEventKind = "transition_skipped"
	WebhookEventRefundApplied WebhookEventKind = "refund_applied"
)

type WebhookEvent struct {
	OrderID        string           `json:"order_id"`
	IncrementID    string           `json:"increment_id"`
	SessionID      string           `json:"session_id"`
	Kind           WebhookEventKind `json:"kind"`
	ProviderStatus string           `json:"provider_status"`
	NewStatus      Status           `json:"new_status,omitempty"`
	SkipReason     SkipReason       `json:"skip_reason,omitempty"`
	OccurredAt     time.Time        `json:"occurred_at"`
}

// NopEventSink discards events. Used when no sink is configured.
type NopEventSink struct{}

func (NopEventSink) RecordWebhookEvent(context.Context, WebhookEvent) error { return nil }
