package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"PaymentWebhookGateway/internal/domain/order"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go"
)

var _ order.EventSink = (*EventSink)(nil)

// EventSink indexes webhook audit events into OpenSearch for back-office
// search and dashboards.
type EventSink struct {
	client *opensearch.Client
	index  string
}

func NewEventSink(ctx context.Context, urls []string, index string) (*EventSink, error) {
	if len(urls) == 0 {
		return nil, errors.New("no OpenSearch addresses configured")
	}

	cfg := opensearch.Config{
		Addresses: urls,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
		},
	}
	client, err := opensearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}

	sink := &EventSink{client: client, index: index}

	if err := sink.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return sink, nil
}

func (s *EventSink) ensureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("indices.exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"event_id":        map[string]any{"type": "keyword"},
				"order_id":        map[string]any{"type": "keyword"},
				"increment_id":    map[string]any{"type": "keyword"},
				"session_id":      map[string]any{"type": "keyword"},
				"kind":            map[string]any{"type": "keyword"},
				"provider_status": map[string]any{"type": "keyword"},
				"new_status":      map[string]any{"type": "keyword"},
				"skip_reason":     map[string]any{"type": "keyword"},
				"occurred_at":     map[string]any{"type": "date"},
			},
		},
		"settings": map[string]any{
			"number_of_replicas": 0, // dev-friendly; change in prod
		},
	}
	buf, _ := json.Marshal(body)
	cr, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(buf)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("indices.create: %w", err)
	}
	defer cr.Body.Close()
	if cr.IsError() {
		return fmt.Errorf("indices.create error: %s", cr.String())
	}
	return nil
}

// doc stored in OpenSearch
type osWebhookEventDoc struct {
	EventID        string                 `json:"event_id"`
	OrderID        string                 `json:"order_id"`
	IncrementID    string                 `json:"increment_id"`
	SessionID      string                 `json:"session_id"`
	Kind           order.WebhookEventKind `json:"kind"`
	ProviderStatus string                 `json:"provider_status"`
	NewStatus      order.Status           `json:"new_status,omitempty"`
	SkipReason     order.SkipReason       `json:"skip_reason,omitempty"`
	OccurredAt     time.Time              `json:"occurred_at"`
}

func (s *EventSink) RecordWebhookEvent(ctx context.Context, event order.WebhookEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	doc := osWebhookEventDoc{
		EventID:        uuid.NewString(),
		OrderID:        event.OrderID,
		IncrementID:    event.IncrementID,
		SessionID:      event.SessionID,
		Kind:           event.Kind,
		ProviderStatus: event.ProviderStatus,
		NewStatus:      event.NewStatus,
		SkipReason:     event.SkipReason,
		OccurredAt:     event.OccurredAt.UTC(),
	}
	payload, _ := json.Marshal(doc)

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(payload),
		s.client.Index.WithDocumentID(doc.EventID),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index webhook event: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index webhook event: %s", res.String())
	}
	return nil
}
