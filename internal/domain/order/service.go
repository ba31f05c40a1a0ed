package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ReconcileService applies provider webhook notifications to orders. All
// decision logic (status mapping, skip guard) is pure; the read-decide-write
// sequence for one notification runs inside a single repo transaction so
// concurrent deliveries for the same order cannot interleave destructively.
type ReconcileService struct {
	orderRepo OrderRepo
	events    EventSink
}

func NewReconcileService(orderRepo OrderRepo, events EventSink) *ReconcileService {
	if events == nil {
		events = NopEventSink{}
	}
	return &ReconcileService{orderRepo: orderRepo, events: events}
}

// PaymentResult describes the outcome of one payment notification.
type PaymentResult struct {
	Order      Order
	Mapping    StatusMapping
	Applied    bool
	SkipReason SkipReason
}

// ProcessPayment reconciles a direct payment notification: looks up the
// order by session id, maps the provider status and either applies exactly
// one transition or skips per the guard. Returns ErrNotFound (wrapped) when
// no order carries the session id.
func (s *ReconcileService) ProcessPayment(ctx context.Context, sessionID, providerStatus string) (PaymentResult, error) {
	mapping := MapProviderStatus(providerStatus)

	var res PaymentResult
	err := s.orderRepo.InTransaction(ctx, func(tx TxOrderRepo) error {
		o, err := findBySessionID(ctx, tx, sessionID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		res.Order = *o
		res.Mapping = mapping

		slog.DebugContext(ctx, "webhook notification",
			"increment_id", o.IncrementID,
			"provider_status", providerStatus,
			"mapped_status", mapping.Status)

		if skip, reason := ShouldSkip(o, mapping.Status); skip {
			res.SkipReason = reason
			slog.InfoContext(ctx, "transition skipped",
				"reason", reason,
				"increment_id", o.IncrementID,
				"current_status", o.Status,
				"proposed_status", mapping.Status)
			return nil
		}

		switch mapping.Status {
		case StatusProcessing:
			err = s.handleSuccess(ctx, tx, o, mapping, sessionID)
		case StatusPendingPayment:
			err = s.handleHeld(ctx, tx, o, mapping)
		default:
			err = s.handleFailed(ctx, tx, o, mapping)
		}
		if err != nil {
			return err
		}

		res.Applied = true
		return nil
	})
	if err != nil {
		return PaymentResult{}, err
	}

	kind := WebhookEventSkipped
	if res.Applied {
		kind = WebhookEventApplied
	}
	s.recordEvent(ctx, WebhookEvent{
		OrderID:        res.Order.ID,
		IncrementID:    res.Order.IncrementID,
		SessionID:      sessionID,
		Kind:           kind,
		ProviderStatus: providerStatus,
		NewStatus:      mapping.Status,
		SkipReason:     res.SkipReason,
	})

	return res, nil
}

// handleSuccess finalizes the payment: paid status, history entry and the
// session id persisted as permanent order metadata.
func (s *ReconcileService) handleSuccess(ctx context.Context, tx TxOrderRepo, o *Order, mapping StatusMapping, sessionID string) error {
	if err := s.transition(ctx, tx, o, StatusProcessing, mapping.ProviderCode); err != nil {
		return err
	}
	if o.SessionID == "" {
		if err := tx.SetPaymentSession(ctx, o.ID, sessionID); err != nil {
			return fmt.Errorf("persist payment session: %w", err)
		}
	}
	return nil
}

// handleHeld parks the order while the payment is pending on the provider
// side. Payment metadata is not finalized here.
func (s *ReconcileService) handleHeld(ctx context.Context, tx TxOrderRepo, o *Order, mapping StatusMapping) error {
	return s.transition(ctx, tx, o, StatusPendingPayment, mapping.ProviderCode)
}

// handleFailed cancels the order, recording the raw provider status as the
// failure reason. Also the default branch for unrecognized mapped statuses.
func (s *ReconcileService) handleFailed(ctx context.Context, tx TxOrderRepo, o *Order, mapping StatusMapping) error {
	return s.transition(ctx, tx, o, StatusCanceled, "payment failed: "+mapping.ProviderCode)
}

func (s *ReconcileService) transition(ctx context.Context, tx TxOrderRepo, o *Order, status Status, comment string) error {
	if err := tx.UpdateOrderStatus(ctx, o.ID, status); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if err := tx.AppendStatusHistory(ctx, o.ID, HistoryEntry{Status: status, Comment: comment}); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

// ProcessRefund reconciles a refund confirmation. The lookup key is the
// *original* payment's session id: the refund transaction carries its own
// session id, but the order is found via the session of the payment being
// refunded. Refunds bypass the skip guard; a refund is only actioned when
// the provider reports it with the confirmation status, any other status
// yields ErrRefundNotConfirmed. Returns false when the order is not in a
// refundable state.
func (s *ReconcileService) ProcessRefund(ctx context.Context, refundedSessionID, providerStatus, state string) (bool, error) {
	var (
		applied bool
		o       Order
	)
	err := s.orderRepo.InTransaction(ctx, func(tx TxOrderRepo) error {
		found, err := findBySessionID(ctx, tx, refundedSessionID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		o = *found

		if providerStatus != ProviderPaymentCreated {
			return fmt.Errorf("%w: %s", ErrRefundNotConfirmed, providerStatus)
		}

		applied, err = s.applyRefund(ctx, tx, found, state)
		return err
	})
	if err != nil {
		return false, err
	}

	if applied {
		s.recordEvent(ctx, WebhookEvent{
			OrderID:        o.ID,
			IncrementID:    o.IncrementID,
			SessionID:      refundedSessionID,
			Kind:           WebhookEventRefundApplied,
			ProviderStatus: providerStatus,
			NewStatus:      StatusRefunded,
		})
	} else {
		slog.WarnContext(ctx, "refund not applied",
			"increment_id", o.IncrementID,
			"current_status", o.Status,
			"session_id", refundedSessionID)
	}

	return applied, nil
}

func (s *ReconcileService) applyRefund(ctx context.Context, tx TxOrderRepo, o *Order, state string) (bool, error) {
	// Only orders that have actually been paid can be refunded.
	if o.Status != StatusProcessing && !o.HistoryContains(StatusProcessing) {
		return false, nil
	}

	comment := "refund confirmed"
	if state != "" {
		comment = fmt.Sprintf("refund confirmed, state: %s", state)
	}
	if err := s.transition(ctx, tx, o, StatusRefunded, comment); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ReconcileService) GetOrderByID(ctx context.Context, id string) (Order, error) {
	query, err := NewOrdersQueryBuilder().WithIDs(id).Build()
	if err != nil {
		return Order{}, err
	}

	orders, err := s.orderRepo.GetOrders(ctx, query)
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	if len(orders) == 0 {
		return Order{}, ErrNotFound
	}
	return orders[0], nil
}

func (s *ReconcileService) GetOrders(ctx context.Context, query OrdersQuery) ([]Order, error) {
	orders, err := s.orderRepo.GetOrders(ctx, &query)
	if err != nil {
		return nil, fmt.Errorf("filter orders: %w", err)
	}
	return orders, nil
}

func (s *ReconcileService) GetOrderHistory(ctx context.Context, id string) ([]HistoryEntry, error) {
	o, err := s.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.StatusHistory, nil
}

// findBySessionID resolves an order by payment session id. Session id
// uniqueness per order is not guaranteed upstream; duplicates resolve to the
// earliest-created order and the ambiguity is logged.
//
// The matched rows are locked for the rest of the transaction. A concurrent
// delivery for the same order blocks here until the first one commits and
// then reads the committed state, so its guard decision is never stale and
// at most one of two racing notifications applies a transition.
func findBySessionID(ctx context.Context, repo TxOrderRepo, sessionID string) (*Order, error) {
	query, err := NewOrdersQueryBuilder().
		WithSessionIDs(sessionID).
		WithSort("created_at", "asc").
		WithForUpdate().
		Build()
	if err != nil {
		return nil, err
	}

	orders, err := repo.GetOrders(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, ErrNotFound
	}
	if len(orders) > 1 {
		slog.WarnContext(ctx, "multiple orders share a payment session, using earliest created",
			"session_id", sessionID,
			"matches", len(orders))
	}
	return &orders[0], nil
}

func (s *ReconcileService) recordEvent(ctx context.Context, event WebhookEvent) {
	event.OccurredAt = time.Now().UTC()
	if err := s.events.RecordWebhookEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to record webhook event",
			"order_id", event.OrderID,
			"kind", event.Kind,
			"error", err)
	}
}
