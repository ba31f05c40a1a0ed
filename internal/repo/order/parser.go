package order_repo

import (
	"fmt"

	"PaymentWebhookGateway/internal/domain/order"

	"github.com/jackc/pgx/v5"
)

func parseOrderRows(rows pgx.Rows) ([]order.Order, error) {
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		var o order.Order
		var rawStatus string
		var sessionID, customerID *string
		err := rows.Scan(&o.ID, &o.IncrementID, &rawStatus, &sessionID, &customerID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		status, err := order.NewStatus(rawStatus)
		if err != nil {
			return nil, fmt.Errorf("invalid status in database: %w", err)
		}
		o.Status = status

		if sessionID != nil {
			o.SessionID = *sessionID
		}
		if customerID != nil {
			o.CustomerID = *customerID
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func parseHistoryRows(rows pgx.Rows) (map[string][]order.HistoryEntry, error) {
	defer rows.Close()

	history := make(map[string][]order.HistoryEntry)
	for rows.Next() {
		var orderID string
		var e order.HistoryEntry
		var rawStatus string
		var comment *string
		err := rows.Scan(&orderID, &rawStatus, &comment, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}

		status, err := order.NewStatus(rawStatus)
		if err != nil {
			return nil, fmt.Errorf("invalid status in database: %w", err)
		}
		e.Status = status

		if comment != nil {
			e.Comment = *comment
		}

		history[orderID] = append(history[orderID], e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	return history, nil
}
