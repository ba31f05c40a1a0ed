package order

import "context"

//go:generate mockgen -source=repo_port.go -destination=mock_repo.go -package=order

type TxOrderRepo interface {
	GetOrders(ctx context.Context, query *OrdersQuery) ([]Order, error)

	UpdateOrderStatus(ctx context.Context, orderID string, status Status) error
	AppendStatusHistory(ctx context.Context, orderID string, entry HistoryEntry) error
	// SetPaymentSession persists the session id as permanent payment metadata.
	// No-op when the order already carries a session id.
	SetPaymentSession(ctx context.Context, orderID, sessionID string) error
}

type OrderRepo interface {
	TxOrderRepo
	InTransaction(ctx context.Context, fn func(repo TxOrderRepo) error) error
}
