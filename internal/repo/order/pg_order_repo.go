package order_repo

import (
	"context"
	"fmt"

	"PaymentWebhookGateway/internal/domain/order"
	"PaymentWebhookGateway/pkg/postgres"

	"github.com/Masterminds/squirrel"
)

// PgOrderRepo is the main repository
type PgOrderRepo struct {
	pg *postgres.Postgres
	repo
}

func NewPgOrderRepo(pg *postgres.Postgres) order.OrderRepo {
	return &PgOrderRepo{
		pg:   pg,
		repo: repo{db: pg.Pool, builder: pg.Builder},
	}
}

func (r *PgOrderRepo) InTransaction(ctx context.Context, fn func(repo order.TxOrderRepo) error) error {
	return r.pg.InTransaction(ctx, func(tx postgres.Executor) error {
		txRepo := &repo{db: tx, builder: r.pg.Builder}
		return fn(txRepo)
	})
}

type repo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

func (r *repo) GetOrders(ctx context.Context, query *order.OrdersQuery) ([]order.Order, error) {
	sql, args := r.buildOrdersQuery(query)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	orders, err := parseOrderRows(rows)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	if err := r.loadStatusHistory(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) UpdateOrderStatus(ctx context.Context, orderID string, status order.Status) error {
	query, args, err := r.builder.Update("orders").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update status query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func (r *repo) AppendStatusHistory(ctx context.Context, orderID string, entry order.HistoryEntry) error {
	// Transitions usually leave the timestamp to the database clock.
	var createdAt any = entry.CreatedAt
	if entry.CreatedAt.IsZero() {
		createdAt = squirrel.Expr("NOW()")
	}

	query, args, err := r.builder.Insert("order_status_history").
		Columns("order_id", "status", "comment", "created_at").
		Values(orderID, entry.Status, entry.Comment, createdAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert history query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

// SetPaymentSession stamps the session id once. The WHERE clause keeps the
// first stamped value when duplicate webhooks race.
func (r *repo) SetPaymentSession(ctx context.Context, orderID, sessionID string) error {
	query, args, err := r.builder.Update("orders").
		Set("session_id", sessionID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": orderID}).
		Where(squirrel.Expr("(session_id IS NULL OR session_id = '')")).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set session query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set payment session: %w", err)
	}
	return nil
}

func (r *repo) loadStatusHistory(ctx context.Context, orders []order.Order) error {
	ids := make([]string, 0, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
	}

	query, args, err := r.builder.Select("order_id", "status", "comment", "created_at").
		From("order_status_history").
		Where(squirrel.Eq{"order_id": ids}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build history query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query status history: %w", err)
	}

	history, err := parseHistoryRows(rows)
	if err != nil {
		return err
	}

	for i := range orders {
		orders[i].StatusHistory = history[orders[i].ID]
	}
	return nil
}

func (r *repo) buildOrdersQuery(q *order.OrdersQuery) (string, []interface{}) {
	query := r.builder.Select("id", "increment_id", "status", "session_id", "customer_id", "created_at", "updated_at").
		From("orders")

	// Add WHERE conditions
	if len(q.IDs) > 0 {
		query = query.Where(squirrel.Eq{"id": q.IDs})
	}

	if len(q.SessionIDs) > 0 {
		query = query.Where(squirrel.Eq{"session_id": q.SessionIDs})
	}

	if len(q.Statuses) > 0 {
		query = query.Where(squirrel.Eq{"status": q.Statuses})
	}

	// Add sorting
	if q.SortBy != nil && q.SortOrder != nil {
		query = query.OrderBy(fmt.Sprintf("%s %s", *q.SortBy, *q.SortOrder))
	}

	// Add pagination
	if q.Pagination != nil {
		offset := (q.Pagination.PageNumber - 1) * q.Pagination.PageSize
		query = query.Limit(uint64(q.Pagination.PageSize)).Offset(uint64(offset))
	}

	// Row lock for read-decide-write sequences
	if q.ForUpdate {
		query = query.Suffix("FOR UPDATE")
	}

	sql, args, _ := query.ToSql()
	return sql, args
}
