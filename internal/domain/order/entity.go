package order

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Order is the commerce aggregate this service reconciles webhooks against.
// Orders are created and session-stamped by the checkout flow before any
// webhook arrives; this service only transitions Status, appends to
// StatusHistory and persists payment metadata.
type Order struct {
	ID            string         `json:"id"`
	IncrementID   string         `json:"increment_id"`
	Status        Status         `json:"status"`
	StatusHistory []HistoryEntry `json:"status_history"`
	SessionID     string         `json:"session_id"`
	CustomerID    string         `json:"customer_id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// HistoryEntry is one recorded status transition. History is append-only,
// insertion order is significant for the reconciliation guard.
type HistoryEntry struct {
	Status    Status    `json:"status"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryContains reports whether the order has ever been in the given status.
func (o *Order) HistoryContains(status Status) bool {
	return slices.ContainsFunc(o.StatusHistory, func(e HistoryEntry) bool {
		return e.Status == status
	})
}

type Status string

const (
	StatusNew            Status = "new"
	StatusPendingPayment Status = "pending_payment"
	StatusProcessing     Status = "processing" // fully paid, final
	StatusCanceled       Status = "canceled"
	StatusRefunded       Status = "refunded"
)

var AvailableStatuses = []Status{StatusNew, StatusPendingPayment, StatusProcessing, StatusCanceled, StatusRefunded}

func NewStatus(raw string) (Status, error) {
	if slices.Contains(AvailableStatuses, Status(raw)) {
		return Status(raw), nil
	}
	return "", errors.New("invalid order status")
}

type Pagination struct {
	PageSize int

	PageNumber int
}

type OrdersQuery struct {
	IDs        []string
	SessionIDs []string
	Statuses   []Status
	Pagination *Pagination
	SortBy     *string
	SortOrder  *string

	// ForUpdate locks the matched rows for the rest of the transaction.
	// Only meaningful inside InTransaction.
	ForUpdate bool
}

func (o *OrdersQuery) Validate() error {
	if o.SortBy != nil && *o.SortBy != "created_at" && *o.SortBy != "updated_at" {
		return fmt.Errorf("invalid sort by: %s", *o.SortBy)
	}
	if o.SortOrder != nil && *o.SortOrder != "asc" && *o.SortOrder != "desc" {
		return fmt.Errorf("invalid sort order: %s", *o.SortOrder)
	}
	return nil
}

type OrdersQueryBuilder struct {
	query *OrdersQuery
}

func NewOrdersQueryBuilder() *OrdersQueryBuilder {
	return &OrdersQueryBuilder{
		query: &OrdersQuery{},
	}
}

func (b *OrdersQueryBuilder) Build() (*OrdersQuery, error) {
	if err := b.query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, err.Error())
	}
	return b.query, nil
}

func (b *OrdersQueryBuilder) WithIDs(ids ...string) *OrdersQueryBuilder {
	b.query.IDs = ids
	return b
}

func (b *OrdersQueryBuilder) WithSessionIDs(sessionIDs ...string) *OrdersQueryBuilder {
	b.query.SessionIDs = sessionIDs
	return b
}

func (b *OrdersQueryBuilder) WithStatuses(statuses ...Status) *OrdersQueryBuilder {
	b.query.Statuses = statuses
	return b
}

func (b *OrdersQueryBuilder) WithSort(sortBy, sortOrder string) *OrdersQueryBuilder {
	b.query.SortBy = &sortBy
	b.query.SortOrder = &sortOrder
	return b
}

func (b *OrdersQueryBuilder) WithPagination(pagination Pagination) *OrdersQueryBuilder {
	b.query.Pagination = &pagination
	return b
}

func (b *OrdersQueryBuilder) WithForUpdate() *OrdersQueryBuilder {
	b.query.ForUpdate = true
	return b
}
