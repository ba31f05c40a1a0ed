package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"PaymentWebhookGateway/internal/domain/order"
	"PaymentWebhookGateway/internal/external/provider"
	"PaymentWebhookGateway/internal/webhook"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrderRepo is an in-memory OrderRepo. InTransaction runs the function
// against the same store, which is enough to drive the full service path
// through the handler.
type fakeOrderRepo struct {
	orders   map[string]*order.Order
	failWith error
}

func newFakeOrderRepo(orders ...*order.Order) *fakeOrderRepo {
	f := &fakeOrderRepo{orders: make(map[string]*order.Order)}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrderRepo) InTransaction(_ context.Context, fn func(repo order.TxOrderRepo) error) error {
	return fn(f)
}

func (f *fakeOrderRepo) GetOrders(_ context.Context, query *order.OrdersQuery) ([]order.Order, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}

	var result []order.Order
	for _, o := range f.orders {
		if len(query.IDs) > 0 && !contains(query.IDs, o.ID) {
			continue
		}
		if len(query.SessionIDs) > 0 && !contains(query.SessionIDs, o.SessionID) {
			continue
		}
		result = append(result, *o)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (f *fakeOrderRepo) UpdateOrderStatus(_ context.Context, orderID string, status order.Status) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.orders[orderID].Status = status
	return nil
}

func (f *fakeOrderRepo) AppendStatusHistory(_ context.Context, orderID string, entry order.HistoryEntry) error {
	o := f.orders[orderID]
	o.StatusHistory = append(o.StatusHistory, entry)
	return nil
}

func (f *fakeOrderRepo) SetPaymentSession(_ context.Context, orderID, sessionID string) error {
	if f.orders[orderID].SessionID == "" {
		f.orders[orderID].SessionID = sessionID
	}
	return nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// acceptAll authenticates every request.
type acceptAll struct{}

func (acceptAll) Verify([]byte, string) (bool, string) { return true, "" }

// rejectAll fails every request with a fixed reason.
type rejectAll struct{ reason string }

func (a rejectAll) Verify([]byte, string) (bool, string) { return false, a.reason }

func setupEngine(repo order.OrderRepo, auth webhook.Authenticator, strictFields bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	service := order.NewReconcileService(repo, nil)
	handler := NewWebhookHandler(service, auth, strictFields)
	engine.POST("/webhooks/payments", handler.Receive)
	return engine
}

func postForm(t *testing.T, engine *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return postRaw(t, engine, form.Encode())
}

func postRaw(t *testing.T, engine *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(provider.SignatureHeader, "test-signature")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func pendingOrder(id, sessionID string) *order.Order {
	return &order.Order{
		ID:          id,
		IncrementID: "00000" + id,
		Status:      order.StatusPendingPayment,
		SessionID:   sessionID,
		CreatedAt:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestWebhook_Authentication(t *testing.T) {
	t.Run("rejects unauthenticated request with reason in body", func(t *testing.T) {
		engine := setupEngine(newFakeOrderRepo(), rejectAll{reason: "invalid signature"}, false)

		w := postForm(t, engine, url.Values{"session_id": {"ses_1"}, "status": {"payment_created"}})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Error: invalid signature", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("no store access happens before authentication", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.failWith = assert.AnError
		engine := setupEngine(repo, rejectAll{reason: "missing signature"}, false)

		w := postForm(t, engine, url.Values{"session_id": {"ses_1"}, "status": {"payment_created"}})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestWebhook_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{name: "no session_id", form: url.Values{"status": {"payment_created"}}},
		{name: "empty session_id", form: url.Values{"session_id": {""}, "status": {"payment_created"}}},
		{name: "no status", form: url.Values{"session_id": {"ses_1"}}},
		{name: "empty body", form: url.Values{}},
	}

	for _, tt := range tests {
		t.Run(tt.name+" acknowledged with empty 200", func(t *testing.T) {
			engine := setupEngine(newFakeOrderRepo(), acceptAll{}, false)

			w := postForm(t, engine, tt.form)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Body.String())
		})

		t.Run(tt.name+" rejected in strict mode", func(t *testing.T) {
			engine := setupEngine(newFakeOrderRepo(), acceptAll{}, true)

			w := postForm(t, engine, tt.form)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.True(t, strings.HasPrefix(w.Body.String(), "Error: "))
		})
	}

	t.Run("undecodable body acknowledged with empty 200", func(t *testing.T) {
		engine := setupEngine(newFakeOrderRepo(), acceptAll{}, false)

		w := postRaw(t, engine, "session_id=%zz&status=payment_created")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("undecodable body rejected in strict mode", func(t *testing.T) {
		engine := setupEngine(newFakeOrderRepo(), acceptAll{}, true)

		w := postRaw(t, engine, "session_id=%zz&status=payment_created")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.True(t, strings.HasPrefix(w.Body.String(), "Error: "))
	})
}

func TestWebhook_Payment(t *testing.T) {
	t.Run("unknown session id returns 400", func(t *testing.T) {
		engine := setupEngine(newFakeOrderRepo(), acceptAll{}, false)

		w := postForm(t, engine, url.Values{"session_id": {"ses_unknown"}, "status": {"payment_created"}})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Error: no order found", w.Body.String())
	})

	t.Run("successful payment finalizes the order", func(t *testing.T) {
		o := pendingOrder("order-1", "ses_1")
		repo := newFakeOrderRepo(o)
		engine := setupEngine(repo, acceptAll{}, false)

		w := postForm(t, engine, url.Values{"session_id": {"ses_1"}, "status": {"payment_created"}})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, order.StatusProcessing, o.Status)
		require.Len(t, o.StatusHistory, 1)
		assert.Equal(t, order.StatusProcessing, o.StatusHistory[0].Status)
	})

	t.Run("replayed success is acknowledged without a second transition", func(t *testing.T) {
		o := pendingOrder("order-1", "ses_1")
		repo := newFakeOrderRepo(o)
		engine := setupEngine(repo, acceptAll{}, false)

		form := url.Values{"session_id": {"ses_1"}, "status": {"payment_created"}}
		first := postForm(t, engine, form)
		second := postForm(t, engine, form)

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, order.StatusProcessing, o.Status)
		assert.Len(t, o.StatusHistory, 1)
	})

	t.Run("failure after success does not regress the order", func(t *testing.T) {
		o := pendingOrder("order-1", "ses_1")
		repo := newFakeOrderRepo(o)
		engine := setupEngine(repo, acceptAll{}, false)

		postForm(t, engine, url.Values{"session_id": {"ses_1"}, "status": {"payment_created"}})
		w := postForm(t, engine, url.Values{"session_id": {"ses_1"}, "status": {"payment_unsuccessful"}})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, order.StatusProcessing, o.Status)
	})

	t.Run("unrecognized provider status cancels the order", func(t *testing.T) {
		o := pendingOrder("order-1", "ses_1")
		repo := newFakeOrderRepo(o)
		engine := setupEngine(repo, acceptAll{}, false)

		w := postForm(t, engine, url.Values{"session_id": {"ses_1"}, "status": {"something_new"}})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, order.StatusCanceled, o.Status)
		require.Len(t, o.StatusHistory, 1)
		assert.Equal(t, "payment failed: something_new", o.StatusHistory[0].Comment)
	})

	t.Run("store failure returns 500 with error body", func(t *testing.T) {
		repo := newFakeOrderRepo(pendingOrder("order-1", "ses_1"))
		repo.failWith = assert.AnError
		engine := setupEngine(repo, acceptAll{}, false)

		w := postForm(t, engine, url.Values{"session_id": {"ses_1"}, "status": {"payment_created"}})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.True(t, strings.HasPrefix(w.Body.String(), "Error: "))
	})
}

func TestWebhook_Refund(t *testing.T) {
	paidOrder := func() *order.Order {
		o := pendingOrder("order-1", "ses_paid")
		o.Status = order.StatusProcessing
		o.StatusHistory = []order.HistoryEntry{{Status: order.StatusProcessing}}
		return o
	}

	t.Run("confirmed refund transitions the order", func(t *testing.T) {
		o := paidOrder()
		repo := newFakeOrderRepo(o)
		engine := setupEngine(repo, acceptAll{}, false)

		w := postForm(t, engine, url.Values{
			"session_id":          {"ses_refund_tx"},
			"refunded_session_id": {"ses_paid"},
			"status":              {"payment_created"},
			"state":               {"completed"},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, order.StatusRefunded, o.Status)
		assert.Equal(t, "refund confirmed, state: completed", o.StatusHistory[len(o.StatusHistory)-1].Comment)
	})

	t.Run("lookup uses refunded_session_id, not session_id", func(t *testing.T) {
		o := paidOrder()
		repo := newFakeOrderRepo(o)
		engine := setupEngine(repo, acceptAll{}, false)

		// session_id matches nothing; refunded_session_id matches the order
		w := postForm(t, engine, url.Values{
			"session_id":          {"ses_no_such_order"},
			"refunded_session_id": {"ses_paid"},
			"status":              {"payment_created"},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, order.StatusRefunded, o.Status)
	})

	t.Run("unconfirmed refund status is rejected verbatim", func(t *testing.T) {
		repo := newFakeOrderRepo(paidOrder())
		engine := setupEngine(repo, acceptAll{}, false)

		w := postForm(t, engine, url.Values{
			"session_id":          {"ses_refund_tx"},
			"refunded_session_id": {"ses_paid"},
			"status":              {"payment_pending"},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Error: refund status is not payment_created: payment_pending", w.Body.String())
	})

	t.Run("refund for unknown session returns 400", func(t *testing.T) {
		engine := setupEngine(newFakeOrderRepo(), acceptAll{}, false)

		w := postForm(t, engine, url.Values{
			"session_id":          {"ses_refund_tx"},
			"refunded_session_id": {"ses_gone"},
			"status":              {"payment_created"},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Error: no order found", w.Body.String())
	})

	t.Run("refund on an order that never paid is not applied", func(t *testing.T) {
		o := pendingOrder("order-1", "ses_pending")
		repo := newFakeOrderRepo(o)
		engine := setupEngine(repo, acceptAll{}, false)

		w := postForm(t, engine, url.Values{
			"session_id":          {"ses_refund_tx"},
			"refunded_session_id": {"ses_pending"},
			"status":              {"payment_created"},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Error: refund not applied", w.Body.String())
		assert.Equal(t, order.StatusPendingPayment, o.Status)
	})
}
