package handlers

import (
	"errors"
	"io"
	"net/http"

	"PaymentWebhookGateway/internal/domain/order"
	"PaymentWebhookGateway/internal/external/provider"
	"PaymentWebhookGateway/internal/webhook"
	"PaymentWebhookGateway/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives provider payment notifications. Responses follow
// the provider's callback contract: text/plain bodies, 200 acknowledges the
// notification (including skips), 400 tells the provider the notification
// could not be matched or actioned, 401 rejects unauthenticated calls.
type WebhookHandler struct {
	service *order.ReconcileService
	auth    webhook.Authenticator

	// strictFields rejects notifications missing session_id or status with
	// 400. Off by default: legacy provider retries expect an empty 200.
	strictFields bool
}

func NewWebhookHandler(s *order.ReconcileService, auth webhook.Authenticator, strictFields bool) WebhookHandler {
	return WebhookHandler{service: s, auth: auth, strictFields: strictFields}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeInternalFault).Inc()
		c.String(http.StatusInternalServerError, "Error: %s", err.Error())
		return
	}

	// Authenticity is checked over the untouched raw body, before parsing.
	if ok, reason := h.auth.Verify(rawBody, c.GetHeader(provider.SignatureHeader)); !ok {
		metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeAuthFailed).Inc()
		c.String(http.StatusUnauthorized, "Error: %s", reason)
		return
	}

	n, err := webhook.Parse(rawBody)
	if err != nil {
		metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeMalformed).Inc()
		// Undecodable bodies and missing fields get the same treatment:
		// acknowledge so the provider stops retrying a notification this
		// service can never match, unless strict mode asks for a 400.
		if h.strictFields {
			c.String(http.StatusBadRequest, "Error: %s", err.Error())
			return
		}
		c.String(http.StatusOK, "")
		return
	}

	if n.IsRefund() {
		h.processRefund(c, n)
		return
	}
	h.processPayment(c, n)
}

func (h *WebhookHandler) processPayment(c *gin.Context, n webhook.Notification) {
	res, err := h.service.ProcessPayment(c.Request.Context(), n.SessionID, n.Status)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeOrderNotFound).Inc()
			c.String(http.StatusBadRequest, "Error: %s", order.ErrNotFound.Error())
			return
		}
		metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeInternalFault).Inc()
		c.String(http.StatusInternalServerError, "Error: %s", err.Error())
		return
	}

	if res.Applied {
		metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeApplied).Inc()
	} else {
		metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeSkippedPrefix + string(res.SkipReason)).Inc()
	}
	c.String(http.StatusOK, "")
}

func (h *WebhookHandler) processRefund(c *gin.Context, n webhook.Notification) {
	applied, err := h.service.ProcessRefund(c.Request.Context(), n.RefundedSessionID, n.Status, n.State)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeOrderNotFound).Inc()
			c.String(http.StatusBadRequest, "Error: %s", order.ErrNotFound.Error())
		case errors.Is(err, order.ErrRefundNotConfirmed):
			metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeRefundRejected).Inc()
			c.String(http.StatusBadRequest, "Error: %s", err.Error())
		default:
			metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeInternalFault).Inc()
			c.String(http.StatusInternalServerError, "Error: %s", err.Error())
		}
		return
	}

	if !applied {
		metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeRefundRejected).Inc()
		c.String(http.StatusBadRequest, "Error: refund not applied")
		return
	}

	metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeRefundApplied).Inc()
	c.String(http.StatusOK, "")
}
