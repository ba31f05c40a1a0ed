package rest

import (
	"PaymentWebhookGateway/internal/controller/rest/handlers"
	"PaymentWebhookGateway/pkg/health"
	"PaymentWebhookGateway/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	webhook        handlers.WebhookHandler
	order          handlers.OrderHandler
	healthRegistry *health.Registry
}

func (r *Router) SetUp(engine *gin.Engine) {
	// Health checks (Kubernetes-style)
	engine.GET("/health/live", health.LivenessHandler())
	engine.GET("/health/ready", health.ReadinessHandler(r.healthRegistry, health.DefaultTimeout))

	// Prometheus metrics
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// Provider callback
	engine.POST("/webhooks/payments", r.webhook.Receive)

	// Reads
	engine.GET("/orders", r.order.Filter)
	engine.GET("/orders/:order_id", r.order.Get)
	engine.GET("/orders/:order_id/history", r.order.History)
}

func NewRouter(
	webhook handlers.WebhookHandler,
	order handlers.OrderHandler,
	healthRegistry *health.Registry,
) *Router {
	return &Router{
		webhook:        webhook,
		order:          order,
		healthRegistry: healthRegistry,
	}
}
