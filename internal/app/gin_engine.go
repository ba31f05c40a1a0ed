package app

import (
	"PaymentWebhookGateway/pkg/logger"
	"PaymentWebhookGateway/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func NewGinEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(metrics.GinMiddleware(), logger.CorrelationMiddleware(), logger.GinRequestLogger(), gin.Recovery())
	return engine
}
