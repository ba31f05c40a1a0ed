package handlers

import (
	"errors"
	"net/http"
	"strings"

	"PaymentWebhookGateway/internal/domain/order"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service *order.ReconcileService
}

func NewOrderHandler(s *order.ReconcileService) OrderHandler {
	return OrderHandler{service: s}
}

func (h *OrderHandler) Get(c *gin.Context) {
	orderID := c.Param("order_id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing order_id"})
		return
	}

	res, err := h.service.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

type FilterParams struct {
	Statuses   string `form:"status"`
	SessionID  string `form:"session_id"`
	PageSize   int    `form:"limit" binding:"omitempty,min=1" default:"10"`
	PageNumber int    `form:"page" binding:"omitempty,min=1" default:"1"`
	SortBy     string `form:"sort_by" binding:"omitempty,oneof=created_at updated_at"`
	SortOrder  string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

func (h *OrderHandler) Filter(c *gin.Context) {
	var params FilterParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query, err := buildQuery(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.GetOrders(c.Request.Context(), *query)
	if err != nil {
		if errors.Is(err, order.ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *OrderHandler) History(c *gin.Context) {
	orderID := c.Param("order_id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing order_id"})
		return
	}

	res, err := h.service.GetOrderHistory(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

func buildQuery(params FilterParams) (*order.OrdersQuery, error) {
	builder := order.NewOrdersQueryBuilder()

	if params.Statuses != "" {
		var statuses []order.Status
		for _, raw := range strings.Split(params.Statuses, ",") {
			status, err := order.NewStatus(strings.TrimSpace(raw))
			if err != nil {
				return nil, err
			}
			statuses = append(statuses, status)
		}
		builder.WithStatuses(statuses...)
	}

	if params.SessionID != "" {
		builder.WithSessionIDs(params.SessionID)
	}

	if params.SortBy != "" && params.SortOrder != "" {
		builder.WithSort(params.SortBy, params.SortOrder)
	}

	if params.PageSize > 0 {
		pageNumber := params.PageNumber
		if pageNumber == 0 {
			pageNumber = 1
		}
		builder.WithPagination(order.Pagination{PageSize: params.PageSize, PageNumber: pageNumber})
	}

	return builder.Build()
}
