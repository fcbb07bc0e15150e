package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/queue"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/repository"
	queue_publisher "github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/service"
)

// OrderHandler exposes the staff-facing order status endpoint. Every
// successful transition is published to the order.status queue so that
// customer feeds pick it up.
type OrderHandler struct {
	Orders  *repository.OrderRepo
	AMQPURL string // empty disables publishing (events stay local)
	Timeout time.Duration
}

func NewOrderHandler(orders *repository.OrderRepo, amqpURL string, timeout time.Duration) *OrderHandler {
	return &OrderHandler{Orders: orders, AMQPURL: amqpURL, Timeout: timeout}
}

type updateStatusReq struct {
	Status string `json:"status"`
}

type orderResp struct {
	ID          uint64 `json:"id"`
	OrderNumber string `json:"order_number"`
	SessionKey  string `json:"session_key"`
	Status      string `json:"status"`
}

// UpdateStatus handles PATCH /v1/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid order id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
	}
	if !model.KnownOrderStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown order status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	order, err := h.Orders.UpdateStatus(ctx, orderID, req.Status)
	if err != nil {
		return respondError(c, err)
	}

	if h.AMQPURL != "" {
		ev := queue.OrderStatusEvent{
			OrderID:      order.ID,
			OrderNumber:  order.OrderNumber,
			SessionKey:   order.SessionKey,
			RestaurantID: order.RestaurantID,
			NewStatus:    order.Status,
			OccurredAt:   time.Now().UTC(),
		}
		// The status change is already committed; a publish failure only
		// delays the customer feed, so log and move on.
		if err := queue_publisher.PublishOrderStatus(ctx, h.AMQPURL, ev); err != nil {
			log.Printf("publish order status: %v", err)
		}
	}

	return c.JSON(http.StatusOK, orderResp{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		SessionKey:  order.SessionKey,
		Status:      order.Status,
	})
}
