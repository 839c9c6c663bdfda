package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"shop-backend/internal/events"
	"shop-backend/internal/httpx"
	"shop-backend/internal/metrics"
	"shop-backend/internal/models"
	"shop-backend/internal/query"
	"shop-backend/internal/validation"
)

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) (*models.OrderDetail, error)
	FindByID(ctx context.Context, id string) (*models.OrderDetail, error)
	List(ctx context.Context, filter bson.M, page query.Pagination) ([]models.OrderDetail, int64, error)
	Update(ctx context.Context, id string, upd models.OrderUpdate) (*models.OrderDetail, error)
	Delete(ctx context.Context, id string) (*models.Order, error)
}

type OrderHandler struct {
	store           OrderStore
	events          events.Publisher
	metrics         *metrics.Metrics
	logger          *zap.Logger
	strictIDFilters bool
}

func NewOrderHandler(store OrderStore, pub events.Publisher, m *metrics.Metrics, logger *zap.Logger, strictIDFilters bool) *OrderHandler {
	return &OrderHandler{store: store, events: pub, metrics: m, logger: logger, strictIDFilters: strictIDFilters}
}

// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	if req.OrderData == nil {
		orderResource.fail(c, h.logger, validation.Errors{validation.Required("orderData")}, "")
		return
	}

	order := req.OrderData
	order.PrepareForCreate(time.Now().UTC())
	if err := validation.Struct(order); err != nil {
		orderResource.fail(c, h.logger, err, "")
		return
	}

	created, err := h.store.Create(c.Request.Context(), order)
	if err != nil {
		orderResource.fail(c, h.logger, err, "Error creating order")
		return
	}

	h.metrics.OrdersCreated.Inc()
	h.publish(c, events.OrderCreated, created)
	httpx.OK(c, http.StatusCreated, "Order created successfully", created)
}

// GET /api/v1/orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	values := c.Request.URL.Query()
	filter, err := query.OrderFilter(values, h.strictIDFilters)
	if err != nil {
		httpx.Fail(c, http.StatusBadRequest, "Invalid userId filter", err.Error())
		return
	}
	page := query.ParsePagination(values)

	orders, total, err := h.store.List(c.Request.Context(), filter, page)
	if err != nil {
		orderResource.fail(c, h.logger, err, "Error fetching orders")
		return
	}
	httpx.List(c, orders, query.NewMeta(page, total))
}

// GET /api/v1/orders/:id
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id := c.Param("id")
	if !primitive.IsValidObjectID(id) {
		orderResource.invalidID(c)
		return
	}

	order, err := h.store.FindByID(c.Request.Context(), id)
	if err != nil {
		orderResource.fail(c, h.logger, err, "Error fetching order")
		return
	}
	httpx.OK(c, http.StatusOK, "", order)
}

// PATCH /api/v1/orders/:id
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id := c.Param("id")
	if !primitive.IsValidObjectID(id) {
		orderResource.invalidID(c)
		return
	}

	var upd models.OrderUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		invalidBody(c, err)
		return
	}

	order, err := h.store.Update(c.Request.Context(), id, upd)
	if err != nil {
		orderResource.fail(c, h.logger, err, "Error updating order")
		return
	}

	h.publish(c, events.OrderUpdated, order)
	httpx.OK(c, http.StatusOK, "Order updated successfully", order)
}

// DELETE /api/v1/orders/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id := c.Param("id")
	if !primitive.IsValidObjectID(id) {
		orderResource.invalidID(c)
		return
	}

	order, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		orderResource.fail(c, h.logger, err, "Error deleting order")
		return
	}

	h.publish(c, events.OrderDeleted, events.DeletedPayload{ID: id})
	httpx.OK(c, http.StatusOK, "Order deleted successfully", order)
}

func (h *OrderHandler) publish(c *gin.Context, subject string, payload any) {
	if err := h.events.Publish(c.Request.Context(), subject, payload); err != nil {
		h.logger.Warn("publish event", zap.String("subject", subject), zap.Error(err))
	}
}
