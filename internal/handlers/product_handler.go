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
	"shop-backend/internal/middleware"
	"shop-backend/internal/models"
	"shop-backend/internal/query"
	"shop-backend/internal/validation"
)

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) (*models.ProductDetail, error)
	FindByID(ctx context.Context, id string) (*models.ProductDetail, error)
	List(ctx context.Context, filter bson.M, page query.Pagination) ([]models.ProductDetail, int64, error)
	Update(ctx context.Context, id string, in models.ProductInput) (*models.ProductDetail, error)
	Delete(ctx context.Context, id string) (*models.Product, error)
}

type ProductHandler struct {
	store   ProductStore
	events  events.Publisher
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewProductHandler(store ProductStore, pub events.Publisher, m *metrics.Metrics, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{store: store, events: pub, metrics: m, logger: logger}
}

// CreateProduct crea un nuevo producto a nombre del usuario autenticado.
// POST /api/v1/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		httpx.Fail(c, http.StatusUnauthorized, "User not authenticated", "")
		return
	}

	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidBody(c, err)
		return
	}
	if err := in.MissingForCreate(); err != nil {
		productResource.fail(c, h.logger, err, "")
		return
	}

	product := models.NewProduct(in, identity.UserID, time.Now().UTC())
	if err := validation.Struct(product); err != nil {
		productResource.fail(c, h.logger, err, "")
		return
	}

	created, err := h.store.Create(c.Request.Context(), product)
	if err != nil {
		productResource.fail(c, h.logger, err, "Error creating product")
		return
	}

	h.metrics.ProductsCreated.Inc()
	h.publish(c, events.ProductCreated, created)
	httpx.OK(c, http.StatusCreated, "Product created successfully", created)
}

// GetProducts lista productos con paginación y filtros.
// GET /api/v1/products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	values := c.Request.URL.Query()
	page := query.ParsePagination(values)

	products, total, err := h.store.List(c.Request.Context(), query.ProductFilter(values), page)
	if err != nil {
		productResource.fail(c, h.logger, err, "Error fetching products")
		return
	}
	httpx.List(c, products, query.NewMeta(page, total))
}

// GET /api/v1/products/:id
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	id := c.Param("id")
	if !primitive.IsValidObjectID(id) {
		productResource.invalidID(c)
		return
	}

	product, err := h.store.FindByID(c.Request.Context(), id)
	if err != nil {
		productResource.fail(c, h.logger, err, "Error fetching product")
		return
	}
	httpx.OK(c, http.StatusOK, "", product)
}

// UpdateProduct actualiza parcialmente un producto
// PATCH /api/v1/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id := c.Param("id")
	if !primitive.IsValidObjectID(id) {
		productResource.invalidID(c)
		return
	}

	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidBody(c, err)
		return
	}

	product, err := h.store.Update(c.Request.Context(), id, in)
	if err != nil {
		productResource.fail(c, h.logger, err, "Error updating product")
		return
	}

	h.publish(c, events.ProductUpdated, product)
	httpx.OK(c, http.StatusOK, "Product updated successfully", product)
}

// DeleteProduct borra el producto definitivamente (sin borrado lógico)
// DELETE /api/v1/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if !primitive.IsValidObjectID(id) {
		productResource.invalidID(c)
		return
	}

	product, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		productResource.fail(c, h.logger, err, "Error deleting product")
		return
	}

	h.publish(c, events.ProductDeleted, events.DeletedPayload{ID: id})
	httpx.OK(c, http.StatusOK, "Product deleted successfully", product)
}

func (h *ProductHandler) publish(c *gin.Context, subject string, payload any) {
	if err := h.events.Publish(c.Request.Context(), subject, payload); err != nil {
		h.logger.Warn("publish event", zap.String("subject", subject), zap.Error(err))
	}
}
