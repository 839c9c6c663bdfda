package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shop-backend/internal/config"
	"shop-backend/internal/handlers"
	"shop-backend/internal/metrics"
	"shop-backend/internal/middleware"
)

// Deps is what the route table needs from main.
type Deps struct {
	Access   config.AccessConfig
	Guard    *middleware.Guard
	Auth     *handlers.AuthHandler
	Products *handlers.ProductHandler
	Orders   *handlers.OrderHandler
	Metrics  *metrics.Metrics
	// Ping reports store health for /healthz.
	Ping func(ctx context.Context) error
}

func RegisterRoutes(router *gin.Engine, d Deps) {
	router.GET("/healthz", health(d.Ping))
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	// Rutas versionadas
	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/signup", d.Auth.Signup)
		authGroup.POST("/signin", d.Auth.Signin)
	}

	productWrite := d.Guard.Policy(d.Access.ProductWrite)
	products := v1.Group("/products")
	{
		products.GET("", d.Products.GetProducts)
		products.GET("/:id", d.Products.GetProductByID)
		products.POST("", with(productWrite, d.Products.CreateProduct)...)
		products.PATCH("/:id", with(productWrite, d.Products.UpdateProduct)...)
		products.DELETE("/:id", with(productWrite, d.Products.DeleteProduct)...)
	}

	orderRead := d.Guard.Policy(d.Access.OrderRead)
	orderWrite := d.Guard.Policy(d.Access.OrderWrite)
	orders := v1.Group("/orders")
	{
		orders.POST("", with(orderWrite, d.Orders.CreateOrder)...)
		orders.GET("", with(orderRead, d.Orders.GetOrders)...)
		orders.GET("/:id", with(orderRead, d.Orders.GetOrderByID)...)
		orders.PATCH("/:id", with(orderWrite, d.Orders.UpdateOrder)...)
		orders.DELETE("/:id", with(orderWrite, d.Orders.DeleteOrder)...)
	}
}

// with copies the gate so route chains never share a backing array.
func with(gate []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(gate)+1)
	chain = append(chain, gate...)
	return append(chain, h)
}

func health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if ping != nil {
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
