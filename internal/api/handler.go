package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"shop-service/config"
	"shop-service/internal/apperr"
	"shop-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	cart       *service.CartService
	checkout   *service.CheckoutService
	catalog    *service.CatalogService
	tags       *service.TagService
	audit      *service.AuditTrail
	sessionCfg config.SessionConfig
	sessions   SessionCache
}

// NewHandler creates a new HTTP handler
func NewHandler(
	cart *service.CartService,
	checkout *service.CheckoutService,
	catalog *service.CatalogService,
	tags *service.TagService,
	audit *service.AuditTrail,
	sessions SessionCache,
	sessionCfg config.SessionConfig,
) *Handler {
	return &Handler{
		cart:       cart,
		checkout:   checkout,
		catalog:    catalog,
		tags:       tags,
		audit:      audit,
		sessions:   sessions,
		sessionCfg: sessionCfg,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(sessionMiddleware(h.sessions, h.sessionCfg))
	v1.Use(cartBadgeMiddleware(h.sessions, h.cart, h.sessionCfg))
	{
		v1.GET("/cart", h.getCart)
		v1.POST("/cart/add", h.addToCart)
		v1.POST("/cart/remove", h.removeFromCart)
		v1.POST("/cart/checkout", h.makeCheckout)

		v1.GET("/products", h.listProducts)
		v1.POST("/products", h.createProduct)
		v1.GET("/products/:code", h.getProduct)
		v1.DELETE("/products/:code", h.deleteProduct)
		v1.POST("/products/:code/transfer", h.transferProduct)
		v1.GET("/products/:code/history", h.productHistory)
		v1.POST("/products/:code/tags", h.attachTag)
		v1.POST("/products/:code/category", h.setCategory)
		v1.DELETE("/products/:code/category", h.clearCategory)

		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/confirm", h.confirmOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// getCart returns the session's cart with derived totals
func (h *Handler) getCart(c *gin.Context) {
	summary, err := h.cart.List(c.Request.Context(), sessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type addToCartRequest struct {
	ProductCode string `json:"product_code" binding:"required"`
	Quantity    int    `json:"quantity"`
}

// addToCart registers a product in the session's cart. Quantity is accepted
// for interface compatibility; re-adding a product is a no-op.
func (h *Handler) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	entry, err := h.cart.Add(c.Request.Context(), sessionID(c), req.ProductCode, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product added to cart", "entry": entry})
}

type removeFromCartRequest struct {
	ProductCode string `json:"product_code" binding:"required"`
}

// removeFromCart deletes a product's cart entry
func (h *Handler) removeFromCart(c *gin.Context) {
	var req removeFromCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.cart.Remove(c.Request.Context(), sessionID(c), req.ProductCode); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed from cart"})
}

type checkoutRequest struct {
	Email string `json:"email" binding:"required"`
}

// makeCheckout converts the session's cart into an order
func (h *Handler) makeCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.checkout.Checkout(c.Request.Context(), sessionID(c), req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Order placed successfully",
		"order_id": result.Order.ID,
		"label":    result.Order.Label,
		"total":    result.Order.Total,
	})
}

// listProducts returns the full catalog
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// createProduct adds a product to the catalog
func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// getProduct returns a product with its tags
func (h *Handler) getProduct(c *gin.Context) {
	detail, err := h.catalog.GetProduct(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// deleteProduct removes a product from the catalog
func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("code")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// transferProduct toggles a product's availability flag
func (h *Handler) transferProduct(c *gin.Context) {
	product, err := h.catalog.ToggleAvailability(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Product availability updated",
		"product": gin.H{
			"code":         product.Code,
			"title":        product.Title,
			"is_available": product.IsAvailable,
		},
	})
}

// productHistory lists a product code's lifecycle records
func (h *Handler) productHistory(c *gin.Context) {
	records, err := h.audit.History(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

// attachTag attaches a tag to a product, creating the tag on first use
func (h *Handler) attachTag(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	tag, err := h.tags.AttachTag(c.Request.Context(), c.Param("code"), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tag attached", "tag": tag})
}

// setCategory assigns a category to an uncategorized product
func (h *Handler) setCategory(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	category, err := h.tags.SetCategory(c.Request.Context(), c.Param("code"), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category assigned", "category": category})
}

// clearCategory removes a product's category association
func (h *Handler) clearCategory(c *gin.Context) {
	if err := h.tags.ClearCategory(c.Request.Context(), c.Param("code")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category cleared"})
}

// getOrder returns an order with its line items
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, items, err := h.checkout.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "items": items})
}

// confirmOrder performs the one-way confirmation transition
func (h *Handler) confirmOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.checkout.Confirm(c.Request.Context(), orderID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order confirmed", "order": order})
}

// fail maps a typed failure to its HTTP representation
func (h *Handler) fail(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidInput), errors.Is(err, apperr.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
