package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"cafe-pos/internal/models"
	"cafe-pos/internal/service"
	"cafe-pos/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers. It is a thin calling layer: all
// contracts live in the service and store packages.
type Handler struct {
	catalog  *service.CatalogService
	orders   *service.OrderService
	settings *service.SettingsService
}

// NewHandler creates a new HTTP handler.
func NewHandler(catalog *service.CatalogService, orders *service.OrderService, settings *service.SettingsService) *Handler {
	return &Handler{
		catalog:  catalog,
		orders:   orders,
		settings: settings,
	}
}

// SetupRoutes sets up HTTP routes.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/menu", h.getMenu)
		v1.GET("/settings", h.getSettings)
		v1.PUT("/settings", h.updateSettings)

		orders := v1.Group("/orders")
		{
			orders.POST("", h.createOrder)
			orders.GET("/id/:id", h.getOrder)
			orders.GET("/number/:number", h.getOrderByNumber)
			orders.GET("/recent", h.recentOrders)
			orders.GET("/search", h.searchOrders)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/top-items", h.topItems)
			reports.GET("/daily", h.dailyReport)
		}

		admin := v1.Group("/admin", h.adminAuthMiddleware())
		{
			admin.GET("/categories", h.listCategories)
			admin.POST("/categories", h.createCategory)
			admin.DELETE("/categories/:id", h.deleteCategory)
			admin.GET("/items", h.listItems)
			admin.POST("/items", h.createItem)
			admin.PATCH("/items/:id", h.updateItem)
			admin.DELETE("/items/:id", h.deleteItem)
			admin.POST("/renumber", h.renumber)
		}
	}
}

// statusFor maps the error taxonomy to HTTP statuses: validation → 400,
// not-found → 404, delete-category conflict → 409, storage → 500.
func statusFor(err error) int {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, models.ErrEmptyCart),
		errors.Is(err, models.ErrNoValidItems),
		errors.Is(err, models.ErrInvalidPaymentMethod):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrItemNotFound),
		errors.Is(err, models.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrCategoryHasItems):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) getMenu(c *gin.Context) {
	menu, err := h.catalog.Menu(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu": menu})
}

func (h *Handler) getSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) updateSettings(c *gin.Context) {
	var in service.Settings
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.settings.Update(c.Request.Context(), &in); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	order, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}
	order, lines, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "lines": lines})
}

func (h *Handler) getOrderByNumber(c *gin.Context) {
	number, ok := pathInt64(c, "number")
	if !ok {
		return
	}
	order, lines, err := h.orders.GetOrderByNumber(c.Request.Context(), number)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "lines": lines})
}

func (h *Handler) recentOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	orders, err := h.orders.RecentOrders(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) searchOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	orders, err := h.orders.SearchOrders(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) topItems(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.orders.TopItems(c.Request.Context(), days, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) dailyReport(c *gin.Context) {
	report, err := h.orders.DailyReport(c.Request.Context(), c.Query("date"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) listCategories(c *gin.Context) {
	cats, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (h *Handler) createCategory(c *gin.Context) {
	var req service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := h.catalog.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}
	deleted, err := h.catalog.DeleteCategory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !deleted {
		fail(c, models.ErrCategoryNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) listItems(c *gin.Context) {
	availableOnly := c.Query("available") == "true"
	items, err := h.catalog.ListItems(c.Request.Context(), availableOnly)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) createItem(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := h.catalog.CreateItem(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) updateItem(c *gin.Context) {
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	updated, err := h.catalog.UpdateItem(c.Request.Context(), id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	if !updated {
		fail(c, models.ErrItemNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (h *Handler) deleteItem(c *gin.Context) {
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}
	deleted, err := h.catalog.DeleteItem(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !deleted {
		fail(c, models.ErrItemNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) renumber(c *gin.Context) {
	if err := h.catalog.Renumber(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"renumbered": true})
}

func pathInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

// adminAuthMiddleware gates the admin routes behind the stored PIN,
// supplied in the X-Admin-PIN header.
func (h *Handler) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := h.settings.VerifyAdminPIN(c.Request.Context(), c.GetHeader("X-Admin-PIN"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin PIN"})
			return
		}
		c.Next()
	}
}

// requestIDMiddleware attaches a request id to the context and the
// response headers for log correlation.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// prometheusMiddleware collects HTTP metrics.
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
