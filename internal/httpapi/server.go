// Package httpapi serves the users API and the cache admin endpoints over gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unkn0wn-root/invcache"
	"github.com/unkn0wn-root/invcache/internal/users"
)

// UserService is the cached users front the handlers call.
type UserService interface {
	List(ctx context.Context) ([]users.Payload, error)
	Retrieve(ctx context.Context, id uint64) (users.Payload, error)
	Create(ctx context.Context, in users.Input) (users.Payload, error)
	Update(ctx context.Context, id uint64, in users.Input) (users.Payload, error)
	Delete(ctx context.Context, id uint64) error
}

type Config struct {
	Users    UserService
	Admin    *invcache.Admin
	Logger   invcache.Logger
	Gatherer prometheus.Gatherer // nil => /metrics not mounted
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ClearResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type handler struct {
	users UserService
	admin *invcache.Admin
	log   invcache.Logger
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(cfg Config) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = invcache.NopLogger{}
	}
	h := &handler{users: cfg.Users, admin: cfg.Admin, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	u := api.Group("/users")
	u.GET("", h.listUsers)
	u.POST("", h.createUser)
	u.GET("/:id", h.retrieveUser)
	u.PUT("/:id", h.updateUser)
	u.PATCH("/:id", h.updateUser)
	u.DELETE("/:id", h.deleteUser)

	cache := api.Group("/cache")
	cache.GET("/stats", h.cacheStats)
	cache.POST("/clear", h.clearCache)
	return r
}

func (h *handler) listUsers(c *gin.Context) {
	out, err := h.users.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) retrieveUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	out, err := h.users.Retrieve(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) createUser(c *gin.Context) {
	var in users.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.users.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *handler) updateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in users.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.users.Update(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) deleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// cacheStats always answers 200; failures are carried in the report body.
func (h *handler) cacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.admin.Stats(c.Request.Context()))
}

func (h *handler) clearCache(c *gin.Context) {
	n := h.admin.ClearAll(c.Request.Context())
	c.JSON(http.StatusOK, ClearResponse{
		Status:  "success",
		Message: "Cleared " + strconv.Itoa(n) + " cache entries",
	})
}

func (h *handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, users.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, users.ErrInvalid):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}
