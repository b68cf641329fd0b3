// Package server exposes the caltrack services as a JSON API.
package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saadjs/caltrack/internal/provider/edamam"
	"github.com/saadjs/caltrack/internal/provider/upcitemdb"
	"github.com/saadjs/caltrack/internal/provider/usda"
	"github.com/saadjs/caltrack/internal/recognition"
	"github.com/saadjs/caltrack/internal/service"
)

// BarcodeResolver returns the lookup client for a provider.
type BarcodeResolver func(service.BarcodeProvider) (service.BarcodeLookup, error)

type Options struct {
	DB        *sql.DB
	Log       *zap.Logger
	Foods     service.FoodSource
	Barcodes  BarcodeResolver
	Detector  recognition.Provider
	Location  *time.Location
	SearchTTL time.Duration
	// Now is overridable for tests.
	Now func() time.Time
}

// Handler holds shared dependencies for all route handlers.
type Handler struct {
	db        *sql.DB
	log       *zap.Logger
	foods     service.FoodSource
	barcodes  BarcodeResolver
	detector  recognition.Provider
	loc       *time.Location
	searchTTL time.Duration
	now       func() time.Time
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		db:        opts.DB,
		log:       opts.Log,
		foods:     opts.Foods,
		barcodes:  opts.Barcodes,
		detector:  opts.Detector,
		loc:       opts.Location,
		searchTTL: opts.SearchTTL,
		now:       opts.Now,
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.barcodes == nil {
		h.barcodes = func(p service.BarcodeProvider) (service.BarcodeLookup, error) {
			return service.NewBarcodeLookup(p, service.BarcodeClients{})
		}
	}
	return h
}

// Router builds the gin engine with logging and recovery middleware.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies(nil)
	router.Use(requestLogger(h.log), recoverWithLog(h.log))
	h.registerRoutes(router)
	return router
}

func (h *Handler) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", h.health)

	api := router.Group("/api")
	api.GET("/profile", h.getProfile)
	api.PUT("/profile", h.putProfile)
	api.PATCH("/profile", h.patchProfile)
	api.GET("/targets", h.getTargets)

	api.GET("/entries", h.listEntries)
	api.POST("/entries", h.createEntry)
	api.GET("/entries/:id", h.getEntry)
	api.PUT("/entries/:id", h.updateEntry)
	api.DELETE("/entries/:id", h.deleteEntry)
	api.POST("/entries/:id/duplicate", h.duplicateEntry)

	api.GET("/today", h.getToday)
	api.GET("/insights", h.getInsights)

	api.GET("/recipes", h.listRecipes)
	api.POST("/recipes", h.createRecipe)
	api.GET("/recipes/:id", h.getRecipe)
	api.DELETE("/recipes/:id", h.deleteRecipe)
	api.POST("/recipes/:id/ingredients", h.addIngredient)
	api.DELETE("/recipes/:id/ingredients/:ingredientID", h.deleteIngredient)
	api.POST("/recipes/:id/log", h.logRecipe)

	api.GET("/foods/search", h.searchFoods)
	api.GET("/foods/barcode/:code", h.lookupBarcode)
	api.POST("/detect", h.detectFood)

	api.GET("/config", h.listConfig)
	api.PUT("/config/:key", h.setConfig)
}

func (h *Handler) health(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		apiError(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// writeError maps service errors onto HTTP statuses. Unexpected errors are
// logged and hidden behind a generic message.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		apiError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound), errors.Is(err, recognition.ErrNoCandidates):
		apiError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotConfigured):
		apiError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, edamam.ErrRateLimitExceeded),
		errors.Is(err, usda.ErrRateLimitExceeded),
		errors.Is(err, upcitemdb.ErrRateLimitExceeded):
		apiError(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, edamam.ErrUnauthorized),
		errors.Is(err, usda.ErrUnauthorized),
		errors.Is(err, upcitemdb.ErrUnauthorized):
		apiError(c, http.StatusBadGateway, err.Error())
	default:
		_ = c.Error(err)
		apiError(c, http.StatusInternalServerError, "internal error")
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		apiError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *Handler) session(c *gin.Context) (*service.Session, bool) {
	s, err := service.LoadSession(h.db)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return s, true
}
