package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saadjs/caltrack/internal/service"
)

type configRequest struct {
	Value string `json:"value" binding:"required"`
}

// GET /api/config
func (h *Handler) listConfig(c *gin.Context) {
	values, err := service.ListConfig(h.db)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, values)
}

// PUT /api/config/:key
func (h *Handler) setConfig(c *gin.Context) {
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid config value: "+err.Error())
		return
	}
	key := c.Param("key")
	if err := service.SetConfig(h.db, key, req.Value); err != nil {
		writeError(c, err)
		return
	}
	value, _, err := service.GetConfig(h.db, key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}
