package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saadjs/caltrack/internal/nutrition"
	"github.com/saadjs/caltrack/internal/service"
)

// getToday returns consumed vs target for one day, grouped by meal.
// GET /api/today?date=YYYY-MM-DD (defaults to today)
func (h *Handler) getToday(c *gin.Context) {
	date := h.now()
	if raw := c.Query("date"); raw != "" {
		d, err := service.ParseDate(raw, h.loc)
		if err != nil {
			writeError(c, err)
			return
		}
		date = d
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	sum, err := service.TodaySummary(h.db, s, date, h.loc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// getInsights returns the trend report for a range ending now.
// GET /api/insights?range=week|month|three_months&metric=calories|protein|carbs|fat|weight
func (h *Handler) getInsights(c *gin.Context) {
	r, err := nutrition.ParseTimeRange(c.Query("range"))
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	m, err := nutrition.ParseMetric(c.Query("metric"))
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	report, err := service.Insights(h.db, s, service.InsightsOptions{Range: r, Metric: m, Now: h.now(), Location: h.loc})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
