package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/nutrition"
	"github.com/saadjs/caltrack/internal/service"
)

// entryRequest carries per-serving nutrients. Quantity is the consumed
// amount in serving_unit; servings is a shortcut for quantity and wins when
// both are set. Neither means one serving.
type entryRequest struct {
	Name        string     `json:"name" binding:"required"`
	Brand       string     `json:"brand"`
	Barcode     string     `json:"barcode"`
	ImageRef    string     `json:"image_ref"`
	Calories    float64    `json:"calories"`
	ProteinG    float64    `json:"protein_g"`
	CarbsG      float64    `json:"carbs_g"`
	FatG        float64    `json:"fat_g"`
	FiberG      *float64   `json:"fiber_g"`
	SugarG      *float64   `json:"sugar_g"`
	SodiumMg    *float64   `json:"sodium_mg"`
	ServingSize float64    `json:"serving_size" binding:"required"`
	ServingUnit string     `json:"serving_unit"`
	Quantity    *float64   `json:"quantity"`
	Servings    *float64   `json:"servings"`
	MealType    string     `json:"meal_type" binding:"required"`
	ConsumedAt  *time.Time `json:"consumed_at"`
	SourceType  string     `json:"source_type"`
}

func (r entryRequest) toInput(userID string, now time.Time) service.EntryInput {
	quantity := r.ServingSize
	switch {
	case r.Servings != nil:
		quantity = nutrition.QuantityFromServings(*r.Servings, r.ServingSize)
	case r.Quantity != nil:
		quantity = *r.Quantity
	}
	consumed := now
	if r.ConsumedAt != nil {
		consumed = *r.ConsumedAt
	}
	return service.EntryInput{
		UserID:      userID,
		Name:        r.Name,
		Brand:       r.Brand,
		Barcode:     r.Barcode,
		ImageRef:    r.ImageRef,
		Calories:    r.Calories,
		ProteinG:    r.ProteinG,
		CarbsG:      r.CarbsG,
		FatG:        r.FatG,
		FiberG:      r.FiberG,
		SugarG:      r.SugarG,
		SodiumMg:    r.SodiumMg,
		ServingSize: r.ServingSize,
		ServingUnit: r.ServingUnit,
		Quantity:    quantity,
		MealType:    model.MealType(r.MealType),
		ConsumedAt:  consumed,
		SourceType:  model.SourceType(r.SourceType),
	}
}

type entryResponse struct {
	model.FoodEntry
	Totals nutrition.Totals `json:"totals"`
}

func withTotals(e model.FoodEntry) (entryResponse, error) {
	t, err := nutrition.EntryTotals(e)
	if err != nil {
		return entryResponse{}, err
	}
	return entryResponse{FoodEntry: e, Totals: t}, nil
}

// listEntries returns entries newest first.
// GET /api/entries?date=YYYY-MM-DD | from=&to= &meal=&q=&limit=
func (h *Handler) listEntries(c *gin.Context) {
	f := service.ListEntriesFilter{
		MealType: model.MealType(c.Query("meal")),
		Query:    c.Query("q"),
	}
	if date := c.Query("date"); date != "" {
		day, err := service.ParseDate(date, h.loc)
		if err != nil {
			writeError(c, err)
			return
		}
		f.From, f.To = service.DayBounds(day, h.loc)
	}
	if from := c.Query("from"); from != "" {
		day, err := service.ParseDate(from, h.loc)
		if err != nil {
			writeError(c, err)
			return
		}
		f.From = day
	}
	if to := c.Query("to"); to != "" {
		day, err := service.ParseDate(to, h.loc)
		if err != nil {
			writeError(c, err)
			return
		}
		_, f.To = service.DayBounds(day, h.loc)
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			apiError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}

	entries, err := service.ListEntries(h.db, f)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		r, err := withTotals(e)
		if err != nil {
			writeError(c, err)
			return
		}
		out = append(out, r)
	}
	c.JSON(http.StatusOK, out)
}

// createEntry logs a food entry for the current profile.
// POST /api/entries
func (h *Handler) createEntry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid entry: "+err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	id, err := service.CreateEntry(h.db, req.toInput(s.UserID(), h.now()))
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondEntry(c, http.StatusCreated, id)
}

// GET /api/entries/:id
func (h *Handler) getEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.respondEntry(c, http.StatusOK, id)
}

// updateEntry replaces every field of an entry.
// PUT /api/entries/:id
func (h *Handler) updateEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid entry: "+err.Error())
		return
	}
	existing, err := service.GetEntry(h.db, id)
	if err != nil {
		writeError(c, err)
		return
	}
	in := req.toInput(existing.UserID, existing.ConsumedAt)
	if err := service.UpdateEntry(h.db, id, in); err != nil {
		writeError(c, err)
		return
	}
	h.respondEntry(c, http.StatusOK, id)
}

// DELETE /api/entries/:id
func (h *Handler) deleteEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := service.DeleteEntry(h.db, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// duplicateEntry copies an entry. ?now=true restamps the copy to the
// current time.
// POST /api/entries/:id/duplicate
func (h *Handler) duplicateEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var opts service.DuplicateEntryOptions
	if restamp, _ := strconv.ParseBool(c.Query("now")); restamp {
		now := h.now()
		opts.Now = &now
	}
	newID, err := service.DuplicateEntry(h.db, id, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondEntry(c, http.StatusCreated, newID)
}

func (h *Handler) respondEntry(c *gin.Context, status int, id int64) {
	e, err := service.GetEntry(h.db, id)
	if err != nil {
		writeError(c, err)
		return
	}
	r, err := withTotals(*e)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, r)
}
