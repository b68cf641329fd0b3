package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/service"
)

const maxImageBytes = 10 << 20

// searchFoods runs a cached free-text search against the configured source.
// GET /api/foods/search?q=...&limit=10&verified=true&refresh=false
func (h *Handler) searchFoods(c *gin.Context) {
	opts := service.FoodSearchOptions{TTL: h.searchTTL, Now: h.now()}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			apiError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = n
	}
	opts.VerifiedOnly, _ = strconv.ParseBool(c.Query("verified"))
	opts.Refresh, _ = strconv.ParseBool(c.Query("refresh"))

	results, err := service.SearchFoods(c.Request.Context(), h.db, h.foods, c.Query("q"), opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// lookupBarcode resolves a UPC/EAN code. The provider defaults to the
// barcode_provider setting.
// GET /api/foods/barcode/:code?provider=edamam|openfoodfacts|usda|upcitemdb|mock
func (h *Handler) lookupBarcode(c *gin.Context) {
	name := c.Query("provider")
	if name == "" {
		stored, _, err := service.GetConfig(h.db, service.ConfigBarcodeProvider)
		if err != nil {
			writeError(c, err)
			return
		}
		name = stored
	}
	provider, err := service.ParseBarcodeProvider(name)
	if err != nil {
		writeError(c, err)
		return
	}
	lookup, err := h.barcodes(provider)
	if err != nil {
		writeError(c, err)
		return
	}
	scanned, err := service.LookupBarcode(c.Request.Context(), provider, lookup, c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, scanned)
}

// detectFood accepts an image either as multipart field "image" or as the
// raw request body. With ?meal_type set, the chosen candidate (?choice, by
// position or name, default first) is logged and the entry returned.
// POST /api/detect
func (h *Handler) detectFood(c *gin.Context) {
	image, ok := readImage(c)
	if !ok {
		return
	}
	found, err := service.DetectFood(c.Request.Context(), h.detector, image)
	if err != nil {
		writeError(c, err)
		return
	}
	meal := c.Query("meal_type")
	if meal == "" {
		c.JSON(http.StatusOK, gin.H{"candidates": found})
		return
	}

	picked, err := service.SelectCandidate(found, c.Query("choice"))
	if err != nil {
		writeError(c, err)
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	opts := service.FoodEntryOptions{
		MealType:   model.MealType(meal),
		ConsumedAt: h.now(),
		UserID:     s.UserID(),
	}
	if raw := c.Query("servings"); raw != "" {
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || n <= 0 {
			apiError(c, http.StatusBadRequest, "invalid servings")
			return
		}
		opts.Servings = n
	}
	in, err := service.EntryFromCandidate(picked.Candidate, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	id, err := service.CreateEntry(h.db, in)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondEntry(c, http.StatusCreated, id)
}

func readImage(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes)
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			apiError(c, http.StatusBadRequest, "unreadable image upload")
			return nil, false
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			apiError(c, http.StatusBadRequest, "unreadable image upload")
			return nil, false
		}
		return data, true
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apiError(c, http.StatusRequestEntityTooLarge, "image too large")
		return nil, false
	}
	return data, true
}
