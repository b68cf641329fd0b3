package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/service"
)

type ingredientRequest struct {
	Name     string  `json:"name" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
	Unit     string  `json:"unit" binding:"required"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

func (r ingredientRequest) toInput() service.IngredientInput {
	return service.IngredientInput{
		Name: r.Name, Amount: r.Amount, Unit: r.Unit,
		Calories: r.Calories, ProteinG: r.ProteinG, CarbsG: r.CarbsG, FatG: r.FatG,
	}
}

type recipeRequest struct {
	Name         string              `json:"name" binding:"required"`
	Instructions string              `json:"instructions"`
	Servings     int                 `json:"servings" binding:"required"`
	PrepMinutes  int                 `json:"prep_minutes"`
	CookMinutes  int                 `json:"cook_minutes"`
	ImageRef     string              `json:"image_ref"`
	IsFavorite   bool                `json:"is_favorite"`
	Ingredients  []ingredientRequest `json:"ingredients" binding:"dive"`
}

type logRecipeRequest struct {
	Servings   float64    `json:"servings" binding:"required"`
	MealType   string     `json:"meal_type" binding:"required"`
	ConsumedAt *time.Time `json:"consumed_at"`
}

// GET /api/recipes?favorites=true
func (h *Handler) listRecipes(c *gin.Context) {
	favorites, _ := strconv.ParseBool(c.Query("favorites"))
	recipes, err := service.ListRecipes(h.db, favorites)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// createRecipe stores a recipe and its ingredients in one transaction.
// POST /api/recipes
func (h *Handler) createRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid recipe: "+err.Error())
		return
	}
	in := service.RecipeInput{
		Name:         req.Name,
		Instructions: req.Instructions,
		Servings:     req.Servings,
		PrepMinutes:  req.PrepMinutes,
		CookMinutes:  req.CookMinutes,
		ImageRef:     req.ImageRef,
		IsFavorite:   req.IsFavorite,
	}
	for _, ing := range req.Ingredients {
		in.Ingredients = append(in.Ingredients, ing.toInput())
	}
	id, err := service.CreateRecipe(h.db, in)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusCreated, strconv.FormatInt(id, 10))
}

// getRecipe accepts a numeric id or a recipe name.
// GET /api/recipes/:id
func (h *Handler) getRecipe(c *gin.Context) {
	h.respondRecipe(c, http.StatusOK, c.Param("id"))
}

// DELETE /api/recipes/:id
func (h *Handler) deleteRecipe(c *gin.Context) {
	if err := service.DeleteRecipe(h.db, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/recipes/:id/ingredients
func (h *Handler) addIngredient(c *gin.Context) {
	var req ingredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid ingredient: "+err.Error())
		return
	}
	if _, err := service.AddRecipeIngredient(h.db, c.Param("id"), req.toInput()); err != nil {
		writeError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusCreated, c.Param("id"))
}

// DELETE /api/recipes/:id/ingredients/:ingredientID
func (h *Handler) deleteIngredient(c *gin.Context) {
	ingID, ok := pathID(c, "ingredientID")
	if !ok {
		return
	}
	if _, err := service.ResolveRecipe(h.db, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	if err := service.DeleteRecipeIngredient(h.db, ingID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// logRecipe records servings of a recipe as a food entry.
// POST /api/recipes/:id/log
func (h *Handler) logRecipe(c *gin.Context) {
	var req logRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid recipe log: "+err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	consumed := h.now()
	if req.ConsumedAt != nil {
		consumed = *req.ConsumedAt
	}
	id, err := service.LogRecipe(h.db, service.LogRecipeInput{
		RecipeIdentifier: c.Param("id"),
		Servings:         req.Servings,
		MealType:         model.MealType(req.MealType),
		ConsumedAt:       consumed,
		UserID:           s.UserID(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondEntry(c, http.StatusCreated, id)
}

func (h *Handler) respondRecipe(c *gin.Context, status int, idOrName string) {
	detail, err := service.RecipeDetails(h.db, idOrName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, detail)
}
