package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/nutrition"
	"github.com/saadjs/caltrack/internal/service"
)

type profileRequest struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Age           int     `json:"age"`
	Sex           string  `json:"sex" binding:"required"`
	HeightCm      float64 `json:"height_cm" binding:"required"`
	WeightKg      float64 `json:"weight_kg" binding:"required"`
	ActivityLevel string  `json:"activity_level" binding:"required"`
	Goal          string  `json:"goal" binding:"required"`
}

type profilePatchRequest struct {
	Name          *string  `json:"name"`
	Email         *string  `json:"email"`
	Age           *int     `json:"age"`
	Sex           *string  `json:"sex"`
	HeightCm      *float64 `json:"height_cm"`
	WeightKg      *float64 `json:"weight_kg"`
	ActivityLevel *string  `json:"activity_level"`
	Goal          *string  `json:"goal"`
}

type targetsResponse struct {
	Targets    nutrition.Targets `json:"targets"`
	HasProfile bool              `json:"has_profile"`
	Warning    string            `json:"warning,omitempty"`
}

// getProfile returns the current profile.
// GET /api/profile
func (h *Handler) getProfile(c *gin.Context) {
	p, err := service.CurrentProfile(h.db)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// putProfile replaces the profile and marks onboarding complete.
// PUT /api/profile
func (h *Handler) putProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid profile: "+err.Error())
		return
	}
	p, err := service.SaveProfile(h.db, service.ProfileInput{
		Name:          req.Name,
		Email:         req.Email,
		Age:           req.Age,
		Sex:           model.Sex(req.Sex),
		HeightCm:      req.HeightCm,
		WeightKg:      req.WeightKg,
		ActivityLevel: model.ActivityLevel(req.ActivityLevel),
		Goal:          model.Goal(req.Goal),
	}, h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// patchProfile updates only the supplied fields and recomputes targets.
// PATCH /api/profile
func (h *Handler) patchProfile(c *gin.Context) {
	var req profilePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid profile patch: "+err.Error())
		return
	}
	patch := service.ProfilePatch{
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
		HeightCm: req.HeightCm,
		WeightKg: req.WeightKg,
	}
	if req.Sex != nil {
		v := model.Sex(*req.Sex)
		patch.Sex = &v
	}
	if req.ActivityLevel != nil {
		v := model.ActivityLevel(*req.ActivityLevel)
		patch.ActivityLevel = &v
	}
	if req.Goal != nil {
		v := model.Goal(*req.Goal)
		patch.Goal = &v
	}
	p, err := service.UpdateProfile(h.db, patch, h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// getTargets returns the profile targets, or the defaults before onboarding.
// GET /api/targets
func (h *Handler) getTargets(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	t, hasProfile := s.Targets()
	resp := targetsResponse{Targets: t, HasProfile: hasProfile}
	if t.HasNegativeMacro() {
		resp.Warning = "carb target is negative; the calorie target cannot cover protein and fat"
	}
	c.JSON(http.StatusOK, resp)
}
