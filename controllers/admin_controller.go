package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dayproof/dayproof/engine"
	"github.com/dayproof/dayproof/utils"
)

// AdminController exposes the verification queue, override entry points,
// and the rollup trigger. All routes behind AdminRequired.
type AdminController struct {
	engine *engine.Engine
}

// NewAdminController creates a new controller instance.
func NewAdminController(eng *engine.Engine) *AdminController {
	return &AdminController{engine: eng}
}

// ListPendingUploads returns the verification queue, oldest first.
func (a *AdminController) ListPendingUploads(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))
	uploads, err := a.engine.ListPendingUploads(limit)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, uploads)
}

// GetUpload returns a single upload with its verification state.
func (a *AdminController) GetUpload(ctx *gin.Context) {
	uploadID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid upload id")
		return
	}

	upload, err := a.engine.GetUpload(uint(uploadID))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, upload)
}

type verifyUploadRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
}

// VerifyUpload applies an approve/reject decision to an upload.
func (a *AdminController) VerifyUpload(ctx *gin.Context) {
	uploadID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid upload id")
		return
	}

	verifierID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req verifyUploadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "decision must be approved or rejected")
		return
	}

	upload, err := a.engine.VerifyUpload(uint(uploadID), verifierID, req.Decision)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, upload)
}

type setTrophiesRequest struct {
	Trophies *int `json:"trophies" binding:"required"`
}

// SetTrophies moves a user's trophy total to an absolute value.
func (a *AdminController) SetTrophies(ctx *gin.Context) {
	userID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid user id")
		return
	}

	var req setTrophiesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40033, "trophies value required")
		return
	}

	if err := a.engine.AdminSetTrophies(uint(userID), *req.Trophies); err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"trophies": *req.Trophies})
}

type overrideStreakRequest struct {
	CurrentStreak *int   `json:"current_streak" binding:"required"`
	LongestStreak int    `json:"longest_streak"`
	BaselineDate  string `json:"baseline_date"`
}

// OverrideStreak writes absolute streak values and establishes (or clears)
// the baseline floor.
func (a *AdminController) OverrideStreak(ctx *gin.Context) {
	userID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40034, "invalid user id")
		return
	}

	var req overrideStreakRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40035, "current_streak value required")
		return
	}

	var baseline *time.Time
	if req.BaselineDate != "" {
		day, err := engine.ParseDate(req.BaselineDate)
		if err != nil {
			respondEngineError(ctx, err)
			return
		}
		baseline = &day
	}

	if err := a.engine.AdminOverrideStreak(uint(userID), *req.CurrentStreak, req.LongestStreak, baseline); err != nil {
		respondEngineError(ctx, err)
		return
	}

	st, err := a.engine.GetStreak(uint(userID))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, st)
}

// RunRollup triggers the nightly rollup. Safe to call repeatedly; the
// per-date marker turns retries into no-ops.
func (a *AdminController) RunRollup(ctx *gin.Context) {
	result, err := a.engine.RunNightlyRollup()
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, result)
}
