package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dayproof/dayproof/engine"
	"github.com/dayproof/dayproof/utils"
)

// DashboardController serves the read-only accounting views.
type DashboardController struct {
	engine *engine.Engine
}

// NewDashboardController creates a new controller instance.
func NewDashboardController(eng *engine.Engine) *DashboardController {
	return &DashboardController{engine: eng}
}

// GetDashboard returns streaks, trophies, and active challenge progress in
// one payload.
func (d *DashboardController) GetDashboard(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	summary, err := d.engine.GetDashboardSummary(userID)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, summary)
}

// GetActiveChallenge returns (creating if needed) the challenge covering today.
func (d *DashboardController) GetActiveChallenge(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	ch, err := d.engine.GetOrCreateActiveChallenge(userID)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, ch)
}

// ListTrophyHistory returns the user's trophy ledger, newest first.
func (d *DashboardController) ListTrophyHistory(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	rows, err := d.engine.ListTrophyTransactions(userID, limit)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, rows)
}
