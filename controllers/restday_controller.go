package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dayproof/dayproof/engine"
	"github.com/dayproof/dayproof/utils"
)

// RestDayController handles rest-day elections.
type RestDayController struct {
	engine *engine.Engine
}

// NewRestDayController creates a new controller instance.
func NewRestDayController(eng *engine.Engine) *RestDayController {
	return &RestDayController{engine: eng}
}

type useRestDayRequest struct {
	ChallengeID uint   `json:"challenge_id"`
	RestDate    string `json:"rest_date" binding:"required"`
}

// UseRestDay spends one rest day on the given date. When no challenge ID
// is supplied the user's active challenge is used.
func (r *RestDayController) UseRestDay(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req useRestDayRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid rest day payload")
		return
	}

	day, err := engine.ParseDate(req.RestDate)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	challengeID := req.ChallengeID
	if challengeID == 0 {
		ch, err := r.engine.GetOrCreateActiveChallenge(userID)
		if err != nil {
			respondEngineError(ctx, err)
			return
		}
		challengeID = ch.ID
	}

	rd, err := r.engine.UseRestDay(userID, challengeID, day)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, rd)
}
