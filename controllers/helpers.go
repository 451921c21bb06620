package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dayproof/dayproof/engine"
	"github.com/dayproof/dayproof/middleware"
	"github.com/dayproof/dayproof/utils"
)

// getUserID extracts the authenticated user ID stored by the auth middleware.
func getUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// respondEngineError maps engine sentinel errors onto the JSON envelope.
// Conflicts and validation failures are client errors with actionable
// messages; anything else is a generic internal error.
func respondEngineError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation):
		utils.Error(ctx, http.StatusBadRequest, 40001, err.Error())
	case errors.Is(err, engine.ErrDayAlreadyCovered):
		utils.Error(ctx, http.StatusConflict, 40901, err.Error())
	case errors.Is(err, engine.ErrNoRestDaysLeft):
		utils.Error(ctx, http.StatusConflict, 40902, err.Error())
	case errors.Is(err, engine.ErrAlreadyVerified):
		utils.Error(ctx, http.StatusConflict, 40903, err.Error())
	case errors.Is(err, engine.ErrUploadNotFound),
		errors.Is(err, engine.ErrChallengeNotFound),
		errors.Is(err, engine.ErrUserNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, err.Error())
	default:
		if utils.Sugar != nil {
			utils.Sugar.Errorf("internal error: %v", err)
		}
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
	}
}
