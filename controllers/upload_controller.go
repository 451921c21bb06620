package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dayproof/dayproof/engine"
	"github.com/dayproof/dayproof/utils"
)

// UploadController handles proof-of-activity submissions. Image bytes live
// in external storage; this service only mints and records references.
type UploadController struct {
	engine *engine.Engine
}

// NewUploadController creates a new controller instance.
func NewUploadController(eng *engine.Engine) *UploadController {
	return &UploadController{engine: eng}
}

type createUploadRequest struct {
	UploadDate string `json:"upload_date" binding:"required"`
	Caption    string `json:"caption"`
}

// CreateUpload records a pending proof for a calendar day and returns the
// storage reference the client should upload the photo to.
func (u *UploadController) CreateUpload(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req createUploadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid upload payload")
		return
	}

	day, err := engine.ParseDate(req.UploadDate)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	photoRef := fmt.Sprintf("photos/%s/%s.jpg", day.Format("2006/01"), uuid.NewString())
	caption := utils.Sanitize(req.Caption)

	upload, err := u.engine.CreateUpload(userID, day, photoRef, caption)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.Success(ctx, upload)
}

// ListMyUploads returns the authenticated user's uploads, newest first.
func (u *UploadController) ListMyUploads(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	uploads, err := u.engine.ListUserUploads(userID, limit)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, uploads)
}
