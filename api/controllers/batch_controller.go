package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reasonableperson/etrial-manager/api/models"
	"github.com/reasonableperson/etrial-manager/batch"
	"github.com/reasonableperson/etrial-manager/tool"
	"github.com/reasonableperson/etrial-manager/types"
)

// BatchStarter starts and registers one batch.
type BatchStarter func(files []types.DroppedFile) *batch.Batch

// BatchController exposes the upload coordinator on the local self API.
type BatchController struct {
	start BatchStarter
}

func NewBatchController(start BatchStarter) *BatchController {
	return &BatchController{start: start}
}

// UserUploadBatch treats the listed local files as one drop.
// POST /api/self/v1/upload-batch
func (ctrl *BatchController) UserUploadBatch(c *gin.Context) {
	var request types.UploadBatchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		tool.ReplyError(c, http.StatusBadRequest, "Invalid JSON request: "+err.Error())
		return
	}
	files := make([]types.DroppedFile, 0, len(request.Files))
	for i, in := range request.Files {
		f, err := tool.ResolveFileInput(in)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, tool.FastReturnErrorWithData(
				fmt.Sprintf("Failed to read file %d: %v", i, err), map[string]any{"index": i}))
			return
		}
		files = append(files, f)
	}
	b := ctrl.start(files)
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(b.Info()))
}

// UserGetBatch returns the current state of a batch.
// GET /api/self/v1/batch/:id
func (ctrl *BatchController) UserGetBatch(c *gin.Context) {
	b, ok := models.LookupBatch(c.Param("id"))
	if !ok {
		tool.ReplyError(c, http.StatusNotFound, "Batch not found or expired")
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(b.Info()))
}

// UserCancelTask cancels one pending or in-flight task.
// POST /api/self/v1/batch/:id/cancel/:task
func (ctrl *BatchController) UserCancelTask(c *gin.Context) {
	b, ok := models.LookupBatch(c.Param("id"))
	if !ok {
		tool.ReplyError(c, http.StatusNotFound, "Batch not found or expired")
		return
	}
	task, ok := b.Task(c.Param("task"))
	if !ok {
		tool.ReplyError(c, http.StatusNotFound, "Task not found")
		return
	}
	if !task.Cancel() {
		tool.ReplyError(c, http.StatusConflict, "Task already finished: "+task.State().String())
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}
