package handler

import (
	"errors"
	"net/http"

	"github.com/TIANLI0/RidgeTrace/middleware"
	"github.com/TIANLI0/RidgeTrace/model"
	"github.com/TIANLI0/RidgeTrace/service"
	"github.com/TIANLI0/RidgeTrace/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ScanHandler struct {
	scans service.ScanStore
}

func NewScanHandler(scans service.ScanStore) *ScanHandler {
	return &ScanHandler{scans: scans}
}

// List 返回当前用户的历史记录
func (h *ScanHandler) List(c *gin.Context) {
	scans, err := h.scans.ListScans(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		utils.Logger.Error("failed to list scans", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "查询失败",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.ScanListResponse{
		Success: true,
		Message: "查询成功",
		Data:    scans,
	})
}

// Delete 删除一条历史记录
func (h *ScanHandler) Delete(c *gin.Context) {
	err := h.scans.DeleteScan(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrScanNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{
				Success: false,
				Message: "未找到该记录",
			})
			return
		}
		utils.Logger.Error("failed to delete scan", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "删除失败",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.ErrorResponse{
		Success: true,
		Message: "删除成功",
	})
}
