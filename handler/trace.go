package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TIANLI0/RidgeTrace/config"
	"github.com/TIANLI0/RidgeTrace/middleware"
	"github.com/TIANLI0/RidgeTrace/model"
	"github.com/TIANLI0/RidgeTrace/service"
	"github.com/TIANLI0/RidgeTrace/tracer"
	"github.com/TIANLI0/RidgeTrace/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TraceHandler struct {
	cfg          *config.Config
	cache        service.ResultCache
	scans        service.ScanStore
	traceService *service.TraceService
}

func NewTraceHandler(cfg *config.Config, cache service.ResultCache, scans service.ScanStore, trace *service.TraceService) *TraceHandler {
	return &TraceHandler{
		cfg:          cfg,
		cache:        cache,
		scans:        scans,
		traceService: trace,
	}
}

// Trace 处理图片上传并生成脊线图
func (h *TraceHandler) Trace(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		utils.Logger.Error("failed to get uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "请上传图片文件",
			Error:   err.Error(),
		})
		return
	}

	// 验证文件大小
	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("文件大小超过限制 (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)),
		})
		return
	}

	// 验证文件类型
	contentType := file.Header.Get("Content-Type")
	if !h.isAllowedType(contentType) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "不支持的文件类型，仅支持 JPEG/PNG/WebP/BMP",
		})
		return
	}

	params, err := parseParams(&h.cfg.Trace, c.PostForm("threshold"), c.PostForm("invert"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "处理参数无效",
			Error:   err.Error(),
		})
		return
	}

	filename := utils.GenerateFileName(file.Filename)
	savePath := filepath.Join(h.cfg.Upload.UploadDir, filename)

	if err := c.SaveUploadedFile(file, savePath); err != nil {
		utils.Logger.Error("failed to save file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "保存文件失败",
			Error:   err.Error(),
		})
		return
	}

	// 确保文件在处理完成后被删除（如果配置启用）
	if h.cfg.Trace.CleanupTempFiles {
		defer func() {
			if err := os.Remove(savePath); err != nil {
				utils.Logger.Warn("failed to delete temp file",
					zap.String("file", savePath),
					zap.Error(err))
			} else {
				utils.Logger.Debug("temp file deleted",
					zap.String("file", savePath))
			}
		}()
	}

	md5, err := utils.FileMD5(savePath)
	if err != nil {
		utils.Logger.Error("failed to calculate md5", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "计算文件哈希失败",
			Error:   err.Error(),
		})
		return
	}

	utils.Logger.Info("file uploaded",
		zap.String("filename", filename),
		zap.String("md5", md5),
		zap.Int64("size", file.Size),
		zap.Float64("threshold", params.Threshold),
		zap.Bool("invert", params.Invert))

	ctx := c.Request.Context()
	userID := middleware.UserID(c)
	cacheKey := service.CacheKey(userID, md5, params, h.cfg.Trace.MaxDimension)

	result, err := h.cache.GetTraceResult(ctx, cacheKey)
	if err != nil {
		utils.Logger.Warn("failed to get cache", zap.Error(err))
	}

	message := "处理成功"
	if result != nil {
		utils.Logger.Info("cache hit", zap.String("cache_key", cacheKey))
		message = "处理成功（来自缓存）"
	} else {
		result, err = h.traceService.ProcessImage(ctx, savePath, md5, params)
		if err != nil {
			status, msg := processErrorStatus(err)
			if status == http.StatusRequestTimeout {
				utils.Logger.Warn("trace request cancelled", zap.Error(err))
			} else {
				utils.Logger.Error("failed to process image", zap.Error(err))
			}
			c.JSON(status, model.ErrorResponse{
				Success: false,
				Message: msg,
				Error:   err.Error(),
			})
			return
		}

		if err := h.cache.SetTraceResult(ctx, cacheKey, result); err != nil {
			utils.Logger.Warn("failed to set cache", zap.Error(err))
		}
	}

	resp := model.UploadResponse{
		Success: true,
		Message: message,
		Data:    result,
	}

	if c.PostForm("save") == "true" {
		scan := &model.Scan{
			ID:            utils.GenerateID(),
			UserID:        userID,
			FileName:      filepath.Base(file.Filename),
			MD5:           md5,
			Threshold:     params.Threshold,
			Invert:        params.Invert,
			SubjectName:   strings.TrimSpace(c.PostForm("subject_name")),
			SubjectEmail:  strings.TrimSpace(c.PostForm("subject_email")),
			SubjectMobile: strings.TrimSpace(c.PostForm("subject_mobile")),
			Notes:         strings.TrimSpace(c.PostForm("notes")),
			Timestamp:     time.Now().UnixMilli(),
		}
		if err := h.scans.AddScan(ctx, scan); err != nil {
			utils.Logger.Error("failed to save scan", zap.Error(err))
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{
				Success: false,
				Message: "保存历史记录失败",
				Error:   err.Error(),
			})
			return
		}
		resp.Scan = scan
	}

	c.JSON(http.StatusOK, resp)
}

// Get 根据MD5与参数获取追踪结果
func (h *TraceHandler) Get(c *gin.Context) {
	result, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, model.UploadResponse{
		Success: true,
		Message: "查询成功",
		Data:    result,
	})
}

// GetImage 根据MD5与参数返回追踪后的PNG
func (h *TraceHandler) GetImage(c *gin.Context) {
	result, ok := h.lookup(c)
	if !ok {
		return
	}

	data, err := base64.StdEncoding.DecodeString(result.Image)
	if err != nil {
		utils.Logger.Error("failed to decode cached image", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "读取图片失败",
			Error:   err.Error(),
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="trace-%s.png"`, result.MD5))
	c.Data(http.StatusOK, "image/png", data)
}

func (h *TraceHandler) lookup(c *gin.Context) (*model.TraceResult, bool) {
	md5 := c.Param("md5")
	if md5 == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "MD5参数缺失",
		})
		return nil, false
	}

	params, err := parseParams(&h.cfg.Trace, c.Query("threshold"), c.Query("invert"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "处理参数无效",
			Error:   err.Error(),
		})
		return nil, false
	}

	key := service.CacheKey(middleware.UserID(c), md5, params, h.cfg.Trace.MaxDimension)
	result, err := h.cache.GetTraceResult(c.Request.Context(), key)
	if err != nil {
		utils.Logger.Error("failed to get trace result", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "查询失败",
			Error:   err.Error(),
		})
		return nil, false
	}

	if result == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Success: false,
			Message: "未找到该图片的追踪结果",
		})
		return nil, false
	}

	return result, true
}

func (h *TraceHandler) isAllowedType(contentType string) bool {
	for _, allowed := range h.cfg.Upload.AllowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}

// processErrorStatus 将处理错误映射为HTTP状态码与提示
func processErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "请求已取消"
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusServiceUnavailable, "处理队列已满，请稍后重试"
	case errors.Is(err, service.ErrUnsupportedImage):
		return http.StatusBadRequest, "无法解码图片"
	case errors.Is(err, tracer.ErrInvalidDimensions):
		return http.StatusBadRequest, "图片尺寸无效"
	case errors.Is(err, tracer.ErrAllocation):
		return http.StatusRequestEntityTooLarge, "图片过大，无法处理"
	default:
		return http.StatusInternalServerError, "图片处理失败"
	}
}
