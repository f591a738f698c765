package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"time"

	"github.com/TIANLI0/RidgeTrace/config"
	"github.com/TIANLI0/RidgeTrace/model"
	"github.com/TIANLI0/RidgeTrace/tracer"
	"github.com/TIANLI0/RidgeTrace/utils"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrQueueFull        = errors.New("trace queue is full")
	ErrUnsupportedImage = errors.New("unsupported image")
)

// TraceService 负责脊线追踪处理
type TraceService struct {
	tracer       *tracer.Tracer
	semaphore    chan struct{}
	queueTimeout time.Duration
	maxDimension int
}

func NewTraceService(cfg *config.TraceConfig) *TraceService {
	s := &TraceService{
		tracer:       tracer.New(tracer.WithWorkers(cfg.Workers)),
		semaphore:    make(chan struct{}, max(1, cfg.MaxConcurrent)),
		queueTimeout: time.Duration(cfg.QueueTimeout) * time.Second,
		maxDimension: cfg.MaxDimension,
	}

	utils.Logger.Info("trace service initialized",
		zap.Int("workers", s.tracer.Workers()),
		zap.Int("max_concurrent", cap(s.semaphore)),
		zap.Duration("queue_timeout", s.queueTimeout),
		zap.Int("max_dimension", s.maxDimension))

	return s
}

// ProcessImage 处理图片文件并返回追踪结果
func (s *TraceService) ProcessImage(ctx context.Context, imagePath string, md5 string, params tracer.Params) (*model.TraceResult, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	return s.ProcessReader(ctx, f, md5, params)
}

// ProcessReader 解码数据流中的图片，追踪并编码为 base64 PNG
func (s *TraceService) ProcessReader(ctx context.Context, r io.Reader, md5 string, params tracer.Params) (*model.TraceResult, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	startTime := time.Now()

	out, err := s.Trace(ctx, img, params)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out.Image()); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	ratio := RidgeRatio(out, params.Invert)

	result := &model.TraceResult{
		MD5:        md5,
		Width:      out.Width,
		Height:     out.Height,
		Threshold:  params.Threshold,
		Invert:     params.Invert,
		Image:      base64.StdEncoding.EncodeToString(buf.Bytes()),
		RidgeRatio: ratio,
		Timestamp:  time.Now().Unix(),
	}

	utils.Logger.Info("image traced successfully",
		zap.String("md5", md5),
		zap.String("format", format),
		zap.Duration("duration", time.Since(startTime)),
		zap.Float64("threshold", params.Threshold),
		zap.Bool("invert", params.Invert),
		zap.Float64("ridge_ratio", ratio))

	return result, nil
}

// Trace 在并发限制内对已解码图片执行追踪
func (s *TraceService) Trace(ctx context.Context, img image.Image, params tracer.Params) (*tracer.Raster, error) {
	// 并发控制
	wait := ctx
	if s.queueTimeout > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, s.queueTimeout)
		defer cancel()
	}

	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	case <-wait.Done():
		// 调用方取消优先于排队超时
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrQueueFull
	}

	b := img.Bounds()
	scaled, scale := s.smartResize(img)

	utils.Logger.Info("processing image",
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Float64("scale", scale))

	return s.tracer.Trace(tracer.FromImage(scaled), params)
}

// smartResize 将超出 maxDimension 的图片等比缩小，缩放在追踪之前完成
func (s *TraceService) smartResize(img image.Image) (image.Image, float64) {
	b := img.Bounds()
	maxDim := max(b.Dx(), b.Dy())
	if s.maxDimension <= 0 || maxDim <= s.maxDimension {
		return img, 1.0
	}

	scale := float64(s.maxDimension) / float64(maxDim)
	newWidth := max(1, int(float64(b.Dx())*scale))
	newHeight := max(1, int(float64(b.Dy())*scale))

	resized := image.NewNRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(resized, resized.Bounds(), img, b, draw.Src, nil)

	return resized, scale
}

// RidgeRatio 计算被判定为脊线的像素比例
func RidgeRatio(r *tracer.Raster, invert bool) float64 {
	ridge := uint8(0)
	if invert {
		ridge = 255
	}

	n := 0
	for i := 0; i < len(r.Pix); i += 4 {
		if r.Pix[i] == ridge {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(n) / float64(r.Width*r.Height)
}
