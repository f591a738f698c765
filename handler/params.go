package handler

import (
	"fmt"
	"math"
	"strconv"

	"github.com/TIANLI0/RidgeTrace/config"
	"github.com/TIANLI0/RidgeTrace/tracer"
)

// parseParams 解析阈值与反色参数，空值使用默认阈值
func parseParams(cfg *config.TraceConfig, threshold, invert string) (tracer.Params, error) {
	p := tracer.Params{Threshold: cfg.DefaultThreshold}

	if threshold != "" {
		v, err := strconv.ParseFloat(threshold, 64)
		if err != nil || math.IsNaN(v) {
			return p, fmt.Errorf("invalid threshold %q", threshold)
		}
		if v < 0 || v > cfg.MaxThreshold {
			return p, fmt.Errorf("threshold %v out of range [0, %v]", v, cfg.MaxThreshold)
		}
		p.Threshold = v
	}

	if invert != "" {
		v, err := strconv.ParseBool(invert)
		if err != nil {
			return p, fmt.Errorf("invalid invert %q", invert)
		}
		p.Invert = v
	}

	return p, nil
}
