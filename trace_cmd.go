package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/TIANLI0/RidgeTrace/config"
	"github.com/TIANLI0/RidgeTrace/service"
	"github.com/TIANLI0/RidgeTrace/tracer"
	"github.com/spf13/cobra"
)

func newTraceCmd() *cobra.Command {
	var (
		threshold float64
		invert    bool
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "trace <input> <output.png>",
		Short: "Trace ridges of a local image into a PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if threshold < 0 {
				return fmt.Errorf("threshold must be >= 0, got %v", threshold)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			traceCfg := cfg.Trace
			if cmd.Flags().Changed("workers") {
				traceCfg.Workers = workers
			}
			traceCfg.QueueTimeout = 0

			return traceFile(cmd.Context(), service.NewTraceService(&traceCfg), args[0], args[1],
				tracer.Params{Threshold: threshold, Invert: invert})
		},
	}

	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 30, "ridge threshold (gradient magnitude)")
	cmd.Flags().BoolVarP(&invert, "invert", "i", false, "white ridges on black background")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "parallel rows per stage (0 = GOMAXPROCS)")
	return cmd
}

func traceFile(ctx context.Context, s *service.TraceService, in, out string, params tracer.Params) error {
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrUnsupportedImage, err)
	}

	raster, err := s.Trace(ctx, img, params)
	if err != nil {
		return err
	}

	w, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(w, raster.Image()); err != nil {
		w.Close()
		return fmt.Errorf("encode %s: %w", out, err)
	}
	return w.Close()
}
