package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/TIANLI0/RidgeTrace/tracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")

	src := image.NewNRGBA(image.Rect(0, 0, 9, 7))
	for y := 0; y < 7; y++ {
		for x := 0; x < 9; x++ {
			v := uint8(0)
			if x > 4 {
				v = 255
			}
			src.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	require.NoError(t, os.WriteFile(in, buf.Bytes(), 0o644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(dir, "none.yaml"), "trace", in, out, "--threshold", "12", "--invert", "--workers", "3"})
	require.NoError(t, cmd.Execute())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	got, err := png.Decode(f)
	require.NoError(t, err)

	want, err := tracer.Trace(tracer.FromImage(src), tracer.Params{Threshold: 12, Invert: true})
	require.NoError(t, err)
	assert.Equal(t, want.Pix, tracer.FromImage(got).Pix)
}

func TestTraceCommandRejectsNegativeThreshold(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"trace", "a.png", "b.png", "--threshold=-1"})
	assert.Error(t, cmd.Execute())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "ridgetrace dev")
}

func TestTraceCommandRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trace:\n  max_concurrent: 0\n"), 0o644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", path, "trace", filepath.Join(dir, "in.png"), filepath.Join(dir, "out.png")})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent")
}
