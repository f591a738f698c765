package tracer

import (
	"image"
	"image/color"
	"math/rand"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *Raster {
	r := NewRaster(w, h)
	for i := 0; i < w*h; i++ {
		r.Pix[i*4], r.Pix[i*4+1], r.Pix[i*4+2], r.Pix[i*4+3] = c.R, c.G, c.B, c.A
	}
	return r
}

func noise(w, h int, seed uint64) *Raster {
	rng := rand.New(rand.NewSource(int64(seed ^ 0x9e3779b97f4a7c15)))
	r := NewRaster(w, h)
	for i := range r.Pix {
		r.Pix[i] = uint8(rng.Intn(256))
	}
	return r
}

// verticalEdge 左侧 dark 列为黑色，其余为白色
func verticalEdge(w, h, dark int) *Raster {
	r := solid(w, h, color.NRGBA{255, 255, 255, 255})
	for y := 0; y < h; y++ {
		for x := 0; x < dark; x++ {
			i := (y*w + x) * 4
			r.Pix[i], r.Pix[i+1], r.Pix[i+2] = 0, 0, 0
		}
	}
	return r
}

func isBorder(x, y, w, h int) bool {
	return x == 0 || y == 0 || x == w-1 || y == h-1
}

func TestTraceDeterministic(t *testing.T) {
	src := noise(31, 17, 1)
	for _, p := range []Params{{Threshold: 30}, {Threshold: 5, Invert: true}, {Threshold: 100}} {
		a, err := Trace(src, p)
		require.NoError(t, err)
		b, err := Trace(src, p)
		require.NoError(t, err)
		assert.Equal(t, a.Pix, b.Pix)
	}
}

func TestTraceDoesNotModifyInput(t *testing.T) {
	src := noise(12, 9, 2)
	before := append([]uint8(nil), src.Pix...)
	_, err := Trace(src, Params{Threshold: 30})
	require.NoError(t, err)
	assert.Equal(t, before, src.Pix)
}

func TestTracePreservesDimensions(t *testing.T) {
	sizes := [][2]int{{1, 1}, {2, 2}, {3, 3}, {1, 7}, {7, 1}, {40, 3}, {64, 48}}
	for _, s := range sizes {
		out, err := Trace(noise(s[0], s[1], 3), Params{Threshold: 20})
		require.NoError(t, err)
		assert.Equal(t, s[0], out.Width)
		assert.Equal(t, s[1], out.Height)
		assert.Len(t, out.Pix, s[0]*s[1]*4)
	}
}

func TestTraceBorderIsBackground(t *testing.T) {
	src := noise(23, 19, 4)
	for _, invert := range []bool{false, true} {
		out, err := Trace(src, Params{Threshold: 0, Invert: invert})
		require.NoError(t, err)

		want := uint8(255)
		if invert {
			want = 0
		}
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				if !isBorder(x, y, out.Width, out.Height) {
					continue
				}
				r, g, b, a := out.At(x, y)
				assert.Equal(t, [4]uint8{want, want, want, 255}, [4]uint8{r, g, b, a}, "pixel (%d,%d)", x, y)
			}
		}
	}
}

func TestTraceOutputIsBinary(t *testing.T) {
	src := noise(50, 40, 5)
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i+3] = uint8(i % 256)
	}
	out, err := Trace(src, Params{Threshold: 45})
	require.NoError(t, err)
	for i := 0; i < len(out.Pix); i += 4 {
		v := out.Pix[i]
		require.True(t, v == 0 || v == 255, "value %d at %d", v, i)
		require.Equal(t, v, out.Pix[i+1])
		require.Equal(t, v, out.Pix[i+2])
		require.Equal(t, uint8(255), out.Pix[i+3])
	}
}

func TestTraceThresholdMonotonic(t *testing.T) {
	src := noise(40, 30, 6)
	prev, err := Trace(src, Params{Threshold: 0})
	require.NoError(t, err)

	for _, th := range []float64{5, 10, 30, 60, 100, 254.5, 255, 1000} {
		cur, err := Trace(src, Params{Threshold: th})
		require.NoError(t, err)
		for i := 0; i < len(cur.Pix); i += 4 {
			if cur.Pix[i] == 0 {
				require.Equal(t, uint8(0), prev.Pix[i], "pixel %d turned black at threshold %v", i/4, th)
			}
		}
		prev = cur
	}

	// 截断到 255 后，任何 >=255 的阈值都不会产生脊线
	for i := 0; i < len(prev.Pix); i += 4 {
		assert.Equal(t, uint8(255), prev.Pix[i])
	}
}

func TestTraceInvertIsComplement(t *testing.T) {
	src := noise(33, 21, 7)
	for _, th := range []float64{0, 12.5, 30, 99} {
		plain, err := Trace(src, Params{Threshold: th})
		require.NoError(t, err)
		inv, err := Trace(src, Params{Threshold: th, Invert: true})
		require.NoError(t, err)
		for i := 0; i < len(plain.Pix); i += 4 {
			for c := 0; c < 3; c++ {
				require.Equal(t, 255-plain.Pix[i+c], inv.Pix[i+c])
			}
			require.Equal(t, uint8(255), inv.Pix[i+3])
		}
	}
}

func TestTraceFlatGray(t *testing.T) {
	gray := color.NRGBA{128, 128, 128, 255}

	// 5x5: 只有中心像素的 3x3 邻域完全落在平滑结果的内部
	out, err := Trace(solid(5, 5, gray), Params{Threshold: 0})
	require.NoError(t, err)
	r, g, b, a := out.At(2, 2)
	assert.Equal(t, [4]uint8{255, 255, 255, 255}, [4]uint8{r, g, b, a})

	// 距边缘至少两像素的区域梯度为 0，任何非负阈值下都是背景
	out, err = Trace(solid(12, 9, gray), Params{Threshold: 0})
	require.NoError(t, err)
	for y := 2; y < out.Height-2; y++ {
		for x := 2; x < out.Width-2; x++ {
			v, _, _, _ := out.At(x, y)
			assert.Equal(t, uint8(255), v, "pixel (%d,%d)", x, y)
		}
	}

	mag := Gradient(Smooth(Luminance(solid(12, 9, gray))))
	for y := 2; y < mag.Height-2; y++ {
		for x := 2; x < mag.Width-2; x++ {
			assert.Zero(t, mag.At(x, y))
		}
	}
}

func TestTraceVerticalEdge(t *testing.T) {
	src := verticalEdge(5, 5, 2)
	out, err := Trace(src, Params{Threshold: 10})
	require.NoError(t, err)

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			v, _, _, _ := out.At(x, y)
			if isBorder(x, y, 5, 5) {
				assert.Equal(t, uint8(255), v, "border (%d,%d)", x, y)
			}
		}
	}
	for _, x := range []int{1, 2} {
		v, _, _, _ := out.At(x, 2)
		assert.Equal(t, uint8(0), v, "boundary pixel (%d,2)", x)
	}

	inv, err := Trace(src, Params{Threshold: 10, Invert: true})
	require.NoError(t, err)
	for i := range out.Pix {
		if i%4 == 3 {
			continue
		}
		assert.Equal(t, 255-out.Pix[i], inv.Pix[i])
	}
}

func TestTraceVerticalEdgeFlatRegions(t *testing.T) {
	// 较大的图像中，远离边界与边框的平坦区域为背景
	src := verticalEdge(20, 20, 8)
	out, err := Trace(src, Params{Threshold: 10})
	require.NoError(t, err)

	for y := 2; y < 18; y++ {
		for x := 2; x < 18; x++ {
			v, _, _, _ := out.At(x, y)
			if x >= 6 && x <= 9 {
				continue
			}
			assert.Equal(t, uint8(255), v, "flat pixel (%d,%d)", x, y)
		}
		v, _, _, _ := out.At(7, y)
		assert.Equal(t, uint8(0), v, "edge pixel (7,%d)", y)
	}
}

func TestTraceTinyInputs(t *testing.T) {
	for _, s := range [][2]int{{1, 1}, {2, 2}, {1, 2}, {2, 1}, {2, 5}, {5, 2}} {
		src := noise(s[0], s[1], 8)
		for _, invert := range []bool{false, true} {
			out, err := Trace(src, Params{Threshold: 0, Invert: invert})
			require.NoError(t, err)
			want := uint8(255)
			if invert {
				want = 0
			}
			for i := 0; i < len(out.Pix); i += 4 {
				assert.Equal(t, []uint8{want, want, want, 255}, out.Pix[i:i+4])
			}
		}
	}
}

func TestTraceInvalidDimensions(t *testing.T) {
	cases := []struct {
		name string
		src  *Raster
	}{
		{"nil", nil},
		{"zero width", &Raster{Width: 0, Height: 3, Pix: nil}},
		{"negative height", &Raster{Width: 3, Height: -1, Pix: nil}},
		{"short buffer", &Raster{Width: 3, Height: 3, Pix: make([]uint8, 35)}},
		{"long buffer", &Raster{Width: 3, Height: 3, Pix: make([]uint8, 37)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Trace(tc.src, Params{Threshold: 30})
			require.ErrorIs(t, err, ErrInvalidDimensions)
			assert.Nil(t, out)
		})
	}
}

func TestTraceAllocationLimit(t *testing.T) {
	out, err := New(WithMaxPixels(16)).Trace(noise(5, 5, 9), Params{Threshold: 30})
	require.ErrorIs(t, err, ErrAllocation)
	assert.Nil(t, out)

	out, err = New(WithMaxPixels(25)).Trace(noise(5, 5, 9), Params{Threshold: 30})
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestTraceParallelMatchesSequential(t *testing.T) {
	for _, s := range [][2]int{{2, 2}, {3, 3}, {17, 5}, {64, 97}, {128, 3}} {
		src := noise(s[0], s[1], 10)
		p := Params{Threshold: 25}
		want, err := New().Trace(src, p)
		require.NoError(t, err)
		for _, workers := range []int{2, 3, 7, 200} {
			got, err := New(WithWorkers(workers)).Trace(src, p)
			require.NoError(t, err)
			assert.Equal(t, want.Pix, got.Pix, "size %v workers %d", s, workers)
		}
	}
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 1, New().Workers())
	assert.Equal(t, 4, New(WithWorkers(4)).Workers())
	assert.Equal(t, runtime.GOMAXPROCS(0), New(WithWorkers(0)).Workers())
	assert.Equal(t, runtime.GOMAXPROCS(0), New(WithWorkers(-3)).Workers())
}

func TestFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 20, 13, 22))
	img.Set(10, 20, color.RGBA{10, 20, 30, 255})
	img.Set(12, 21, color.RGBA{200, 100, 50, 255})

	r := FromImage(img)
	require.Equal(t, 3, r.Width)
	require.Equal(t, 2, r.Height)

	red, green, blue, alpha := r.At(0, 0)
	assert.Equal(t, [4]uint8{10, 20, 30, 255}, [4]uint8{red, green, blue, alpha})
	red, green, blue, alpha = r.At(2, 1)
	assert.Equal(t, [4]uint8{200, 100, 50, 255}, [4]uint8{red, green, blue, alpha})

	round := FromImage(r.Image())
	assert.Equal(t, r.Pix, round.Pix)
}
