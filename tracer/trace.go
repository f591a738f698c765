// Package tracer 将 RGBA 图像转换为二值脊线图。
//
// 处理顺序固定为: 亮度转换 -> 3x3 平滑 -> Sobel 梯度幅值 -> 阈值二值化。
// 平滑与梯度阶段不计算边框一像素，保持初始值 0。
// 每次调用独立分配缓冲区，不读写任何全局可变状态，可并发调用。
package tracer

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Params 处理参数
type Params struct {
	Threshold float64 `json:"threshold"`
	Invert    bool    `json:"invert"`
}

// Tracer 可配置行级并行度的处理流水线
type Tracer struct {
	workers   int
	maxPixels int
}

// Option 配置 Tracer
type Option func(*Tracer)

// WithWorkers 设置每个阶段的并行 goroutine 数，n<=0 时使用 GOMAXPROCS
func WithWorkers(n int) Option {
	return func(t *Tracer) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		t.workers = n
	}
}

// WithMaxPixels 设置单次调用允许的最大像素数，0 表示不限制
func WithMaxPixels(n int) Option {
	return func(t *Tracer) {
		t.maxPixels = n
	}
}

// New 创建 Tracer，默认单线程
func New(opts ...Option) *Tracer {
	t := &Tracer{
		workers:   1,
		maxPixels: DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Workers 返回并行度
func (t *Tracer) Workers() int {
	return t.workers
}

// Trace 使用默认配置处理图像
func Trace(src *Raster, p Params) (*Raster, error) {
	return New().Trace(src, p)
}

// Trace 依次执行四个阶段并返回新的 RGBA 图像，输入不会被修改
func (t *Tracer) Trace(src *Raster, p Params) (*Raster, error) {
	if _, err := validate(src, t.maxPixels); err != nil {
		return nil, err
	}

	b, err := allocate(src.Width, src.Height)
	if err != nil {
		return nil, err
	}

	t.rows(src.Height, func(y0, y1 int) { luminanceRows(b.lum, src, y0, y1) })
	t.rows(src.Height, func(y0, y1 int) { smoothRows(b.smooth, b.lum, y0, y1) })
	t.rows(src.Height, func(y0, y1 int) { gradientRows(b.mag, b.smooth, y0, y1) })
	t.rows(src.Height, func(y0, y1 int) { binarizeRows(b.out, b.mag, p, y0, y1) })

	return b.out, nil
}

// rows 将 [0,h) 切分为连续行块并行执行 fn，返回前所有行块均已完成
func (t *Tracer) rows(h int, fn func(y0, y1 int)) {
	if t.workers <= 1 || h < 2 {
		fn(0, h)
		return
	}

	n := min(t.workers, h)
	chunk := (h + n - 1) / n

	var g errgroup.Group
	g.SetLimit(n)
	for y0 := 0; y0 < h; y0 += chunk {
		y0 := y0
		y1 := min(y0+chunk, h)
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	_ = g.Wait()
}
