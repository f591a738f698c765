package tracer

import (
	"fmt"
	"math"
)

// DefaultMaxPixels 单次调用允许分配的最大像素数
const DefaultMaxPixels = 1 << 26

// Raster RGBA 字节图像，行优先，原点在左上角
type Raster struct {
	Width  int
	Height int
	Pix    []uint8 // 每像素 4 字节: R, G, B, A
}

// NewRaster 创建指定尺寸的全零 RGBA 图像
func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// Plane 单通道浮点中间图像
//
// 数值以 float32 存储，所有运算以 float64 进行后再取整存入。
type Plane struct {
	Width  int
	Height int
	Pix    []float32
}

func newPlane(width, height int) *Plane {
	return &Plane{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height),
	}
}

// At 返回 (x, y) 处的值
func (p *Plane) At(x, y int) float32 {
	return p.Pix[y*p.Width+x]
}

// At 返回 (x, y) 处的 RGBA 分量
func (r *Raster) At(x, y int) (red, green, blue, alpha uint8) {
	i := (y*r.Width + x) * 4
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2], r.Pix[i+3]
}

// pixelCount 计算 width*height，溢出时 ok 为 false
func pixelCount(width, height int) (n int, ok bool) {
	if width > math.MaxInt/height/4 {
		return 0, false
	}
	return width * height, true
}

// validate 检查输入图像是否合法，并返回像素总数
func validate(src *Raster, maxPixels int) (int, error) {
	if src == nil {
		return 0, fmt.Errorf("%w: nil raster", ErrInvalidDimensions)
	}
	if src.Width <= 0 || src.Height <= 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, src.Width, src.Height)
	}
	n, ok := pixelCount(src.Width, src.Height)
	if !ok {
		return 0, fmt.Errorf("%w: %dx%d overflows", ErrInvalidDimensions, src.Width, src.Height)
	}
	if len(src.Pix) != n*4 {
		return 0, fmt.Errorf("%w: buffer has %d bytes, want %d", ErrInvalidDimensions, len(src.Pix), n*4)
	}
	if maxPixels > 0 && n > maxPixels {
		return 0, fmt.Errorf("%w: %d pixels exceeds limit %d", ErrAllocation, n, maxPixels)
	}
	return n, nil
}

// buffers 一次调用所需的全部中间缓冲区
type buffers struct {
	lum    *Plane
	smooth *Plane
	mag    *Plane
	out    *Raster
}

// allocate 分配中间缓冲区，分配失败时返回 ErrAllocation
func allocate(width, height int) (b buffers, err error) {
	defer func() {
		if r := recover(); r != nil {
			b = buffers{}
			err = fmt.Errorf("%w: %v", ErrAllocation, r)
		}
	}()
	b.lum = newPlane(width, height)
	b.smooth = newPlane(width, height)
	b.mag = newPlane(width, height)
	b.out = NewRaster(width, height)
	return b, nil
}
