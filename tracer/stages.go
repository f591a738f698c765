package tracer

import "math"

// 亮度系数
const (
	lumR = 0.299
	lumG = 0.587
	lumB = 0.114
)

// Luminance 将 RGBA 图像转换为单通道亮度，忽略 alpha
func Luminance(src *Raster) *Plane {
	dst := newPlane(src.Width, src.Height)
	luminanceRows(dst, src, 0, src.Height)
	return dst
}

func luminanceRows(dst *Plane, src *Raster, y0, y1 int) {
	for i := y0 * src.Width; i < y1*src.Width; i++ {
		p := src.Pix[i*4 : i*4+3]
		l := float64(lumR*float64(p[0])) + float64(lumG*float64(p[1]))
		l += float64(lumB * float64(p[2]))
		dst.Pix[i] = float32(l)
	}
}

// Smooth 使用固定 3x3 平滑核处理内部像素，边框一像素保持为 0
func Smooth(src *Plane) *Plane {
	dst := newPlane(src.Width, src.Height)
	smoothRows(dst, src, 0, src.Height)
	return dst
}

func smoothRows(dst, src *Plane, y0, y1 int) {
	w, h := src.Width, src.Height
	for y := max(y0, 1); y < min(y1, h-1); y++ {
		for x := 1; x < w-1; x++ {
			dst.Pix[y*w+x] = float32(smoothing.apply(src, x, y))
		}
	}
}

// Gradient 计算内部像素的 Sobel 梯度幅值，不做截断，边框保持为 0
func Gradient(src *Plane) *Plane {
	dst := newPlane(src.Width, src.Height)
	gradientRows(dst, src, 0, src.Height)
	return dst
}

func gradientRows(dst, src *Plane, y0, y1 int) {
	w, h := src.Width, src.Height
	for y := max(y0, 1); y < min(y1, h-1); y++ {
		for x := 1; x < w-1; x++ {
			gx := sobelX.apply(src, x, y)
			gy := sobelY.apply(src, x, y)
			dst.Pix[y*w+x] = float32(math.Sqrt(float64(gx*gx) + float64(gy*gy)))
		}
	}
}

// Binarize 按阈值将梯度幅值转换为黑白 RGBA 图像
//
// 幅值先截断到 255；严格大于阈值的像素为脊线 (0)，其余为背景 (255)。
// Invert 为 true 时取 255-v。alpha 恒为 255。
func Binarize(src *Plane, p Params) *Raster {
	dst := NewRaster(src.Width, src.Height)
	binarizeRows(dst, src, p, 0, src.Height)
	return dst
}

func binarizeRows(dst *Raster, src *Plane, p Params, y0, y1 int) {
	for i := y0 * src.Width; i < y1*src.Width; i++ {
		v := min(float64(src.Pix[i]), 255)

		out := uint8(255)
		if v > p.Threshold {
			out = 0
		}
		if p.Invert {
			out = 255 - out
		}

		px := dst.Pix[i*4 : i*4+4]
		px[0], px[1], px[2], px[3] = out, out, out, 255
	}
}
