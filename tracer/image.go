package tracer

import (
	"image"

	"golang.org/x/image/draw"
)

// FromImage 将任意 image.Image 转换为非预乘 RGBA 图像，原点平移到 (0,0)
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if src, ok := img.(*image.NRGBA); ok && src.Stride == w*4 {
		pix := make([]uint8, w*h*4)
		copy(pix, src.Pix[src.PixOffset(b.Min.X, b.Min.Y):])
		return &Raster{Width: w, Height: h, Pix: pix}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Raster{Width: w, Height: h, Pix: dst.Pix}
}

// Image 返回共享像素缓冲区的 *image.NRGBA 视图
func (r *Raster) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}
