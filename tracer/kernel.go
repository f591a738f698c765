package tracer

// Kernel 3x3 卷积核，按 [行][列] 索引
type Kernel [3][3]float64

var (
	smoothing = Kernel{
		{1.0 / 16, 2.0 / 16, 1.0 / 16},
		{2.0 / 16, 4.0 / 16, 2.0 / 16},
		{1.0 / 16, 2.0 / 16, 1.0 / 16},
	}

	sobelX = Kernel{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}

	sobelY = Kernel{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// SmoothingKernel 返回平滑核的副本
func SmoothingKernel() Kernel { return smoothing }

// SobelX 返回水平梯度核的副本
func SobelX() Kernel { return sobelX }

// SobelY 返回垂直梯度核的副本
func SobelY() Kernel { return sobelY }

// Sum 返回全部权重之和
func (k Kernel) Sum() float64 {
	var s float64
	for _, row := range k {
		for _, w := range row {
			s += w
		}
	}
	return s
}

// apply 在内部像素 (x, y) 处计算 3x3 加权和。
// 乘积显式取整后再累加，避免编译器融合乘加改变结果。
func (k *Kernel) apply(src *Plane, x, y int) float64 {
	var sum float64
	for ky := -1; ky <= 1; ky++ {
		row := src.Pix[(y+ky)*src.Width+x-1 : (y+ky)*src.Width+x+2]
		for kx := 0; kx < 3; kx++ {
			sum += float64(float64(row[kx]) * k[ky+1][kx])
		}
	}
	return sum
}
