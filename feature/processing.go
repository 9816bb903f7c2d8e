package feature

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Normalizer 是特征归一化接口：先在一列值上拟合，再逐个变换。
type Normalizer interface {
	// Fit 根据一列取值计算归一化参数
	Fit(values []float64)
	// NormalizeValue 归一化单个值
	NormalizeValue(value float64) float64
}

// MinMaxNormalizer Min-Max 归一化
// 公式: x' = (x - min) / (max - min)
// 特点: 将值缩放到 [0, 1] 区间；max == min（全部相同或只有一行）时统一归为 0
type MinMaxNormalizer struct {
	Min float64
	Max float64
}

// NewMinMaxNormalizer 创建 Min-Max 归一化器
func NewMinMaxNormalizer() *MinMaxNormalizer {
	return &MinMaxNormalizer{}
}

// Fit 计算列的最小值与最大值，NaN / Inf 按 0 处理。
func (n *MinMaxNormalizer) Fit(values []float64) {
	if len(values) == 0 {
		n.Min, n.Max = 0, 0
		return
	}
	clean := make([]float64, len(values))
	for i, v := range values {
		clean[i] = finite(v)
	}
	n.Min = floats.Min(clean)
	n.Max = floats.Max(clean)
}

// NormalizeValue 归一化单个值，结果限定在 [0, 1]。
func (n *MinMaxNormalizer) NormalizeValue(value float64) float64 {
	rangeVal := n.Max - n.Min
	if rangeVal <= 0 {
		return 0
	}
	v := (finite(value) - n.Min) / rangeVal
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// MinMax 对一列值做独立的 min-max 归一化，返回新切片。
func MinMax(values []float64) []float64 {
	n := NewMinMaxNormalizer()
	n.Fit(values)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = n.NormalizeValue(v)
	}
	return out
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

var _ Normalizer = (*MinMaxNormalizer)(nil)
