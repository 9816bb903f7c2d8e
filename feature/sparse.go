package feature

import "math"

// SparseVector 是按下标升序存储的稀疏向量。
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Len 返回非零项个数。
func (v SparseVector) Len() int { return len(v.Indices) }

// IsZero 判断是否为零向量。
func (v SparseVector) IsZero() bool {
	for _, x := range v.Values {
		if x != 0 {
			return false
		}
	}
	return true
}

// Dot 计算两个稀疏向量的点积（归并两个有序下标）。
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm 返回 L2 范数。
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Cosine 计算余弦相似度；任一为零向量时返回 0。
// 非负权重下结果限定在 [0, 1]，以消除浮点误差。
func Cosine(a, b SparseVector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	sim := a.Dot(b) / (na * nb)
	switch {
	case math.IsNaN(sim) || sim < 0:
		return 0
	case sim > 1:
		return 1
	}
	return sim
}
