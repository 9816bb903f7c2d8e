package model

import (
	"math"
	"math/rand"

	"github.com/rushteam/hybridrec/core"
)

// SplitRatings 按 testFraction 随机切分训练集与测试集，seed 固定时结果可复现。
// testFraction 不在 (0, 1) 内时全部作为训练集。
func SplitRatings(ratings []core.Rating, testFraction float64, seed int64) (train, test []core.Rating) {
	if testFraction <= 0 || testFraction >= 1 || len(ratings) == 0 {
		train = make([]core.Rating, len(ratings))
		copy(train, ratings)
		return train, nil
	}

	perm := rand.New(rand.NewSource(seed)).Perm(len(ratings))
	nTest := int(math.Ceil(float64(len(ratings)) * testFraction))
	test = make([]core.Rating, 0, nTest)
	train = make([]core.Rating, 0, len(ratings)-nTest)
	for k, idx := range perm {
		if k < nTest {
			test = append(test, ratings[idx])
		} else {
			train = append(train, ratings[idx])
		}
	}
	return train, test
}

// RMSE 计算模型在测试集上的均方根误差，空测试集返回 0。
func RMSE(m *SVD, test []core.Rating) float64 {
	if len(test) == 0 {
		return 0
	}
	var sum float64
	for _, r := range test {
		d := m.Predict(r.UserID, r.ItemID) - r.Value
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(test)))
}
