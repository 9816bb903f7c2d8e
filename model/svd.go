package model

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/hybridrec/core"
)

// SVDConfig 是 SVD 训练的超参数。
type SVDConfig struct {
	Factors      int     // 隐向量维度
	Epochs       int     // SGD 迭代轮数
	LearningRate float64 // 所有参数共用的学习率
	Reg          float64 // 所有参数共用的 L2 正则系数
	InitStd      float64 // 隐向量初始化的标准差（均值为 0）
	Seed         int64   // 随机种子，固定后训练结果可复现
	MinRating    float64 // 评分区间下界，预测值裁剪到区间内
	MaxRating    float64 // 评分区间上界
}

// DefaultSVDConfig 返回默认超参数：100 维、20 轮、lr 0.005、reg 0.02、评分区间 [1, 10]。
func DefaultSVDConfig() SVDConfig {
	return SVDConfig{
		Factors:      100,
		Epochs:       20,
		LearningRate: 0.005,
		Reg:          0.02,
		InitStd:      0.1,
		Seed:         42,
		MinRating:    1,
		MaxRating:    10,
	}
}

// SVD 是带偏置的矩阵分解模型（Funk SVD），用 SGD 训练。
//
// 预测公式：
//
//	r̂(u, i) = μ + b_u + b_i + q_i · p_u
//
// 未知用户或物品的偏置与隐向量项记为 0，因此未知用户得到的是
// 全局均值 + 物品偏置，即“全局偏好”排序，而不是报错。
// 训练完成后只读，可并发 Predict。
type SVD struct {
	cfg SVDConfig

	globalMean float64
	userIndex  map[int64]int
	itemIndex  map[int64]int
	userBias   []float64
	itemBias   []float64
	userFactor [][]float64
	itemFactor [][]float64
}

// NewSVD 创建未训练的模型，非法超参数回落到默认值。
func NewSVD(cfg SVDConfig) *SVD {
	def := DefaultSVDConfig()
	if cfg.Factors <= 0 {
		cfg.Factors = def.Factors
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = def.Epochs
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.Reg < 0 {
		cfg.Reg = def.Reg
	}
	if cfg.InitStd <= 0 {
		cfg.InitStd = def.InitStd
	}
	if cfg.MaxRating <= cfg.MinRating {
		cfg.MinRating, cfg.MaxRating = def.MinRating, def.MaxRating
	}
	return &SVD{cfg: cfg}
}

// Config 返回生效的超参数。
func (m *SVD) Config() SVDConfig { return m.cfg }

// Fit 在评分数据上训练模型。ctx 在每轮迭代之间检查。
func (m *SVD) Fit(ctx context.Context, ratings []core.Rating) error {
	ratings = finiteRatings(ratings)
	m.userIndex = make(map[int64]int)
	m.itemIndex = make(map[int64]int)
	m.globalMean = 0
	for _, r := range ratings {
		if _, ok := m.userIndex[r.UserID]; !ok {
			m.userIndex[r.UserID] = len(m.userIndex)
		}
		if _, ok := m.itemIndex[r.ItemID]; !ok {
			m.itemIndex[r.ItemID] = len(m.itemIndex)
		}
		m.globalMean += r.Value
	}
	if len(ratings) > 0 {
		m.globalMean /= float64(len(ratings))
	}

	rng := rand.New(rand.NewSource(m.cfg.Seed))
	m.userBias = make([]float64, len(m.userIndex))
	m.itemBias = make([]float64, len(m.itemIndex))
	m.userFactor = randomFactors(rng, len(m.userIndex), m.cfg.Factors, m.cfg.InitStd)
	m.itemFactor = randomFactors(rng, len(m.itemIndex), m.cfg.Factors, m.cfg.InitStd)

	lr, reg := m.cfg.LearningRate, m.cfg.Reg
	for epoch := 0; epoch < m.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, r := range ratings {
			u := m.userIndex[r.UserID]
			i := m.itemIndex[r.ItemID]
			pu, qi := m.userFactor[u], m.itemFactor[i]

			err := r.Value - (m.globalMean + m.userBias[u] + m.itemBias[i] + floats.Dot(qi, pu))

			m.userBias[u] += lr * (err - reg*m.userBias[u])
			m.itemBias[i] += lr * (err - reg*m.itemBias[i])
			for f := range pu {
				puf, qif := pu[f], qi[f]
				pu[f] += lr * (err*qif - reg*puf)
				qi[f] += lr * (err*puf - reg*qif)
			}
		}
	}
	return nil
}

func randomFactors(rng *rand.Rand, rows, factors int, std float64) [][]float64 {
	out := make([][]float64, rows)
	for r := range out {
		vec := make([]float64, factors)
		for f := range vec {
			vec[f] = rng.NormFloat64() * std
		}
		out[r] = vec
	}
	return out
}

// Predict 预测用户对物品的评分，结果裁剪到评分区间。
func (m *SVD) Predict(userID, itemID int64) float64 {
	est := m.globalMean
	u, knownUser := m.userIndex[userID]
	i, knownItem := m.itemIndex[itemID]
	if knownUser {
		est += m.userBias[u]
	}
	if knownItem {
		est += m.itemBias[i]
	}
	if knownUser && knownItem {
		est += floats.Dot(m.itemFactor[i], m.userFactor[u])
	}
	if math.IsNaN(est) {
		est = m.globalMean
	}
	return math.Max(m.cfg.MinRating, math.Min(m.cfg.MaxRating, est))
}

// GlobalMean 返回训练集的全局平均分。
func (m *SVD) GlobalMean() float64 { return m.globalMean }

// KnowsUser 判断用户是否出现在训练集中。
func (m *SVD) KnowsUser(userID int64) bool {
	_, ok := m.userIndex[userID]
	return ok
}

// finiteRatings 去掉 NaN / Inf 评分，否则 globalMean 会污染所有参数。
func finiteRatings(ratings []core.Rating) []core.Rating {
	for i, r := range ratings {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			out := append(make([]core.Rating, 0, len(ratings)-1), ratings[:i]...)
			for _, r := range ratings[i+1:] {
				if !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0) {
					out = append(out, r)
				}
			}
			return out
		}
	}
	return ratings
}
