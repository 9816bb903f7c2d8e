package model

// RankModel 是排序阶段的最小抽象：输入特征，输出一个可比较的分数。
// 融合排序使用 BlendModel；协同过滤的评分预测见 SVD。
type RankModel interface {
	Name() string
	Predict(features map[string]float64) (float64, error)
}
