package model

import (
	"fmt"

	"github.com/rushteam/hybridrec/core"
)

// BlendModel 对两路已归一化的分数做线性加权：
//
//	final = Alpha * features[PrimaryKey] + (1 - Alpha) * features[SecondaryKey]
//
// 缺失的特征按 0 处理。Alpha 必须在 [0, 1] 内。
type BlendModel struct {
	Alpha        float64
	PrimaryKey   string
	SecondaryKey string
}

// NewBlendModel 创建协同过滤分数（predicted_rating）与内容分数（content_score）的融合模型。
func NewBlendModel(alpha float64) (*BlendModel, error) {
	if alpha < 0 || alpha > 1 {
		return nil, core.NewDomainError(core.ModuleFusion, core.ErrorCodeInvalidInput,
			fmt.Sprintf("fusion: alpha %.4f out of range [0, 1]", alpha))
	}
	return &BlendModel{
		Alpha:        alpha,
		PrimaryKey:   core.FeaturePredictedRating,
		SecondaryKey: core.FeatureContentScore,
	}, nil
}

func (m *BlendModel) Name() string { return "blend" }

func (m *BlendModel) Predict(features map[string]float64) (float64, error) {
	p := core.Finite(features[m.PrimaryKey])
	s := core.Finite(features[m.SecondaryKey])
	return m.Alpha*p + (1-m.Alpha)*s, nil
}

var _ RankModel = (*BlendModel)(nil)
