package rank

import (
	"fmt"
	"math"
	"sort"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/feature"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/pkg/utils"
	"github.com/rushteam/hybridrec/recall"
)

// Fuse 融合协同过滤与内容两路分数，返回确定性的排序结果。
//
// 步骤：
//  1. 按 item id 外连接，缺失记 0
//  2. 两列分别在连接后的 key 域上做 min-max 归一化（max == min 时归为 0）
//  3. final = alpha * norm(predicted_rating) + (1 - alpha) * norm(content_score)
//  4. 按 final 降序、id 升序排序并截断到 topN
//
// content 为空（种子一个都没命中）时回退为协同过滤排序：顺序与 predicted_rating 不变，
// final_score 为归一化后的预测评分，content_score 为 0。
// 两路都为空时返回空列表。
func Fuse(
	collab []core.Prediction,
	content core.ScoreTable,
	catalog *core.Catalog,
	alpha float64,
	topN int,
) ([]core.Recommendation, error) {
	if err := ValidateFusion(alpha, topN); err != nil {
		return nil, err
	}

	var items []*core.Item
	if len(content) == 0 {
		items = make([]*core.Item, 0, len(collab))
		for _, p := range collab {
			it := core.NewItem(p.ItemID)
			it.Features[core.FeaturePredictedRating] = core.Finite(p.PredictedRating)
			it.Meta[core.MetaName] = p.Name
			it.Meta[core.MetaGenre] = p.Genre
			items = append(items, it)
		}
		ApplyCollaborativeFallback(items)
	} else {
		m, err := model.NewBlendModel(alpha)
		if err != nil {
			return nil, err
		}
		items = recall.Join(collab, content, catalog)
		if err := Blend(items, m); err != nil {
			return nil, err
		}
	}

	if len(items) > topN {
		items = items[:topN]
	}
	out := make([]core.Recommendation, 0, len(items))
	for _, it := range items {
		out = append(out, it.ToRecommendation())
	}
	return out, nil
}

// ValidateFusion 校验融合参数：alpha ∈ [0, 1]，topN > 0。
func ValidateFusion(alpha float64, topN int) error {
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return core.NewDomainError(core.ModuleFusion, core.ErrorCodeInvalidInput,
			fmt.Sprintf("fusion: alpha %.4f out of range [0, 1]", alpha))
	}
	if topN <= 0 {
		return core.NewDomainError(core.ModuleFusion, core.ErrorCodeInvalidInput,
			fmt.Sprintf("fusion: top_n must be positive, got %d", topN))
	}
	return nil
}

// NormalizeFeatures 对 items 的每个 feature 列独立做 min-max 归一化（原地修改）。
// 缺失的 feature 按 0 参与计算并被写回。
func NormalizeFeatures(items []*core.Item, keys ...string) {
	for _, key := range keys {
		col := make([]float64, len(items))
		for i, it := range items {
			col[i] = it.Features[key]
		}
		for i, v := range feature.MinMax(col) {
			items[i].Features[key] = v
		}
	}
}

// Blend 归一化两列分数，用模型打分，并按分数降序、id 升序排序。
func Blend(items []*core.Item, m model.RankModel) error {
	NormalizeFeatures(items, core.FeaturePredictedRating, core.FeatureContentScore)
	for _, it := range items {
		score, err := m.Predict(it.Features)
		if err != nil {
			return fmt.Errorf("fusion: %s predict: %w", m.Name(), err)
		}
		it.Score = core.Finite(score)
		it.PutLabel("rank_model", utils.Label{Value: m.Name(), Source: "rank"})
	}
	SortItems(items)
	return nil
}

// ApplyCollaborativeFallback 在没有内容信号时原样保留协同过滤结果：
// 顺序与 predicted_rating 不变，最终分为预测评分的 min-max 归一化值。
func ApplyCollaborativeFallback(items []*core.Item) {
	col := make([]float64, len(items))
	for i, it := range items {
		col[i] = it.Features[core.FeaturePredictedRating]
	}
	for i, v := range feature.MinMax(col) {
		it := items[i]
		it.Features[core.FeatureContentScore] = 0
		it.Score = v
		it.PutLabel("rank_model", utils.Label{Value: recall.FusionCollaborativeOnly, Source: "rank"})
	}
}

// SortItems 按 Score 降序排序，分数相同按 id 升序；nil 排在最后。
func SortItems(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.ID < b.ID
	})
}
