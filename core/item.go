package core

import "github.com/rushteam/hybridrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：特征、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       int64
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

// 常用 Feature / Meta key。
const (
	FeaturePredictedRating = "predicted_rating"
	FeatureContentScore    = "content_score"

	MetaName     = "name"
	MetaGenre    = "genre"
	MetaImageURL = "image_url"
)

func NewItem(id int64) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// MetaString 读取字符串类型的 Meta，不存在或类型不符时返回空串。
func (it *Item) MetaString(key string) string {
	if it == nil || it.Meta == nil {
		return ""
	}
	s, _ := it.Meta[key].(string)
	return s
}

// ToRecommendation 把 Pipeline 输出的 Item 转为对外的推荐记录。
func (it *Item) ToRecommendation() Recommendation {
	return Recommendation{
		AnimeID:         it.ID,
		Name:            it.MetaString(MetaName),
		Genre:           it.MetaString(MetaGenre),
		PredictedRating: it.Features[FeaturePredictedRating],
		ContentScore:    it.Features[FeatureContentScore],
		FinalScore:      it.Score,
		ImageURL:        it.MetaString(MetaImageURL),
	}
}
