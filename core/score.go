package core

import (
	"math"
	"sort"
)

// ScoreTable 是 item id 到分数的映射，key 不必覆盖整个目录。
type ScoreTable map[int64]float64

// Keys 返回升序排列的 item id。
func (t ScoreTable) Keys() []int64 {
	keys := make([]int64, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Ranked 按分数降序、id 升序返回 (id, score) 列表。
func (t ScoreTable) Ranked() []ScoredID {
	out := make([]ScoredID, 0, len(t))
	for id, s := range t {
		out = append(out, ScoredID{ID: id, Score: s})
	}
	SortScoredIDs(out)
	return out
}

// ScoredID 是带分数的 item id。
type ScoredID struct {
	ID    int64
	Score float64
}

// SortScoredIDs 按分数降序排序，分数相同按 id 升序，保证结果可复现。
func SortScoredIDs(s []ScoredID) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].ID < s[j].ID
	})
}

// Finite 把 NaN / Inf 视为 0，保证分数在对外可见时总是有限值。
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Prediction 是协同过滤输出契约中的一行。
type Prediction struct {
	ItemID          int64   `json:"anime_id"`
	Name            string  `json:"name"`
	Genre           string  `json:"genre"`
	PredictedRating float64 `json:"predicted_rating"`
}

// Recommendation 是融合后的对外推荐记录。
type Recommendation struct {
	AnimeID         int64   `json:"anime_id"`
	Name            string  `json:"name"`
	Genre           string  `json:"genre"`
	PredictedRating float64 `json:"predicted_rating"`
	ContentScore    float64 `json:"content_score"`
	FinalScore      float64 `json:"final_score"`
	ImageURL        string  `json:"image_url,omitempty"`
}
