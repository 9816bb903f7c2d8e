package rank

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/recall"
)

// HybridNode 是融合排序 Node：接在 recall.HybridRecall 之后。
//   - 写入 labels：rank_model
//   - 归一化 predicted_rating / content_score，按 alpha 融合为 item.Score 并排序
//   - 请求处于协同过滤回退（fusion=collaborative_fallback）时保持原顺序
//
// 截断交给 rerank.TopNNode。
type HybridNode struct {
	// Alpha 固定的融合权重；nil 时使用 rctx.Alpha
	Alpha *float64
}

func (n *HybridNode) Name() string        { return "rank.hybrid" }
func (n *HybridNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *HybridNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	if rctx != nil && recall.IsCollaborativeFallback(rctx) {
		ApplyCollaborativeFallback(items)
		return items, nil
	}

	alpha := 0.0
	if rctx != nil {
		alpha = rctx.Alpha
	}
	if n.Alpha != nil {
		alpha = *n.Alpha
	}
	m, err := model.NewBlendModel(alpha)
	if err != nil {
		return nil, err
	}
	if err := Blend(items, m); err != nil {
		return nil, err
	}
	return items, nil
}

var _ pipeline.Node = (*HybridNode)(nil)
