package recall

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
)

// 请求级 Label：内容信号缺失时由 HybridRecall 写入，排序阶段据此走协同过滤回退。
const (
	LabelFusion             = "fusion"
	FusionCollaborativeOnly = "collaborative_fallback"
	FusionHybrid            = "hybrid"
)

// Join 对协同过滤结果与内容分数表按 item id 做外连接。
//
//   - key 域为两张表 key 的并集
//   - 缺失的一侧记为 0（中性分），NaN / Inf 也按 0 处理
//   - name / genre 优先取预测行，其次取目录
//
// 输出顺序：先按协同过滤顺序，再按 id 升序追加仅出现在内容表中的物品。
// Feature 中保存的是原始分数，归一化在排序阶段完成。
func Join(collab []core.Prediction, content core.ScoreTable, catalog *core.Catalog) []*core.Item {
	out := make([]*core.Item, 0, len(collab)+len(content))
	seen := make(map[int64]struct{}, len(collab))

	for _, p := range collab {
		if _, dup := seen[p.ItemID]; dup {
			continue
		}
		seen[p.ItemID] = struct{}{}
		it := core.NewItem(p.ItemID)
		it.Features[core.FeaturePredictedRating] = core.Finite(p.PredictedRating)
		it.Features[core.FeatureContentScore] = core.Finite(content[p.ItemID])
		it.Meta[core.MetaName] = p.Name
		it.Meta[core.MetaGenre] = p.Genre
		if ci, ok := catalog.ByID(p.ItemID); ok {
			if p.Name == "" {
				it.Meta[core.MetaName] = ci.Name
			}
			if p.Genre == "" {
				it.Meta[core.MetaGenre] = ci.Genre
			}
		}
		out = append(out, it)
	}

	for _, id := range content.Keys() {
		if _, ok := seen[id]; ok {
			continue
		}
		it := catalogItem(catalog, id)
		it.Features[core.FeaturePredictedRating] = 0
		it.Features[core.FeatureContentScore] = core.Finite(content[id])
		out = append(out, it)
	}
	return out
}

// HybridRecall 顺序执行内容打分与协同过滤预测，并把两路结果外连接成候选集。
//
// 两路打分互不依赖，也不共享状态。内容表为空（种子一个都没命中）时，
// 候选集即协同过滤排序本身，并在 rctx 上写入 fusion=collaborative_fallback。
type HybridRecall struct {
	Content       *ContentScorer
	Collaborative CollaborativeScorer

	// CollaborativeTopK 协同过滤候选条数；<= 0 时使用 rctx.TopN
	CollaborativeTopK int
}

func (r *HybridRecall) Name() string        { return "recall.hybrid" }
func (r *HybridRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *HybridRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil || rctx.Catalog == nil {
		return nil, nil
	}

	scorer := r.Content
	if scorer == nil {
		scorer = NewContentScorer()
	}
	content := scorer.Score(rctx.Catalog, rctx.Seeds)
	delete(rctx.Labels, LabelFusion)

	var collab []core.Prediction
	if r.Collaborative != nil {
		topK := r.CollaborativeTopK
		if topK <= 0 {
			topK = rctx.TopN
		}
		var err error
		collab, err = r.Collaborative.PredictTopN(ctx, rctx.Ratings, rctx.UserID, rctx.Catalog, topK)
		if err != nil {
			return nil, err
		}
	}

	if len(content) == 0 {
		rctx.PutLabel(LabelFusion, utils.Label{Value: FusionCollaborativeOnly, Source: "recall"})
		out := make([]*core.Item, 0, len(collab))
		for _, p := range collab {
			it := predictionItem(p, r.collaborativeName())
			it.Features[core.FeatureContentScore] = 0
			out = append(out, it)
		}
		return out, nil
	}

	rctx.PutLabel(LabelFusion, utils.Label{Value: FusionHybrid, Source: "recall"})
	items := Join(collab, content, rctx.Catalog)
	for _, it := range items {
		it.PutLabel("recall_source", utils.Label{Value: "hybrid", Source: "recall"})
	}
	return items, nil
}

func (r *HybridRecall) collaborativeName() string {
	if r.Collaborative == nil {
		return "collaborative"
	}
	return r.Collaborative.Name()
}

func (r *HybridRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// IsCollaborativeFallback 判断本次请求是否处于协同过滤回退状态。
func IsCollaborativeFallback(rctx *core.RecommendContext) bool {
	lbl, ok := rctx.GetLabel(LabelFusion)
	return ok && lbl.Value == FusionCollaborativeOnly
}

var (
	_ Source        = (*HybridRecall)(nil)
	_ pipeline.Node = (*HybridRecall)(nil)
)
