package recall

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
)

// CollaborativeScorer 是协同过滤的输出契约。
//
// PredictTopN 返回用户未评分物品的预测评分，按 PredictedRating 降序（相同按 id 升序），
// 长度不超过 n。未知用户也必须返回结构完整的列表（通常是全局偏好排序），而不是报错。
type CollaborativeScorer interface {
	Name() string
	PredictTopN(
		ctx context.Context,
		ratings *core.RatingHistory,
		userID int64,
		catalog *core.Catalog,
		n int,
	) ([]core.Prediction, error)
}

// SVDScorer 用 model.SVD 实现 CollaborativeScorer。
// 每次调用都在当前评分历史上重新训练，不跨调用缓存模型。
type SVDScorer struct {
	Config model.SVDConfig
}

// NewSVDScorer 创建使用默认超参数的 SVD 打分器。
func NewSVDScorer() *SVDScorer {
	return &SVDScorer{Config: model.DefaultSVDConfig()}
}

func (s *SVDScorer) Name() string { return "svd" }

func (s *SVDScorer) PredictTopN(
	ctx context.Context,
	ratings *core.RatingHistory,
	userID int64,
	catalog *core.Catalog,
	n int,
) ([]core.Prediction, error) {
	if n <= 0 || catalog.Len() == 0 {
		return []core.Prediction{}, nil
	}

	svd := model.NewSVD(s.Config)
	if err := svd.Fit(ctx, ratings.All()); err != nil {
		return nil, fmt.Errorf("collaborative: train svd: %w", err)
	}

	rated := ratings.RatedBy(userID)
	preds := make([]core.Prediction, 0, catalog.Len())
	for i := 0; i < catalog.Len(); i++ {
		it := catalog.At(i)
		if _, seen := rated[it.ID]; seen {
			continue
		}
		preds = append(preds, core.Prediction{
			ItemID:          it.ID,
			Name:            it.Name,
			Genre:           it.Genre,
			PredictedRating: core.Finite(svd.Predict(userID, it.ID)),
		})
	}

	SortPredictions(preds)
	if len(preds) > n {
		preds = preds[:n]
	}
	return preds, nil
}

// SortPredictions 按预测评分降序排序，评分相同按 id 升序。
func SortPredictions(preds []core.Prediction) {
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].PredictedRating != preds[j].PredictedRating {
			return preds[i].PredictedRating > preds[j].PredictedRating
		}
		return preds[i].ItemID < preds[j].ItemID
	})
}

// CollaborativeRecall 把协同过滤排序暴露为召回源（“纯协同过滤推荐”）。
type CollaborativeRecall struct {
	Scorer CollaborativeScorer

	// TopK 返回条数；<= 0 时使用 rctx.TopN
	TopK int
}

func (r *CollaborativeRecall) Name() string        { return "recall.collaborative" }
func (r *CollaborativeRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *CollaborativeRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Scorer == nil || rctx == nil || rctx.Catalog == nil {
		return nil, nil
	}
	topK := r.TopK
	if topK <= 0 {
		topK = rctx.TopN
	}
	preds, err := r.Scorer.PredictTopN(ctx, rctx.Ratings, rctx.UserID, rctx.Catalog, topK)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(preds))
	for _, p := range preds {
		out = append(out, predictionItem(p, r.Scorer.Name()))
	}
	return out, nil
}

func (r *CollaborativeRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func predictionItem(p core.Prediction, scorer string) *core.Item {
	it := core.NewItem(p.ItemID)
	it.Score = p.PredictedRating
	it.Features[core.FeaturePredictedRating] = p.PredictedRating
	it.Meta[core.MetaName] = p.Name
	it.Meta[core.MetaGenre] = p.Genre
	it.PutLabel("recall_source", utils.Label{Value: scorer, Source: "recall"})
	return it
}

var (
	_ CollaborativeScorer = (*SVDScorer)(nil)
	_ Source              = (*CollaborativeRecall)(nil)
	_ pipeline.Node       = (*CollaborativeRecall)(nil)
)
