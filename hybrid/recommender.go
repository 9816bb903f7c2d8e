// Package hybrid 是推荐入口：组装 Pipeline（召回 → 融合排序 → 截断 → 图片补充），
// 处理默认参数、校验、panic 恢复、日志与指标。
package hybrid

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/enrich"
	"github.com/rushteam/hybridrec/internal/logging"
	"github.com/rushteam/hybridrec/internal/metrics"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/rank"
	"github.com/rushteam/hybridrec/recall"
	"github.com/rushteam/hybridrec/rerank"
)

// 推荐模式，用作指标与日志的 mode 字段。
const (
	ModeHybrid        = "hybrid"
	ModeContent       = "content"
	ModeCollaborative = "collaborative"
)

// Request 是一次推荐请求。
type Request struct {
	UserID    int64    `json:"user_id"`
	SeedNames []string `json:"seed_names" validate:"dive,required"`

	// TopN <= 0 使用默认值 10
	TopN int `json:"top_n" validate:"gte=0,lte=1000"`

	// Alpha 协同过滤权重，nil 使用默认值 0.6
	Alpha *float64 `json:"alpha,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// Options 配置 Recommender，零值字段使用默认实现。
type Options struct {
	Collaborative recall.CollaborativeScorer
	Content       *recall.ContentScorer

	// CollaborativeTopK 参与融合的协同过滤候选数，<= 0 时等于 TopN
	CollaborativeTopK int

	// Images 为空时不补充图片
	Images           enrich.ImageResolver
	Placeholder      string
	ImageConcurrency int

	// Pipeline 非空时替换内置的混合推荐链路（例如从 YAML 构建）
	Pipeline *pipeline.Pipeline

	Defaults core.RecommendConfig
}

// Recommender 可在并发请求间复用；目录与评分历史由调用方传入，只读。
type Recommender struct {
	opts     Options
	defaults core.RecommendConfig
	validate *validator.Validate

	hybrid        *pipeline.Pipeline
	content       *pipeline.Pipeline
	collaborative *pipeline.Pipeline
}

// New 创建 Recommender。
func New(opts Options) *Recommender {
	if opts.Collaborative == nil {
		opts.Collaborative = recall.NewSVDScorer()
	}
	if opts.Content == nil {
		opts.Content = recall.NewContentScorer()
	}
	defaults := opts.Defaults
	if defaults == nil {
		defaults = &core.DefaultRecommendConfig{}
	}

	r := &Recommender{opts: opts, defaults: defaults, validate: validator.New()}

	var post []pipeline.Node
	if opts.Images != nil {
		post = append(post, &enrich.ImageNode{
			Resolver:    opts.Images,
			Placeholder: opts.Placeholder,
			Concurrency: opts.ImageConcurrency,
		})
	}

	if opts.Pipeline != nil {
		r.hybrid = r.newPipeline(opts.Pipeline.Nodes...)
	} else {
		r.hybrid = r.newPipeline(append([]pipeline.Node{
			&recall.HybridRecall{
				Content:           opts.Content,
				Collaborative:     opts.Collaborative,
				CollaborativeTopK: opts.CollaborativeTopK,
			},
			&rank.HybridNode{},
			&rerank.TopNNode{},
		}, post...)...)
	}
	r.content = r.newPipeline(append([]pipeline.Node{
		&recall.ContentRecall{Scorer: opts.Content},
	}, post...)...)
	r.collaborative = r.newPipeline(append([]pipeline.Node{
		&recall.CollaborativeRecall{Scorer: opts.Collaborative},
	}, post...)...)
	return r
}

func (r *Recommender) newPipeline(nodes ...pipeline.Node) *pipeline.Pipeline {
	timed := make([]pipeline.Node, len(nodes))
	for i, n := range nodes {
		timed[i] = &timedNode{Node: n}
	}
	return &pipeline.Pipeline{Nodes: timed, Hooks: []pipeline.Hook{logHook}}
}

// Recommend 返回融合 alpha·norm(predicted_rating) + (1-alpha)·norm(content_score) 后的前 TopN 条。
// 种子一个都没命中时返回协同过滤排序（content_score 为 0）。
func (r *Recommender) Recommend(
	ctx context.Context,
	req Request,
	ratings *core.RatingHistory,
	catalog *core.Catalog,
) ([]core.Recommendation, error) {
	return r.run(ctx, ModeHybrid, r.hybrid, req, ratings, catalog)
}

// ContentOnly 返回与种子最相似的前 TopN 条（种子本身除外），final_score 即内容分数。
func (r *Recommender) ContentOnly(
	ctx context.Context,
	req Request,
	catalog *core.Catalog,
) ([]core.Recommendation, error) {
	return r.run(ctx, ModeContent, r.content, req, nil, catalog)
}

// CollaborativeOnly 返回预测评分最高的前 TopN 个未评分物品，final_score 即预测评分。
func (r *Recommender) CollaborativeOnly(
	ctx context.Context,
	req Request,
	ratings *core.RatingHistory,
	catalog *core.Catalog,
) ([]core.Recommendation, error) {
	return r.run(ctx, ModeCollaborative, r.collaborative, req, ratings, catalog)
}

func (r *Recommender) run(
	ctx context.Context,
	mode string,
	p *pipeline.Pipeline,
	req Request,
	ratings *core.RatingHistory,
	catalog *core.Catalog,
) (recs []core.Recommendation, err error) {
	start := time.Now()
	log := logging.Ctx(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Str("mode", mode).Msg("recommend panicked")
			recs, err = nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInternalError,
				fmt.Sprintf("recommend: internal error: %v", rec))
		}
		metrics.RecommendDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
		if err != nil {
			code := core.ErrorCodeInternalError
			if de := core.GetDomainError(err); de != nil {
				code = de.Code
			}
			metrics.RecommendErrors.WithLabelValues(mode, code).Inc()
		}
	}()

	rctx, err := r.newContext(req, ratings, catalog)
	if err != nil {
		return nil, err
	}

	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	// 自定义 Pipeline 可能没有 rerank.topn
	if len(items) > rctx.TopN {
		items = items[:rctx.TopN]
	}
	if mode == ModeHybrid && recall.IsCollaborativeFallback(rctx) {
		metrics.ContentFallbacks.Inc()
		log.Info().Strs("seeds", req.SeedNames).Msg("no seed matched the catalog, using collaborative ranking")
	}

	recs = make([]core.Recommendation, 0, len(items))
	for _, it := range items {
		recs = append(recs, it.ToRecommendation())
	}
	log.Debug().Str("mode", mode).Int64("user_id", req.UserID).Int("results", len(recs)).
		Dur("took", time.Since(start)).Msg("recommend done")
	return recs, nil
}

// newContext 校验请求并填充默认值。
func (r *Recommender) newContext(
	req Request,
	ratings *core.RatingHistory,
	catalog *core.Catalog,
) (*core.RecommendContext, error) {
	if err := r.validate.Struct(req); err != nil {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
			fmt.Sprintf("recommend: invalid request: %v", err))
	}
	if catalog == nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "recommend: catalog is required")
	}

	topN := req.TopN
	if topN <= 0 {
		topN = r.defaults.DefaultTopN()
	}
	alpha := r.defaults.DefaultAlpha()
	if req.Alpha != nil {
		alpha = *req.Alpha
	}
	if err := rank.ValidateFusion(alpha, topN); err != nil {
		return nil, err
	}

	return &core.RecommendContext{
		UserID:  req.UserID,
		Seeds:   req.SeedNames,
		TopN:    topN,
		Alpha:   alpha,
		Catalog: catalog,
		Ratings: ratings,
	}, nil
}

// timedNode 记录每个 Node 的耗时。
type timedNode struct {
	pipeline.Node
}

func (n *timedNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineNodeDuration.WithLabelValues(n.Name(), string(n.Kind())).Observe(time.Since(start).Seconds())
	}()
	return n.Node.Process(ctx, rctx, items)
}

func logHook(ctx context.Context, node pipeline.Node, in, out int, err error) {
	ev := logging.Ctx(ctx).Debug()
	if err != nil {
		ev = logging.Ctx(ctx).Warn().Err(err)
	}
	ev.Str("node", node.Name()).Int("in", in).Int("out", out).Msg("pipeline node")
}
