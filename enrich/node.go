package enrich

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/internal/logging"
	"github.com/rushteam/hybridrec/pipeline"
)

// ImageNode 是后处理节点，为每个 item 写入 Meta["image_url"]。
// 单个查询失败时写入 Placeholder（可以为空串），不会中断整个列表；
// 只有 ctx 取消会返回错误。顺序与分数不变。
type ImageNode struct {
	Resolver    ImageResolver
	Placeholder string

	// Concurrency 并发查询数，<= 0 时为 4
	Concurrency int
}

func (n *ImageNode) Name() string        { return "postprocess.image" }
func (n *ImageNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *ImageNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Resolver == nil || len(items) == 0 {
		return items, nil
	}
	limit := n.Concurrency
	if limit <= 0 {
		limit = 4
	}

	urls := make([]string, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			urls[i] = n.resolve(gctx, it.MetaString(core.MetaName))
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, it := range items {
		if it.Meta == nil {
			it.Meta = make(map[string]any)
		}
		it.Meta[core.MetaImageURL] = urls[i]
	}
	return items, nil
}

func (n *ImageNode) resolve(ctx context.Context, name string) string {
	if name == "" {
		return n.Placeholder
	}
	u, err := n.Resolver.ImageURL(ctx, name)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("name", name).Msg("image lookup failed, using placeholder")
		return n.Placeholder
	}
	return u
}

// EnrichRecommendations 为已生成的结果补充图片，失败同样回落到 placeholder。
func EnrichRecommendations(ctx context.Context, resolver ImageResolver, placeholder string, recs []core.Recommendation) error {
	items := make([]*core.Item, len(recs))
	for i, r := range recs {
		items[i] = core.NewItem(r.AnimeID)
		items[i].Meta[core.MetaName] = r.Name
	}
	n := &ImageNode{Resolver: resolver, Placeholder: placeholder}
	if _, err := n.Process(ctx, nil, items); err != nil {
		return err
	}
	for i := range recs {
		recs[i].ImageURL = items[i].MetaString(core.MetaImageURL)
	}
	return nil
}

var _ pipeline.Node = (*ImageNode)(nil)
