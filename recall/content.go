package recall

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/feature"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
)

// ContentScorer 是基于内容的相似度打分器（Content-Based）。
//
// 核心思想："用户选了哪些作品，就推荐类型标签相近的作品"
//
// 流程：
//  1. 以目录中每个物品的 genre 文本为文档，构建 TF-IDF 向量空间
//  2. 按名称精确匹配种子物品，未匹配的名称直接忽略
//  3. 每个物品与所有种子的余弦相似度取平均，作为 content_score
//  4. 种子物品本身不出现在结果中
//
// 没有任何种子命中时返回空表，表示“没有内容信号”，调用方按回退处理。
// 每次调用独立构建向量空间，不缓存，不修改目录。
type ContentScorer struct {
	// StopWords 停用词表，nil 时使用英文停用词
	StopWords map[string]struct{}
}

// NewContentScorer 创建默认的内容打分器。
func NewContentScorer() *ContentScorer {
	return &ContentScorer{}
}

// ResolveSeeds 把种子名称解析为目录下标（保持首次出现顺序，重复名称只计一次）。
func ResolveSeeds(catalog *core.Catalog, seedNames []string) []int {
	seen := make(map[int]struct{}, len(seedNames))
	out := make([]int, 0, len(seedNames))
	for _, name := range seedNames {
		it, ok := catalog.ByName(name)
		if !ok {
			continue
		}
		idx, _ := catalog.IndexOf(it.ID)
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}

// Score 计算目录中每个非种子物品与种子集合的平均余弦相似度。
func (s *ContentScorer) Score(catalog *core.Catalog, seedNames []string) core.ScoreTable {
	seeds := ResolveSeeds(catalog, seedNames)
	if len(seeds) == 0 {
		return core.ScoreTable{}
	}

	docs := make([]string, catalog.Len())
	for i := range docs {
		docs[i] = catalog.At(i).Genre
	}
	vectorizer := &feature.TFIDF{StopWords: s.StopWords}
	vectors := vectorizer.FitTransform(docs)

	isSeed := make(map[int]struct{}, len(seeds))
	for _, idx := range seeds {
		isSeed[idx] = struct{}{}
	}

	table := make(core.ScoreTable, catalog.Len()-len(seeds))
	for i, vec := range vectors {
		if _, ok := isSeed[i]; ok {
			continue
		}
		var sum float64
		for _, idx := range seeds {
			sum += feature.Cosine(vectors[idx], vec)
		}
		table[catalog.At(i).ID] = core.Finite(sum / float64(len(seeds)))
	}
	return table
}

// ContentRecall 是“纯内容推荐”的召回源：对 ContentScorer 的结果排序并截断到 TopK。
// 排序按分数降序，分数相同按 id 升序。
type ContentRecall struct {
	Scorer *ContentScorer

	// TopK 返回条数；<= 0 时使用 rctx.TopN，仍为 0 则不截断
	TopK int
}

func (r *ContentRecall) Name() string        { return "recall.content" }
func (r *ContentRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *ContentRecall) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil || rctx.Catalog == nil {
		return nil, nil
	}
	scorer := r.Scorer
	if scorer == nil {
		scorer = NewContentScorer()
	}

	ranked := scorer.Score(rctx.Catalog, rctx.Seeds).Ranked()
	topK := r.TopK
	if topK <= 0 {
		topK = rctx.TopN
	}
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	out := make([]*core.Item, 0, len(ranked))
	for _, s := range ranked {
		it := catalogItem(rctx.Catalog, s.ID)
		it.Score = s.Score
		it.Features[core.FeatureContentScore] = s.Score
		it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// Process 让 ContentRecall 可以直接作为 Pipeline 的首个 Node。
func (r *ContentRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// catalogItem 根据目录信息创建承载 Item（name / genre 写入 Meta）。
func catalogItem(catalog *core.Catalog, id int64) *core.Item {
	it := core.NewItem(id)
	if ci, ok := catalog.ByID(id); ok {
		it.Meta[core.MetaName] = ci.Name
		it.Meta[core.MetaGenre] = ci.Genre
	}
	return it
}

var (
	_ Source        = (*ContentRecall)(nil)
	_ pipeline.Node = (*ContentRecall)(nil)
)
