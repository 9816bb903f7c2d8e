// Package builders 在 init 中向 config 注册内置 Node 的构建逻辑。
//
// 配置示例：
//
//	pipeline:
//	  name: hybrid
//	  nodes:
//	    - type: recall.hybrid
//	      config: { collaborative_top_k: 50, svd: { factors: 50, epochs: 10 } }
//	    - type: filter
//	      config: { filters: [ { type: expr, expr: 'item.genre.contains("Hentai")' } ] }
//	    - type: rank.hybrid
//	    - type: rerank.topn
//	    - type: postprocess.image
//	      config: { placeholder: "", concurrency: 4 }
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/enrich"
	"github.com/rushteam/hybridrec/filter"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/conv"
	"github.com/rushteam/hybridrec/rank"
	"github.com/rushteam/hybridrec/recall"
	"github.com/rushteam/hybridrec/rerank"
)

func init() {
	config.Register("recall.hybrid", BuildHybridRecallNode)
	config.Register("recall.content", BuildContentRecallNode)
	config.Register("recall.collaborative", BuildCollaborativeRecallNode)
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("rank.hybrid", BuildHybridRankNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("filter", BuildFilterNode)
	config.Register("postprocess.image", BuildImageNode)
}

// buildSVDScorer 读取 svd 配置块，缺省字段使用默认超参数。
func buildSVDScorer(cfg map[string]interface{}) *recall.SVDScorer {
	def := model.DefaultSVDConfig()
	svd := conv.ConfigGetMap(cfg, "svd")
	return &recall.SVDScorer{Config: model.SVDConfig{
		Factors:      int(conv.ConfigGetInt64(svd, "factors", int64(def.Factors))),
		Epochs:       int(conv.ConfigGetInt64(svd, "epochs", int64(def.Epochs))),
		LearningRate: conv.ConfigGetFloat64(svd, "learning_rate", def.LearningRate),
		Reg:          conv.ConfigGetFloat64(svd, "reg", def.Reg),
		InitStd:      conv.ConfigGetFloat64(svd, "init_std", def.InitStd),
		Seed:         conv.ConfigGetInt64(svd, "seed", def.Seed),
		MinRating:    conv.ConfigGetFloat64(svd, "min_rating", def.MinRating),
		MaxRating:    conv.ConfigGetFloat64(svd, "max_rating", def.MaxRating),
	}}
}

func BuildHybridRecallNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &recall.HybridRecall{
		Content:           recall.NewContentScorer(),
		Collaborative:     buildSVDScorer(cfg),
		CollaborativeTopK: int(conv.ConfigGetInt64(cfg, "collaborative_top_k", 0)),
	}, nil
}

func BuildContentRecallNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &recall.ContentRecall{
		Scorer: recall.NewContentScorer(),
		TopK:   int(conv.ConfigGetInt64(cfg, "top_k", 0)),
	}, nil
}

func BuildCollaborativeRecallNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &recall.CollaborativeRecall{
		Scorer: buildSVDScorer(cfg),
		TopK:   int(conv.ConfigGetInt64(cfg, "top_k", 0)),
	}, nil
}

func BuildFanoutNode(cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		topK := int(conv.ConfigGetInt64(sourceMap, "top_k", 0))
		switch sourceType := conv.ConfigGet(sourceMap, "type", ""); sourceType {
		case "content":
			sources = append(sources, &recall.ContentRecall{Scorer: recall.NewContentScorer(), TopK: topK})
		case "collaborative":
			sources = append(sources, &recall.CollaborativeRecall{Scorer: buildSVDScorer(sourceMap), TopK: topK})
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}

	fanout := &recall.Fanout{
		Sources: sources,
		Dedup:   conv.ConfigGet(cfg, "dedup", true),
	}
	if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = int(n)
	}
	switch strategy := conv.ConfigGet(cfg, "merge_strategy", "first"); strategy {
	case "first", "union", "priority":
		fanout.MergeStrategy = strategy
	default:
		return nil, fmt.Errorf("unknown merge strategy: %s", strategy)
	}
	return fanout, nil
}

// BuildHybridRankNode：配置了 alpha 时固定权重，否则使用请求中的 alpha。
func BuildHybridRankNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := &rank.HybridNode{}
	if _, ok := cfg["alpha"]; ok {
		alpha := conv.ConfigGetFloat64(cfg, "alpha", -1)
		if _, err := model.NewBlendModel(alpha); err != nil {
			return nil, err
		}
		n.Alpha = &alpha
	}
	return n, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "blacklist":
			filters = append(filters, filter.NewBlacklistFilter(conv.SliceAnyToInt64(filterMap["item_ids"])))
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

// BuildImageNode 创建带限流、熔断与缓存的 Jikan 客户端。
func BuildImageNode(cfg map[string]interface{}) (pipeline.Node, error) {
	client, err := enrich.NewJikanClient(enrich.JikanConfig{
		BaseURL:     conv.ConfigGet(cfg, "base_url", enrich.DefaultBaseURL),
		Timeout:     time.Duration(conv.ConfigGetInt64(cfg, "timeout", 5)) * time.Second,
		RateLimit:   conv.ConfigGetFloat64(cfg, "rate_limit", 3),
		Burst:       int(conv.ConfigGetInt64(cfg, "burst", 3)),
		CacheSize:   int(conv.ConfigGetInt64(cfg, "cache_size", 1024)),
		NotFoundTTL: time.Duration(conv.ConfigGetInt64(cfg, "not_found_ttl", 600)) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &enrich.ImageNode{
		Resolver:    client,
		Placeholder: conv.ConfigGet(cfg, "placeholder", enrich.DefaultPlaceholder),
		Concurrency: int(conv.ConfigGetInt64(cfg, "concurrency", 4)),
	}, nil
}
