package core

import "github.com/rushteam/hybridrec/pkg/utils"

// RecommendContext 承载一次推荐请求的全部输入，贯穿整个 Pipeline 透传。
// Catalog 与 Ratings 为只读共享数据，Node 不允许修改。
type RecommendContext struct {
	UserID int64

	// Seeds 是用户选择的种子物品名称，按 CatalogItem.Name 精确匹配
	Seeds []string

	// TopN 最终返回条数；Alpha 协同过滤分数的融合权重
	TopN  int
	Alpha float64

	Catalog *Catalog
	Ratings *RatingHistory

	// Labels 是请求级标签，例如 content_fallback
	Labels map[string]utils.Label

	// Params 请求级扩展参数
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx == nil || rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
