// Package hybridrec 是一个混合推荐器：协同过滤预测评分 + 基于类型标签的 TF-IDF 内容相似度。
//
// 设计要点：
// - Pipeline-first: 推荐链路由 Node 串联（Recall → Filter → Rank → ReRank → PostProcess）
// - Labels-first: labels 全链路透传与标准化 merge，用于 explain 与观测（例如 fusion=collaborative_fallback）
// - 确定性: 同样的输入得到同样的有序输出，分数相同按 id 升序
//
// 融合公式：
//
//	final = alpha * norm(predicted_rating) + (1 - alpha) * norm(content_score)
package hybridrec

import (
	"github.com/rushteam/hybridrec/hybrid"
	"github.com/rushteam/hybridrec/pipeline"
)

// 轻量 facade：便于直接 import "hybridrec" 使用核心抽象。
type (
	Pipeline    = pipeline.Pipeline
	Node        = pipeline.Node
	Kind        = pipeline.Kind
	Recommender = hybrid.Recommender
	Request     = hybrid.Request
	Options     = hybrid.Options
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// New 创建 Recommender，等价于 hybrid.New。
func New(opts Options) *Recommender {
	return hybrid.New(opts)
}
