package recall

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// Source 表示一个可复用的召回源（内容相似 / 协同过滤 / 混合）。
// 每个 Source 只读 rctx 中的目录与评分历史，彼此之间没有共享状态。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
