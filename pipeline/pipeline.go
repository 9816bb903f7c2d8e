package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/hybridrec/core"
)

// Pipeline 把一次推荐拆成可组合的 Node 链：Recall → Filter → Rank → ReRank → PostProcess。
// Pipeline 本身无状态，可在并发请求间复用；每次 Run 使用调用方自己的 rctx 与 items。
type Pipeline struct {
	Nodes []Node

	// Hooks 在每个 Node 执行后回调（可选），用于打点与日志
	Hooks []Hook
}

// Hook 在 Node 执行完成后被调用。
type Hook func(ctx context.Context, node Node, in, out int, err error)

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		for _, h := range p.Hooks {
			h(ctx, node, len(cur), len(next), err)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
