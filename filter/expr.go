package filter

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式决定是否过滤，表达式为 true 时过滤。
//
// 示例：
//   - `item.genre.contains("Hentai")` → 过滤成人向作品
//   - `item.features.predicted_rating < 5.0` → 过滤低预测分
type ExprFilter struct {
	program *dsl.Program
}

// NewExprFilter 编译表达式；语法错误在构建时返回。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{program: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	return f.program.Eval(item, rctx)
}

var _ Filter = (*ExprFilter)(nil)
