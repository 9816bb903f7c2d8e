package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/hybridrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译好的 Label / Item 表达式，使用 CEL (Common Expression Language)。
// 编译一次，可并发 Eval。
//
// 可用变量：
//   - item.id / item.score / item.name / item.genre
//   - item.features.predicted_rating / item.features.content_score
//   - label.<key>：Label 的 Value，例如 label.recall_source == "hybrid"
//   - rctx.user_id / rctx.seeds / rctx.top_n / rctx.alpha / rctx.params
//
// 示例：
//   - `item.genre.contains("Hentai")`
//   - `label.recall_source == "hybrid" && item.score > 0.7`
//   - `item.id in [20, 21]`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，表达式必须返回 bool。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
			fmt.Sprintf("dsl: compile %q: %v", expr, issues.Err()))
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Eval 在 item / rctx 上执行表达式。
// 访问不存在的 key 会返回错误，需要时先用 `"key" in label` 判断存在性。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: %q must return bool, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Evaluate 编译并执行一次表达式，空表达式视为 true。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	if item == nil {
		item = core.NewItem(0)
	}

	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}
	features := make(map[string]any, len(item.Features))
	for k, v := range item.Features {
		features[k] = v
	}
	meta := make(map[string]any, len(item.Meta))
	for k, v := range item.Meta {
		meta[k] = v
	}

	itemMap := map[string]any{
		"id":       item.ID,
		"score":    item.Score,
		"name":     item.MetaString(core.MetaName),
		"genre":    item.MetaString(core.MetaGenre),
		"features": features,
		"meta":     meta,
	}

	rctxMap := map[string]any{
		"user_id": int64(0),
		"seeds":   []string{},
		"top_n":   int64(0),
		"alpha":   0.0,
		"params":  map[string]any{},
	}
	if rctx != nil {
		rctxMap["user_id"] = rctx.UserID
		if rctx.Seeds != nil {
			rctxMap["seeds"] = rctx.Seeds
		}
		rctxMap["top_n"] = int64(rctx.TopN)
		rctxMap["alpha"] = rctx.Alpha
		if rctx.Params != nil {
			rctxMap["params"] = rctx.Params
		}
	}

	return map[string]any{
		"item":  itemMap,
		"label": labels,
		"rctx":  rctxMap,
	}
}
