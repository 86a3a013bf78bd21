package decision

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// SkipContext is the environment an operator-supplied skip expression is
// evaluated against: one boolean per media type the run cares about, true
// when that type is still missing on disk for this ROM, plus whether the
// ROM's identity hash changed.
type SkipContext struct {
	Missing map[string]bool `expr:"missing"`
	Changed bool            `expr:"changed"`
}

// SkipExpr is a compiled operator override that forces SKIP when it
// evaluates true, regardless of what the §4.4 table would otherwise pick.
// Example expressions: "false" (never override), "not changed and len(missing) == 0".
type SkipExpr struct {
	program *vm.Program
}

// CompileSkipExpr compiles an operator-supplied skip override expression.
func CompileSkipExpr(expression string) (*SkipExpr, error) {
	program, err := expr.Compile(expression, expr.Env(SkipContext{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid skip expression: %w", err)
	}
	return &SkipExpr{program: program}, nil
}

// Evaluate runs the compiled expression against ctx.
func (s *SkipExpr) Evaluate(ctx SkipContext) (bool, error) {
	result, err := expr.Run(s.program, ctx)
	if err != nil {
		return false, fmt.Errorf("skip expression evaluation failed: %w", err)
	}
	return result.(bool), nil
}

// DecideWithOverride applies Decide and then, if override is non-nil,
// lets it force a SKIP verdict on top of the table's own decision. The
// override can only narrow work to SKIP; it can never expand a SKIP/
// MEDIA_ONLY decision into a fuller scrape.
func DecideWithOverride(in Input, override *SkipExpr) (Decision, error) {
	d := Decide(in)
	if override == nil || d.Action == ActionSkip {
		return d, nil
	}

	missing := make(map[string]bool, len(in.EnabledMediaTypes))
	for _, t := range in.EnabledMediaTypes {
		missing[t] = !in.PresentMediaTypes[t]
	}

	skip, err := override.Evaluate(SkipContext{Missing: missing, Changed: in.HashChanged})
	if err != nil {
		return d, err
	}
	if skip {
		return Decision{Action: ActionSkip}, nil
	}
	return d, nil
}
