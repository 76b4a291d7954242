// Package configexpr evaluates default_if_missing expressions attached to
// config fields: short HCL expressions (environment-variable lookups,
// literal fallbacks) resolved once at generation time against a fixed set
// of named variables. It follows the HCL/cty evaluation pattern used
// elsewhere in this codebase for expression-bearing schema fields
// (parse with hclsyntax, evaluate against an hcl.EvalContext, convert the
// resulting cty.Value back to a plain Go value).
package configexpr

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Context supplies the named values a default_if_missing expression may
// reference: env.NAME for process environment lookups, and profile for the
// active configprofile.Profile's name.
type Context struct {
	Env     map[string]string
	Profile string
}

func (c Context) toHCL() *hcl.EvalContext {
	env := make(map[string]cty.Value, len(c.Env))
	for k, v := range c.Env {
		env[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env":     cty.ObjectVal(env),
			"profile": cty.StringVal(c.Profile),
		},
	}
}

// Parse parses a raw default_if_missing expression, e.g. `env.PORT` or
// `"8080"`.
func Parse(raw string) (hcl.Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(raw), "default_if_missing", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid default_if_missing expression %q: %s", raw, diags.Error())
	}
	return expr, nil
}

// Eval evaluates expr against ctx, returning the result as a plain Go
// value (string, bool, float64, map[string]interface{}, or nil).
func Eval(expr hcl.Expression, ctx Context) (interface{}, error) {
	val, diags := expr.Value(ctx.toHCL())
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate default_if_missing expression: %s", diags.Error())
	}
	return fromCtyValue(val), nil
}

// EvalString parses and evaluates raw in one step.
func EvalString(raw string, ctx Context) (interface{}, error) {
	expr, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return Eval(expr, ctx)
}

func fromCtyValue(v cty.Value) interface{} {
	if v.IsNull() {
		return nil
	}
	switch {
	case v.Type() == cty.String:
		return v.AsString()
	case v.Type() == cty.Bool:
		return v.True()
	case v.Type() == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f
	case v.Type().IsObjectType() || v.Type().IsMapType():
		out := make(map[string]interface{})
		for k, e := range v.AsValueMap() {
			out[k] = fromCtyValue(e)
		}
		return out
	default:
		return v.GoString()
	}
}
