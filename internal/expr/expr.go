// Package expr parses and evaluates the computed-field micro-language.
//
// Expressions are HCL-native syntax (arithmetic, comparison, ternary
// conditional, property access) evaluated against exactly two roots: "this",
// the current document's attributes, and "stats", aggregate results already
// computed for the widget plus namespaced results of included widgets. The
// interpreter is an allowlist by construction: Compile rejects any variable
// root other than the two context roots and any call outside the fixed
// function table, so there is nothing reachable to inject into.
package expr

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Context root names.
const (
	RootThis  = "this"
	RootStats = "stats"
)

// Expression is a compiled, validated computed-field expression. It is
// immutable and safe for concurrent evaluation.
type Expression struct {
	src      string
	parsed   hclsyntax.Expression
	usesThis bool
}

// Compile validates and parses an expression. The textual denylist runs
// first because its error contract (the matched keyword) is part of the
// public behavior; the parse then enforces the structural allowlist.
func Compile(src string) (*Expression, error) {
	if err := Validate(src); err != nil {
		return nil, err
	}

	parsed, diags := hclsyntax.ParseExpression([]byte(src), "<expression>", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse expression %q: %w", src, diags)
	}

	usesThis := false
	for _, traversal := range parsed.Variables() {
		switch root := traversal.RootName(); root {
		case RootThis:
			usesThis = true
		case RootStats:
		default:
			return nil, fmt.Errorf("expression %q references %q: only %q and %q are available", src, root, RootThis, RootStats)
		}
	}

	for _, name := range calledFunctions(parsed) {
		if _, ok := functions[name]; !ok {
			return nil, fmt.Errorf("expression %q calls unknown function %q", src, name)
		}
	}

	return &Expression{src: src, parsed: parsed, usesThis: usesThis}, nil
}

// UsesThis reports whether the expression reads the per-document root. The
// engine evaluates such expressions once per document; all others evaluate
// once per widget.
func (e *Expression) UsesThis() bool { return e.usesThis }

// Source returns the original expression text.
func (e *Expression) Source() string { return e.src }

// Evaluate runs the expression against the two supplied roots. Evaluation
// is pure and deterministic: identical inputs always yield an identical
// result, and nothing outside the roots and the function table is visible.
func (e *Expression) Evaluate(thisVal, statsVal cty.Value) (cty.Value, error) {
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			RootThis:  thisVal,
			RootStats: statsVal,
		},
		Functions: functions,
	}

	v, diags := e.parsed.Value(evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("evaluate %q: %w", e.src, diags)
	}
	return v, nil
}

// funcCollector gathers function call names from a syntax tree.
type funcCollector struct {
	names map[string]struct{}
}

func (c *funcCollector) Enter(node hclsyntax.Node) hcl.Diagnostics {
	if call, ok := node.(*hclsyntax.FunctionCallExpr); ok {
		c.names[call.Name] = struct{}{}
	}
	return nil
}

func (c *funcCollector) Exit(node hclsyntax.Node) hcl.Diagnostics { return nil }

// calledFunctions walks the syntax tree and returns every function name the
// expression calls, sorted for deterministic diagnostics.
func calledFunctions(parsed hclsyntax.Expression) []string {
	collector := &funcCollector{names: make(map[string]struct{})}
	hclsyntax.Walk(parsed, collector)

	names := make([]string, 0, len(collector.names))
	for name := range collector.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
