// Package expr implements the formula engine. A formula is an HCL
// expression bound to one target property; it references other objects'
// properties as `object.property` paths. The referenced paths contribute
// dependency edges to the recompute graph exactly like structural links do,
// so a formula cycle is detected and reported the same way as a link cycle.
// Formulas are evaluated only during the recompute pass, never synchronously
// inside a property set.
package expr

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Path is one referenced property: `object.property`, optionally followed
// by sub-element steps that are opaque to the document core.
type Path struct {
	Object   string
	Property string
	Rest     []string
}

func (p Path) String() string {
	parts := append([]string{p.Object, p.Property}, p.Rest...)
	return strings.Join(parts, ".")
}

// Expression is a parsed formula bound to one target property.
type Expression struct {
	Target  string // property name on the owning object
	Formula string // original source text, persisted in snapshots
	root    hclsyntax.Expression
	refs    []Path
}

// Parse compiles a formula for the given target property and extracts its
// referenced property paths. The formula text itself is what snapshots
// persist; the AST is rebuilt on load.
func Parse(target, formula string) (*Expression, error) {
	root, diags := hclsyntax.ParseExpression([]byte(formula), "formula", hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, &ParseError{Formula: formula, Diags: diags}
	}

	refs, err := extractPaths(root)
	if err != nil {
		return nil, err
	}

	return &Expression{
		Target:  target,
		Formula: formula,
		root:    root,
		refs:    refs,
	}, nil
}

// References returns the property paths the formula reads. The recompute
// graph turns each one into an edge from the referenced object to the
// formula's owner.
func (e *Expression) References() []Path {
	out := make([]Path, len(e.refs))
	copy(out, e.refs)
	return out
}

// Evaluate computes the formula against the given variable scope. The scope
// maps each referenced object ID to an object value of its scalar
// properties; the document builds it per pass.
func (e *Expression) Evaluate(vars map[string]cty.Value) (cty.Value, error) {
	evalCtx := &hcl.EvalContext{
		Variables: vars,
		Functions: Functions(),
	}
	v, diags := e.root.Value(evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, &EvalError{Formula: e.Formula, Diags: diags}
	}
	return v, nil
}

// extractPaths converts the expression's variable traversals into property
// paths. Every reference must name at least `object.property`.
func extractPaths(root hclsyntax.Expression) ([]Path, error) {
	seen := make(map[string]bool)
	var refs []Path
	for _, traversal := range root.Variables() {
		p, err := pathFromTraversal(traversal)
		if err != nil {
			return nil, err
		}
		key := p.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		refs = append(refs, p)
	}
	return refs, nil
}

func pathFromTraversal(traversal hcl.Traversal) (Path, error) {
	if len(traversal) < 2 {
		return Path{}, fmt.Errorf("formula reference %q must name a property as object.property", traversal.RootName())
	}
	attr, ok := traversal[1].(hcl.TraverseAttr)
	if !ok {
		return Path{}, fmt.Errorf("formula reference on %q must use attribute access, e.g. %s.property", traversal.RootName(), traversal.RootName())
	}
	p := Path{Object: traversal.RootName(), Property: attr.Name}
	for _, step := range traversal[2:] {
		sub, ok := step.(hcl.TraverseAttr)
		if !ok {
			return Path{}, fmt.Errorf("formula reference %s.%s uses unsupported indexing", p.Object, p.Property)
		}
		p.Rest = append(p.Rest, sub.Name)
	}
	return p, nil
}

// ParseError reports a formula that failed to compile.
type ParseError struct {
	Formula string
	Diags   hcl.Diagnostics
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse formula %q: %s", e.Formula, e.Diags.Error())
}

// EvalError reports a formula that compiled but failed to evaluate.
type EvalError struct {
	Formula string
	Diags   hcl.Diagnostics
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate formula %q: %s", e.Formula, e.Diags.Error())
}

// UnresolvedReferenceError reports a referenced path that does not resolve
// to an existing property at evaluation time. It marks the owning object's
// recompute as failed without failing the whole pass.
type UnresolvedReferenceError struct {
	Path Path
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %s", e.Path)
}
