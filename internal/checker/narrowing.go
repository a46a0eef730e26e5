package checker

import (
	"github.com/horizonanalytic/stratum/internal/ast"
	"github.com/horizonanalytic/stratum/internal/types"
)

// narrowingKind mirrors the reference checker's Narrowing enum: the only
// thing narrowing does today is strip Nullable off a variable's type in
// the branch where it is known non-null.
type narrowingKind int

const (
	narrowUnwrapNullable narrowingKind = iota
	narrowIsType
)

type narrowing struct {
	kind    narrowingKind
	varName string
	asType  types.Type // valid when kind == narrowIsType
}

// branchNarrowing is what extractNarrowing returns: the narrowings that
// hold in the then-branch and, separately, the else-branch of an `if cond`.
type branchNarrowing struct {
	then []narrowing
	els  []narrowing
}

// extractNarrowing recognizes `x == null`, `x != null`, and conjunctions of
// these under `&&`, producing the then/else narrowing sets a checker
// applies by shadowing the variable's type in the corresponding child Env.
// `x is T` conditions are not recognized, so no narrowIsType entry is ever
// produced. Anything else yields no narrowing in either branch.
func extractNarrowing(cond ast.Expr) branchNarrowing {
	switch e := cond.(type) {
	case *ast.BinaryExpr:
		switch e.Op {
		case ast.OpAnd:
			left := extractNarrowing(e.Left)
			right := extractNarrowing(e.Right)
			return branchNarrowing{then: append(append([]narrowing{}, left.then...), right.then...)}
		case ast.OpEq:
			if name, ok := identNullCompare(e); ok {
				return branchNarrowing{els: []narrowing{{kind: narrowUnwrapNullable, varName: name}}}
			}
		case ast.OpNe:
			if name, ok := identNullCompare(e); ok {
				return branchNarrowing{then: []narrowing{{kind: narrowUnwrapNullable, varName: name}}}
			}
		}
	}
	return branchNarrowing{}
}

// identNullCompare recognizes `ident == null` / `null == ident` (and the
// `!=` form, handled by the caller) on either side of a BinaryExpr.
func identNullCompare(e *ast.BinaryExpr) (string, bool) {
	if id, ok := e.Left.(*ast.Identifier); ok {
		if lit, ok := e.Right.(*ast.Literal); ok && lit.Kind == ast.LitNull {
			return id.Name, true
		}
	}
	if id, ok := e.Right.(*ast.Identifier); ok {
		if lit, ok := e.Left.(*ast.Literal); ok && lit.Kind == ast.LitNull {
			return id.Name, true
		}
	}
	return "", false
}

// applyNarrowing shadows each narrowed variable's type in env, stripping
// Nullable for narrowUnwrapNullable entries.
func applyNarrowing(env *Env, ns []narrowing) {
	for _, n := range ns {
		cur, ok := env.Lookup(n.varName)
		if !ok {
			continue
		}
		switch n.kind {
		case narrowUnwrapNullable:
			if cur.Kind == types.KNullable {
				env.Define(n.varName, *cur.Elem)
			}
		case narrowIsType:
			env.Define(n.varName, n.asType)
		}
	}
}
