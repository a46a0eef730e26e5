package checker

import (
	"github.com/horizonanalytic/stratum/internal/ast"
	"github.com/horizonanalytic/stratum/internal/token"
	"github.com/horizonanalytic/stratum/internal/types"
)

func (c *Checker) checkExpr(e ast.Expr, env *Env) types.Type {
	switch ex := e.(type) {
	case *ast.Literal:
		return c.checkLiteral(ex)
	case *ast.Identifier:
		if t, ok := env.Lookup(ex.Name); ok {
			return t
		}
		if fn, ok := c.reg.Functions[ex.Name]; ok {
			return types.Function(fn.Params, fn.Ret)
		}
		c.errorAt(ErrUndefinedVariable, ex.Sp, "undefined variable %q", ex.Name)
		return types.Any()
	case *ast.Placeholder:
		if c.inPipe == 0 {
			c.errorAt(ErrPlaceholderOutsidePipe, ex.Sp, "`_` is only valid inside a pipe call")
		}
		return types.Any()
	case *ast.ColumnShorthand:
		return types.Any()
	case *ast.StateBinding:
		return c.checkExpr(ex.Target, env)
	case *ast.BinaryExpr:
		return c.checkBinary(ex, env)
	case *ast.UnaryExpr:
		return c.checkUnary(ex, env)
	case *ast.CallExpr:
		return c.checkCall(ex, env)
	case *ast.IndexExpr:
		return c.checkIndex(ex, env)
	case *ast.FieldExpr:
		return c.checkField(ex, env)
	case *ast.ParenExpr:
		return c.checkExpr(ex.Inner, env)
	case *ast.IfExpr:
		return c.checkIf(ex, env)
	case *ast.MatchExpr:
		return c.checkMatch(ex, env)
	case *ast.LambdaExpr:
		return c.checkLambda(ex, env)
	case *ast.BlockExpr:
		return c.checkBlock(ex, env)
	case *ast.ListExpr:
		return c.checkListExpr(ex, env)
	case *ast.MapExpr:
		return c.checkMapExpr(ex, env)
	case *ast.StringInterpExpr:
		for _, p := range ex.Parts {
			if p.Expr != nil {
				c.checkExpr(p.Expr, env)
			}
		}
		return types.String()
	case *ast.StructInitExpr:
		return c.checkStructInit(ex, env)
	case *ast.EnumVariantExpr:
		return c.checkEnumVariant(ex, env)
	case *ast.AwaitExpr:
		inner := c.checkExpr(ex.Inner, env)
		if c.asyncDep == 0 {
			c.errorAt(ErrAwaitOutsideAsync, ex.Sp, "await is only valid inside an async function")
		}
		if inner.Kind != types.KFuture && inner.Kind != types.KAny {
			c.errorAt(ErrAwaitNonFuture, ex.Sp, "cannot await non-Future type %s", inner.String())
			return types.Any()
		}
		if inner.Kind == types.KFuture {
			return *inner.Elem
		}
		return types.Any()
	case *ast.TryExpr:
		return c.checkExpr(ex.Inner, env)
	default:
		return types.Any()
	}
}

func (c *Checker) checkLiteral(l *ast.Literal) types.Type {
	switch l.Kind {
	case ast.LitInt, ast.LitBigInt:
		return types.Int()
	case ast.LitFloat, ast.LitRational:
		return types.Float()
	case ast.LitBool:
		return types.Bool()
	case ast.LitString:
		return types.String()
	case ast.LitChar:
		return types.String()
	case ast.LitNull:
		return types.Nullable(types.Any())
	default:
		return types.Any()
	}
}

func (c *Checker) checkBinary(b *ast.BinaryExpr, env *Env) types.Type {
	if b.Op == ast.OpAnd || b.Op == ast.OpOr {
		c.checkExpr(b.Left, env)
		nested := NewEnv(env)
		if b.Op == ast.OpAnd {
			bn := extractNarrowing(b.Left)
			applyNarrowing(nested, bn.then)
		}
		c.checkExpr(b.Right, nested)
		return types.Bool()
	}
	if b.Op == ast.OpPipe {
		c.checkExpr(b.Left, env)
		c.inPipe++
		rt := c.checkExpr(b.Right, env)
		c.inPipe--
		return rt
	}
	lt := c.checkExpr(b.Left, env)
	rt := c.checkExpr(b.Right, env)
	switch b.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		if lt.Kind == types.KString && rt.Kind == types.KString && b.Op == ast.OpAdd {
			return types.String()
		}
		if lt.Kind == types.KList && b.Op == ast.OpAdd {
			return lt
		}
		if !numericKind(lt) || !numericKind(rt) {
			if lt.Kind != types.KAny && rt.Kind != types.KAny {
				c.errorAt(ErrInvalidBinaryOp, b.Sp, "operator %s requires numeric operands, got %s and %s", opSymbol(b.Op), lt.String(), rt.String())
			}
			return types.Any()
		}
		if lt.Kind == types.KFloat || rt.Kind == types.KFloat {
			return types.Float()
		}
		return types.Int()
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return types.Bool()
	case ast.OpCoalesce:
		if lt.Kind == types.KNullable {
			return c.unify(*lt.Elem, rt, b.Sp, "??")
		}
		return rt
	case ast.OpRange, ast.OpRangeInc:
		return types.RangeT()
	default:
		return types.Any()
	}
}

func numericKind(t types.Type) bool {
	return t.Kind == types.KInt || t.Kind == types.KFloat || t.Kind == types.KAny
}

func opSymbol(op ast.BinOp) string {
	switch op {
	case ast.OpAdd:
		return "+"
	case ast.OpSub:
		return "-"
	case ast.OpMul:
		return "*"
	case ast.OpDiv:
		return "/"
	case ast.OpMod:
		return "%"
	default:
		return "?"
	}
}

func (c *Checker) checkUnary(u *ast.UnaryExpr, env *Env) types.Type {
	t := c.checkExpr(u.Expr, env)
	switch u.Op {
	case ast.OpNeg:
		if !numericKind(t) {
			c.errorAt(ErrInvalidUnaryOp, u.Sp, "unary - requires a numeric operand, got %s", t.String())
			return types.Any()
		}
		return t
	case ast.OpNot:
		return types.Bool()
	default:
		return types.Any()
	}
}

func (c *Checker) checkCall(call *ast.CallExpr, env *Env) types.Type {
	calleeType := c.checkExpr(call.Callee, env)
	for _, a := range call.Args {
		c.checkExpr(a, env)
	}
	switch calleeType.Kind {
	case types.KFunction:
		if !hasPlaceholder(call.Args) && len(call.Args) != len(calleeType.Params) {
			c.errorAt(ErrWrongArgumentCount, call.Sp, "expected %d arguments, got %d", len(calleeType.Params), len(call.Args))
		}
		return *calleeType.Ret
	case types.KAny:
		return types.Any()
	default:
		c.errorAt(ErrNotCallable, call.Sp, "%s is not callable", calleeType.String())
		return types.Any()
	}
}

func hasPlaceholder(args []ast.Expr) bool {
	for _, a := range args {
		if _, ok := a.(*ast.Placeholder); ok {
			return true
		}
	}
	return false
}

func (c *Checker) checkIndex(ix *ast.IndexExpr, env *Env) types.Type {
	recv := c.checkExpr(ix.Receiver, env)
	idx := c.checkExpr(ix.Index, env)
	base := recv
	nullSafe := ix.NullSafe
	if base.Kind == types.KNullable {
		if !nullSafe {
			// still permitted; narrowing analysis elsewhere may have proven non-null.
		}
		base = *base.Elem
	}
	var result types.Type
	switch base.Kind {
	case types.KList:
		if idx.Kind != types.KInt && idx.Kind != types.KAny {
			c.errorAt(ErrInvalidIndexType, ix.Sp, "list index must be Int, got %s", idx.String())
		}
		result = *base.Elem
	case types.KMap:
		result = *base.Val
	case types.KString:
		result = types.String()
	case types.KAny:
		result = types.Any()
	default:
		c.errorAt(ErrNotIndexable, ix.Sp, "%s is not indexable", recv.String())
		result = types.Any()
	}
	if nullSafe {
		return types.Nullable(result)
	}
	return result
}

func (c *Checker) checkField(f *ast.FieldExpr, env *Env) types.Type {
	recv := c.checkExpr(f.Receiver, env)
	base := recv
	if base.Kind == types.KNullable {
		base = *base.Elem
	} else if f.NullSafe {
		c.errorAt(ErrUnnecessaryNullSafe, f.Sp, "receiver is never null, `?.` is unnecessary")
	}
	var result types.Type
	switch base.Kind {
	case types.KStruct:
		decl := c.reg.Structs[base.Name]
		if decl == nil {
			result = types.Any()
			break
		}
		ft, ok := decl.Fields[f.Name]
		if !ok {
			c.errorAt(ErrNoSuchField, f.Sp, "struct %s has no field %q", base.Name, f.Name)
			result = types.Any()
			break
		}
		result = ft
	case types.KRange:
		switch f.Name {
		case "start", "end":
			result = types.Int()
		case "inclusive":
			result = types.Bool()
		default:
			c.errorAt(ErrNoSuchField, f.Sp, "Range has no field %q", f.Name)
			result = types.Any()
		}
	case types.KEnum, types.KAny:
		result = types.Any()
	default:
		c.errorAt(ErrNoSuchField, f.Sp, "%s has no field %q", recv.String(), f.Name)
		result = types.Any()
	}
	if f.NullSafe {
		return types.Nullable(result)
	}
	return result
}

func (c *Checker) checkIf(i *ast.IfExpr, env *Env) types.Type {
	c.checkExpr(i.Cond, env)
	bn := extractNarrowing(i.Cond)
	thenEnv := NewEnv(env)
	applyNarrowing(thenEnv, bn.then)
	thenType := c.checkBlock(i.Then, thenEnv)
	if i.Else == nil {
		return types.Unit()
	}
	elseEnv := NewEnv(env)
	applyNarrowing(elseEnv, bn.els)
	var elseType types.Type
	switch e := i.Else.(type) {
	case *ast.BlockExpr:
		elseType = c.checkBlock(e, elseEnv)
	default:
		elseType = c.checkExpr(e, elseEnv)
	}
	if !c.typesCompatible(thenType, elseType) && !c.typesCompatible(elseType, thenType) {
		c.errorAt(ErrIncompatibleBranches, i.Sp, "if branches have incompatible types %s and %s", thenType.String(), elseType.String())
	}
	return thenType
}

func (c *Checker) checkMatch(m *ast.MatchExpr, env *Env) types.Type {
	subjectType := c.checkExpr(m.Subject, env)
	var result types.Type
	for idx, arm := range m.Arms {
		armEnv := NewEnv(env)
		c.bindPattern(arm.Pattern, subjectType, armEnv)
		if arm.Guard != nil {
			c.checkExpr(arm.Guard, armEnv)
		}
		bodyType := c.checkExpr(arm.Body, armEnv)
		if idx == 0 {
			result = bodyType
		} else if !c.typesCompatible(result, bodyType) {
			c.errorAt(ErrIncompatibleBranches, arm.Sp, "match arm %d has incompatible type %s, expected %s", idx, bodyType.String(), result.String())
		}
	}
	if result.Kind == 0 && len(m.Arms) == 0 {
		return types.Unit()
	}
	return result
}

func (c *Checker) checkLambda(l *ast.LambdaExpr, env *Env) types.Type {
	lamEnv := NewEnv(env)
	params := make([]types.Type, len(l.Params))
	for i, p := range l.Params {
		pt := c.resolveTypeAnnotation(p.Type, nil)
		params[i] = pt
		lamEnv.Define(p.Name, pt)
	}
	if l.IsAsync {
		c.asyncDep++
	}
	var bodyType types.Type
	switch b := l.Body.(type) {
	case *ast.BlockExpr:
		bodyType = c.checkBlock(b, lamEnv)
	default:
		bodyType = c.checkExpr(b, lamEnv)
	}
	if l.IsAsync {
		c.asyncDep--
		bodyType = types.Future(bodyType)
	}
	if l.RetType != nil {
		bodyType = c.resolveTypeAnnotation(l.RetType, nil)
	}
	return types.Function(params, bodyType)
}

func (c *Checker) checkListExpr(l *ast.ListExpr, env *Env) types.Type {
	if len(l.Elements) == 0 {
		return types.List(c.gen.Fresh())
	}
	elemType := c.checkExpr(l.Elements[0], env)
	for _, el := range l.Elements[1:] {
		t := c.checkExpr(el, env)
		elemType = c.unify(elemType, t, el.Span(), "list element")
	}
	return types.List(elemType)
}

func (c *Checker) checkMapExpr(m *ast.MapExpr, env *Env) types.Type {
	if len(m.Entries) == 0 {
		return types.MapT(c.gen.Fresh(), c.gen.Fresh())
	}
	keyType := c.checkExpr(m.Entries[0].Key, env)
	valType := c.checkExpr(m.Entries[0].Value, env)
	for _, e := range m.Entries[1:] {
		kt := c.checkExpr(e.Key, env)
		vt := c.checkExpr(e.Value, env)
		keyType = c.unify(keyType, kt, e.Key.Span(), "map key")
		valType = c.unify(valType, vt, e.Value.Span(), "map value")
	}
	return types.MapT(keyType, valType)
}

func (c *Checker) checkStructInit(s *ast.StructInitExpr, env *Env) types.Type {
	decl := c.reg.Structs[s.TypeName]
	if decl == nil {
		c.errorAt(ErrUndefinedStruct, s.Sp, "undefined struct %q", s.TypeName)
		for _, f := range s.Fields {
			if f.Value != nil {
				c.checkExpr(f.Value, env)
			}
		}
		return types.Any()
	}
	seen := map[string]bool{}
	for _, f := range s.Fields {
		if seen[f.Name] {
			c.errorAt(ErrDuplicateField, f.Sp, "duplicate field %q in struct literal", f.Name)
		}
		seen[f.Name] = true
		ft, ok := decl.Fields[f.Name]
		if !ok {
			c.errorAt(ErrExtraField, f.Sp, "struct %s has no field %q", s.TypeName, f.Name)
			continue
		}
		var vt types.Type
		if f.Value != nil {
			vt = c.checkExpr(f.Value, env)
		} else if t, ok := env.Lookup(f.Name); ok {
			vt = t
		} else {
			vt = ft
		}
		c.unify(ft, vt, f.Sp, "struct field "+f.Name)
	}
	for _, name := range decl.FieldOrder {
		if !seen[name] {
			c.errorAt(ErrMissingField, s.Sp, "missing field %q in struct literal for %s", name, s.TypeName)
		}
	}
	return types.Struct(s.TypeName)
}

func (c *Checker) checkEnumVariant(e *ast.EnumVariantExpr, env *Env) types.Type {
	decl := c.reg.Enums[e.EnumName]
	if decl == nil {
		for _, a := range e.Args {
			c.checkExpr(a, env)
		}
		for _, f := range e.Fields {
			if f.Value != nil {
				c.checkExpr(f.Value, env)
			}
		}
		c.errorAt(ErrUndefinedEnum, e.Sp, "undefined enum %q", e.EnumName)
		return types.Any()
	}
	shape, ok := decl.Variants[e.VariantName]
	if !ok {
		c.errorAt(ErrUndefinedEnum, e.Sp, "enum %s has no variant %q", e.EnumName, e.VariantName)
		return types.Enum(e.EnumName)
	}
	if len(e.Args) != len(shape.Tuple) {
		c.errorAt(ErrWrongArgumentCount, e.Sp, "variant %s.%s expects %d arguments, got %d", e.EnumName, e.VariantName, len(shape.Tuple), len(e.Args))
	}
	for i, a := range e.Args {
		at := c.checkExpr(a, env)
		if i < len(shape.Tuple) {
			c.unify(shape.Tuple[i], at, a.Span(), "enum variant argument")
		}
	}
	for _, f := range e.Fields {
		ft, ok := shape.Fields[f.Name]
		if !ok {
			c.errorAt(ErrExtraField, f.Sp, "variant %s.%s has no field %q", e.EnumName, e.VariantName, f.Name)
			continue
		}
		if f.Value != nil {
			vt := c.checkExpr(f.Value, env)
			c.unify(ft, vt, f.Sp, "enum variant field "+f.Name)
		}
	}
	return types.Enum(e.EnumName)
}

// ---- impl validation --------------------------------------------------------

func (c *Checker) validateImpls() {
	for target, ifaces := range c.reg.Impls {
		for ifaceName := range ifaces {
			iface := c.reg.Interfaces[ifaceName]
			if iface == nil {
				c.diags.Addf(ErrUndefinedInterface, token.Span{}, 0, 0, "impl references undefined interface %q", ifaceName)
				continue
			}
			for methodName, sig := range iface.Methods {
				implSig, ok := c.reg.Functions[methodName]
				if !ok {
					c.diags.Addf(ErrMissingInterfaceMethod, token.Span{}, 0, 0, "type %s missing method %q required by interface %s", target, methodName, ifaceName)
					continue
				}
				want := types.Function(implSig.Params, implSig.Ret)
				if _, err := types.Unify(sig, want); err != nil {
					c.diags.Addf(ErrMethodSignatureMismatch, token.Span{}, 0, 0, "method %q on %s does not match interface %s: %s", methodName, target, ifaceName, err.Error())
				}
			}
		}
	}
}
