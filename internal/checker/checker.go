// Package checker implements Stratum's two-pass type checker: a
// registration pass that collects struct/enum/interface/function
// signatures, followed by a checking pass that infers and validates every
// expression and statement against internal/types' unification engine.
package checker

import (
	"github.com/horizonanalytic/stratum/internal/ast"
	"github.com/horizonanalytic/stratum/internal/diagnostics"
	"github.com/horizonanalytic/stratum/internal/token"
	"github.com/horizonanalytic/stratum/internal/types"
)

// Checker drives both passes over a parsed Module.
type Checker struct {
	reg      *Registry
	diags    *diagnostics.Bag
	gen      types.VarGen
	subst    types.Subst
	inPipe   int // >0 while checking the RHS of a pipe call, permits Placeholder
	asyncDep int // >0 while inside an async function body, permits Await
}

// Result is what a completed Check returns: nothing beyond diagnostics is
// needed by the compiler stage today, but the Registry is exported so the
// compiler can resolve struct field order and enum variant tags the same
// way the checker did.
type Result struct {
	Registry *Registry
}

// Check runs both passes over mod and returns the populated registry plus
// any diagnostics (empty Items() on success).
func Check(mod *ast.Module) (*Result, *diagnostics.Bag) {
	c := &Checker{reg: NewRegistry(), diags: &diagnostics.Bag{}, subst: types.Subst{}}
	c.registerBuiltinGlobals()
	c.registerPass(mod)
	env := NewEnv(nil)
	for name, fn := range c.reg.Functions {
		env.Define(name, types.Function(fn.Params, fn.Ret))
	}
	c.checkPass(mod, env)
	c.validateImpls()
	return &Result{Registry: c.reg}, c.diags
}

func (c *Checker) errorAt(code diagnostics.Code, sp token.Span, format string, args ...any) {
	c.diags.Addf(code, sp, 0, 0, format, args...)
}

// ---- builtin globals --------------------------------------------------------

func (c *Checker) registerBuiltinGlobals() {
	t := types.TypeVar
	_ = t
	add := func(name string, params []types.Type, ret types.Type) {
		c.reg.Functions[name] = &FunctionSig{Name: name, Params: params, Ret: ret}
	}
	any_ := types.Any()
	add("print", []types.Type{any_}, types.Unit())
	add("println", []types.Type{any_}, types.Unit())
	add("assert", []types.Type{types.Bool()}, types.Unit())
	add("assert_eq", []types.Type{any_, any_}, types.Unit())
	add("type_of", []types.Type{any_}, types.String())
	add("to_string", []types.Type{any_}, types.String())
	add("parse_int", []types.Type{types.String()}, types.Nullable(types.Int()))
	add("parse_float", []types.Type{types.String()}, types.Nullable(types.Float()))
	add("range", []types.Type{types.Int(), types.Int()}, types.RangeT())
	add("len", []types.Type{any_}, types.Int())
	add("str", []types.Type{any_}, types.String())
	add("int", []types.Type{any_}, types.Int())
	add("float", []types.Type{any_}, types.Float())
}

// ---- registration pass -------------------------------------------------------

func (c *Checker) registerPass(mod *ast.Module) {
	for _, item := range mod.Items {
		switch it := item.(type) {
		case *ast.StructItem:
			c.registerStruct(it)
		case *ast.EnumItem:
			c.registerEnum(it)
		case *ast.InterfaceItem:
			c.registerInterface(it)
		case *ast.FunctionItem:
			c.registerFunction(it)
		}
	}
	for _, item := range mod.Items {
		if impl, ok := item.(*ast.ImplItem); ok {
			c.registerImpl(impl)
		}
	}
}

func (c *Checker) registerStruct(it *ast.StructItem) {
	decl := &StructDecl{Name: it.Name, Fields: map[string]types.Type{}}
	for _, tp := range it.TypeParams {
		decl.TypeParams = append(decl.TypeParams, tp.Name)
	}
	for _, f := range it.Fields {
		decl.Fields[f.Name] = c.resolveTypeAnnotation(f.Type, declTypeParamSet(decl.TypeParams))
		decl.FieldOrder = append(decl.FieldOrder, f.Name)
	}
	c.reg.Structs[it.Name] = decl
}

func (c *Checker) registerEnum(it *ast.EnumItem) {
	decl := &EnumDecl{Name: it.Name, Variants: map[string]EnumVariantShape{}}
	for _, tp := range it.TypeParams {
		decl.TypeParams = append(decl.TypeParams, tp.Name)
	}
	tpSet := declTypeParamSet(decl.TypeParams)
	for _, v := range it.Variants {
		shape := EnumVariantShape{Name: v.Name, Fields: map[string]types.Type{}}
		for _, t := range v.Tuple {
			shape.Tuple = append(shape.Tuple, c.resolveTypeAnnotation(t, tpSet))
		}
		for _, f := range v.Fields {
			shape.Fields[f.Name] = c.resolveTypeAnnotation(f.Type, tpSet)
		}
		decl.Variants[v.Name] = shape
	}
	c.reg.Enums[it.Name] = decl
}

func (c *Checker) registerInterface(it *ast.InterfaceItem) {
	decl := &InterfaceDecl{Name: it.Name, Methods: map[string]types.Type{}}
	for _, m := range it.Methods {
		params := make([]types.Type, len(m.Params))
		for i, p := range m.Params {
			params[i] = c.resolveTypeAnnotation(p.Type, nil)
		}
		ret := types.Unit()
		if m.RetType != nil {
			ret = c.resolveTypeAnnotation(m.RetType, nil)
		}
		decl.Methods[m.Name] = types.Function(params, ret)
	}
	c.reg.Interfaces[it.Name] = decl
}

func (c *Checker) registerFunction(it *ast.FunctionItem) {
	tpSet := map[string]bool{}
	var typeParams []string
	for _, tp := range it.TypeParams {
		tpSet[tp.Name] = true
		typeParams = append(typeParams, tp.Name)
	}
	params := make([]types.Type, len(it.Params))
	for i, p := range it.Params {
		params[i] = c.resolveTypeAnnotation(p.Type, tpSet)
	}
	ret := types.Unit()
	if it.RetType != nil {
		ret = c.resolveTypeAnnotation(it.RetType, tpSet)
	}
	if it.IsAsync {
		ret = types.Future(ret)
	}
	c.reg.Functions[it.Name] = &FunctionSig{Name: it.Name, TypeParams: typeParams, Params: params, Ret: ret}
}

func (c *Checker) registerImpl(it *ast.ImplItem) {
	if _, ok := c.reg.Impls[it.TargetName]; !ok {
		c.reg.Impls[it.TargetName] = map[string]bool{}
	}
	if it.InterfaceName != "" {
		if c.reg.Impls[it.TargetName][it.InterfaceName] {
			c.errorAt(ErrDuplicateImpl, it.Sp, "duplicate impl of %s for %s", it.InterfaceName, it.TargetName)
		}
		c.reg.Impls[it.TargetName][it.InterfaceName] = true
	}
	targetExists := c.reg.Structs[it.TargetName] != nil || c.reg.Enums[it.TargetName] != nil
	if !targetExists {
		c.errorAt(ErrImplTargetNotFound, it.Sp, "impl target %q is not a known struct or enum", it.TargetName)
	}
	for _, m := range it.Methods {
		c.registerFunction(m)
	}
}

func declTypeParamSet(names []string) map[string]bool {
	out := map[string]bool{}
	for _, n := range names {
		out[n] = true
	}
	return out
}

// resolveTypeAnnotation turns a written ast.TypeAnnotation into a
// internal/types.Type, treating any identifier found in typeParams as a
// fresh-per-use type variable binder rather than a concrete named type.
func (c *Checker) resolveTypeAnnotation(t ast.TypeAnnotation, typeParams map[string]bool) types.Type {
	switch n := t.(type) {
	case nil:
		return c.gen.Fresh()
	case *ast.NamedType:
		if typeParams != nil && typeParams[n.Name] {
			return c.gen.Fresh()
		}
		switch n.Name {
		case "Int":
			return types.Int()
		case "Float":
			return types.Float()
		case "Bool":
			return types.Bool()
		case "String":
			return types.String()
		case "Any":
			return types.Any()
		case "Error":
			return types.ErrorT()
		case "List":
			if len(n.TypeArgs) == 1 {
				return types.List(c.resolveTypeAnnotation(n.TypeArgs[0], typeParams))
			}
		case "Map":
			if len(n.TypeArgs) == 2 {
				return types.MapT(
					c.resolveTypeAnnotation(n.TypeArgs[0], typeParams),
					c.resolveTypeAnnotation(n.TypeArgs[1], typeParams),
				)
			}
		}
		if _, ok := c.reg.Structs[n.Name]; ok {
			args := make([]types.Type, len(n.TypeArgs))
			for i, a := range n.TypeArgs {
				args[i] = c.resolveTypeAnnotation(a, typeParams)
			}
			return types.Struct(n.Name, args...)
		}
		if _, ok := c.reg.Enums[n.Name]; ok {
			args := make([]types.Type, len(n.TypeArgs))
			for i, a := range n.TypeArgs {
				args[i] = c.resolveTypeAnnotation(a, typeParams)
			}
			return types.Enum(n.Name, args...)
		}
		return types.Namespace(n.Name)
	case *ast.NullableType:
		return types.Nullable(c.resolveTypeAnnotation(n.Inner, typeParams))
	case *ast.ListShorthandType:
		return types.List(c.resolveTypeAnnotation(n.Element, typeParams))
	case *ast.TupleType:
		elems := make([]types.Type, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = c.resolveTypeAnnotation(e, typeParams)
		}
		return types.Tuple(elems...)
	case *ast.FunctionType:
		params := make([]types.Type, len(n.Params))
		for i, p := range n.Params {
			params[i] = c.resolveTypeAnnotation(p, typeParams)
		}
		return types.Function(params, c.resolveTypeAnnotation(n.Ret, typeParams))
	case *ast.UnitType:
		return types.Unit()
	case *ast.NeverType:
		return types.Never()
	case *ast.InferredType:
		return c.gen.Fresh()
	default:
		return types.Any()
	}
}

// ---- checking pass -----------------------------------------------------------

func (c *Checker) checkPass(mod *ast.Module, env *Env) {
	for _, item := range mod.Items {
		switch it := item.(type) {
		case *ast.FunctionItem:
			c.checkFunctionBody(it, env)
		case *ast.ImplItem:
			for _, m := range it.Methods {
				c.checkFunctionBody(m, env)
			}
		}
	}
}

func (c *Checker) checkFunctionBody(it *ast.FunctionItem, outer *Env) {
	sig := c.reg.Functions[it.Name]
	fnEnv := NewEnv(outer)
	for i, p := range it.Params {
		if i < len(sig.Params) {
			fnEnv.Define(p.Name, sig.Params[i])
		}
	}
	if it.IsAsync {
		c.asyncDep++
	}
	ret := sig.Ret
	if it.IsAsync {
		ret = *sig.Ret.Elem
	}
	bodyType := c.checkBlock(it.Body, fnEnv)
	if it.RetType != nil && !c.typesCompatible(ret, bodyType) {
		c.errorAt(ErrReturnTypeMismatch, it.Body.Span(), "function %q returns %s, body produces %s", it.Name, ret.String(), bodyType.String())
	}
	if it.IsAsync {
		c.asyncDep--
	}
}

func (c *Checker) typesCompatible(expected, got types.Type) bool {
	if expected.Kind == types.KAny || got.Kind == types.KAny {
		return true
	}
	if expected.Kind == types.KUnit {
		return true
	}
	_, err := types.Unify(c.subst.Apply(expected), c.subst.Apply(got))
	return err == nil
}

func (c *Checker) unify(a, b types.Type, sp token.Span, context string) types.Type {
	s, err := types.Unify(c.subst.Apply(a), c.subst.Apply(b))
	if err != nil {
		c.errorAt(ErrTypeMismatch, sp, "type mismatch in %s: %s", context, err.Error())
		return a
	}
	for k, v := range s {
		c.subst[k] = v
	}
	return c.subst.Apply(a)
}

func (c *Checker) checkBlock(b *ast.BlockExpr, outer *Env) types.Type {
	env := NewEnv(outer)
	for _, s := range b.Stmts {
		c.checkStmt(s, env)
	}
	if b.Tail != nil {
		return c.checkExpr(b.Tail, env)
	}
	return types.Unit()
}

func (c *Checker) checkStmt(s ast.Stmt, env *Env) {
	switch st := s.(type) {
	case *ast.LetStmt:
		valType := c.checkExpr(st.Value, env)
		declared := valType
		if st.Type != nil {
			declared = c.resolveTypeAnnotation(st.Type, nil)
			c.unify(declared, valType, st.Sp, "let binding")
		}
		c.bindPattern(st.Pattern, declared, env)
	case *ast.ExprStmt:
		c.checkExpr(st.Expr, env)
	case *ast.AssignStmt:
		targetType := c.checkExpr(st.Target, env)
		valType := c.checkExpr(st.Value, env)
		c.unify(targetType, valType, st.Sp, "assignment")
	case *ast.ReturnStmt:
		if st.Value != nil {
			c.checkExpr(st.Value, env)
		}
	case *ast.ForStmt:
		iterType := c.checkExpr(st.Iter, env)
		elemType := c.elementType(iterType)
		loopEnv := NewEnv(env)
		loopEnv.Define(st.Binder, elemType)
		c.checkBlock(st.Body, loopEnv)
	case *ast.WhileStmt:
		c.checkExpr(st.Cond, env)
		c.checkBlock(st.Body, env)
	case *ast.LoopStmt:
		c.checkBlock(st.Body, env)
	case *ast.TryStmt:
		c.checkBlock(st.Body, env)
		if st.Catch != nil {
			catchEnv := NewEnv(env)
			if st.Catch.Binder != "" {
				catchEnv.Define(st.Catch.Binder, types.ErrorT())
			}
			c.checkBlock(st.Catch.Body, catchEnv)
		}
		if st.Finally != nil {
			c.checkBlock(st.Finally, env)
		}
	case *ast.ThrowStmt:
		c.checkExpr(st.Value, env)
	case *ast.BreakStmt, *ast.ContinueStmt:
		// loop-depth validated at parse time
	}
}

func (c *Checker) elementType(iterType types.Type) types.Type {
	switch iterType.Kind {
	case types.KList:
		return *iterType.Elem
	case types.KRange:
		return types.Int()
	case types.KString:
		return types.String()
	case types.KMap:
		return types.Tuple(*iterType.Key, *iterType.Val)
	default:
		return types.Any()
	}
}

func (c *Checker) bindPattern(p ast.Pattern, t types.Type, env *Env) {
	switch pat := p.(type) {
	case *ast.IdentPattern:
		env.Define(pat.Name, t)
	case *ast.WildcardPattern:
		// discards
	case *ast.ListPattern:
		elem := c.elementType(t)
		for _, e := range pat.Elements {
			c.bindPattern(e, elem, env)
		}
		if pat.Rest != "" {
			env.Define(pat.Rest, types.List(elem))
		}
	case *ast.VariantPattern:
		decl := c.reg.Enums[pat.EnumName]
		var shape EnumVariantShape
		if decl != nil {
			shape = decl.Variants[pat.VariantName]
		}
		for i, b := range pat.Binders {
			var bt types.Type = types.Any()
			if i < len(shape.Tuple) {
				bt = shape.Tuple[i]
			}
			c.bindPattern(b, bt, env)
		}
	case *ast.StructPattern:
		decl := c.reg.Structs[pat.TypeName]
		for _, f := range pat.Fields {
			ft := types.Any()
			if decl != nil {
				if t, ok := decl.Fields[f.Name]; ok {
					ft = t
				}
			}
			c.bindPattern(f.Pattern, ft, env)
		}
	case *ast.OrPattern:
		for _, alt := range pat.Alternatives {
			c.bindPattern(alt, t, env)
		}
	}
}
