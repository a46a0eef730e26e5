package compiler

import (
	"github.com/horizonanalytic/stratum/internal/ast"
	"github.com/horizonanalytic/stratum/internal/bytecode"
)

// compileExpr emits code leaving exactly one value on top of the stack: the
// result of evaluating e.
func (c *Compiler) compileExpr(e ast.Expr) {
	line := e.Span().Start
	switch ex := e.(type) {
	case *ast.Literal:
		c.compileLiteral(ex)
	case *ast.Identifier:
		c.emitLoadName(ex.Name, line)
	case *ast.Placeholder:
		// Only valid inside a pipe RHS; the surrounding pipe lowering loads
		// the piped value directly rather than calling here.
		c.emit(bytecode.Null, line)
	case *ast.ColumnShorthand:
		// Inferred-receiver field/variant access; without full inference
		// context at this stage we fall back to a global lookup by name.
		c.emitLoadName(ex.Name, line)
	case *ast.StateBinding:
		c.compileExpr(ex.Target)
	case *ast.BinaryExpr:
		c.compileBinary(ex)
	case *ast.UnaryExpr:
		c.compileExpr(ex.Expr)
		switch ex.Op {
		case ast.OpNeg:
			c.emit(bytecode.Neg, line)
		case ast.OpNot:
			c.emit(bytecode.Not, line)
		}
	case *ast.CallExpr:
		c.compileCall(ex)
	case *ast.IndexExpr:
		c.compileExpr(ex.Receiver)
		c.compileExpr(ex.Index)
		if ex.NullSafe {
			c.emit(bytecode.NullSafeGetIndex, line)
		} else {
			c.emit(bytecode.GetIndex, line)
		}
	case *ast.FieldExpr:
		c.compileExpr(ex.Receiver)
		if ex.NullSafe {
			c.emit(bytecode.NullSafeGetField, line)
		} else {
			c.emit(bytecode.GetField, line)
		}
		c.emitU16(c.constIndex(ex.Name), line)
	case *ast.ParenExpr:
		c.compileExpr(ex.Inner)
	case *ast.IfExpr:
		c.compileIf(ex)
	case *ast.MatchExpr:
		c.compileMatch(ex)
	case *ast.LambdaExpr:
		c.compileLambda(ex)
	case *ast.BlockExpr:
		c.compileBlockBody(ex)
	case *ast.ListExpr:
		for _, el := range ex.Elements {
			c.compileExpr(el)
		}
		c.emit(bytecode.NewList, line)
		c.emitByte(byte(len(ex.Elements)), line)
	case *ast.MapExpr:
		for _, entry := range ex.Entries {
			c.compileExpr(entry.Key)
			c.compileExpr(entry.Value)
		}
		c.emit(bytecode.NewMap, line)
		c.emitByte(byte(len(ex.Entries)), line)
	case *ast.StringInterpExpr:
		c.compileStringInterp(ex)
	case *ast.StructInitExpr:
		c.compileStructInit(ex)
	case *ast.EnumVariantExpr:
		c.compileEnumVariant(ex)
	case *ast.AwaitExpr:
		c.compileExpr(ex.Inner)
		c.emit(bytecode.Await, line)
	case *ast.TryExpr:
		// Propagation happens by the VM unwinding through the enclosing
		// try/catch handler stack; there is no reified Result value to
		// unwrap here, so the inner expression's value passes straight
		// through.
		c.compileExpr(ex.Inner)
	}
}

func (c *Compiler) compileLiteral(lit *ast.Literal) {
	line := lit.Sp.Start
	switch lit.Kind {
	case ast.LitNull:
		c.emit(bytecode.Null, line)
	case ast.LitBool:
		if lit.Value.(bool) {
			c.emit(bytecode.True, line)
		} else {
			c.emit(bytecode.False, line)
		}
	default:
		c.emitConstant(lit.Value, line)
	}
}

func (c *Compiler) compileBinary(b *ast.BinaryExpr) {
	line := b.Sp.Start
	switch b.Op {
	case ast.OpAnd:
		c.compileExpr(b.Left)
		end := c.emitJump(bytecode.JumpIfFalse, line)
		c.emit(bytecode.Pop, line)
		c.compileExpr(b.Right)
		c.patchJump(end)
		return
	case ast.OpOr:
		c.compileExpr(b.Left)
		end := c.emitJump(bytecode.JumpIfTrue, line)
		c.emit(bytecode.Pop, line)
		c.compileExpr(b.Right)
		c.patchJump(end)
		return
	case ast.OpPipe:
		c.compilePipe(b)
		return
	case ast.OpCoalesce:
		c.compileExpr(b.Left)
		end := c.emitJump(bytecode.JumpIfNotNull, line)
		c.emit(bytecode.Pop, line)
		c.compileExpr(b.Right)
		c.patchJump(end)
		return
	}

	c.compileExpr(b.Left)
	c.compileExpr(b.Right)
	switch b.Op {
	case ast.OpAdd:
		c.emit(bytecode.Add, line)
	case ast.OpSub:
		c.emit(bytecode.Sub, line)
	case ast.OpMul:
		c.emit(bytecode.Mul, line)
	case ast.OpDiv:
		c.emit(bytecode.Div, line)
	case ast.OpMod:
		c.emit(bytecode.Mod, line)
	case ast.OpEq:
		c.emit(bytecode.Eq, line)
	case ast.OpNe:
		c.emit(bytecode.Ne, line)
	case ast.OpLt:
		c.emit(bytecode.Lt, line)
	case ast.OpLe:
		c.emit(bytecode.Le, line)
	case ast.OpGt:
		c.emit(bytecode.Gt, line)
	case ast.OpGe:
		c.emit(bytecode.Ge, line)
	case ast.OpRange:
		c.emit(bytecode.NewRange, line)
	case ast.OpRangeInc:
		c.emit(bytecode.NewRangeInclusive, line)
	}
}

// compilePipe lowers `lhs |> rhs` where rhs is normally a CallExpr whose
// argument list may contain one or more Placeholder nodes standing in for
// lhs. The piped value is evaluated once into a temp local and substituted
// at each placeholder site. A call rhs with no placeholder gets lhs appended
// after its own arguments; a bare `lhs |> f` is called as `f(lhs)`.
func (c *Compiler) compilePipe(b *ast.BinaryExpr) {
	line := b.Sp.Start
	c.beginScope()
	c.compileExpr(b.Left)
	pipedSlot := c.declareLocal("$piped")

	call, ok := b.Right.(*ast.CallExpr)
	if !ok {
		// Pipe into a non-call expression (a bare `lhs |> f`): evaluate rhs
		// and call it with the piped value as its sole argument.
		c.compileExpr(b.Right)
		c.emitLoadLocalSlot(pipedSlot, line)
		c.emit(bytecode.Call, line)
		c.emitByte(1, line)
		c.endScopeKeepingTop(line)
		return
	}

	c.compileExpr(call.Callee)
	hasPlaceholder := false
	for _, a := range call.Args {
		if _, isPH := a.(*ast.Placeholder); isPH {
			hasPlaceholder = true
			c.emitLoadLocalSlot(pipedSlot, line)
		} else {
			c.compileExpr(a)
		}
	}
	argc := len(call.Args)
	if !hasPlaceholder {
		c.emitLoadLocalSlot(pipedSlot, line)
		argc++
	}
	c.emit(bytecode.Call, line)
	c.emitByte(byte(argc), line)
	c.endScopeKeepingTop(line)
}

func (c *Compiler) compileCall(ex *ast.CallExpr) {
	line := ex.Sp.Start
	c.compileExpr(ex.Callee)
	for _, a := range ex.Args {
		c.compileExpr(a)
	}
	c.emit(bytecode.Call, line)
	c.emitByte(byte(len(ex.Args)), line)
}

func (c *Compiler) compileIf(ex *ast.IfExpr) {
	line := ex.Sp.Start
	c.compileExpr(ex.Cond)
	thenJump := c.emitJump(bytecode.JumpIfFalse, line)
	c.emit(bytecode.Pop, line)
	c.compileBlockBody(ex.Then)
	elseJump := c.emitJump(bytecode.Jump, line)
	c.patchJump(thenJump)
	c.emit(bytecode.Pop, line)
	if ex.Else != nil {
		c.compileExpr(ex.Else)
	} else {
		c.emit(bytecode.Null, line)
	}
	c.patchJump(elseJump)
}

func (c *Compiler) compileMatch(ex *ast.MatchExpr) {
	line := ex.Sp.Start
	c.beginScope()
	c.compileExpr(ex.Subject)
	subjectSlot := c.declareLocal("$subject")

	var endJumps []int
	for _, arm := range ex.Arms {
		c.compileMatchArmTest(arm.Pattern, subjectSlot, line)
		if arm.Guard != nil {
			noMatch := c.emitJump(bytecode.JumpIfFalse, line)
			c.emit(bytecode.Pop, line)
			c.beginScope()
			c.bindPatternFromSlot(arm.Pattern, subjectSlot, line)
			c.compileExpr(arm.Guard)
			guardJump := c.emitJump(bytecode.JumpIfFalse, line)
			c.emit(bytecode.Pop, line)
			c.compileExpr(arm.Body)
			c.endScopeKeepingTop(line)
			jump := c.emitJump(bytecode.Jump, line)
			endJumps = append(endJumps, jump)
			c.patchJump(guardJump)
			c.emit(bytecode.Pop, line)
			c.endScope(line)
			c.patchJump(noMatch)
			c.emit(bytecode.Pop, line)
			continue
		}
		noMatch := c.emitJump(bytecode.JumpIfFalse, line)
		c.emit(bytecode.Pop, line)
		c.beginScope()
		c.bindPatternFromSlot(arm.Pattern, subjectSlot, line)
		c.compileExpr(arm.Body)
		c.endScopeKeepingTop(line)
		jump := c.emitJump(bytecode.Jump, line)
		endJumps = append(endJumps, jump)
		c.patchJump(noMatch)
		c.emit(bytecode.Pop, line)
	}
	// No arm matched: the match evaluates to null (the checker does not
	// check matches for exhaustiveness).
	c.emit(bytecode.Null, line)
	for _, j := range endJumps {
		c.patchJump(j)
	}
	c.endScopeKeepingTop(line)
}

func (c *Compiler) compileLambda(ex *ast.LambdaExpr) {
	line := ex.Sp.Start
	var body *ast.BlockExpr
	if b, ok := ex.Body.(*ast.BlockExpr); ok {
		body = b
	} else {
		body = &ast.BlockExpr{Tail: ex.Body, Sp: ex.Sp}
	}
	fn := c.compileFunctionBody("<lambda>", ex.Params, body, ex.IsAsync)
	c.emitClosure(fn, line)
}

func (c *Compiler) compileStringInterp(ex *ast.StringInterpExpr) {
	line := ex.Sp.Start
	if len(ex.Parts) == 0 {
		c.emitConstant("", line)
		return
	}
	first := true
	for _, part := range ex.Parts {
		if part.Expr != nil {
			c.compileExpr(part.Expr)
		} else {
			c.emitConstant(part.Literal, line)
		}
		if !first {
			c.emit(bytecode.StringConcat, line)
		}
		first = false
	}
}

func (c *Compiler) compileStructInit(ex *ast.StructInitExpr) {
	line := ex.Sp.Start
	for _, f := range ex.Fields {
		c.emitConstant(f.Name, line)
		if f.Value != nil {
			c.compileExpr(f.Value)
		} else {
			c.emitLoadName(f.Name, line)
		}
	}
	c.emit(bytecode.NewStruct, line)
	c.emitU16(c.constIndex(ex.TypeName), line)
	c.emitByte(byte(len(ex.Fields)), line)
}

func (c *Compiler) compileEnumVariant(ex *ast.EnumVariantExpr) {
	line := ex.Sp.Start
	name := ex.VariantName
	if ex.EnumName != "" {
		name = ex.EnumName + "." + ex.VariantName
	}
	if len(ex.Fields) > 0 {
		// Struct-style payload: build it as a single Struct value keyed by
		// the enum+variant name, then wrap with argc 1.
		for _, f := range ex.Fields {
			c.emitConstant(f.Name, line)
			if f.Value != nil {
				c.compileExpr(f.Value)
			} else {
				c.emitLoadName(f.Name, line)
			}
		}
		c.emit(bytecode.NewStruct, line)
		c.emitU16(c.constIndex(name), line)
		c.emitByte(byte(len(ex.Fields)), line)
		c.emit(bytecode.NewEnumVariant, line)
		c.emitU16(c.constIndex(name), line)
		c.emitByte(1, line)
		return
	}
	for _, a := range ex.Args {
		c.compileExpr(a)
	}
	c.emit(bytecode.NewEnumVariant, line)
	c.emitU16(c.constIndex(name), line)
	c.emitByte(byte(len(ex.Args)), line)
}
