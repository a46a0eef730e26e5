package compiler

import (
	"github.com/horizonanalytic/stratum/internal/ast"
	"github.com/horizonanalytic/stratum/internal/bytecode"
	"github.com/horizonanalytic/stratum/internal/vm"
)

func (c *Compiler) compileItem(item ast.Item) {
	switch it := item.(type) {
	case *ast.FunctionItem:
		c.compileFunctionItem(it)
	case *ast.ImplItem:
		for _, m := range it.Methods {
			c.compileFunctionItem(m)
		}
	case *ast.StructItem, *ast.EnumItem, *ast.InterfaceItem, *ast.ImportItem:
		// declarations only; the checker's Registry carries their shape,
		// nothing to emit at the top level.
	}
}

// compileFunctionItem compiles a named top-level function and defines it as
// a global binding under its declared name.
func (c *Compiler) compileFunctionItem(it *ast.FunctionItem) {
	fn := c.compileFunctionBody(it.Name, it.Params, it.Body, it.IsAsync)
	line := it.Sp.Start
	c.emitClosure(fn, line)
	c.emit(bytecode.DefineGlobal, line)
	c.emitU16(c.constIndex(it.Name), line)
}

// emitClosure emits a Closure instruction (constant-pool index for fn
// followed by the upvalue descriptor bytes produced by the most recent
// compileFunctionBody call). Closure reads its function operand as a direct
// constant-pool reference, unlike Const/other opcodes that are always
// preceded by a separate opcode byte.
func (c *Compiler) emitClosure(fn *vm.Function, line int) {
	c.emit(bytecode.Closure, line)
	c.emitU16(c.constIndex(fn), line)
	descriptors := c.pendingUpvalues
	c.emitByte(byte(len(descriptors)), line)
	for _, u := range descriptors {
		if u.isLocal {
			c.emitByte(1, line)
		} else {
			c.emitByte(0, line)
		}
		c.emitByte(byte(u.index), line)
	}
}

// compileFunctionBody compiles params+body into a fresh funcState and
// returns the resulting *vm.Function, restoring c.cur to the caller's
// funcState before returning. The caller is responsible for emitting the
// Closure opcode (with the correct upvalue descriptor bytes, which were
// written into the child funcState and are copied out here).
func (c *Compiler) compileFunctionBody(name string, params []ast.Param, body *ast.BlockExpr, isAsync bool) *vm.Function {
	parent := c.cur
	fs := &funcState{
		enclosing: parent,
		chunk:     bytecode.NewChunk(name),
		name:      name,
		arity:     len(params),
		isAsync:   isAsync,
	}
	c.cur = fs
	c.beginScope()
	// Slot 0 of every frame holds the callee closure; params start at 1.
	c.declareLocal("")
	for _, p := range params {
		c.declareLocal(p.Name)
	}
	tail := c.compileBlockBody(body)
	line := body.Sp.End
	if !tail {
		c.emit(bytecode.Null, line)
	}
	c.emit(bytecode.Return, line)
	upvalueCount := len(fs.upvalues)
	descriptors := fs.upvalues
	c.cur = parent
	fn := &vm.Function{Name: name, Arity: len(params), UpvalueCount: upvalueCount, Chunk: fs.chunk}
	c.pendingUpvalues = descriptors
	return fn
}

// compileBlockBody emits a block's statements followed by its tail
// expression (if any), leaving exactly one value on the stack representing
// the block's result. Returns whether a tail expression was present.
func (c *Compiler) compileBlockBody(b *ast.BlockExpr) bool {
	c.beginScope()
	for _, s := range b.Stmts {
		c.compileStmt(s)
	}
	hasTail := b.Tail != nil
	if hasTail {
		c.compileExpr(b.Tail)
	}
	// endScope pops locals declared in this block; if there's a tail value
	// already on the stack above them, rotate it below the pops instead of
	// losing it: emit PopBelow(n) in place of the per-local Pop/CloseUpvalue
	// sequence when a tail value is live.
	if hasTail {
		c.endScopeKeepingTop(b.Sp.End)
	} else {
		c.endScope(b.Sp.End)
	}
	return hasTail
}

// endScopeKeepingTop closes the current scope's locals while preserving a
// single live value already pushed on top of the stack (a block's tail
// expression), using PopBelow to discard the locals underneath it. Locals
// closed this way are not individually CloseUpvalue'd first: a block whose
// trailing expression is a closure capturing one of that same block's own
// locals keeps the upvalue open past the block (captured() still marks it,
// but PopBelow discards the stack slot without closing it first). Nested
// function/loop bodies, which use plain endScope, don't hit this path.
func (c *Compiler) endScopeKeepingTop(line int) {
	c.cur.scopeDepth--
	fs := c.cur
	n := 0
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scopeDepth {
		fs.locals = fs.locals[:len(fs.locals)-1]
		n++
	}
	if n == 0 {
		return
	}
	c.emit(bytecode.PopBelow, line)
	c.emitByte(byte(n), line)
}
