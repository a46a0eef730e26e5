// Package compiler lowers a checked AST into bytecode.Chunk instructions
// for internal/vm to execute. It resolves names to local slots, upvalue
// indices, or globals at compile time the way a single-pass bytecode
// compiler does, emitting jumps with a patch-after-the-fact backpatching
// scheme for forward targets and direct relative offsets for loops.
package compiler

import (
	"github.com/horizonanalytic/stratum/internal/ast"
	"github.com/horizonanalytic/stratum/internal/bytecode"
	"github.com/horizonanalytic/stratum/internal/diagnostics"
	"github.com/horizonanalytic/stratum/internal/token"
	"github.com/horizonanalytic/stratum/internal/vm"
)

const (
	CodeTooManyLocals  diagnostics.Code = "too-many-locals"
	CodeUnresolvedName diagnostics.Code = "unresolved-name"
)

type localVar struct {
	name     string
	depth    int
	captured bool
}

type upvalueDesc struct {
	isLocal bool
	index   int
}

type loopState struct {
	continueTarget int
	breakJumps     []int
}

// funcState is one function body's compilation context: its own chunk,
// local-variable stack, and a link to the enclosing function so upvalue
// resolution can walk outward.
type funcState struct {
	enclosing  *funcState
	chunk      *bytecode.Chunk
	locals     []localVar
	scopeDepth int
	upvalues   []upvalueDesc
	loops      []loopState
	arity      int
	isAsync    bool
	name       string
}

// Compiler drives lowering of a whole Module into a top-level Chunk, with
// nested function/lambda bodies compiled into their own Chunks and wrapped
// as *vm.Function constants referenced via the Closure opcode.
type Compiler struct {
	cur   *funcState
	diags *diagnostics.Bag

	// pendingUpvalues carries the most recently compiled nested function
	// body's upvalue descriptors from compileFunctionBody to the call site
	// that emits its Closure instruction.
	pendingUpvalues []upvalueDesc
}

// Compile lowers mod into a top-level Chunk ready for vm.Run. When the
// module defines a top-level `main`, the chunk ends by calling it and
// returning its result; otherwise it returns null.
func Compile(mod *ast.Module) (*bytecode.Chunk, *diagnostics.Bag) {
	c := &Compiler{diags: &diagnostics.Bag{}}
	c.cur = &funcState{chunk: bytecode.NewChunk("<script>"), name: "<script>"}
	hasMain := false
	for _, item := range mod.Items {
		c.compileItem(item)
		if fn, ok := item.(*ast.FunctionItem); ok && fn.Name == "main" {
			hasMain = true
		}
	}
	if hasMain {
		c.emit(bytecode.LoadGlobal, 0)
		c.emitU16(c.constIndex("main"), 0)
		c.emit(bytecode.Call, 0)
		c.emitByte(0, 0)
	} else {
		c.emit(bytecode.Null, 0)
	}
	c.emit(bytecode.Return, 0)
	return c.cur.chunk, c.diags
}

func (c *Compiler) errAt(code diagnostics.Code, sp token.Span, format string, args ...any) {
	c.diags.Addf(code, sp, 0, 0, format, args...)
}

// ---- low-level emission ------------------------------------------------------

func (c *Compiler) chunk() *bytecode.Chunk { return c.cur.chunk }

func (c *Compiler) emit(op bytecode.Op, line int) int {
	return c.chunk().WriteOp(op, line)
}

func (c *Compiler) emitByte(b byte, line int) {
	c.chunk().WriteByte(b, line)
}

func (c *Compiler) emitU16(v uint16, line int) int {
	return c.chunk().WriteU16(v, line)
}

func (c *Compiler) emitConstant(v any, line int) {
	c.chunk().WriteConstant(v, line)
}

func (c *Compiler) constIndex(v any) uint16 {
	return c.chunk().AddConstant(v)
}

// emitJump writes op followed by a placeholder 2-byte offset, returning the
// offset of the operand for a later patchJump call.
func (c *Compiler) emitJump(op bytecode.Op, line int) int {
	c.emit(op, line)
	return c.emitU16(0, line)
}

// patchJump backfills the jump operand at offset with the relative distance
// from just after the operand to the current end of the chunk.
func (c *Compiler) patchJump(operandOffset int) {
	target := len(c.chunk().Code) - (operandOffset + 2)
	c.chunk().PatchU16(operandOffset, uint16(int16(target)))
}

// emitLoop writes a Loop instruction jumping backward to target.
func (c *Compiler) emitLoop(target int, line int) {
	c.emit(bytecode.Loop, line)
	offset := target - (len(c.chunk().Code) + 2)
	c.emitU16(uint16(int16(offset)), line)
}

// ---- scopes and locals --------------------------------------------------------

func (c *Compiler) beginScope() { c.cur.scopeDepth++ }

func (c *Compiler) endScope(line int) {
	c.cur.scopeDepth--
	fs := c.cur
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scopeDepth {
		last := fs.locals[len(fs.locals)-1]
		if last.captured {
			c.emit(bytecode.CloseUpvalue, line)
		} else {
			c.emit(bytecode.Pop, line)
		}
		fs.locals = fs.locals[:len(fs.locals)-1]
	}
}

func (c *Compiler) declareLocal(name string) int {
	fs := c.cur
	fs.locals = append(fs.locals, localVar{name: name, depth: fs.scopeDepth})
	if len(fs.locals) > 255 {
		c.errAt(CodeTooManyLocals, token.Span{}, "too many locals in function %q", fs.name)
	}
	return len(fs.locals) - 1
}

func resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return i
		}
	}
	return -1
}

func addUpvalue(fs *funcState, index int, isLocal bool) int {
	for i, u := range fs.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, upvalueDesc{isLocal: isLocal, index: index})
	return len(fs.upvalues) - 1
}

func resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if slot := resolveLocal(fs.enclosing, name); slot != -1 {
		fs.enclosing.locals[slot].captured = true
		return addUpvalue(fs, slot, true)
	}
	if up := resolveUpvalue(fs.enclosing, name); up != -1 {
		return addUpvalue(fs, up, false)
	}
	return -1
}

// ---- name resolution used by both reads and writes --------------------------

type nameKind int

const (
	nameLocal nameKind = iota
	nameUpvalue
	nameGlobal
)

func (c *Compiler) resolveName(name string) (nameKind, int) {
	if slot := resolveLocal(c.cur, name); slot != -1 {
		return nameLocal, slot
	}
	if up := resolveUpvalue(c.cur, name); up != -1 {
		return nameUpvalue, up
	}
	return nameGlobal, 0
}

func (c *Compiler) emitLoadName(name string, line int) {
	kind, slot := c.resolveName(name)
	switch kind {
	case nameLocal:
		c.emit(bytecode.LoadLocal, line)
		c.emitByte(byte(slot), line)
	case nameUpvalue:
		c.emit(bytecode.LoadUpvalue, line)
		c.emitByte(byte(slot), line)
	default:
		c.emit(bytecode.LoadGlobal, line)
		c.emitU16(c.constIndex(name), line)
	}
}

func (c *Compiler) emitLoadLocalSlot(slot int, line int) {
	c.emit(bytecode.LoadLocal, line)
	c.emitByte(byte(slot), line)
}

func (c *Compiler) emitStoreName(name string, line int) {
	kind, slot := c.resolveName(name)
	switch kind {
	case nameLocal:
		c.emit(bytecode.StoreLocal, line)
		c.emitByte(byte(slot), line)
	case nameUpvalue:
		c.emit(bytecode.StoreUpvalue, line)
		c.emitByte(byte(slot), line)
	default:
		c.emit(bytecode.StoreGlobal, line)
		c.emitU16(c.constIndex(name), line)
	}
}

