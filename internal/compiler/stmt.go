package compiler

import (
	"github.com/horizonanalytic/stratum/internal/ast"
	"github.com/horizonanalytic/stratum/internal/bytecode"
)

func (c *Compiler) compileStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.LetStmt:
		c.compileExpr(st.Value)
		c.compileLetBinding(st.Pattern, st.Sp.Start)
	case *ast.ExprStmt:
		c.compileExpr(st.Expr)
		c.emit(bytecode.Pop, st.Sp.Start)
	case *ast.AssignStmt:
		c.compileAssign(st)
	case *ast.ReturnStmt:
		line := st.Sp.Start
		if st.Value != nil {
			c.compileExpr(st.Value)
		} else {
			c.emit(bytecode.Null, line)
		}
		c.emit(bytecode.Return, line)
	case *ast.ForStmt:
		c.compileFor(st)
	case *ast.WhileStmt:
		c.compileWhile(st)
	case *ast.LoopStmt:
		c.compileLoop(st)
	case *ast.BreakStmt:
		c.compileBreak(st.Sp.Start)
	case *ast.ContinueStmt:
		c.compileContinue(st.Sp.Start)
	case *ast.TryStmt:
		c.compileTry(st)
	case *ast.ThrowStmt:
		c.compileExpr(st.Value)
		c.emit(bytecode.Throw, st.Sp.Start)
	}
}

func (c *Compiler) compileAssign(st *ast.AssignStmt) {
	line := st.Sp.Start
	switch target := st.Target.(type) {
	case *ast.Identifier:
		if st.Op != ast.AssignPlain {
			c.emitLoadName(target.Name, line)
			c.compileExpr(st.Value)
			c.emitCompoundOp(st.Op, line)
		} else {
			c.compileExpr(st.Value)
		}
		c.emitStoreName(target.Name, line)
		c.emit(bytecode.Pop, line)
	case *ast.FieldExpr:
		c.compileExpr(target.Receiver)
		if st.Op != ast.AssignPlain {
			c.emit(bytecode.Dup, line)
			c.emit(bytecode.GetProperty, line)
			c.emitU16(c.constIndex(target.Name), line)
			c.compileExpr(st.Value)
			c.emitCompoundOp(st.Op, line)
		} else {
			c.compileExpr(st.Value)
		}
		c.emit(bytecode.SetField, line)
		c.emitU16(c.constIndex(target.Name), line)
		c.emit(bytecode.Pop, line)
	case *ast.IndexExpr:
		c.beginScope()
		c.compileExpr(target.Receiver)
		recvSlot := c.declareLocal("$recv")
		c.compileExpr(target.Index)
		idxSlot := c.declareLocal("$idx")
		if st.Op != ast.AssignPlain {
			c.emitLoadLocalSlot(recvSlot, line)
			c.emitLoadLocalSlot(idxSlot, line)
			c.emit(bytecode.GetIndex, line)
			c.compileExpr(st.Value)
			c.emitCompoundOp(st.Op, line)
		} else {
			c.compileExpr(st.Value)
		}
		valueSlot := c.declareLocal("$value")
		c.emitLoadLocalSlot(recvSlot, line)
		c.emitLoadLocalSlot(idxSlot, line)
		c.emitLoadLocalSlot(valueSlot, line)
		c.emit(bytecode.SetIndex, line)
		c.emit(bytecode.Pop, line)
		c.endScope(line)
	default:
		c.compileExpr(st.Value)
		c.emit(bytecode.Pop, line)
	}
}

func (c *Compiler) emitCompoundOp(op ast.AssignOp, line int) {
	switch op {
	case ast.AssignAdd:
		c.emit(bytecode.Add, line)
	case ast.AssignSub:
		c.emit(bytecode.Sub, line)
	case ast.AssignMul:
		c.emit(bytecode.Mul, line)
	case ast.AssignDiv:
		c.emit(bytecode.Div, line)
	case ast.AssignMod:
		c.emit(bytecode.Mod, line)
	}
}

func (c *Compiler) compileFor(st *ast.ForStmt) {
	line := st.Sp.Start
	c.compileExpr(st.Iter)
	c.emit(bytecode.GetIter, line)
	c.beginScope()
	iterSlot := c.declareLocal("$iter")
	_ = iterSlot
	loopStart := len(c.chunk().Code)
	c.emitLoadLocalSlot(iterSlot, line)
	c.emit(bytecode.IterNext, line)
	exitJump := c.emitU16(0, line)
	c.pushLoop(loopStart)
	c.beginScope()
	c.declareLocal(st.Binder)
	for _, s := range st.Body.Stmts {
		c.compileStmt(s)
	}
	if st.Body.Tail != nil {
		c.compileExpr(st.Body.Tail)
		c.emit(bytecode.Pop, line)
	}
	c.endScope(line)
	c.emitLoop(loopStart, line)
	exitTarget := len(c.chunk().Code) - (exitJump + 2)
	c.chunk().PatchU16(exitJump, uint16(int16(exitTarget)))
	c.patchBreaks()
	c.endScope(line) // pops $iter
}

func (c *Compiler) compileWhile(st *ast.WhileStmt) {
	line := st.Sp.Start
	loopStart := len(c.chunk().Code)
	c.compileExpr(st.Cond)
	exitJump := c.emitJump(bytecode.JumpIfFalse, line)
	c.emit(bytecode.Pop, line)
	c.pushLoop(loopStart)
	c.beginScope()
	for _, s := range st.Body.Stmts {
		c.compileStmt(s)
	}
	if st.Body.Tail != nil {
		c.compileExpr(st.Body.Tail)
		c.emit(bytecode.Pop, line)
	}
	c.endScope(line)
	c.emitLoop(loopStart, line)
	c.patchJump(exitJump)
	c.emit(bytecode.Pop, line)
	c.patchBreaks()
}

func (c *Compiler) compileLoop(st *ast.LoopStmt) {
	line := st.Sp.Start
	loopStart := len(c.chunk().Code)
	c.pushLoop(loopStart)
	c.beginScope()
	for _, s := range st.Body.Stmts {
		c.compileStmt(s)
	}
	if st.Body.Tail != nil {
		c.compileExpr(st.Body.Tail)
		c.emit(bytecode.Pop, line)
	}
	c.endScope(line)
	c.emitLoop(loopStart, line)
	c.patchBreaks()
}

func (c *Compiler) pushLoop(start int) {
	c.cur.loops = append(c.cur.loops, loopState{continueTarget: start})
}

func (c *Compiler) patchBreaks() {
	loops := c.cur.loops
	top := loops[len(loops)-1]
	for _, j := range top.breakJumps {
		c.patchJump(j)
	}
	c.cur.loops = loops[:len(loops)-1]
}

func (c *Compiler) compileBreak(line int) {
	if len(c.cur.loops) == 0 {
		return
	}
	j := c.emitJump(bytecode.Jump, line)
	top := len(c.cur.loops) - 1
	c.cur.loops[top].breakJumps = append(c.cur.loops[top].breakJumps, j)
}

func (c *Compiler) compileContinue(line int) {
	if len(c.cur.loops) == 0 {
		return
	}
	target := c.cur.loops[len(c.cur.loops)-1].continueTarget
	c.emitLoop(target, line)
}

func (c *Compiler) compileTry(st *ast.TryStmt) {
	line := st.Sp.Start
	c.emit(bytecode.PushHandler, line)
	catchOperand := c.emitU16(uint16(int16(-1)), line)
	finallyOperand := c.emitU16(uint16(int16(-1)), line)

	c.beginScope()
	for _, s := range st.Body.Stmts {
		c.compileStmt(s)
	}
	if st.Body.Tail != nil {
		c.compileExpr(st.Body.Tail)
		c.emit(bytecode.Pop, line)
	}
	c.endScope(line)
	c.emit(bytecode.PopHandler, line)
	skipCatch := c.emitJump(bytecode.Jump, line)

	catchTarget := len(c.chunk().Code)
	c.chunk().PatchU16(catchOperand, uint16(catchTarget))
	if st.Catch != nil {
		c.beginScope()
		if st.Catch.Binder != "" {
			c.declareLocal(st.Catch.Binder)
		} else {
			c.emit(bytecode.Pop, line)
		}
		for _, s := range st.Catch.Body.Stmts {
			c.compileStmt(s)
		}
		if st.Catch.Body.Tail != nil {
			c.compileExpr(st.Catch.Body.Tail)
			c.emit(bytecode.Pop, line)
		}
		c.endScope(line)
	} else {
		c.emit(bytecode.Pop, line)
	}
	c.patchJump(skipCatch)

	if st.Finally != nil {
		finallyTarget := len(c.chunk().Code)
		c.chunk().PatchU16(finallyOperand, uint16(finallyTarget))
		c.beginScope()
		for _, s := range st.Finally.Stmts {
			c.compileStmt(s)
		}
		if st.Finally.Tail != nil {
			c.compileExpr(st.Finally.Tail)
			c.emit(bytecode.Pop, line)
		}
		c.endScope(line)
	}
}
