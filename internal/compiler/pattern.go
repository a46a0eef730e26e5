package compiler

import (
	"github.com/horizonanalytic/stratum/internal/ast"
	"github.com/horizonanalytic/stratum/internal/bytecode"
)

// compileLetBinding expects the bound value already pushed on top of the
// stack, stores it in a fresh local slot, and destructures pat from there.
func (c *Compiler) compileLetBinding(pat ast.Pattern, line int) {
	tmp := c.declareLocal("$let")
	c.bindPatternFromSlot(pat, tmp, line)
}

// bindPatternFromSlot declares one new local per name bound by pat, reading
// from the already-materialized value in slot. Every declareLocal call here
// is immediately preceded by the matching push, keeping locals and stack
// slots in lockstep the way the rest of the compiler assumes.
func (c *Compiler) bindPatternFromSlot(pat ast.Pattern, slot int, line int) {
	switch p := pat.(type) {
	case *ast.IdentPattern:
		c.emitLoadLocalSlot(slot, line)
		c.declareLocal(p.Name)
	case *ast.WildcardPattern:
		// nothing to bind
	case *ast.LiteralPattern:
		// nothing to bind; equality is checked by the match-arm dispatch
		// that called into this pattern, not here.
	case *ast.ListPattern:
		for i, elem := range p.Elements {
			c.emitLoadLocalSlot(slot, line)
			c.emitConstant(int64(i), line)
			c.emit(bytecode.GetIndex, line)
			inner := c.declareLocal("$elem")
			c.bindPatternFromSlot(elem, inner, line)
		}
		if p.Rest != "" {
			// No slice opcode exists; bind the rest name to the whole
			// receiver list. Callers that need the true tail must index
			// manually — list rest-patterns beyond simple forwarding are a
			// known gap.
			c.emitLoadLocalSlot(slot, line)
			c.declareLocal(p.Rest)
		}
	case *ast.StructPattern:
		for _, f := range p.Fields {
			c.emitLoadLocalSlot(slot, line)
			c.emit(bytecode.GetField, line)
			c.emitU16(c.constIndex(f.Name), line)
			inner := c.declareLocal("$field")
			c.bindPatternFromSlot(f.Pattern, inner, line)
		}
	case *ast.VariantPattern:
		if len(p.Binders) == 1 {
			c.emitLoadLocalSlot(slot, line)
			c.emit(bytecode.GetField, line)
			c.emitU16(c.constIndex("data"), line)
			inner := c.declareLocal("$data")
			c.bindPatternFromSlot(p.Binders[0], inner, line)
		} else if len(p.Binders) > 1 {
			for i, b := range p.Binders {
				c.emitLoadLocalSlot(slot, line)
				c.emit(bytecode.GetField, line)
				c.emitU16(c.constIndex("data"), line)
				c.emitConstant(int64(i), line)
				c.emit(bytecode.GetIndex, line)
				inner := c.declareLocal("$data_elem")
				c.bindPatternFromSlot(b, inner, line)
			}
		}
		for _, f := range p.Fields {
			c.emitLoadLocalSlot(slot, line)
			c.emit(bytecode.GetField, line)
			c.emitU16(c.constIndex("data"), line)
			c.emit(bytecode.GetField, line)
			c.emitU16(c.constIndex(f.Name), line)
			inner := c.declareLocal("$variant_field")
			c.bindPatternFromSlot(f.Pattern, inner, line)
		}
	case *ast.OrPattern:
		if len(p.Alternatives) > 0 {
			c.bindPatternFromSlot(p.Alternatives[0], slot, line)
		}
	}
}

// compileMatchArmTest emits code that leaves a Bool on top of the stack:
// whether the value in subjectSlot matches pat. It does not bind anything.
func (c *Compiler) compileMatchArmTest(pat ast.Pattern, subjectSlot int, line int) {
	switch p := pat.(type) {
	case *ast.WildcardPattern, *ast.IdentPattern:
		c.emit(bytecode.True, line)
	case *ast.LiteralPattern:
		c.emitLoadLocalSlot(subjectSlot, line)
		c.compileExpr(p.Value)
		c.emit(bytecode.Eq, line)
	case *ast.VariantPattern:
		c.emitLoadLocalSlot(subjectSlot, line)
		c.emit(bytecode.MatchVariant, line)
		name := p.VariantName
		if p.EnumName != "" {
			name = p.EnumName + "." + p.VariantName
		}
		c.emitU16(c.constIndex(name), line)
	case *ast.StructPattern:
		c.emitLoadLocalSlot(subjectSlot, line)
		c.emit(bytecode.IsInstance, line)
		c.emitU16(c.constIndex(p.TypeName), line)
	case *ast.ListPattern:
		c.emitLoadLocalSlot(subjectSlot, line)
		c.emit(bytecode.Invoke, line)
		c.emitU16(c.constIndex("length"), line)
		c.emitByte(0, line)
		c.emitConstant(int64(len(p.Elements)), line)
		if p.Rest != "" {
			c.emit(bytecode.Ge, line)
		} else {
			c.emit(bytecode.Eq, line)
		}
	case *ast.OrPattern:
		var endJumps []int
		for i, alt := range p.Alternatives {
			c.compileMatchArmTest(alt, subjectSlot, line)
			if i == len(p.Alternatives)-1 {
				break
			}
			endJumps = append(endJumps, c.emitJump(bytecode.JumpIfTrue, line))
			c.emit(bytecode.Pop, line)
		}
		for _, j := range endJumps {
			c.patchJump(j)
		}
	default:
		c.emit(bytecode.True, line)
	}
}
