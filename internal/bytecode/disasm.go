package bytecode

import "fmt"

// Disassemble renders the entire chunk as human-readable text, one
// instruction per line, in the style of a `disasm` CLI subcommand.
func Disassemble(c *Chunk, name string) string {
	out := fmt.Sprintf("== %s ==\n", name)
	offset := 0
	for offset < len(c.Code) {
		var line string
		line, offset = disassembleInstruction(c, offset)
		out += line + "\n"
	}
	return out
}

func disassembleInstruction(c *Chunk, offset int) (string, int) {
	op := Op(c.Code[offset])
	line := c.GetLine(offset)
	prefix := fmt.Sprintf("%04d %4d %s", offset, line, op)

	switch op {
	case Const, LoadGlobal, StoreGlobal, DefineGlobal,
		GetField, SetField, GetProperty, NullSafeGetField, IsInstance, MatchVariant:
		idx := c.ReadU16(offset + 1)
		return fmt.Sprintf("%-28s %4d '%v'", prefix, idx, constantAt(c, idx)), offset + 3
	case LoadLocal, StoreLocal, LoadUpvalue, StoreUpvalue, Call, NewList, NewMap, PopBelow:
		slot := c.Code[offset+1]
		return fmt.Sprintf("%-28s %4d", prefix, slot), offset + 2
	case Jump, JumpIfFalse, JumpIfTrue, JumpIfNull, JumpIfNotNull, PopJumpIfNull, Loop, IterNext:
		rel := c.ReadI16(offset + 1)
		target := offset + 3 + int(rel)
		return fmt.Sprintf("%-28s -> %d", prefix, target), offset + 3
	case Closure:
		idx := c.ReadU16(offset + 1)
		next := offset + 3
		upCount := int(c.Code[next])
		next++
		desc := fmt.Sprintf("%-28s %4d upvalues=%d", prefix, idx, upCount)
		next += upCount * 2
		return desc, next
	case PushHandler:
		catchIP := c.ReadI16(offset + 1)
		finallyIP := c.ReadI16(offset + 3)
		return fmt.Sprintf("%-28s catch=%d finally=%d", prefix, catchIP, finallyIP), offset + 5
	case NewEnumVariant, NewStruct, Invoke:
		idx := c.ReadU16(offset + 1)
		argc := c.Code[offset+3]
		return fmt.Sprintf("%-28s %4d argc=%d", prefix, idx, argc), offset + 4
	default:
		return prefix, offset + 1
	}
}

func constantAt(c *Chunk, idx uint16) any {
	if int(idx) >= len(c.Constants) {
		return nil
	}
	return c.Constants[idx]
}
