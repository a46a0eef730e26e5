// Package bytecode defines the Chunk container and the opcode set the
// compiler emits and the VM executes.
package bytecode

// Op is a single-byte instruction opcode.
type Op byte

const (
	Const Op = iota
	Null
	True
	False
	Pop
	Dup
	PopBelow
	LoadLocal
	StoreLocal
	LoadGlobal
	StoreGlobal
	DefineGlobal
	LoadUpvalue
	StoreUpvalue
	CloseUpvalue
	Add
	Sub
	Mul
	Div
	Mod
	Neg
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	Not
	Jump
	JumpIfFalse
	JumpIfTrue
	JumpIfNull
	JumpIfNotNull
	PopJumpIfNull
	Loop
	Call
	Return
	Closure
	GetField
	SetField
	GetProperty
	GetIndex
	SetIndex
	NewList
	NewMap
	NewStruct
	GetIter
	IterNext
	Throw
	PushHandler
	PopHandler
	StringConcat
	NewRange
	NewRangeInclusive
	IsNull
	IsInstance
	Invoke
	NewEnumVariant
	MatchVariant
	NullSafeGetField
	NullSafeGetIndex
	Await
	Breakpoint
)

var names = map[Op]string{
	Const: "CONST", Null: "NULL", True: "TRUE", False: "FALSE",
	Pop: "POP", Dup: "DUP", PopBelow: "POP_BELOW",
	LoadLocal: "LOAD_LOCAL", StoreLocal: "STORE_LOCAL",
	LoadGlobal: "LOAD_GLOBAL", StoreGlobal: "STORE_GLOBAL", DefineGlobal: "DEFINE_GLOBAL",
	LoadUpvalue: "LOAD_UPVALUE", StoreUpvalue: "STORE_UPVALUE", CloseUpvalue: "CLOSE_UPVALUE",
	Add: "ADD", Sub: "SUB", Mul: "MUL", Div: "DIV", Mod: "MOD", Neg: "NEG",
	Eq: "EQ", Ne: "NE", Lt: "LT", Le: "LE", Gt: "GT", Ge: "GE", Not: "NOT",
	Jump: "JUMP", JumpIfFalse: "JUMP_IF_FALSE", JumpIfTrue: "JUMP_IF_TRUE",
	JumpIfNull: "JUMP_IF_NULL", JumpIfNotNull: "JUMP_IF_NOT_NULL",
	PopJumpIfNull: "POP_JUMP_IF_NULL", Loop: "LOOP",
	Call: "CALL", Return: "RETURN", Closure: "CLOSURE",
	GetField: "GET_FIELD", SetField: "SET_FIELD", GetProperty: "GET_PROPERTY",
	GetIndex: "GET_INDEX", SetIndex: "SET_INDEX",
	NewList: "NEW_LIST", NewMap: "NEW_MAP", NewStruct: "NEW_STRUCT",
	GetIter: "GET_ITER", IterNext: "ITER_NEXT",
	Throw: "THROW", PushHandler: "PUSH_HANDLER", PopHandler: "POP_HANDLER",
	StringConcat: "STRING_CONCAT",
	NewRange: "NEW_RANGE", NewRangeInclusive: "NEW_RANGE_INCLUSIVE",
	IsNull: "IS_NULL", IsInstance: "IS_INSTANCE", Invoke: "INVOKE",
	NewEnumVariant: "NEW_ENUM_VARIANT", MatchVariant: "MATCH_VARIANT",
	NullSafeGetField: "NULL_SAFE_GET_FIELD", NullSafeGetIndex: "NULL_SAFE_GET_INDEX",
	Await: "AWAIT", Breakpoint: "BREAKPOINT",
}

func (o Op) String() string {
	if s, ok := names[o]; ok {
		return s
	}
	return "UNKNOWN_OP"
}
