// Package ast defines the syntax tree produced by internal/parser. Every
// node carries a byte-offset Span into the source it was parsed from. Nodes
// are plain structs dispatched on with type switches rather than a visitor
// interface: the grammar is flat enough that a switch reads better than a
// double-dispatch hierarchy.
package ast

import "github.com/horizonanalytic/stratum/internal/token"

// Node is implemented by every AST node.
type Node interface {
	Span() token.Span
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Pattern is implemented by every match/let pattern node.
type Pattern interface {
	Node
	patternNode()
}

// Item is implemented by every top-level declaration node.
type Item interface {
	Node
	itemNode()
}

// TypeAnnotation is implemented by every written type node (as opposed to
// internal/types.Type, which is the checker's inferred representation).
type TypeAnnotation interface {
	Node
	typeAnnotationNode()
}

// Module is the root of a parsed file.
type Module struct {
	Items []Item
	Sp    token.Span
}

func (m *Module) Span() token.Span { return m.Sp }

// ---- Expressions ----------------------------------------------------------

type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitBigInt
	LitRational
	LitBool
	LitString
	LitChar
	LitNull
)

type Literal struct {
	Kind  LiteralKind
	Value any
	Sp    token.Span
}

func (l *Literal) Span() token.Span { return l.Sp }
func (*Literal) exprNode()          {}

type Identifier struct {
	Name string
	Sp   token.Span
}

func (i *Identifier) Span() token.Span { return i.Sp }
func (*Identifier) exprNode()          {}

// Placeholder is the bare `_` used inside pipe-call arguments.
type Placeholder struct {
	Sp token.Span
}

func (p *Placeholder) Span() token.Span { return p.Sp }
func (*Placeholder) exprNode()          {}

// ColumnShorthand is `.name`, shorthand for a field/enum-variant access whose
// receiver type is inferred from context (e.g. match arms, expected enum type).
type ColumnShorthand struct {
	Name string
	Sp   token.Span
}

func (c *ColumnShorthand) Span() token.Span { return c.Sp }
func (*ColumnShorthand) exprNode()          {}

// StateBinding is `&expr`, marking a reference binding captured by a closure
// or loop variable (see spec.md §3).
type StateBinding struct {
	Target Expr
	Sp     token.Span
}

func (s *StateBinding) Span() token.Span { return s.Sp }
func (*StateBinding) exprNode()          {}

type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpPipe     // |>
	OpCoalesce // ??
	OpRange    // ..
	OpRangeInc // ..=
)

type BinaryExpr struct {
	Op    BinOp
	Left  Expr
	Right Expr
	Sp    token.Span
}

func (b *BinaryExpr) Span() token.Span { return b.Sp }
func (*BinaryExpr) exprNode()          {}

type UnOp int

const (
	OpNeg UnOp = iota
	OpNot
)

type UnaryExpr struct {
	Op   UnOp
	Expr Expr
	Sp   token.Span
}

func (u *UnaryExpr) Span() token.Span { return u.Sp }
func (*UnaryExpr) exprNode()          {}

type CallExpr struct {
	Callee Expr
	Args   []Expr
	Sp     token.Span
}

func (c *CallExpr) Span() token.Span { return c.Sp }
func (*CallExpr) exprNode()          {}

type IndexExpr struct {
	Receiver  Expr
	Index     Expr
	NullSafe  bool // `?.[` form
	Sp        token.Span
}

func (i *IndexExpr) Span() token.Span { return i.Sp }
func (*IndexExpr) exprNode()          {}

type FieldExpr struct {
	Receiver Expr
	Name     string
	NullSafe bool // `?.` form
	Sp       token.Span
}

func (f *FieldExpr) Span() token.Span { return f.Sp }
func (*FieldExpr) exprNode()          {}

type ParenExpr struct {
	Inner Expr
	Sp    token.Span
}

func (p *ParenExpr) Span() token.Span { return p.Sp }
func (*ParenExpr) exprNode()          {}

type IfExpr struct {
	Cond Expr
	Then *BlockExpr
	Else Expr // *BlockExpr or *IfExpr or nil
	Sp   token.Span
}

func (i *IfExpr) Span() token.Span { return i.Sp }
func (*IfExpr) exprNode()          {}

type MatchArm struct {
	Pattern Pattern
	Guard   Expr // optional `if` guard, nil if absent
	Body    Expr
	Sp      token.Span
}

type MatchExpr struct {
	Subject Expr
	Arms    []MatchArm
	Sp      token.Span
}

func (m *MatchExpr) Span() token.Span { return m.Sp }
func (*MatchExpr) exprNode()          {}

type Param struct {
	Name string
	Type TypeAnnotation // nil if inferred
	Sp   token.Span
}

type LambdaExpr struct {
	Params   []Param
	RetType  TypeAnnotation // nil if inferred
	Body     Expr           // *BlockExpr, or a bare expression for `|x| x + 1`
	IsAsync  bool
	Sp       token.Span
}

func (l *LambdaExpr) Span() token.Span { return l.Sp }
func (*LambdaExpr) exprNode()          {}

type BlockExpr struct {
	Stmts []Stmt
	Tail  Expr // trailing expression with no semicolon, or nil
	Sp    token.Span
}

func (b *BlockExpr) Span() token.Span { return b.Sp }
func (*BlockExpr) exprNode()          {}

type ListExpr struct {
	Elements []Expr
	Sp       token.Span
}

func (l *ListExpr) Span() token.Span { return l.Sp }
func (*ListExpr) exprNode()          {}

type MapEntry struct {
	Key   Expr
	Value Expr
}

type MapExpr struct {
	Entries []MapEntry
	Sp      token.Span
}

func (m *MapExpr) Span() token.Span { return m.Sp }
func (*MapExpr) exprNode()          {}

// StringPart is either a literal chunk or an interpolated expression, in
// source order, matching the lexer's StringStart/StringPart/InterpolationStart
// /InterpolationEnd/StringEnd token sequence.
type StringPart struct {
	Literal string // valid when Expr == nil
	Expr    Expr   // valid when non-nil
}

type StringInterpExpr struct {
	Parts []StringPart
	Sp    token.Span
}

func (s *StringInterpExpr) Span() token.Span { return s.Sp }
func (*StringInterpExpr) exprNode()          {}

type StructFieldInit struct {
	Name  string
	Value Expr // nil for shorthand `name` meaning `name: name`
	Sp    token.Span
}

type StructInitExpr struct {
	TypeName string
	Fields   []StructFieldInit
	Sp       token.Span
}

func (s *StructInitExpr) Span() token.Span { return s.Sp }
func (*StructInitExpr) exprNode()          {}

type EnumVariantExpr struct {
	EnumName    string // "" if inferred from ColumnShorthand-like context
	VariantName string
	Args        []Expr // positional tuple payload, empty if none
	Fields      []StructFieldInit // struct-style payload, empty if none
	Sp          token.Span
}

func (e *EnumVariantExpr) Span() token.Span { return e.Sp }
func (*EnumVariantExpr) exprNode()          {}

type AwaitExpr struct {
	Inner Expr
	Sp    token.Span
}

func (a *AwaitExpr) Span() token.Span { return a.Sp }
func (*AwaitExpr) exprNode()          {}

// TryExpr is the `try expr` form used inside an enclosing try/catch/finally
// statement to make the propagation point explicit in the AST.
type TryExpr struct {
	Inner Expr
	Sp    token.Span
}

func (t *TryExpr) Span() token.Span { return t.Sp }
func (*TryExpr) exprNode()          {}

// ---- Statements ------------------------------------------------------------

type LetStmt struct {
	Pattern Pattern
	Type    TypeAnnotation // nil if inferred
	Mut     bool
	Value   Expr
	Sp      token.Span
}

func (l *LetStmt) Span() token.Span { return l.Sp }
func (*LetStmt) stmtNode()          {}

type ExprStmt struct {
	Expr Expr
	Sp   token.Span
}

func (e *ExprStmt) Span() token.Span { return e.Sp }
func (*ExprStmt) stmtNode()          {}

type AssignOp int

const (
	AssignPlain AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
)

type AssignStmt struct {
	Op     AssignOp
	Target Expr
	Value  Expr
	Sp     token.Span
}

func (a *AssignStmt) Span() token.Span { return a.Sp }
func (*AssignStmt) stmtNode()          {}

type ReturnStmt struct {
	Value Expr // nil for bare `return`
	Sp    token.Span
}

func (r *ReturnStmt) Span() token.Span { return r.Sp }
func (*ReturnStmt) stmtNode()          {}

type ForStmt struct {
	Binder string
	Iter   Expr
	Body   *BlockExpr
	Sp     token.Span
}

func (f *ForStmt) Span() token.Span { return f.Sp }
func (*ForStmt) stmtNode()          {}

type WhileStmt struct {
	Cond Expr
	Body *BlockExpr
	Sp   token.Span
}

func (w *WhileStmt) Span() token.Span { return w.Sp }
func (*WhileStmt) stmtNode()          {}

type LoopStmt struct {
	Body *BlockExpr
	Sp   token.Span
}

func (l *LoopStmt) Span() token.Span { return l.Sp }
func (*LoopStmt) stmtNode()          {}

type BreakStmt struct {
	Sp token.Span
}

func (b *BreakStmt) Span() token.Span { return b.Sp }
func (*BreakStmt) stmtNode()          {}

type ContinueStmt struct {
	Sp token.Span
}

func (c *ContinueStmt) Span() token.Span { return c.Sp }
func (*ContinueStmt) stmtNode()          {}

type CatchClause struct {
	Binder string // name bound to the caught value, "" if discarded
	Body   *BlockExpr
	Sp     token.Span
}

type TryStmt struct {
	Body    *BlockExpr
	Catch   *CatchClause // nil if absent
	Finally *BlockExpr   // nil if absent
	Sp      token.Span
}

func (t *TryStmt) Span() token.Span { return t.Sp }
func (*TryStmt) stmtNode()          {}

type ThrowStmt struct {
	Value Expr
	Sp    token.Span
}

func (t *ThrowStmt) Span() token.Span { return t.Sp }
func (*ThrowStmt) stmtNode()          {}

// ---- Patterns ---------------------------------------------------------------

type WildcardPattern struct {
	Sp token.Span
}

func (w *WildcardPattern) Span() token.Span { return w.Sp }
func (*WildcardPattern) patternNode()       {}

type IdentPattern struct {
	Name string
	Sp   token.Span
}

func (i *IdentPattern) Span() token.Span { return i.Sp }
func (*IdentPattern) patternNode()       {}

type LiteralPattern struct {
	Value Expr // *Literal
	Sp    token.Span
}

func (l *LiteralPattern) Span() token.Span { return l.Sp }
func (*LiteralPattern) patternNode()       {}

type VariantPattern struct {
	EnumName    string
	VariantName string
	Binders     []Pattern // tuple-payload sub-patterns
	Fields      []FieldPattern
	Sp          token.Span
}

func (v *VariantPattern) Span() token.Span { return v.Sp }
func (*VariantPattern) patternNode()       {}

type FieldPattern struct {
	Name    string
	Pattern Pattern
}

type StructPattern struct {
	TypeName string
	Fields   []FieldPattern
	Sp       token.Span
}

func (s *StructPattern) Span() token.Span { return s.Sp }
func (*StructPattern) patternNode()       {}

type ListPattern struct {
	Elements []Pattern
	Rest     string // name bound to the remaining tail, "" if no `...rest`
	Sp       token.Span
}

func (l *ListPattern) Span() token.Span { return l.Sp }
func (*ListPattern) patternNode()       {}

type OrPattern struct {
	Alternatives []Pattern
	Sp           token.Span
}

func (o *OrPattern) Span() token.Span { return o.Sp }
func (*OrPattern) patternNode()       {}

// ---- Type annotations --------------------------------------------------------

type NamedType struct {
	Name     string
	TypeArgs []TypeAnnotation
	Sp       token.Span
}

func (n *NamedType) Span() token.Span  { return n.Sp }
func (*NamedType) typeAnnotationNode() {}

type NullableType struct {
	Inner TypeAnnotation
	Sp    token.Span
}

func (n *NullableType) Span() token.Span  { return n.Sp }
func (*NullableType) typeAnnotationNode() {}

type FunctionType struct {
	Params []TypeAnnotation
	Ret    TypeAnnotation
	Sp     token.Span
}

func (f *FunctionType) Span() token.Span  { return f.Sp }
func (*FunctionType) typeAnnotationNode() {}

type TupleType struct {
	Elements []TypeAnnotation
	Sp       token.Span
}

func (t *TupleType) Span() token.Span  { return t.Sp }
func (*TupleType) typeAnnotationNode() {}

// ListShorthandType is `[T]`, sugar for `List<T>`.
type ListShorthandType struct {
	Element TypeAnnotation
	Sp      token.Span
}

func (l *ListShorthandType) Span() token.Span  { return l.Sp }
func (*ListShorthandType) typeAnnotationNode() {}

type UnitType struct {
	Sp token.Span
}

func (u *UnitType) Span() token.Span  { return u.Sp }
func (*UnitType) typeAnnotationNode() {}

type NeverType struct {
	Sp token.Span
}

func (n *NeverType) Span() token.Span  { return n.Sp }
func (*NeverType) typeAnnotationNode() {}

// InferredType marks an omitted annotation (`let x = 1`), distinguished from
// a literal `_` the way the checker expects it.
type InferredType struct {
	Sp token.Span
}

func (i *InferredType) Span() token.Span  { return i.Sp }
func (*InferredType) typeAnnotationNode() {}

// ---- Items --------------------------------------------------------------------

type Attribute struct {
	Name string
	Args []Expr
	Sp   token.Span
}

type TypeParam struct {
	Name       string
	Interfaces []string // bounds, e.g. `T: Comparable`
}

type FunctionItem struct {
	Name       string
	TypeParams []TypeParam
	Params     []Param
	RetType    TypeAnnotation // nil means Unit
	Body       *BlockExpr
	IsAsync    bool
	Attrs      []Attribute
	Sp         token.Span
}

func (f *FunctionItem) Span() token.Span { return f.Sp }
func (*FunctionItem) itemNode()          {}

type FieldDecl struct {
	Name string
	Type TypeAnnotation
	Sp   token.Span
}

type StructItem struct {
	Name       string
	TypeParams []TypeParam
	Fields     []FieldDecl
	Sp         token.Span
}

func (s *StructItem) Span() token.Span { return s.Sp }
func (*StructItem) itemNode()          {}

type EnumVariantDecl struct {
	Name   string
	Tuple  []TypeAnnotation // positional payload types, empty if none
	Fields []FieldDecl      // struct payload fields, empty if none
	Sp     token.Span
}

type EnumItem struct {
	Name       string
	TypeParams []TypeParam
	Variants   []EnumVariantDecl
	Sp         token.Span
}

func (e *EnumItem) Span() token.Span { return e.Sp }
func (*EnumItem) itemNode()          {}

type InterfaceMethodSig struct {
	Name    string
	Params  []Param
	RetType TypeAnnotation
	Sp      token.Span
}

type InterfaceItem struct {
	Name    string
	Methods []InterfaceMethodSig
	Sp      token.Span
}

func (i *InterfaceItem) Span() token.Span { return i.Sp }
func (*InterfaceItem) itemNode()          {}

type ImplItem struct {
	InterfaceName string // "" for an inherent impl block
	TargetName    string
	TypeParams    []TypeParam
	Methods       []*FunctionItem
	Sp            token.Span
}

func (i *ImplItem) Span() token.Span { return i.Sp }
func (*ImplItem) itemNode()          {}

type ImportItem struct {
	Path  string
	Alias string // "" if none
	Sp    token.Span
}

func (i *ImportItem) Span() token.Span { return i.Sp }
func (*ImportItem) itemNode()          {}
