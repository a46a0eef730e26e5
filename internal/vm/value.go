// Package vm implements the stack-based bytecode interpreter: the Value
// runtime, call frames, exception handling, and the main dispatch loop.
package vm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/horizonanalytic/stratum/internal/bytecode"
)

// Value is any runtime value a Stratum program can hold. Null is
// represented as a nil Value; every other variant is one of the concrete
// types below. Using `any` rather than a tagged struct keeps each variant
// as an ordinary Go value (so e.g. Int is just int64, no boxing overhead
// beyond the interface word) while a type switch plays the role of the
// reference implementation's enum match.
type Value any

// List is the runtime representation of `List<T>`: a shared, mutable,
// reference-counted-by-GC slice.
type List struct {
	Items []Value
}

// Map is the runtime representation of `Map<K, V>`, keyed by the string
// form of a hashable Value (see HashKey) so that any hashable Value can be
// a key while Go's map machinery stays untouched.
type Map struct {
	keys   map[string]Value
	values map[string]Value
	order  []string
}

func NewMap() *Map {
	return &Map{keys: map[string]Value{}, values: map[string]Value{}}
}

func (m *Map) Set(k, v Value) error {
	hk, err := HashKey(k)
	if err != nil {
		return err
	}
	if _, exists := m.keys[hk]; !exists {
		m.order = append(m.order, hk)
	}
	m.keys[hk] = k
	m.values[hk] = v
	return nil
}

func (m *Map) Get(k Value) (Value, bool, error) {
	hk, err := HashKey(k)
	if err != nil {
		return nil, false, err
	}
	v, ok := m.values[hk]
	return v, ok, nil
}

func (m *Map) Remove(k Value) (bool, error) {
	hk, err := HashKey(k)
	if err != nil {
		return false, err
	}
	if _, ok := m.values[hk]; !ok {
		return false, nil
	}
	delete(m.values, hk)
	delete(m.keys, hk)
	for i, o := range m.order {
		if o == hk {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *Map) Len() int { return len(m.order) }

func (m *Map) Keys() []Value {
	out := make([]Value, 0, len(m.order))
	for _, hk := range m.order {
		out = append(out, m.keys[hk])
	}
	return out
}

func (m *Map) Values() []Value {
	out := make([]Value, 0, len(m.order))
	for _, hk := range m.order {
		out = append(out, m.values[hk])
	}
	return out
}

func (m *Map) Clear() {
	m.keys = map[string]Value{}
	m.values = map[string]Value{}
	m.order = nil
}

// HashKey produces a stable string key for a Value, or an error for
// unhashable variants (List, Map, Struct, Closure), matching the
// `UnhashableType` runtime error.
func HashKey(v Value) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case bool:
		return fmt.Sprintf("b:%v", x), nil
	case int64:
		return fmt.Sprintf("i:%d", x), nil
	case float64:
		return fmt.Sprintf("f:%v", x), nil
	case string:
		return "s:" + x, nil
	default:
		return "", &RuntimeError{Kind: ErrUnhashableType, Message: fmt.Sprintf("unhashable type: %s", TypeName(v))}
	}
}

// Range is a half-open or inclusive integer range, also iterable as a list
// of ints via GetIter/IterNext.
type Range struct {
	Start     int64
	End       int64
	Inclusive bool
}

// Iterator is implemented by every iterable runtime representation
// (Range, *List, string, *Map) once GetIter has normalized it.
type Iterator interface {
	Next() (Value, bool)
}

// Function is a compiled, not-yet-closed-over function: its chunk plus
// arity/upvalue metadata. Closure wraps a Function with captured upvalues.
type Function struct {
	Name         string
	Arity        int
	IsVariadic   bool
	UpvalueCount int
	Chunk        *bytecode.Chunk
}

// Upvalue is either Open (still pointing at a live stack slot in an
// enclosing frame) or Closed (the value has been copied out because its
// owning frame returned).
type Upvalue struct {
	StackIndex int
	Closed     bool
	Value      Value
}

type Closure struct {
	Function *Function
	Upvalues []*Upvalue
}

// NativeFunction wraps a Go function exposed to Stratum code. Arity -1
// marks a variadic builtin.
type NativeFunction struct {
	Name  string
	Arity int
	Fn    func(vm *VM, args []Value) (Value, error)
}

// BoundMethod pairs a receiver with a method closure, produced by
// `GetProperty` when the property resolves to a struct's method field.
type BoundMethod struct {
	Receiver Value
	Method   *Closure
}

// Struct is a runtime struct instance: a named, mutable field bag.
type Struct struct {
	TypeName string
	Fields   map[string]Value
}

// EnumVariant is a runtime enum value: which variant of which enum, plus an
// optional payload (the value itself for a one-value payload, a *List for
// several values, a *Struct for struct-style payloads, or nil for unit
// variants).
type EnumVariant struct {
	EnumName    string
	VariantName string
	Data        Value
}

// NativeNamespace is a reference to an external, interface-only namespace
// (e.g. `Http`, `Db`) that the VM does not implement itself; attempting to
// invoke through one resolves via whatever embedder registered it with
// DefineNative.
type NativeNamespace string

// Future represents an in-flight or resolved async computation. `Await`
// does not wait and does not check Done: it yields Value, or fails with Err
// when Err is set.
type Future struct {
	Done  bool
	Value Value
	Err   error
}

// GuiElement and DbConnection are opaque handles: the language specifies
// only their existence as a Value variant, not their behavior, so the VM
// treats them as inert payloads an embedder can populate via NativeFunction
// return values.
type GuiElement struct{ Handle any }
type DbConnection struct{ Handle any }

// TypeName returns the runtime type name used in error messages and by the
// `type_of` builtin.
func TypeName(v Value) string {
	switch x := v.(type) {
	case nil:
		return "Null"
	case bool:
		return "Bool"
	case int64:
		return "Int"
	case float64:
		return "Float"
	case string:
		return "String"
	case *List:
		return "List"
	case *Map:
		return "Map"
	case Range:
		return "Range"
	case Iterator:
		return "Iterator"
	case *Function:
		return "Function"
	case *Closure:
		return "Function"
	case *NativeFunction:
		return "Function"
	case *BoundMethod:
		return "Function"
	case *Struct:
		return x.TypeName
	case *EnumVariant:
		return x.EnumName
	case NativeNamespace:
		return string(x)
	case *Future:
		return "Future"
	case *GuiElement:
		return "GuiElement"
	case *DbConnection:
		return "DbConnection"
	default:
		return "Unknown"
	}
}

// Truthy implements Stratum's truthiness rule used by JumpIfFalse and
// friends: only `false` and `null` are falsy.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	default:
		return true
	}
}

// Equal implements structural `==` across all Value variants.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}
		return false
	case float64:
		switch y := b.(type) {
		case int64:
			return x == float64(y)
		case float64:
			return x == y
		}
		return false
	case string:
		y, ok := b.(string)
		return ok && x == y
	case Range:
		y, ok := b.(Range)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !Equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.Keys() {
			xv, _, _ := x.Get(k)
			yv, found, _ := y.Get(k)
			if !found || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case *Struct:
		y, ok := b.(*Struct)
		if !ok || x.TypeName != y.TypeName || len(x.Fields) != len(y.Fields) {
			return false
		}
		for k, v := range x.Fields {
			yv, ok := y.Fields[k]
			if !ok || !Equal(v, yv) {
				return false
			}
		}
		return true
	case *EnumVariant:
		y, ok := b.(*EnumVariant)
		return ok && x.EnumName == y.EnumName && x.VariantName == y.VariantName && Equal(x.Data, y.Data)
	default:
		return false
	}
}

// Inspect renders v as Stratum source-like text, used by `to_string`/`print`.
func Inspect(v Value) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return fmt.Sprintf("%v", x)
	case int64:
		return fmt.Sprintf("%d", x)
	case float64:
		return fmt.Sprintf("%g", x)
	case string:
		return x
	case Range:
		op := ".."
		if x.Inclusive {
			op = "..="
		}
		return fmt.Sprintf("%d%s%d", x.Start, op, x.End)
	case *List:
		parts := make([]string, len(x.Items))
		for i, it := range x.Items {
			parts[i] = quoteIfString(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Map:
		keys := append([]Value(nil), x.Keys()...)
		sort.Slice(keys, func(i, j int) bool { return Inspect(keys[i]) < Inspect(keys[j]) })
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			v, _, _ := x.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", quoteIfString(k), quoteIfString(v)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Struct:
		parts := make([]string, 0, len(x.Fields))
		for k, v := range x.Fields {
			parts = append(parts, fmt.Sprintf("%s: %s", k, quoteIfString(v)))
		}
		sort.Strings(parts)
		return fmt.Sprintf("%s { %s }", x.TypeName, strings.Join(parts, ", "))
	case *EnumVariant:
		if x.Data == nil {
			return fmt.Sprintf("%s.%s", x.EnumName, x.VariantName)
		}
		return fmt.Sprintf("%s.%s(%s)", x.EnumName, x.VariantName, Inspect(x.Data))
	case *Function:
		return fmt.Sprintf("<fn %s>", x.Name)
	case *Closure:
		return fmt.Sprintf("<fn %s>", x.Function.Name)
	case *NativeFunction:
		return fmt.Sprintf("<native fn %s>", x.Name)
	default:
		return fmt.Sprintf("<%s>", TypeName(v))
	}
}

func quoteIfString(v Value) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return Inspect(v)
}
