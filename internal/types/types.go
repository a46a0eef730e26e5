// Package types implements Stratum's Hindley-Milner-style type
// representation: the Type sum, substitutions, and unification. It has no
// dependency on internal/ast; internal/checker drives it against the tree.
package types

import (
	"fmt"
	"strings"
)

// Kind distinguishes the variants of Type, playing the role of a tag in an
// otherwise interface-based sum type.
type Kind int

const (
	KInt Kind = iota
	KFloat
	KBool
	KString
	KNull
	KUnit
	KNever
	KAny
	KError
	KRange
	KNamespace
	KTypeVar
	KList
	KMap
	KNullable
	KFuture
	KTuple
	KFunction
	KStruct
	KEnum
)

// Type is implemented by every type-system node. It is a small closed set,
// so String/Apply/FreeTypeVariables are implemented per-Kind here rather
// than through per-variant methods.
type Type struct {
	Kind Kind

	// KNamespace, KStruct, KEnum
	Name string
	// KTypeVar
	VarID int
	// KList element / KNullable inner / KFuture inner
	Elem *Type
	// KMap
	Key *Type
	Val *Type
	// KTuple
	Elems []Type
	// KFunction
	Params []Type
	Ret    *Type
	// KStruct, KEnum
	TypeArgs []Type
}

func Int() Type     { return Type{Kind: KInt} }
func Float() Type   { return Type{Kind: KFloat} }
func Bool() Type    { return Type{Kind: KBool} }
func String() Type  { return Type{Kind: KString} }
func Null() Type    { return Type{Kind: KNull} }
func Unit() Type    { return Type{Kind: KUnit} }
func Never() Type   { return Type{Kind: KNever} }
func Any() Type     { return Type{Kind: KAny} }
func ErrorT() Type  { return Type{Kind: KError} }
func RangeT() Type  { return Type{Kind: KRange} }

func Namespace(name string) Type { return Type{Kind: KNamespace, Name: name} }
func TypeVar(id int) Type        { return Type{Kind: KTypeVar, VarID: id} }

func List(elem Type) Type { return Type{Kind: KList, Elem: &elem} }
func MapT(k, v Type) Type { return Type{Kind: KMap, Key: &k, Val: &v} }
func Nullable(inner Type) Type {
	if inner.Kind == KNullable {
		return inner
	}
	return Type{Kind: KNullable, Elem: &inner}
}
func Future(inner Type) Type { return Type{Kind: KFuture, Elem: &inner} }
func Tuple(elems ...Type) Type { return Type{Kind: KTuple, Elems: elems} }
func Function(params []Type, ret Type) Type {
	return Type{Kind: KFunction, Params: params, Ret: &ret}
}
func Struct(name string, args ...Type) Type { return Type{Kind: KStruct, Name: name, TypeArgs: args} }
func Enum(name string, args ...Type) Type   { return Type{Kind: KEnum, Name: name, TypeArgs: args} }

func (t Type) String() string {
	switch t.Kind {
	case KInt:
		return "Int"
	case KFloat:
		return "Float"
	case KBool:
		return "Bool"
	case KString:
		return "String"
	case KNull:
		return "Null"
	case KUnit:
		return "Unit"
	case KNever:
		return "Never"
	case KAny:
		return "Any"
	case KError:
		return "Error"
	case KRange:
		return "Range"
	case KNamespace:
		return t.Name
	case KTypeVar:
		return fmt.Sprintf("T%d", t.VarID)
	case KList:
		return fmt.Sprintf("List<%s>", t.Elem.String())
	case KMap:
		return fmt.Sprintf("Map<%s, %s>", t.Key.String(), t.Val.String())
	case KNullable:
		return t.Elem.String() + "?"
	case KFuture:
		return fmt.Sprintf("Future<%s>", t.Elem.String())
	case KTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), t.Ret.String())
	case KStruct, KEnum:
		if len(t.TypeArgs) == 0 {
			return t.Name
		}
		parts := make([]string, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			parts[i] = a.String()
		}
		return fmt.Sprintf("%s<%s>", t.Name, strings.Join(parts, ", "))
	default:
		return "<?>"
	}
}

// Subst is a substitution from type-variable id to a concrete Type.
type Subst map[int]Type

func (s Subst) compose(other Subst) Subst {
	out := make(Subst, len(s)+len(other))
	for k, v := range other {
		out[k] = s.Apply(v)
	}
	for k, v := range s {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// Apply recursively substitutes type variables in t according to s.
func (s Subst) Apply(t Type) Type {
	switch t.Kind {
	case KTypeVar:
		if repl, ok := s[t.VarID]; ok {
			if repl.Kind == KTypeVar && repl.VarID == t.VarID {
				return repl
			}
			return s.Apply(repl)
		}
		return t
	case KList:
		e := s.Apply(*t.Elem)
		return Type{Kind: KList, Elem: &e}
	case KMap:
		k := s.Apply(*t.Key)
		v := s.Apply(*t.Val)
		return Type{Kind: KMap, Key: &k, Val: &v}
	case KNullable:
		e := s.Apply(*t.Elem)
		return Type{Kind: KNullable, Elem: &e}
	case KFuture:
		e := s.Apply(*t.Elem)
		return Type{Kind: KFuture, Elem: &e}
	case KTuple:
		elems := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = s.Apply(e)
		}
		return Type{Kind: KTuple, Elems: elems}
	case KFunction:
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = s.Apply(p)
		}
		ret := s.Apply(*t.Ret)
		return Type{Kind: KFunction, Params: params, Ret: &ret}
	case KStruct, KEnum:
		if len(t.TypeArgs) == 0 {
			return t
		}
		args := make([]Type, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			args[i] = s.Apply(a)
		}
		return Type{Kind: t.Kind, Name: t.Name, TypeArgs: args}
	default:
		return t
	}
}

// FreeTypeVariables returns the set of unbound type-variable ids in t.
func FreeTypeVariables(t Type) map[int]struct{} {
	out := map[int]struct{}{}
	var walk func(Type)
	walk = func(t Type) {
		switch t.Kind {
		case KTypeVar:
			out[t.VarID] = struct{}{}
		case KList, KNullable, KFuture:
			walk(*t.Elem)
		case KMap:
			walk(*t.Key)
			walk(*t.Val)
		case KTuple:
			for _, e := range t.Elems {
				walk(e)
			}
		case KFunction:
			for _, p := range t.Params {
				walk(p)
			}
			walk(*t.Ret)
		case KStruct, KEnum:
			for _, a := range t.TypeArgs {
				walk(a)
			}
		}
	}
	walk(t)
	return out
}

// Bind produces the singleton substitution tv := t, after an occurs check.
func Bind(varID int, t Type) (Subst, error) {
	if t.Kind == KTypeVar && t.VarID == varID {
		return Subst{}, nil
	}
	if _, occurs := FreeTypeVariables(t)[varID]; occurs {
		return nil, fmt.Errorf("occurs check failed: T%d occurs in %s", varID, t.String())
	}
	return Subst{varID: t}, nil
}

// Unify finds the most general substitution making t1 and t2 equal,
// following the teacher's unify.go algorithm shape: a fast structural-equal
// path, then a per-Kind recursive case split, then type-variable binding as
// the catch-all.
func Unify(t1, t2 Type) (Subst, error) {
	if t1.Kind == KAny || t2.Kind == KAny {
		return Subst{}, nil
	}
	if t1.Kind == KTypeVar {
		return Bind(t1.VarID, t2)
	}
	if t2.Kind == KTypeVar {
		return Bind(t2.VarID, t1)
	}
	if t1.Kind != t2.Kind {
		return nil, fmt.Errorf("cannot unify %s with %s", t1.String(), t2.String())
	}

	switch t1.Kind {
	case KInt, KFloat, KBool, KString, KNull, KUnit, KNever, KError, KRange:
		return Subst{}, nil
	case KNamespace:
		if t1.Name != t2.Name {
			return nil, fmt.Errorf("cannot unify namespace %s with %s", t1.Name, t2.Name)
		}
		return Subst{}, nil
	case KList, KNullable, KFuture:
		return Unify(*t1.Elem, *t2.Elem)
	case KMap:
		s1, err := Unify(*t1.Key, *t2.Key)
		if err != nil {
			return nil, err
		}
		s2, err := Unify(s1.Apply(*t1.Val), s1.Apply(*t2.Val))
		if err != nil {
			return nil, err
		}
		return s1.compose(s2), nil
	case KTuple:
		if len(t1.Elems) != len(t2.Elems) {
			return nil, fmt.Errorf("tuple arity mismatch: %d vs %d", len(t1.Elems), len(t2.Elems))
		}
		s := Subst{}
		for i := range t1.Elems {
			next, err := Unify(s.Apply(t1.Elems[i]), s.Apply(t2.Elems[i]))
			if err != nil {
				return nil, err
			}
			s = s.compose(next)
		}
		return s, nil
	case KFunction:
		if len(t1.Params) != len(t2.Params) {
			return nil, fmt.Errorf("function arity mismatch: %d vs %d", len(t1.Params), len(t2.Params))
		}
		s := Subst{}
		for i := range t1.Params {
			next, err := Unify(s.Apply(t1.Params[i]), s.Apply(t2.Params[i]))
			if err != nil {
				return nil, err
			}
			s = s.compose(next)
		}
		next, err := Unify(s.Apply(*t1.Ret), s.Apply(*t2.Ret))
		if err != nil {
			return nil, err
		}
		return s.compose(next), nil
	case KStruct, KEnum:
		if t1.Name != t2.Name {
			return nil, fmt.Errorf("cannot unify %s with %s", t1.Name, t2.Name)
		}
		if len(t1.TypeArgs) != len(t2.TypeArgs) {
			return nil, fmt.Errorf("type argument count mismatch for %s", t1.Name)
		}
		s := Subst{}
		for i := range t1.TypeArgs {
			next, err := Unify(s.Apply(t1.TypeArgs[i]), s.Apply(t2.TypeArgs[i]))
			if err != nil {
				return nil, err
			}
			s = s.compose(next)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("cannot unify %s with %s", t1.String(), t2.String())
	}
}

// VarGen hands out fresh type-variable ids, one per declaration site and
// one per instantiation site, matching the checker's generics strategy.
type VarGen struct {
	next int
}

func (g *VarGen) Fresh() Type {
	id := g.next
	g.next++
	return TypeVar(id)
}
