package vm

import (
	"fmt"
	"sort"
	"strings"
)

// invoke implements the Invoke opcode: a method call where the receiver and
// arguments are both already on the stack (unlike GetProperty+Call, which
// goes through a BoundMethod allocation). Stratum's compiler emits Invoke
// for direct `recv.method(args)` call sites as a fast path; the built-in
// method tables below are the GLOSSARY's method contract for String, List,
// and Map.
func (vm *VM) invoke(name string, argc int) error {
	args := make([]Value, argc)
	for i := argc - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		args[i] = v
	}
	recv, err := vm.pop()
	if err != nil {
		return err
	}

	if s, ok := recv.(*Struct); ok {
		if fieldVal, ok := s.Fields[name]; ok {
			if cl, ok := fieldVal.(*Closure); ok {
				result, err := vm.callClosureSync(cl, append([]Value{recv}, args...))
				if err != nil {
					return err
				}
				return vm.push(result)
			}
		}
	}

	var result Value
	switch x := recv.(type) {
	case string:
		result, err = vm.invokeString(x, name, args)
	case *List:
		result, err = vm.invokeList(x, name, args)
	case *Map:
		result, err = vm.invokeMap(x, name, args)
	default:
		return &RuntimeError{Kind: ErrUndefinedField, Message: fmt.Sprintf("%s has no method %q", TypeName(recv), name)}
	}
	if err != nil {
		return err
	}
	return vm.push(result)
}

func argStr(args []Value, i int) (string, error) {
	if i >= len(args) {
		return "", &RuntimeError{Kind: ErrArityMismatch, Message: "missing argument"}
	}
	s, ok := args[i].(string)
	if !ok {
		return "", typeErr("String", TypeName(args[i]), "argument")
	}
	return s, nil
}

func argInt(args []Value, i int) (int64, error) {
	if i >= len(args) {
		return 0, &RuntimeError{Kind: ErrArityMismatch, Message: "missing argument"}
	}
	v, ok := args[i].(int64)
	if !ok {
		return 0, typeErr("Int", TypeName(args[i]), "argument")
	}
	return v, nil
}

// invokeString implements the String method contract table.
func (vm *VM) invokeString(s string, name string, args []Value) (Value, error) {
	switch name {
	case "length", "len":
		return int64(len([]rune(s))), nil
	case "contains":
		sub, err := argStr(args, 0)
		if err != nil {
			return nil, err
		}
		return strings.Contains(s, sub), nil
	case "starts_with":
		sub, err := argStr(args, 0)
		if err != nil {
			return nil, err
		}
		return strings.HasPrefix(s, sub), nil
	case "ends_with":
		sub, err := argStr(args, 0)
		if err != nil {
			return nil, err
		}
		return strings.HasSuffix(s, sub), nil
	case "to_upper":
		return strings.ToUpper(s), nil
	case "to_lower":
		return strings.ToLower(s), nil
	case "trim":
		return strings.TrimSpace(s), nil
	case "trim_start":
		return strings.TrimLeft(s, " \t\n\r"), nil
	case "trim_end":
		return strings.TrimRight(s, " \t\n\r"), nil
	case "split":
		sep, err := argStr(args, 0)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(s, sep)
		items := make([]Value, len(parts))
		for i, p := range parts {
			items[i] = p
		}
		return &List{Items: items}, nil
	case "replace":
		old, err := argStr(args, 0)
		if err != nil {
			return nil, err
		}
		new_, err := argStr(args, 1)
		if err != nil {
			return nil, err
		}
		return strings.ReplaceAll(s, old, new_), nil
	case "substring":
		start, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		end, err := argInt(args, 1)
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		if start < 0 || end > int64(len(runes)) || start > end {
			return nil, &RuntimeError{Kind: ErrIndexOutOfBounds, Message: "substring out of bounds"}
		}
		return string(runes[start:end]), nil
	case "chars":
		runes := []rune(s)
		items := make([]Value, len(runes))
		for i, r := range runes {
			items[i] = string(r)
		}
		return &List{Items: items}, nil
	case "index_of":
		sub, err := argStr(args, 0)
		if err != nil {
			return nil, err
		}
		idx := strings.Index(s, sub)
		if idx < 0 {
			return int64(-1), nil
		}
		return int64(len([]rune(s[:idx]))), nil
	default:
		return nil, &RuntimeError{Kind: ErrUndefinedField, Message: fmt.Sprintf("String has no method %q", name)}
	}
}

// invokeList implements the List<T> method contract table, including the
// higher-order methods that re-enter the dispatch loop via
// callClosureSync.
func (vm *VM) invokeList(l *List, name string, args []Value) (Value, error) {
	switch name {
	case "length", "len":
		return int64(len(l.Items)), nil
	case "is_empty":
		return len(l.Items) == 0, nil
	case "push":
		if len(args) != 1 {
			return nil, &RuntimeError{Kind: ErrArityMismatch, Message: "push expects 1 argument"}
		}
		l.Items = append(l.Items, args[0])
		return l, nil
	case "pop":
		if len(l.Items) == 0 {
			return nil, nil
		}
		v := l.Items[len(l.Items)-1]
		l.Items = l.Items[:len(l.Items)-1]
		return v, nil
	case "first":
		if len(l.Items) == 0 {
			return nil, nil
		}
		return l.Items[0], nil
	case "last":
		if len(l.Items) == 0 {
			return nil, nil
		}
		return l.Items[len(l.Items)-1], nil
	case "contains":
		for _, it := range l.Items {
			if Equal(it, args[0]) {
				return true, nil
			}
		}
		return false, nil
	case "reverse":
		out := make([]Value, len(l.Items))
		for i, v := range l.Items {
			out[len(l.Items)-1-i] = v
		}
		return &List{Items: out}, nil
	case "join":
		sep, err := argStr(args, 0)
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(l.Items))
		for i, v := range l.Items {
			parts[i] = stringOf(v)
		}
		return strings.Join(parts, sep), nil
	case "sort":
		return vm.listSort(l, args)
	case "map":
		return vm.listMap(l, args)
	case "filter":
		return vm.listFilter(l, args)
	case "reduce":
		return vm.listReduce(l, args)
	case "find":
		return vm.listFind(l, args)
	default:
		return nil, &RuntimeError{Kind: ErrUndefinedField, Message: fmt.Sprintf("List has no method %q", name)}
	}
}

func asCallableClosure(v Value) (*Closure, error) {
	cl, ok := v.(*Closure)
	if !ok {
		return nil, typeErr("Function", TypeName(v), "callback argument")
	}
	return cl, nil
}

func (vm *VM) listSort(l *List, args []Value) (Value, error) {
	out := make([]Value, len(l.Items))
	copy(out, l.Items)
	if len(args) == 0 {
		sort.SliceStable(out, func(i, j int) bool { return lessDefault(out[i], out[j]) })
		return &List{Items: out}, nil
	}
	cmp, err := asCallableClosure(args[0])
	if err != nil {
		return nil, err
	}
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		result, err := vm.callClosureSync(cmp, []Value{out[i], out[j]})
		if err != nil {
			sortErr = err
			return false
		}
		n, _ := result.(int64)
		return n < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return &List{Items: out}, nil
}

func lessDefault(a, b Value) bool {
	af, _, aok := numeric(a)
	bf, _, bok := numeric(b)
	if aok && bok {
		return af < bf
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as < bs
	}
	return false
}

func (vm *VM) listMap(l *List, args []Value) (Value, error) {
	cl, err := asCallableClosure(args[0])
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(l.Items))
	for i, v := range l.Items {
		r, err := vm.callClosureSync(cl, []Value{v})
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return &List{Items: out}, nil
}

func (vm *VM) listFilter(l *List, args []Value) (Value, error) {
	cl, err := asCallableClosure(args[0])
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, v := range l.Items {
		r, err := vm.callClosureSync(cl, []Value{v})
		if err != nil {
			return nil, err
		}
		if Truthy(r) {
			out = append(out, v)
		}
	}
	return &List{Items: out}, nil
}

func (vm *VM) listReduce(l *List, args []Value) (Value, error) {
	cl, err := asCallableClosure(args[0])
	if err != nil {
		return nil, err
	}
	acc := args[1]
	for _, v := range l.Items {
		r, err := vm.callClosureSync(cl, []Value{acc, v})
		if err != nil {
			return nil, err
		}
		acc = r
	}
	return acc, nil
}

func (vm *VM) listFind(l *List, args []Value) (Value, error) {
	cl, err := asCallableClosure(args[0])
	if err != nil {
		return nil, err
	}
	for _, v := range l.Items {
		r, err := vm.callClosureSync(cl, []Value{v})
		if err != nil {
			return nil, err
		}
		if Truthy(r) {
			return v, nil
		}
	}
	return nil, nil
}

// invokeMap implements the Map<K, V> method contract table.
func (vm *VM) invokeMap(m *Map, name string, args []Value) (Value, error) {
	switch name {
	case "length", "len":
		return int64(m.Len()), nil
	case "is_empty":
		return m.Len() == 0, nil
	case "get":
		v, found, err := m.Get(args[0])
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return v, nil
	case "set":
		if err := m.Set(args[0], args[1]); err != nil {
			return nil, err
		}
		return m, nil
	case "remove":
		_, err := m.Remove(args[0])
		return m, err
	case "contains_key", "has":
		_, found, err := m.Get(args[0])
		if err != nil {
			return nil, err
		}
		return found, nil
	case "keys":
		return &List{Items: m.Keys()}, nil
	case "values":
		return &List{Items: m.Values()}, nil
	case "entries":
		keys := m.Keys()
		items := make([]Value, len(keys))
		for i, k := range keys {
			v, _, _ := m.Get(k)
			items[i] = &List{Items: []Value{k, v}}
		}
		return &List{Items: items}, nil
	case "clear":
		m.Clear()
		return nil, nil
	default:
		return nil, &RuntimeError{Kind: ErrUndefinedField, Message: fmt.Sprintf("Map has no method %q", name)}
	}
}
