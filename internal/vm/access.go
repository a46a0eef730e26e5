package vm

import "fmt"

// getField implements GetField: direct, non-computed field/property access
// used for struct fields and the built-in properties of Range/EnumVariant.
func (vm *VM) getField(recv Value, name string) (Value, error) {
	switch x := recv.(type) {
	case *Struct:
		if v, ok := x.Fields[name]; ok {
			return v, nil
		}
		return nil, &RuntimeError{Kind: ErrUndefinedField, Message: fmt.Sprintf("%s has no field %q", x.TypeName, name)}
	case Range:
		switch name {
		case "start":
			return x.Start, nil
		case "end":
			return x.End, nil
		case "inclusive":
			return x.Inclusive, nil
		}
	case *EnumVariant:
		switch name {
		case "name":
			return x.VariantName, nil
		case "data":
			return x.Data, nil
		}
	}
	return nil, &RuntimeError{Kind: ErrUndefinedField, Message: fmt.Sprintf("%s has no field %q", TypeName(recv), name)}
}

// getProperty implements GetProperty: field access that may additionally
// resolve to a bound method (a closure stored under the struct's type, or
// one of the built-in method tables).
func (vm *VM) getProperty(recv Value, name string) (Value, error) {
	if s, ok := recv.(*Struct); ok {
		if v, ok := s.Fields[name]; ok {
			if cl, ok := v.(*Closure); ok {
				return &BoundMethod{Receiver: recv, Method: cl}, nil
			}
			return v, nil
		}
	}
	return vm.getField(recv, name)
}

// getIndex implements GetIndex over List, Map, and String.
func (vm *VM) getIndex(recv, index Value) (Value, error) {
	switch x := recv.(type) {
	case *List:
		i, ok := index.(int64)
		if !ok {
			return nil, &RuntimeError{Kind: ErrInvalidIndexType, Message: "list index must be Int"}
		}
		if i < 0 || int(i) >= len(x.Items) {
			return nil, &RuntimeError{Kind: ErrIndexOutOfBounds, Message: fmt.Sprintf("index %d out of bounds (len %d)", i, len(x.Items))}
		}
		return x.Items[i], nil
	case *Map:
		v, found, err := x.Get(index)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return v, nil
	case string:
		i, ok := index.(int64)
		if !ok {
			return nil, &RuntimeError{Kind: ErrInvalidIndexType, Message: "string index must be Int"}
		}
		runes := []rune(x)
		if i < 0 || int(i) >= len(runes) {
			return nil, &RuntimeError{Kind: ErrIndexOutOfBounds, Message: fmt.Sprintf("index %d out of bounds (len %d)", i, len(runes))}
		}
		return string(runes[i]), nil
	default:
		return nil, &RuntimeError{Kind: ErrNotIterable, Message: fmt.Sprintf("%s is not indexable", TypeName(recv))}
	}
}

func (vm *VM) setIndex(recv, index, value Value) error {
	switch x := recv.(type) {
	case *List:
		i, ok := index.(int64)
		if !ok {
			return &RuntimeError{Kind: ErrInvalidIndexType, Message: "list index must be Int"}
		}
		if i < 0 || int(i) >= len(x.Items) {
			return &RuntimeError{Kind: ErrIndexOutOfBounds, Message: fmt.Sprintf("index %d out of bounds (len %d)", i, len(x.Items))}
		}
		x.Items[i] = value
		return nil
	case *Map:
		return x.Set(index, value)
	default:
		return &RuntimeError{Kind: ErrNotIterable, Message: fmt.Sprintf("%s is not index-assignable", TypeName(recv))}
	}
}

// ---- iteration --------------------------------------------------------------

type sliceIterator struct {
	items []Value
	pos   int
}

func (it *sliceIterator) Next() (Value, bool) {
	if it.pos >= len(it.items) {
		return nil, false
	}
	v := it.items[it.pos]
	it.pos++
	return v, true
}

type rangeIterator struct {
	cur, end int64
	inclusive bool
	done      bool
}

func (it *rangeIterator) Next() (Value, bool) {
	if it.done {
		return nil, false
	}
	if it.inclusive {
		if it.cur > it.end {
			return nil, false
		}
	} else if it.cur >= it.end {
		return nil, false
	}
	v := it.cur
	it.cur++
	return v, true
}

// makeIterator normalizes any iterable Value into an Iterator for GetIter.
func (vm *VM) makeIterator(v Value) (Iterator, error) {
	switch x := v.(type) {
	case Range:
		return &rangeIterator{cur: x.Start, end: x.End, inclusive: x.Inclusive}, nil
	case *List:
		items := make([]Value, len(x.Items))
		copy(items, x.Items)
		return &sliceIterator{items: items}, nil
	case string:
		runes := []rune(x)
		items := make([]Value, len(runes))
		for i, r := range runes {
			items[i] = string(r)
		}
		return &sliceIterator{items: items}, nil
	case *Map:
		items := make([]Value, 0, x.Len())
		for _, k := range x.Keys() {
			val, _, _ := x.Get(k)
			items = append(items, &List{Items: []Value{k, val}})
		}
		return &sliceIterator{items: items}, nil
	case Iterator:
		return x, nil
	default:
		return nil, &RuntimeError{Kind: ErrNotIterable, Message: fmt.Sprintf("%s is not iterable", TypeName(v))}
	}
}
