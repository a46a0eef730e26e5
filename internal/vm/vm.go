package vm

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/horizonanalytic/stratum/internal/bytecode"
)

const (
	MaxStack  = 65536
	MaxFrames = 256
	// maxSyncIterations bounds calls made by call_closure_sync (used by
	// map/filter/reduce/sort/find) so a runaway higher-order callback
	// cannot hang the embedding host.
	maxSyncIterations = 10000
)

// CallFrame is one activation record: which closure is executing, its
// instruction pointer, and where its locals begin on the value stack.
type CallFrame struct {
	Closure   *Closure
	IP        int
	StackBase int
}

// ExceptionHandler records one active try/catch/finally region so Throw can
// find where to unwind to.
type ExceptionHandler struct {
	FrameIndex int
	StackDepth int
	CatchIP    int
	FinallyIP  int // -1 if no finally clause
}

// VM is a single-threaded bytecode interpreter instance. It is not safe for
// concurrent use; an embedder wanting concurrency runs one VM per goroutine.
type VM struct {
	stack    []Value
	frames   []CallFrame
	handlers []ExceptionHandler

	globals      map[string]Value
	openUpvalues []*Upvalue

	natives map[string]*NativeFunction
}

// New creates an empty VM with no globals defined beyond what DefineNative
// registers.
func New() *VM {
	return &VM{
		globals: map[string]Value{},
		natives: map[string]*NativeFunction{},
	}
}

// DefineNative registers a Go-backed function under name, callable from
// Stratum code like any other global function.
func (vm *VM) DefineNative(name string, arity int, fn func(vm *VM, args []Value) (Value, error)) {
	nf := &NativeFunction{Name: name, Arity: arity, Fn: fn}
	vm.natives[name] = nf
	vm.globals[name] = nf
}

// Globals exposes the mutable global environment to an embedder (§6's
// embedding API: `vm.globals_mut()`).
func (vm *VM) Globals() map[string]Value { return vm.globals }

// Run compiles top-level `chunk` into an implicit closure and executes it,
// returning the value of its trailing expression (or Null) on success.
func (vm *VM) Run(chunk *bytecode.Chunk) (Value, error) {
	fn := &Function{Name: "<script>", Chunk: chunk}
	cl := &Closure{Function: fn}
	if err := vm.push(cl); err != nil {
		return nil, err
	}
	if err := vm.callValue(cl, 0); err != nil {
		return nil, err
	}
	return vm.run()
}

func (vm *VM) push(v Value) error {
	if len(vm.stack) >= MaxStack {
		return &RuntimeError{Kind: ErrStackOverflow, Message: "stack overflow"}
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() (Value, error) {
	if len(vm.stack) == 0 {
		return nil, &RuntimeError{Kind: ErrStackUnderflow, Message: "stack underflow"}
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

func (vm *VM) peek(distFromTop int) (Value, error) {
	idx := len(vm.stack) - 1 - distFromTop
	if idx < 0 {
		return nil, &RuntimeError{Kind: ErrStackUnderflow, Message: "stack underflow"}
	}
	return vm.stack[idx], nil
}

func (vm *VM) currentFrame() *CallFrame { return &vm.frames[len(vm.frames)-1] }

func (vm *VM) chunk() *bytecode.Chunk { return vm.currentFrame().Closure.Function.Chunk }

func (vm *VM) readByte() byte {
	f := vm.currentFrame()
	b := f.Closure.Function.Chunk.Code[f.IP]
	f.IP++
	return b
}

func (vm *VM) readU16() uint16 {
	f := vm.currentFrame()
	v := f.Closure.Function.Chunk.ReadU16(f.IP)
	f.IP += 2
	return v
}

func (vm *VM) readI16() int16 {
	f := vm.currentFrame()
	v := f.Closure.Function.Chunk.ReadI16(f.IP)
	f.IP += 2
	return v
}

func (vm *VM) readConstant() Value {
	idx := vm.readU16()
	return vm.chunk().Constants[idx]
}

// run is the main dispatch loop, returning once the originating frame
// returns or an unhandled error propagates out.
func (vm *VM) run() (Value, error) {
	startingFrameCount := len(vm.frames)
	for {
		if len(vm.frames) < startingFrameCount {
			// The originating call frame (and everything above it) has
			// returned; the result is on top of the stack.
			v, err := vm.pop()
			return v, err
		}
		op := bytecode.Op(vm.readByte())
		if err := vm.step(op); err != nil {
			if handled := vm.handleException(err); handled {
				continue
			}
			return nil, vm.attachTrace(err)
		}
	}
}

// step executes a single opcode, returning a *RuntimeError on failure. It
// special-cases Return the way the reference VM does: a return either
// leaves a value for the caller's `run` loop to observe (top-level/embedded
// call) or resumes the caller's frame with the value pushed onto its stack.
func (vm *VM) step(op bytecode.Op) error {
	switch op {
	case bytecode.Const:
		return vm.push(vm.readConstant())
	case bytecode.Null:
		return vm.push(nil)
	case bytecode.True:
		return vm.push(true)
	case bytecode.False:
		return vm.push(false)
	case bytecode.Pop:
		_, err := vm.pop()
		return err
	case bytecode.Dup:
		v, err := vm.peek(0)
		if err != nil {
			return err
		}
		return vm.push(v)
	case bytecode.PopBelow:
		n := int(vm.readByte())
		top, err := vm.pop()
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if _, err := vm.pop(); err != nil {
				return err
			}
		}
		return vm.push(top)

	case bytecode.LoadLocal:
		slot := int(vm.readByte())
		f := vm.currentFrame()
		return vm.push(vm.stack[f.StackBase+slot])
	case bytecode.StoreLocal:
		slot := int(vm.readByte())
		v, err := vm.peek(0)
		if err != nil {
			return err
		}
		f := vm.currentFrame()
		vm.stack[f.StackBase+slot] = v
		return nil

	case bytecode.LoadGlobal:
		name := vm.readConstant().(string)
		v, ok := vm.globals[name]
		if !ok {
			return &RuntimeError{Kind: ErrUndefinedVariable, Message: fmt.Sprintf("undefined variable %q", name)}
		}
		return vm.push(v)
	case bytecode.StoreGlobal:
		name := vm.readConstant().(string)
		v, err := vm.peek(0)
		if err != nil {
			return err
		}
		if _, ok := vm.globals[name]; !ok {
			return &RuntimeError{Kind: ErrUndefinedVariable, Message: fmt.Sprintf("undefined variable %q", name)}
		}
		vm.globals[name] = v
		return nil
	case bytecode.DefineGlobal:
		name := vm.readConstant().(string)
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.globals[name] = v
		return nil

	case bytecode.LoadUpvalue:
		slot := int(vm.readByte())
		up := vm.currentFrame().Closure.Upvalues[slot]
		return vm.push(vm.resolveUpvalue(up))
	case bytecode.StoreUpvalue:
		slot := int(vm.readByte())
		v, err := vm.peek(0)
		if err != nil {
			return err
		}
		up := vm.currentFrame().Closure.Upvalues[slot]
		if up.Closed {
			up.Value = v
		} else {
			vm.stack[up.StackIndex] = v
		}
		return nil
	case bytecode.CloseUpvalue:
		top := len(vm.stack) - 1
		vm.closeUpvalues(top)
		_, err := vm.pop()
		return err

	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod:
		return vm.binaryArith(op)
	case bytecode.Neg:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		switch x := v.(type) {
		case int64:
			return vm.push(-x)
		case float64:
			return vm.push(-x)
		default:
			return typeErr("Int or Float", TypeName(v), "unary -")
		}
	case bytecode.Not:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.push(!Truthy(v))

	case bytecode.Eq, bytecode.Ne, bytecode.Lt, bytecode.Le, bytecode.Gt, bytecode.Ge:
		return vm.comparisonOp(op)

	case bytecode.Jump:
		rel := vm.readI16()
		vm.currentFrame().IP += int(rel)
		return nil
	case bytecode.Loop:
		rel := vm.readI16()
		vm.currentFrame().IP += int(rel)
		return nil
	case bytecode.JumpIfFalse:
		rel := vm.readI16()
		v, err := vm.peek(0)
		if err != nil {
			return err
		}
		if !Truthy(v) {
			vm.currentFrame().IP += int(rel)
		}
		return nil
	case bytecode.JumpIfTrue:
		rel := vm.readI16()
		v, err := vm.peek(0)
		if err != nil {
			return err
		}
		if Truthy(v) {
			vm.currentFrame().IP += int(rel)
		}
		return nil
	case bytecode.JumpIfNull:
		rel := vm.readI16()
		v, err := vm.peek(0)
		if err != nil {
			return err
		}
		if v == nil {
			vm.currentFrame().IP += int(rel)
		}
		return nil
	case bytecode.JumpIfNotNull:
		rel := vm.readI16()
		v, err := vm.peek(0)
		if err != nil {
			return err
		}
		if v != nil {
			vm.currentFrame().IP += int(rel)
		}
		return nil
	case bytecode.PopJumpIfNull:
		rel := vm.readI16()
		v, err := vm.pop()
		if err != nil {
			return err
		}
		if v == nil {
			vm.currentFrame().IP += int(rel)
		}
		return nil

	case bytecode.Call:
		argc := int(vm.readByte())
		callee, err := vm.peek(argc)
		if err != nil {
			return err
		}
		return vm.callValue(callee, argc)

	case bytecode.Return:
		result, err := vm.pop()
		if err != nil {
			return err
		}
		frame := vm.frames[len(vm.frames)-1]
		vm.closeUpvalues(frame.StackBase)
		vm.stack = vm.stack[:frame.StackBase]
		vm.frames = vm.frames[:len(vm.frames)-1]
		if err := vm.push(result); err != nil {
			return err
		}
		return nil

	case bytecode.Closure:
		fnVal := vm.readConstant()
		fn := fnVal.(*Function)
		upCount := int(vm.readByte())
		cl := &Closure{Function: fn, Upvalues: make([]*Upvalue, upCount)}
		for i := 0; i < upCount; i++ {
			isLocal := vm.readByte()
			index := int(vm.readByte())
			if isLocal == 1 {
				cl.Upvalues[i] = vm.captureUpvalue(vm.currentFrame().StackBase + index)
			} else {
				cl.Upvalues[i] = vm.currentFrame().Closure.Upvalues[index]
			}
		}
		return vm.push(cl)

	case bytecode.GetField, bytecode.NullSafeGetField:
		name := vm.readConstant().(string)
		recv, err := vm.pop()
		if err != nil {
			return err
		}
		if recv == nil {
			if op == bytecode.NullSafeGetField {
				return vm.push(nil)
			}
			return &RuntimeError{Kind: ErrNullReference, Message: fmt.Sprintf("null reference accessing field %q", name)}
		}
		v, err := vm.getField(recv, name)
		if err != nil {
			return err
		}
		return vm.push(v)
	case bytecode.SetField:
		name := vm.readConstant().(string)
		value, err := vm.pop()
		if err != nil {
			return err
		}
		recv, err := vm.pop()
		if err != nil {
			return err
		}
		s, ok := recv.(*Struct)
		if !ok {
			return typeErr("Struct", TypeName(recv), "set field")
		}
		s.Fields[name] = value
		return vm.push(value)
	case bytecode.GetProperty:
		name := vm.readConstant().(string)
		recv, err := vm.pop()
		if err != nil {
			return err
		}
		v, err := vm.getProperty(recv, name)
		if err != nil {
			return err
		}
		return vm.push(v)

	case bytecode.GetIndex, bytecode.NullSafeGetIndex:
		index, err := vm.pop()
		if err != nil {
			return err
		}
		recv, err := vm.pop()
		if err != nil {
			return err
		}
		if recv == nil {
			if op == bytecode.NullSafeGetIndex {
				return vm.push(nil)
			}
			return &RuntimeError{Kind: ErrNullReference, Message: "null reference indexing"}
		}
		v, err := vm.getIndex(recv, index)
		if err != nil {
			return err
		}
		return vm.push(v)
	case bytecode.SetIndex:
		value, err := vm.pop()
		if err != nil {
			return err
		}
		index, err := vm.pop()
		if err != nil {
			return err
		}
		recv, err := vm.pop()
		if err != nil {
			return err
		}
		if err := vm.setIndex(recv, index, value); err != nil {
			return err
		}
		return vm.push(value)

	case bytecode.NewList:
		n := int(vm.readByte())
		items := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			v, err := vm.pop()
			if err != nil {
				return err
			}
			items[i] = v
		}
		return vm.push(&List{Items: items})
	case bytecode.NewMap:
		n := int(vm.readByte())
		m := NewMap()
		for i := 0; i < n; i++ {
			v, err := vm.pop()
			if err != nil {
				return err
			}
			k, err := vm.pop()
			if err != nil {
				return err
			}
			if err := m.Set(k, v); err != nil {
				return err
			}
		}
		return vm.push(m)
	case bytecode.NewStruct:
		typeName := vm.readConstant().(string)
		n := int(vm.readByte())
		fields := map[string]Value{}
		for i := 0; i < n; i++ {
			v, err := vm.pop()
			if err != nil {
				return err
			}
			k, err := vm.pop()
			if err != nil {
				return err
			}
			fields[k.(string)] = v
		}
		return vm.push(&Struct{TypeName: typeName, Fields: fields})

	case bytecode.NewRange:
		end, err := vm.pop()
		if err != nil {
			return err
		}
		start, err := vm.pop()
		if err != nil {
			return err
		}
		s, sok := start.(int64)
		e, eok := end.(int64)
		if !sok || !eok {
			return typeErr("Int", "non-Int", "range")
		}
		return vm.push(Range{Start: s, End: e})
	case bytecode.NewRangeInclusive:
		end, err := vm.pop()
		if err != nil {
			return err
		}
		start, err := vm.pop()
		if err != nil {
			return err
		}
		s, sok := start.(int64)
		e, eok := end.(int64)
		if !sok || !eok {
			return typeErr("Int", "non-Int", "range")
		}
		return vm.push(Range{Start: s, End: e, Inclusive: true})

	case bytecode.GetIter:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		it, err := vm.makeIterator(v)
		if err != nil {
			return err
		}
		return vm.push(it)
	case bytecode.IterNext:
		// Consumes the iterator pushed just before this instruction (the
		// compiler reloads it from its local slot every iteration) and, on
		// success, leaves exactly the produced value for the loop binder;
		// on exhaustion it leaves nothing and jumps past the loop body.
		rel := vm.readI16()
		v, err := vm.pop()
		if err != nil {
			return err
		}
		it, ok := v.(Iterator)
		if !ok {
			return typeErr("Iterator", TypeName(v), "for loop")
		}
		next, ok := it.Next()
		if !ok {
			vm.currentFrame().IP += int(rel)
			return nil
		}
		return vm.push(next)

	case bytecode.StringConcat:
		b, err := vm.pop()
		if err != nil {
			return err
		}
		a, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.push(stringOf(a) + stringOf(b))

	case bytecode.IsNull:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.push(v == nil)
	case bytecode.IsInstance:
		typeName := vm.readConstant().(string)
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.push(TypeName(v) == typeName)

	case bytecode.Invoke:
		name := vm.readConstant().(string)
		argc := int(vm.readByte())
		return vm.invoke(name, argc)

	case bytecode.NewEnumVariant:
		nameConst := vm.readConstant().(string)
		argc := int(vm.readByte())
		enumName, variantName := splitEnumName(nameConst)
		var data Value
		if argc == 1 {
			v, err := vm.pop()
			if err != nil {
				return err
			}
			data = v
		} else if argc > 1 {
			items := make([]Value, argc)
			for i := argc - 1; i >= 0; i-- {
				v, err := vm.pop()
				if err != nil {
					return err
				}
				items[i] = v
			}
			data = &List{Items: items}
		}
		return vm.push(&EnumVariant{EnumName: enumName, VariantName: variantName, Data: data})
	case bytecode.MatchVariant:
		nameConst := vm.readConstant().(string)
		v, err := vm.pop()
		if err != nil {
			return err
		}
		_, variantName := splitEnumName(nameConst)
		ev, ok := v.(*EnumVariant)
		return vm.push(ok && ev.VariantName == variantName)

	case bytecode.Throw:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return &RuntimeError{Kind: ErrUncaughtException, Exception: v, TraceID: uuid.NewString()}

	case bytecode.PushHandler:
		// Both IPs are signed: -1 marks "no catch clause" / "no finally
		// clause" so handleException can tell an absent handler from one
		// that jumps to offset 0.
		catchIP := vm.readI16()
		finallyIP := vm.readI16()
		vm.handlers = append(vm.handlers, ExceptionHandler{
			FrameIndex: len(vm.frames) - 1,
			StackDepth: len(vm.stack),
			CatchIP:    int(catchIP),
			FinallyIP:  int(finallyIP),
		})
		return nil
	case bytecode.PopHandler:
		if len(vm.handlers) > 0 {
			vm.handlers = vm.handlers[:len(vm.handlers)-1]
		}
		return nil

	case bytecode.Await:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		fut, ok := v.(*Future)
		if !ok {
			return typeErr("Future", TypeName(v), "await")
		}
		if fut.Err != nil {
			return fut.Err
		}
		return vm.push(fut.Value)

	case bytecode.Breakpoint:
		return nil

	default:
		return &RuntimeError{Kind: ErrInvalidOpcode, Message: fmt.Sprintf("invalid opcode %d", op)}
	}
}

func splitEnumName(combined string) (enum, variant string) {
	for i := len(combined) - 1; i >= 0; i-- {
		if combined[i] == '.' {
			return combined[:i], combined[i+1:]
		}
	}
	return "", combined
}

func stringOf(v Value) string {
	if s, ok := v.(string); ok {
		return s
	}
	return Inspect(v)
}
