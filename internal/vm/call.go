package vm

import (
	"fmt"

	"github.com/horizonanalytic/stratum/internal/bytecode"
)

// callValue dispatches a Call instruction's callee, which may be a Closure,
// a NativeFunction, or a BoundMethod. argc values plus the callee itself
// are already on the stack; on return exactly one result value replaces
// them.
func (vm *VM) callValue(callee Value, argc int) error {
	switch fn := callee.(type) {
	case *Closure:
		return vm.callClosure(fn, argc)
	case *NativeFunction:
		return vm.callNative(fn, argc)
	case *BoundMethod:
		return vm.callBoundMethod(fn, argc)
	default:
		return &RuntimeError{Kind: ErrNotCallable, Message: fmt.Sprintf("%s is not callable", TypeName(callee))}
	}
}

func (vm *VM) callClosure(cl *Closure, argc int) error {
	fn := cl.Function
	if !fn.IsVariadic && argc != fn.Arity {
		return &RuntimeError{Kind: ErrArityMismatch, Message: fmt.Sprintf("expected %d arguments, got %d", fn.Arity, argc)}
	}
	if len(vm.frames) >= MaxFrames {
		return &RuntimeError{Kind: ErrStackOverflow, Message: "call stack overflow"}
	}
	stackBase := len(vm.stack) - argc - 1
	vm.frames = append(vm.frames, CallFrame{Closure: cl, StackBase: stackBase})
	return nil
}

func (vm *VM) callNative(fn *NativeFunction, argc int) error {
	if fn.Arity >= 0 && argc != fn.Arity {
		return &RuntimeError{Kind: ErrArityMismatch, Message: fmt.Sprintf("expected %d arguments, got %d", fn.Arity, argc)}
	}
	args := make([]Value, argc)
	for i := argc - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		args[i] = v
	}
	if _, err := vm.pop(); err != nil { // the callee itself
		return err
	}
	result, err := fn.Fn(vm, args)
	if err != nil {
		return err
	}
	return vm.push(result)
}

func (vm *VM) callBoundMethod(bm *BoundMethod, argc int) error {
	// Splice the receiver in as argument 0 of the underlying closure call:
	// the stack currently holds [..., boundMethod, arg0, ..., argN-1].
	base := len(vm.stack) - argc - 1
	vm.stack[base] = bm.Method
	vm.stack = append(vm.stack, nil)
	copy(vm.stack[base+2:], vm.stack[base+1:len(vm.stack)-1])
	vm.stack[base+1] = bm.Receiver
	return vm.callClosure(bm.Method, argc+1)
}

// callClosureSync re-entrantly drives the VM's own dispatch loop to invoke
// a closure synchronously from a native builtin (map/filter/reduce/sort/
// find), returning its result without disturbing the caller's frame. It
// guards against runaway callbacks with maxSyncIterations and a
// starting-frame-count check so a nested Return cannot pop past the frame
// that began this call.
func (vm *VM) callClosureSync(cl *Closure, args []Value) (Value, error) {
	startingFrames := len(vm.frames)
	if err := vm.push(cl); err != nil {
		return nil, err
	}
	for _, a := range args {
		if err := vm.push(a); err != nil {
			return nil, err
		}
	}
	if err := vm.callClosure(cl, len(args)); err != nil {
		return nil, err
	}

	iterations := 0
	for len(vm.frames) > startingFrames {
		iterations++
		if iterations > maxSyncIterations {
			return nil, &RuntimeError{Kind: ErrInternal, Message: "callback exceeded maximum synchronous iteration count"}
		}
		op := bytecode.Op(vm.readByte())
		if err := vm.step(op); err != nil {
			if vm.handleException(err) {
				continue
			}
			return nil, err
		}
	}
	return vm.pop()
}
