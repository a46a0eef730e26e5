package vm

// handleException implements the unwind-to-handler algorithm: pop handlers
// until one covers the current call depth, closing upvalues and truncating
// the stack down to that handler's recorded depth, then jump to its catch
// entry point (or its finally entry point, if it has no catch clause).
//
// It returns true if the error was consumed by a handler (the caller's run
// loop should continue executing), or false if it must propagate further
// (no handler was in scope).
func (vm *VM) handleException(err error) bool {
	rerr, ok := err.(*RuntimeError)
	if !ok {
		return false
	}

	for len(vm.handlers) > 0 {
		h := vm.handlers[len(vm.handlers)-1]
		vm.handlers = vm.handlers[:len(vm.handlers)-1]

		if h.FrameIndex >= len(vm.frames) {
			// Handler belonged to a frame that already returned normally;
			// it is stale and cannot apply here.
			continue
		}

		// Unwind any frames above the handler's frame, closing their
		// upvalues as we go.
		for len(vm.frames)-1 > h.FrameIndex {
			top := vm.frames[len(vm.frames)-1]
			vm.closeUpvalues(top.StackBase)
			vm.frames = vm.frames[:len(vm.frames)-1]
		}
		if len(vm.stack) > h.StackDepth {
			vm.stack = vm.stack[:h.StackDepth]
		}

		exceptionValue := exceptionAsValue(rerr)
		vm.stack = append(vm.stack, exceptionValue)

		target := h.CatchIP
		if target < 0 {
			target = h.FinallyIP
		}
		if target < 0 {
			continue
		}
		vm.frames[len(vm.frames)-1].IP = target
		return true
	}
	return false
}

// exceptionAsValue converts a RuntimeError into the Value a catch clause
// binds: the original thrown Value for Throw-originated errors, or a
// synthesized String describing any other runtime error.
func exceptionAsValue(rerr *RuntimeError) Value {
	if rerr.Kind == ErrUncaughtException {
		return rerr.Exception
	}
	return rerr.Error()
}

// attachTrace builds the stack trace for an error that escaped every
// handler, walking frames from innermost to outermost the way the
// reference implementation's `runtime_error` does.
func (vm *VM) attachTrace(err error) error {
	rerr, ok := err.(*RuntimeError)
	if !ok {
		return err
	}
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		name := f.Closure.Function.Name
		if name == "" {
			name = "<script>"
		}
		rerr.StackTrace = append(rerr.StackTrace, Frame{
			FunctionName: name,
			SourceName:   f.Closure.Function.Chunk.SourceName,
			Line:         f.Closure.Function.Chunk.GetLine(f.IP - 1),
		})
	}
	return rerr
}
