package vm

// captureUpvalue returns an existing open upvalue pointing at stackIndex if
// one is already live, or opens a new one, matching the reference
// implementation's dedup-on-capture behavior (two closures over the same
// local share one upvalue cell).
func (vm *VM) captureUpvalue(stackIndex int) *Upvalue {
	for _, up := range vm.openUpvalues {
		if !up.Closed && up.StackIndex == stackIndex {
			return up
		}
	}
	up := &Upvalue{StackIndex: stackIndex}
	vm.openUpvalues = append(vm.openUpvalues, up)
	return up
}

// closeUpvalues closes every open upvalue whose stack index is >= from,
// copying the current stack value into the upvalue so it survives the
// frame that owned that stack slot returning.
func (vm *VM) closeUpvalues(from int) {
	kept := vm.openUpvalues[:0]
	for _, up := range vm.openUpvalues {
		if up.StackIndex >= from {
			up.Value = vm.stack[up.StackIndex]
			up.Closed = true
		} else {
			kept = append(kept, up)
		}
	}
	vm.openUpvalues = kept
}

func (vm *VM) resolveUpvalue(up *Upvalue) Value {
	if up.Closed {
		return up.Value
	}
	return vm.stack[up.StackIndex]
}
