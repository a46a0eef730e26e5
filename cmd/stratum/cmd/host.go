package cmd

import (
	"fmt"
	"strconv"

	"github.com/horizonanalytic/stratum/internal/vm"
)

// newHostVM creates a VM with the global natives the checker's built-in
// signatures promise (print/println/assert/.../int/float) — the "external
// subsystems ... consume" half of the embedding API, supplied here by the
// CLI host rather than by the VM itself.
func newHostVM() *vm.VM {
	machine := vm.New()

	machine.DefineNative("print", 1, func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		fmt.Print(vm.Inspect(args[0]))
		return nil, nil
	})
	machine.DefineNative("println", 1, func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		fmt.Println(vm.Inspect(args[0]))
		return nil, nil
	})
	machine.DefineNative("assert", 1, func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		ok, _ := args[0].(bool)
		if !ok {
			return nil, fmt.Errorf("assertion failed")
		}
		return nil, nil
	})
	machine.DefineNative("assert_eq", 2, func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		if vm.Inspect(args[0]) != vm.Inspect(args[1]) {
			return nil, fmt.Errorf("assertion failed: %s != %s", vm.Inspect(args[0]), vm.Inspect(args[1]))
		}
		return nil, nil
	})
	machine.DefineNative("type_of", 1, func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.TypeName(args[0]), nil
	})
	machine.DefineNative("to_string", 1, func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.Inspect(args[0]), nil
	})
	machine.DefineNative("str", 1, func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.Inspect(args[0]), nil
	})
	machine.DefineNative("parse_int", 1, func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("parse_int: expected String, got %s", vm.TypeName(args[0]))
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, nil
		}
		return n, nil
	})
	machine.DefineNative("parse_float", 1, func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("parse_float: expected String, got %s", vm.TypeName(args[0]))
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, nil
		}
		return f, nil
	})
	machine.DefineNative("range", 2, func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		start, ok1 := args[0].(int64)
		end, ok2 := args[1].(int64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("range: expected (Int, Int)")
		}
		return vm.Range{Start: start, End: end}, nil
	})
	machine.DefineNative("len", 1, func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		switch v := args[0].(type) {
		case string:
			return int64(len([]rune(v))), nil
		case *vm.List:
			return int64(len(v.Items)), nil
		default:
			return nil, fmt.Errorf("len: unsupported type %s", vm.TypeName(args[0]))
		}
	})
	machine.DefineNative("int", 1, func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		switch v := args[0].(type) {
		case int64:
			return v, nil
		case float64:
			return int64(v), nil
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("int: cannot parse %q", v)
			}
			return n, nil
		default:
			return nil, fmt.Errorf("int: unsupported type %s", vm.TypeName(args[0]))
		}
	})
	machine.DefineNative("float", 1, func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		switch v := args[0].(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("float: cannot parse %q", v)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("float: unsupported type %s", vm.TypeName(args[0]))
		}
	})

	return machine
}
