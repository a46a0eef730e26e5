package vm

import (
	"strings"

	"github.com/horizonanalytic/stratum/internal/bytecode"
)

// binaryArith implements Add/Sub/Mul/Div/Mod with Int/Float promotion: if
// either operand is Float, both are widened to Float. Add also overloads
// onto String (concatenation) and List (concatenation) the way the
// reference implementation's `+` does.
func (vm *VM) binaryArith(op bytecode.Op) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}

	if op == bytecode.Add {
		if as, ok := a.(string); ok {
			bs, ok := b.(string)
			if !ok {
				return typeErr("String", TypeName(b), "+")
			}
			return vm.push(as + bs)
		}
		if al, ok := a.(*List); ok {
			bl, ok := b.(*List)
			if !ok {
				return typeErr("List", TypeName(b), "+")
			}
			out := make([]Value, 0, len(al.Items)+len(bl.Items))
			out = append(out, al.Items...)
			out = append(out, bl.Items...)
			return vm.push(&List{Items: out})
		}
	}

	af, aIsFloat, aok := numeric(a)
	bf, bIsFloat, bok := numeric(b)
	if !aok || !bok {
		return typeErr("Int or Float", TypeName(a)+"/"+TypeName(b), opName(op))
	}

	if !aIsFloat && !bIsFloat {
		ai := a.(int64)
		bi := b.(int64)
		switch op {
		case bytecode.Add:
			return vm.push(ai + bi)
		case bytecode.Sub:
			return vm.push(ai - bi)
		case bytecode.Mul:
			return vm.push(ai * bi)
		case bytecode.Div:
			if bi == 0 {
				return &RuntimeError{Kind: ErrDivisionByZero, Message: "division by zero"}
			}
			return vm.push(ai / bi)
		case bytecode.Mod:
			if bi == 0 {
				return &RuntimeError{Kind: ErrDivisionByZero, Message: "division by zero"}
			}
			return vm.push(ai % bi)
		}
	}

	switch op {
	case bytecode.Add:
		return vm.push(af + bf)
	case bytecode.Sub:
		return vm.push(af - bf)
	case bytecode.Mul:
		return vm.push(af * bf)
	case bytecode.Div:
		if bf == 0 {
			return &RuntimeError{Kind: ErrDivisionByZero, Message: "division by zero"}
		}
		return vm.push(af / bf)
	case bytecode.Mod:
		if bf == 0 {
			return &RuntimeError{Kind: ErrDivisionByZero, Message: "division by zero"}
		}
		return vm.push(mathMod(af, bf))
	}
	return &RuntimeError{Kind: ErrInvalidOpcode, Message: "unreachable arithmetic op"}
}

func mathMod(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	return m
}

func numeric(v Value) (f float64, isFloat bool, ok bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), false, true
	case float64:
		return x, true, true
	default:
		return 0, false, false
	}
}

func opName(op bytecode.Op) string {
	switch op {
	case bytecode.Add:
		return "+"
	case bytecode.Sub:
		return "-"
	case bytecode.Mul:
		return "*"
	case bytecode.Div:
		return "/"
	case bytecode.Mod:
		return "%"
	default:
		return "?"
	}
}

// comparisonOp implements Eq/Ne structurally and Lt/Le/Gt/Ge over
// Int/Float (numeric promotion) and String (lexicographic order).
func (vm *VM) comparisonOp(op bytecode.Op) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}

	if op == bytecode.Eq {
		return vm.push(Equal(a, b))
	}
	if op == bytecode.Ne {
		return vm.push(!Equal(a, b))
	}

	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return typeErr("String", TypeName(b), "comparison")
		}
		c := strings.Compare(as, bs)
		return vm.push(compareResult(op, c))
	}

	af, _, aok := numeric(a)
	bf, _, bok := numeric(b)
	if !aok || !bok {
		return typeErr("Int, Float, or String", TypeName(a)+"/"+TypeName(b), "comparison")
	}
	switch {
	case af < bf:
		return vm.push(compareResult(op, -1))
	case af > bf:
		return vm.push(compareResult(op, 1))
	default:
		return vm.push(compareResult(op, 0))
	}
}

func compareResult(op bytecode.Op, c int) bool {
	switch op {
	case bytecode.Lt:
		return c < 0
	case bytecode.Le:
		return c <= 0
	case bytecode.Gt:
		return c > 0
	case bytecode.Ge:
		return c >= 0
	default:
		return false
	}
}
