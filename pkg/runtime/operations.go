package runtime

import "math"

// add implements "+": numeric addition with Int/Int staying Int, string
// concatenation, and array concatenation.
func (e *Evaluator) add(left, right *Value, line int) (*Value, error) {
	if left.Type == ValueTypeInt && right.Type == ValueTypeInt {
		return NewInt(left.Int + right.Int), nil
	}
	if left.IsNumeric() && right.IsNumeric() {
		return NewFloat(left.AsFloat() + right.AsFloat()), nil
	}
	if left.Type == ValueTypeString || right.Type == ValueTypeString {
		return NewString(left.String() + right.String()), nil
	}
	if left.Type == ValueTypeArray && right.Type == ValueTypeArray {
		combined := make([]*Value, 0, len(left.Array)+len(right.Array))
		combined = append(combined, left.Array...)
		combined = append(combined, right.Array...)
		return NewArray(combined), nil
	}
	return nil, newRuntimeError(ErrKindType, line, "cannot add %s and %s", left.Type, right.Type)
}

// subtract implements "-": strictly numeric.
func (e *Evaluator) subtract(left, right *Value, line int) (*Value, error) {
	if left.Type == ValueTypeInt && right.Type == ValueTypeInt {
		return NewInt(left.Int - right.Int), nil
	}
	if left.IsNumeric() && right.IsNumeric() {
		return NewFloat(left.AsFloat() - right.AsFloat()), nil
	}
	return nil, newRuntimeError(ErrKindType, line, "cannot subtract %s from %s", right.Type, left.Type)
}

// multiply implements "*": strictly numeric.
func (e *Evaluator) multiply(left, right *Value, line int) (*Value, error) {
	if left.Type == ValueTypeInt && right.Type == ValueTypeInt {
		return NewInt(left.Int * right.Int), nil
	}
	if left.IsNumeric() && right.IsNumeric() {
		return NewFloat(left.AsFloat() * right.AsFloat()), nil
	}
	return nil, newRuntimeError(ErrKindType, line, "cannot multiply %s and %s", left.Type, right.Type)
}

// divide implements "/": per the resolved Open Question, Int/Int always
// produces a Float, and a zero divisor follows IEEE-754 (producing Inf or
// NaN) rather than raising an error, since the promotion to float64 makes
// that well-defined.
func (e *Evaluator) divide(left, right *Value, line int) (*Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return nil, newRuntimeError(ErrKindType, line, "cannot divide %s by %s", left.Type, right.Type)
	}
	return NewFloat(left.AsFloat() / right.AsFloat()), nil
}

// modulo implements "%". Int/Int stays Int and guards the zero divisor
// explicitly, since Go's integer "%" panics on it rather than producing a
// value; mixed or Float operands use math.Mod, which already handles a zero
// divisor by returning NaN.
func (e *Evaluator) modulo(left, right *Value, line int) (*Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return nil, newRuntimeError(ErrKindType, line, "cannot take modulo of %s and %s", left.Type, right.Type)
	}
	if left.Type == ValueTypeInt && right.Type == ValueTypeInt {
		if right.Int == 0 {
			return nil, newRuntimeError(ErrKindRuntime, line, "modulo by zero")
		}
		return NewInt(left.Int % right.Int), nil
	}
	return NewFloat(math.Mod(left.AsFloat(), right.AsFloat())), nil
}

// power implements "**" / "^".
func (e *Evaluator) power(left, right *Value, line int) (*Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return nil, newRuntimeError(ErrKindType, line, "cannot raise %s to %s", left.Type, right.Type)
	}
	if left.Type == ValueTypeInt && right.Type == ValueTypeInt && right.Int >= 0 {
		result := int64(1)
		for i := int64(0); i < right.Int; i++ {
			result *= left.Int
		}
		return NewInt(result), nil
	}
	return NewFloat(math.Pow(left.AsFloat(), right.AsFloat())), nil
}

func (e *Evaluator) compare(left, right *Value, line int) (int, error) {
	if left.IsNumeric() && right.IsNumeric() {
		lf, rf := left.AsFloat(), right.AsFloat()
		switch {
		case lf < rf:
			return -1, nil
		case lf > rf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if left.Type == ValueTypeString && right.Type == ValueTypeString {
		switch {
		case left.Str < right.Str:
			return -1, nil
		case left.Str > right.Str:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, newRuntimeError(ErrKindType, line, "cannot compare %s and %s", left.Type, right.Type)
}

func (e *Evaluator) less(left, right *Value, line int) (*Value, error) {
	c, err := e.compare(left, right, line)
	if err != nil {
		return nil, err
	}
	return NewBool(c < 0), nil
}

func (e *Evaluator) lessEqual(left, right *Value, line int) (*Value, error) {
	c, err := e.compare(left, right, line)
	if err != nil {
		return nil, err
	}
	return NewBool(c <= 0), nil
}

func (e *Evaluator) greater(left, right *Value, line int) (*Value, error) {
	c, err := e.compare(left, right, line)
	if err != nil {
		return nil, err
	}
	return NewBool(c > 0), nil
}

func (e *Evaluator) greaterEqual(left, right *Value, line int) (*Value, error) {
	c, err := e.compare(left, right, line)
	if err != nil {
		return nil, err
	}
	return NewBool(c >= 0), nil
}

// augmentedApply implements the "+: -: *: /: %:" compound-assignment
// operators, per the resolved Open Question on their type rules.
func (e *Evaluator) augmentedApply(op string, current, delta *Value, line int) (*Value, error) {
	switch op {
	case "+:":
		if current.Type == ValueTypeArray {
			return NewArray(append(append([]*Value{}, current.Array...), delta)), nil
		}
		return e.add(current, delta, line)
	case "-:":
		return e.subtract(current, delta, line)
	case "*:":
		return e.multiply(current, delta, line)
	case "/:":
		return e.divide(current, delta, line)
	case "%:":
		return e.modulo(current, delta, line)
	default:
		return nil, newRuntimeError(ErrKindType, line, "unknown augmented assignment operator %q", op)
	}
}
