package runtime

import (
	"bufio"
	"sort"
	"strconv"
	"strings"
)

// defineBuiltins installs the free functions of §6.2 into the global frame.
func (e *Evaluator) defineBuiltins() {
	e.defineBuiltin("print", func(args []*Value) (*Value, error) {
		e.print(args)
		return NewNull(), nil
	})
	e.defineBuiltin("input", e.builtinInput)
	e.defineBuiltin("len", e.builtinLen)
	e.defineBuiltin("type", e.builtinType)
	e.defineBuiltin("str", e.builtinStr)
	e.defineBuiltin("int", e.builtinInt)
	e.defineBuiltin("float", e.builtinFloat)
	e.defineBuiltin("sort", e.builtinSort)
	e.defineBuiltin("reverse", e.builtinReverse)
	e.defineBuiltin("has", e.builtinHas)
	e.defineBuiltin("keys", e.builtinKeys)
}

func (e *Evaluator) defineBuiltin(name string, fn func(args []*Value) (*Value, error)) {
	e.globalEnv.Define(name, NewFunction(&Function{Name: name, IsBuiltin: true, Builtin: fn}), true)
}

func (e *Evaluator) builtinInput(args []*Value) (*Value, error) {
	if len(args) > 1 {
		return nil, newRuntimeError(ErrKindRuntime, 0, "input() expects at most 1 argument, got %d", len(args))
	}
	if len(args) == 1 {
		_, _ = e.stdout.Write([]byte(args[0].String()))
	}
	scanner := bufio.NewScanner(e.stdin)
	if scanner.Scan() {
		return NewString(scanner.Text()), nil
	}
	return NewString(""), nil
}

func (e *Evaluator) builtinLen(args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, newRuntimeError(ErrKindRuntime, 0, "len() expects 1 argument, got %d", len(args))
	}
	switch args[0].Type {
	case ValueTypeString:
		return NewInt(int64(len([]rune(args[0].Str)))), nil
	case ValueTypeArray:
		return NewInt(int64(len(args[0].Array))), nil
	case ValueTypeObject:
		return NewInt(int64(args[0].Object.Len())), nil
	default:
		return nil, newRuntimeError(ErrKindType, 0, "len() not supported for %s", args[0].Type)
	}
}

// typeName reports the capitalized tag name type() returns to scripts,
// distinct from Value.Type.String()'s lowercase form used in error text.
func typeName(t ValueType) string {
	switch t {
	case ValueTypeInt:
		return "Int"
	case ValueTypeFloat:
		return "Float"
	case ValueTypeString:
		return "String"
	case ValueTypeBool:
		return "Boolean"
	case ValueTypeArray:
		return "Array"
	case ValueTypeObject:
		return "Object"
	case ValueTypeFunction:
		return "Function"
	case ValueTypeModule:
		return "Module"
	case ValueTypeRegex:
		return "Regex"
	case ValueTypeNull:
		return "Null"
	case ValueTypeUndefined:
		return "Undefined"
	case ValueTypeBridge:
		return "Bridge"
	default:
		return "Undefined"
	}
}

func (e *Evaluator) builtinType(args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, newRuntimeError(ErrKindRuntime, 0, "type() expects 1 argument, got %d", len(args))
	}
	return NewString(typeName(args[0].Type)), nil
}

func (e *Evaluator) builtinStr(args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, newRuntimeError(ErrKindRuntime, 0, "str() expects 1 argument, got %d", len(args))
	}
	return NewString(args[0].String()), nil
}

func (e *Evaluator) builtinInt(args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, newRuntimeError(ErrKindRuntime, 0, "int() expects 1 argument, got %d", len(args))
	}
	switch args[0].Type {
	case ValueTypeInt:
		return args[0], nil
	case ValueTypeFloat:
		return NewInt(int64(args[0].Float)), nil
	case ValueTypeString:
		n, err := strconv.ParseInt(strings.TrimSpace(args[0].Str), 10, 64)
		if err != nil {
			return nil, newRuntimeError(ErrKindValue, 0, "cannot parse %q as int", args[0].Str)
		}
		return NewInt(n), nil
	case ValueTypeBool:
		if args[0].Bool {
			return NewInt(1), nil
		}
		return NewInt(0), nil
	default:
		return nil, newRuntimeError(ErrKindType, 0, "cannot convert %s to int", args[0].Type)
	}
}

func (e *Evaluator) builtinFloat(args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, newRuntimeError(ErrKindRuntime, 0, "float() expects 1 argument, got %d", len(args))
	}
	switch args[0].Type {
	case ValueTypeFloat:
		return args[0], nil
	case ValueTypeInt:
		return NewFloat(float64(args[0].Int)), nil
	case ValueTypeString:
		n, err := strconv.ParseFloat(strings.TrimSpace(args[0].Str), 64)
		if err != nil {
			return nil, newRuntimeError(ErrKindValue, 0, "cannot parse %q as float", args[0].Str)
		}
		return NewFloat(n), nil
	default:
		return nil, newRuntimeError(ErrKindType, 0, "cannot convert %s to float", args[0].Type)
	}
}

// builtinSort implements sort(Array) non-destructively (§6.2): numeric for
// homogeneous numeric arrays, lexicographic for homogeneous strings.
func (e *Evaluator) builtinSort(args []*Value) (*Value, error) {
	if len(args) != 1 || args[0].Type != ValueTypeArray {
		return nil, newRuntimeError(ErrKindType, 0, "sort() expects 1 array argument")
	}
	src := args[0].Array
	sorted := make([]*Value, len(src))
	copy(sorted, src)

	allNumeric, allString := true, true
	for _, v := range sorted {
		if !v.IsNumeric() {
			allNumeric = false
		}
		if v.Type != ValueTypeString {
			allString = false
		}
	}

	var sortErr error
	switch {
	case allNumeric:
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].AsFloat() < sorted[j].AsFloat() })
	case allString:
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Str < sorted[j].Str })
	default:
		sortErr = newRuntimeError(ErrKindType, 0, "sort() requires a homogeneous numeric or string array")
	}
	if sortErr != nil {
		return nil, sortErr
	}
	return NewArray(sorted), nil
}

// builtinReverse implements reverse(Array|String).
func (e *Evaluator) builtinReverse(args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, newRuntimeError(ErrKindRuntime, 0, "reverse() expects 1 argument, got %d", len(args))
	}
	switch args[0].Type {
	case ValueTypeArray:
		src := args[0].Array
		out := make([]*Value, len(src))
		for i, v := range src {
			out[len(src)-1-i] = v
		}
		return NewArray(out), nil
	case ValueTypeString:
		runes := []rune(args[0].Str)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return NewString(string(runes)), nil
	default:
		return nil, newRuntimeError(ErrKindType, 0, "reverse() not supported for %s", args[0].Type)
	}
}

// builtinHas implements has(coll, key_or_value): key membership for Object,
// value membership for Array/String.
func (e *Evaluator) builtinHas(args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, newRuntimeError(ErrKindRuntime, 0, "has() expects 2 arguments, got %d", len(args))
	}
	coll, needle := args[0], args[1]
	switch coll.Type {
	case ValueTypeObject:
		if needle.Type != ValueTypeString {
			return nil, newRuntimeError(ErrKindType, 0, "has() on an object requires a string key")
		}
		_, exists := coll.Object.Get(needle.Str)
		return NewBool(exists), nil
	case ValueTypeArray:
		for _, v := range coll.Array {
			if v.LooseEqual(needle) {
				return NewBool(true), nil
			}
		}
		return NewBool(false), nil
	case ValueTypeString:
		if needle.Type != ValueTypeString {
			return nil, newRuntimeError(ErrKindType, 0, "has() on a string requires a string needle")
		}
		return NewBool(strings.Contains(coll.Str, needle.Str)), nil
	default:
		return nil, newRuntimeError(ErrKindType, 0, "has() not supported for %s", coll.Type)
	}
}

func (e *Evaluator) builtinKeys(args []*Value) (*Value, error) {
	if len(args) != 1 || args[0].Type != ValueTypeObject {
		return nil, newRuntimeError(ErrKindType, 0, "keys() expects 1 object argument")
	}
	keys := args[0].Object.Keys()
	result := make([]*Value, len(keys))
	for i, k := range keys {
		result[i] = NewString(k)
	}
	return NewArray(result), nil
}
