package runtime

// FunctionExecutor lets the array method handler call back into user code
// for map/filter/reduce without depending on the evaluator's call machinery
// directly.
type FunctionExecutor interface {
	ExecuteFunction(fn *Value, args []*Value) (*Value, error)
}

// ArrayMethodHandler implements the Array method table (§6.2), plus the
// push/pop/get/set/includes (push, pop and set mutate in place) and
// higher-order map/filter/reduce supplements.
type ArrayMethodHandler struct {
	*BasicTypeHandler
	executor FunctionExecutor
}

func NewArrayMethodHandler() *ArrayMethodHandler {
	h := &ArrayMethodHandler{BasicTypeHandler: NewBasicTypeHandler()}
	h.AddMethod("reverse", h.reverseMethod)
	h.AddMethod("has", h.hasMethod)
	h.AddMethod("includes", h.hasMethod)
	h.AddMethod("get", h.getMethod)
	h.AddMethod("set", h.setMethod)
	h.AddMethod("push", h.pushMethod)
	h.AddMethod("pop", h.popMethod)
	h.AddMethod("map", h.mapMethod)
	h.AddMethod("filter", h.filterMethod)
	h.AddMethod("reduce", h.reduceMethod)
	return h
}

// SetFunctionExecutor wires the evaluator in as the higher-order call target.
func (h *ArrayMethodHandler) SetFunctionExecutor(executor FunctionExecutor) {
	h.executor = executor
}

// reverseMethod implements Array.reverse(): non-destructive, per P3.
func (h *ArrayMethodHandler) reverseMethod(target *Value, args []*Value) (*Value, error) {
	reversed := make([]*Value, len(target.Array))
	for i, elem := range target.Array {
		reversed[len(target.Array)-1-i] = elem
	}
	return NewArray(reversed), nil
}

func (h *ArrayMethodHandler) hasMethod(target *Value, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, newRuntimeError(ErrKindType, 0, "has expects 1 argument")
	}
	for _, elem := range target.Array {
		if elem.LooseEqual(args[0]) {
			return NewBool(true), nil
		}
	}
	return NewBool(false), nil
}

func (h *ArrayMethodHandler) getMethod(target *Value, args []*Value) (*Value, error) {
	if len(args) != 1 || args[0].Type != ValueTypeInt {
		return nil, newRuntimeError(ErrKindType, 0, "get expects 1 int argument")
	}
	idx := int(args[0].Int)
	if idx < 0 || idx >= len(target.Array) {
		return nil, newRuntimeError(ErrKindIndex, 0, "array index %d out of range", idx)
	}
	return target.Array[idx], nil
}

// setMethod mutates the target array in place, matching Array's reference
// semantics (§3.1).
func (h *ArrayMethodHandler) setMethod(target *Value, args []*Value) (*Value, error) {
	if len(args) != 2 || args[0].Type != ValueTypeInt {
		return nil, newRuntimeError(ErrKindType, 0, "set expects (int, value)")
	}
	idx := int(args[0].Int)
	if idx < 0 || idx >= len(target.Array) {
		return nil, newRuntimeError(ErrKindIndex, 0, "array index %d out of range", idx)
	}
	target.Array[idx] = args[1]
	return args[1], nil
}

func (h *ArrayMethodHandler) pushMethod(target *Value, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, newRuntimeError(ErrKindType, 0, "push expects 1 argument")
	}
	target.Array = append(target.Array, args[0])
	return target, nil
}

func (h *ArrayMethodHandler) popMethod(target *Value, args []*Value) (*Value, error) {
	if len(target.Array) == 0 {
		return NewUndefined(), nil
	}
	last := target.Array[len(target.Array)-1]
	target.Array = target.Array[:len(target.Array)-1]
	return last, nil
}

func (h *ArrayMethodHandler) mapMethod(target *Value, args []*Value) (*Value, error) {
	if len(args) != 1 || args[0].Type != ValueTypeFunction {
		return nil, newRuntimeError(ErrKindType, 0, "map expects a function argument")
	}
	if h.executor == nil {
		return nil, newRuntimeError(ErrKindRuntime, 0, "map is unavailable outside an evaluator")
	}
	result := make([]*Value, len(target.Array))
	for i, item := range target.Array {
		mapped, err := h.executor.ExecuteFunction(args[0], []*Value{item, NewInt(int64(i))})
		if err != nil {
			return nil, err
		}
		result[i] = mapped
	}
	return NewArray(result), nil
}

func (h *ArrayMethodHandler) filterMethod(target *Value, args []*Value) (*Value, error) {
	if len(args) != 1 || args[0].Type != ValueTypeFunction {
		return nil, newRuntimeError(ErrKindType, 0, "filter expects a function argument")
	}
	if h.executor == nil {
		return nil, newRuntimeError(ErrKindRuntime, 0, "filter is unavailable outside an evaluator")
	}
	result := make([]*Value, 0, len(target.Array))
	for i, item := range target.Array {
		keep, err := h.executor.ExecuteFunction(args[0], []*Value{item, NewInt(int64(i))})
		if err != nil {
			return nil, err
		}
		if keep.IsTruthy() {
			result = append(result, item)
		}
	}
	return NewArray(result), nil
}

func (h *ArrayMethodHandler) reduceMethod(target *Value, args []*Value) (*Value, error) {
	if len(args) < 1 || len(args) > 2 || args[0].Type != ValueTypeFunction {
		return nil, newRuntimeError(ErrKindType, 0, "reduce expects (function, initial?)")
	}
	if h.executor == nil {
		return nil, newRuntimeError(ErrKindRuntime, 0, "reduce is unavailable outside an evaluator")
	}
	if len(target.Array) == 0 {
		if len(args) == 2 {
			return args[1], nil
		}
		return nil, newRuntimeError(ErrKindValue, 0, "reduce of empty array without initial value")
	}
	var acc *Value
	start := 0
	if len(args) == 2 {
		acc = args[1]
	} else {
		acc = target.Array[0]
		start = 1
	}
	for i := start; i < len(target.Array); i++ {
		next, err := h.executor.ExecuteFunction(args[0], []*Value{acc, target.Array[i], NewInt(int64(i))})
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}
