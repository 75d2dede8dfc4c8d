package runtime

// ObjectMethodHandler implements the Object method table (§6.2).
type ObjectMethodHandler struct {
	*BasicTypeHandler
}

func NewObjectMethodHandler() *ObjectMethodHandler {
	h := &ObjectMethodHandler{BasicTypeHandler: NewBasicTypeHandler()}
	h.AddMethod("keys", h.keysMethod)
	h.AddMethod("has", h.hasMethod)
	return h
}

// keysMethod implements Object.keys(): insertion order, per P4.
func (h *ObjectMethodHandler) keysMethod(target *Value, args []*Value) (*Value, error) {
	keys := target.Object.Keys()
	result := make([]*Value, len(keys))
	for i, k := range keys {
		result[i] = NewString(k)
	}
	return NewArray(result), nil
}

func (h *ObjectMethodHandler) hasMethod(target *Value, args []*Value) (*Value, error) {
	if len(args) != 1 || args[0].Type != ValueTypeString {
		return nil, newRuntimeError(ErrKindType, 0, "has expects 1 string argument")
	}
	_, exists := target.Object.Get(args[0].Str)
	return NewBool(exists), nil
}
