package runtime

import "strings"

// StringMethodHandler implements the String method table (§6.2): split is
// the mandated method, the rest are teacher-style ergonomic supplements.
type StringMethodHandler struct {
	*BasicTypeHandler
}

func NewStringMethodHandler() *StringMethodHandler {
	h := &StringMethodHandler{BasicTypeHandler: NewBasicTypeHandler()}
	h.AddMethod("split", h.splitMethod)
	h.AddMethod("has", h.hasMethod)
	h.AddMethod("includes", h.hasMethod)
	h.AddMethod("upper", h.upperMethod)
	h.AddMethod("lower", h.lowerMethod)
	h.AddMethod("trim", h.trimMethod)
	h.AddMethod("replace", h.replaceMethod)
	return h
}

func (h *StringMethodHandler) splitMethod(target *Value, args []*Value) (*Value, error) {
	if len(args) != 1 || args[0].Type != ValueTypeString {
		return nil, newRuntimeError(ErrKindType, 0, "split expects 1 string argument")
	}
	parts := strings.Split(target.Str, args[0].Str)
	result := make([]*Value, len(parts))
	for i, p := range parts {
		result[i] = NewString(p)
	}
	return NewArray(result), nil
}

func (h *StringMethodHandler) hasMethod(target *Value, args []*Value) (*Value, error) {
	if len(args) != 1 || args[0].Type != ValueTypeString {
		return nil, newRuntimeError(ErrKindType, 0, "has expects 1 string argument")
	}
	return NewBool(strings.Contains(target.Str, args[0].Str)), nil
}

func (h *StringMethodHandler) upperMethod(target *Value, args []*Value) (*Value, error) {
	return NewString(strings.ToUpper(target.Str)), nil
}

func (h *StringMethodHandler) lowerMethod(target *Value, args []*Value) (*Value, error) {
	return NewString(strings.ToLower(target.Str)), nil
}

func (h *StringMethodHandler) trimMethod(target *Value, args []*Value) (*Value, error) {
	return NewString(strings.TrimSpace(target.Str)), nil
}

func (h *StringMethodHandler) replaceMethod(target *Value, args []*Value) (*Value, error) {
	if len(args) != 2 || args[0].Type != ValueTypeString || args[1].Type != ValueTypeString {
		return nil, newRuntimeError(ErrKindType, 0, "replace expects (string, string)")
	}
	return NewString(strings.ReplaceAll(target.Str, args[0].Str, args[1].Str)), nil
}
