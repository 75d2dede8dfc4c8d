package runtime

// MethodDispatcher routes a base.method(...) call to the handler registered
// for the base value's type.
type MethodDispatcher interface {
	CallMethod(target *Value, methodName string, args []*Value) (*Value, error)
	RegisterHandler(valueType ValueType, handler TypeMethodHandler)
	GetHandler(valueType ValueType) TypeMethodHandler
}

// TypeMethodHandler handles every method call for one ValueType.
type TypeMethodHandler interface {
	CallMethod(target *Value, methodName string, args []*Value) (*Value, error)
	AddMethod(methodName string, impl MethodImplementation)
	HasMethod(methodName string) bool
	ListMethods() []string
}

// MethodImplementation is one method's native body.
type MethodImplementation func(target *Value, args []*Value) (*Value, error)

// BasicMethodDispatcher is the default MethodDispatcher, a flat table keyed
// by ValueType.
type BasicMethodDispatcher struct {
	handlers map[ValueType]TypeMethodHandler
}

// NewMethodDispatcher creates an empty dispatcher; handlers are registered
// by the evaluator at construction time.
func NewMethodDispatcher() *BasicMethodDispatcher {
	return &BasicMethodDispatcher{handlers: make(map[ValueType]TypeMethodHandler)}
}

func (d *BasicMethodDispatcher) CallMethod(target *Value, methodName string, args []*Value) (*Value, error) {
	handler, exists := d.handlers[target.Type]
	if !exists {
		return nil, newRuntimeError(ErrKindType, 0, "%s has no methods", target.Type)
	}
	return handler.CallMethod(target, methodName, args)
}

func (d *BasicMethodDispatcher) RegisterHandler(valueType ValueType, handler TypeMethodHandler) {
	d.handlers[valueType] = handler
}

func (d *BasicMethodDispatcher) GetHandler(valueType ValueType) TypeMethodHandler {
	return d.handlers[valueType]
}

// BasicTypeHandler is a name-to-implementation table shared by every
// concrete *MethodHandler below.
type BasicTypeHandler struct {
	methods map[string]MethodImplementation
}

func NewBasicTypeHandler() *BasicTypeHandler {
	return &BasicTypeHandler{methods: make(map[string]MethodImplementation)}
}

func (h *BasicTypeHandler) CallMethod(target *Value, methodName string, args []*Value) (*Value, error) {
	impl, exists := h.methods[methodName]
	if !exists {
		return nil, newRuntimeError(ErrKindType, 0, "unknown method %q", methodName)
	}
	return impl(target, args)
}

func (h *BasicTypeHandler) AddMethod(methodName string, impl MethodImplementation) {
	h.methods[methodName] = impl
}

func (h *BasicTypeHandler) HasMethod(methodName string) bool {
	_, exists := h.methods[methodName]
	return exists
}

func (h *BasicTypeHandler) ListMethods() []string {
	names := make([]string, 0, len(h.methods))
	for name := range h.methods {
		names = append(names, name)
	}
	return names
}
