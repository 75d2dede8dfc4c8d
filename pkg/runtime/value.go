// Package runtime evaluates a parsed Fenics program: value representation,
// environments, statement/expression evaluation, and the builtin and method
// tables exposed to scripts.
package runtime

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"fenics/pkg/parser"
)

// Environment is a lexical scope with an optional parent chain. Unlike a
// plain variable map, it also tracks which bindings were declared const
// (invariant I1) and holds the ephemeral (#name/#number) side table. An
// ephemeral is stored on the environment in which it is first read; the
// table is not tied to function call frames.
type Environment struct {
	variables map[string]*Value
	mutable   map[string]bool
	ephemeral map[string]*Value
	parent    *Environment
}

// NewEnvironment creates a new environment with an optional parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		variables: make(map[string]*Value),
		mutable:   make(map[string]bool),
		parent:    parent,
	}
}

// Get looks up a variable in the environment chain.
func (e *Environment) Get(name string) (*Value, bool) {
	if value, exists := e.variables[name]; exists {
		return value, true
	}
	if e.parent != nil {
		return e.parent.Get(name)
	}
	return nil, false
}

// Define creates a new binding in this environment, shadowing any outer one.
func (e *Environment) Define(name string, value *Value, constant bool) {
	e.variables[name] = value
	e.mutable[name] = !constant
}

// Assign updates an existing binding, walking outward to find it. It
// reports whether the name was found and whether it was mutable.
func (e *Environment) Assign(name string, value *Value) (found, ok bool) {
	if _, exists := e.variables[name]; exists {
		if !e.mutable[name] {
			return true, false
		}
		e.variables[name] = value
		return true, true
	}
	if e.parent != nil {
		return e.parent.Assign(name, value)
	}
	return false, false
}

// Global walks to the outermost environment in the chain.
func (e *Environment) Global() *Environment {
	if e.parent == nil {
		return e
	}
	return e.parent.Global()
}

// GetEphemeral looks up a #name/#number ephemeral variable in this
// environment and then in each enclosing one, out to the global frame;
// function call boundaries do not stop the search.
func (e *Environment) GetEphemeral(name string) (*Value, bool) {
	if e.ephemeral != nil {
		if v, ok := e.ephemeral[name]; ok {
			return v, true
		}
	}
	if e.parent != nil {
		return e.parent.GetEphemeral(name)
	}
	return nil, false
}

// SetEphemeral binds a #name/#number ephemeral variable in this frame.
func (e *Environment) SetEphemeral(name string, value *Value) {
	if e.ephemeral == nil {
		e.ephemeral = make(map[string]*Value)
	}
	e.ephemeral[name] = value
}

// ValueType identifies the dynamic type of a runtime Value.
type ValueType int

const (
	ValueTypeNull ValueType = iota
	ValueTypeUndefined
	ValueTypeInt
	ValueTypeFloat
	ValueTypeString
	ValueTypeBool
	ValueTypeArray
	ValueTypeObject
	ValueTypeFunction
	ValueTypeRegex
	ValueTypeModule
	ValueTypeBridge
)

// String names a ValueType in the lowercase form used in error messages;
// type() reports the capitalized names from typeName instead.
func (vt ValueType) String() string {
	switch vt {
	case ValueTypeNull:
		return "null"
	case ValueTypeUndefined:
		return "undefined"
	case ValueTypeInt:
		return "int"
	case ValueTypeFloat:
		return "float"
	case ValueTypeString:
		return "string"
	case ValueTypeBool:
		return "bool"
	case ValueTypeArray:
		return "array"
	case ValueTypeObject:
		return "object"
	case ValueTypeFunction:
		return "function"
	case ValueTypeRegex:
		return "regex"
	case ValueTypeModule:
		return "module"
	case ValueTypeBridge:
		return "bridge"
	default:
		return "unknown"
	}
}

// Value is the single tagged runtime representation for every Fenics value.
type Value struct {
	Type ValueType

	Int   int64
	Float float64
	Str   string
	Bool  bool

	Array  []*Value
	Object *Object

	Function *Function
	Regex    *RegexValue
	Module   *Module
	Bridge   Bridge
}

// Object is an insertion-ordered string-keyed map, matching the ordering
// invariant Fenics guarantees for "for key in obj" and string conversion.
type Object struct {
	keys   []string
	values map[string]*Value
}

// NewObject creates an empty ordered object.
func NewObject() *Object {
	return &Object{values: make(map[string]*Value)}
}

// Get returns the value bound to key, if any.
func (o *Object) Get(key string) (*Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set inserts or updates key, preserving first-insertion order.
func (o *Object) Set(key string, value *Value) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Delete removes key, if present.
func (o *Object) Delete(key string) {
	if _, exists := o.values[key]; !exists {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string {
	return o.keys
}

// Len returns the number of entries in the object.
func (o *Object) Len() int {
	return len(o.keys)
}

// Clone returns a shallow copy with an independent key order slice.
func (o *Object) Clone() *Object {
	clone := NewObject()
	for _, k := range o.keys {
		clone.Set(k, o.values[k])
	}
	return clone
}

// Function is a callable value: either a user-defined closure over a parsed
// function body, or a host builtin.
type Function struct {
	Name       string
	Params     []FuncParam
	Body       *parser.Block
	ClosureEnv *Environment
	IsBuiltin  bool
	Builtin    func(args []*Value) (*Value, error)
}

// FuncParam is one formal parameter of a user-defined function.
type FuncParam struct {
	Name string
	Type string // documentation only, per §3/§4.1
}

// RegexValue pairs a compiled regular expression with its original literal
// source (including any trailing flags) for display purposes.
type RegexValue struct {
	Source   string
	Compiled *regexp.Regexp
}

// Module is the result of importing another Fenics file: its lib-exported
// bindings, captured at the moment the import completed.
type Module struct {
	Path    string
	Exports *Object
}

// Bridge is the extension point through which native host capabilities
// (filesystem, HTTP, ...) are exposed to scripts, per §4.5.
type Bridge interface {
	Name() string
	Call(method string, args []*Value) (*Value, error)
}

// NewInt creates a new integer value.
func NewInt(n int64) *Value { return &Value{Type: ValueTypeInt, Int: n} }

// NewFloat creates a new floating-point value.
func NewFloat(n float64) *Value { return &Value{Type: ValueTypeFloat, Float: n} }

// NewString creates a new string value.
func NewString(s string) *Value { return &Value{Type: ValueTypeString, Str: s} }

// NewBool creates a new boolean value.
func NewBool(b bool) *Value { return &Value{Type: ValueTypeBool, Bool: b} }

// NewNull creates the null value.
func NewNull() *Value { return &Value{Type: ValueTypeNull} }

// NewUndefined creates the undefined value.
func NewUndefined() *Value { return &Value{Type: ValueTypeUndefined} }

// NewArray creates a new array value.
func NewArray(elements []*Value) *Value { return &Value{Type: ValueTypeArray, Array: elements} }

// NewObjectValue wraps an Object as a Value.
func NewObjectValue(o *Object) *Value { return &Value{Type: ValueTypeObject, Object: o} }

// NewFunction wraps a Function as a Value.
func NewFunction(fn *Function) *Value { return &Value{Type: ValueTypeFunction, Function: fn} }

// NewRegex wraps a compiled regular expression as a Value.
func NewRegex(rv *RegexValue) *Value { return &Value{Type: ValueTypeRegex, Regex: rv} }

// NewModule wraps a Module as a Value.
func NewModule(m *Module) *Value { return &Value{Type: ValueTypeModule, Module: m} }

// NewBridge wraps a Bridge as a Value.
func NewBridge(b Bridge) *Value { return &Value{Type: ValueTypeBridge, Bridge: b} }

// IsNumeric reports whether v is an Int or a Float.
func (v *Value) IsNumeric() bool {
	return v.Type == ValueTypeInt || v.Type == ValueTypeFloat
}

// AsFloat widens an Int or Float value to float64.
func (v *Value) AsFloat() float64 {
	if v.Type == ValueTypeInt {
		return float64(v.Int)
	}
	return v.Float
}

// String renders v the way print() and string interpolation do: strings
// render unquoted, everything else renders the way a literal reads.
func (v *Value) String() string {
	switch v.Type {
	case ValueTypeString:
		return v.Str
	default:
		return v.Repr()
	}
}

// Repr renders v the way the REPL and nested container members do: strings
// are quoted. Self-referential Array/Object structures print a placeholder
// instead of recursing forever, per §3.1.
func (v *Value) Repr() string {
	return v.reprSeen(make(map[*Value]bool))
}

func (v *Value) reprSeen(seen map[*Value]bool) string {
	switch v.Type {
	case ValueTypeNull:
		return "null"
	case ValueTypeUndefined:
		return "undefined"
	case ValueTypeInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueTypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueTypeString:
		return fmt.Sprintf("%q", v.Str)
	case ValueTypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValueTypeArray:
		if seen[v] {
			return "[...]"
		}
		seen[v] = true
		defer delete(seen, v)
		parts := make([]string, len(v.Array))
		for i, elem := range v.Array {
			parts[i] = elem.reprSeen(seen)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ValueTypeObject:
		if seen[v] {
			return "{...}"
		}
		seen[v] = true
		defer delete(seen, v)
		parts := make([]string, 0, v.Object.Len())
		for _, k := range v.Object.Keys() {
			val, _ := v.Object.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, val.reprSeen(seen)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case ValueTypeFunction:
		if v.Function.IsBuiltin {
			return fmt.Sprintf("<builtin %s>", v.Function.Name)
		}
		return fmt.Sprintf("<function %s>", v.Function.Name)
	case ValueTypeRegex:
		return v.Regex.Source
	case ValueTypeModule:
		return fmt.Sprintf("<module %s>", v.Module.Path)
	case ValueTypeBridge:
		return fmt.Sprintf("<bridge %s>", v.Bridge.Name())
	default:
		return "<unknown>"
	}
}

// IsTruthy implements the boolean-coercion rules used by if/while/and/or.
func (v *Value) IsTruthy() bool {
	switch v.Type {
	case ValueTypeNull, ValueTypeUndefined:
		return false
	case ValueTypeBool:
		return v.Bool
	case ValueTypeInt:
		return v.Int != 0
	case ValueTypeFloat:
		return v.Float != 0 && !math.IsNaN(v.Float)
	case ValueTypeString:
		return v.Str != ""
	case ValueTypeArray:
		return len(v.Array) > 0
	case ValueTypeObject:
		return v.Object.Len() > 0
	default:
		return true
	}
}

// LooseEqual implements "==": numeric values compare by mathematical value
// across Int/Float, everything else compares structurally like "===".
func (v *Value) LooseEqual(other *Value) bool {
	if v.IsNumeric() && other.IsNumeric() {
		return v.AsFloat() == other.AsFloat()
	}
	return v.StrictEqual(other)
}

// StrictEqual implements "===" (and, per design, the "is" operator):
// values of different types are never equal, even Int vs Float.
func (v *Value) StrictEqual(other *Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValueTypeNull, ValueTypeUndefined:
		return true
	case ValueTypeInt:
		return v.Int == other.Int
	case ValueTypeFloat:
		if math.IsNaN(v.Float) && math.IsNaN(other.Float) {
			return true
		}
		return v.Float == other.Float
	case ValueTypeString:
		return v.Str == other.Str
	case ValueTypeBool:
		return v.Bool == other.Bool
	case ValueTypeArray:
		if len(v.Array) != len(other.Array) {
			return false
		}
		for i, elem := range v.Array {
			if !elem.StrictEqual(other.Array[i]) {
				return false
			}
		}
		return true
	case ValueTypeObject:
		if v.Object.Len() != other.Object.Len() {
			return false
		}
		for _, k := range v.Object.Keys() {
			ov, exists := other.Object.Get(k)
			val, _ := v.Object.Get(k)
			if !exists || !val.StrictEqual(ov) {
				return false
			}
		}
		return true
	case ValueTypeFunction:
		return v.Function == other.Function
	case ValueTypeRegex:
		return v.Regex.Source == other.Regex.Source
	case ValueTypeModule:
		return v.Module == other.Module
	case ValueTypeBridge:
		return v.Bridge == other.Bridge
	default:
		return false
	}
}
