package runtime

import (
	"errors"
	"fmt"

	"github.com/samber/oops"

	"fenics/pkg/parser"
)

// Error kinds surfaced to scripts via the caught value's "kind" field, per
// §7. IndexError covers both an out-of-bounds array index and a missing
// mandatory object key; RuntimeError is the catch-all for anything else.
const (
	ErrKindType    = "TypeError"
	ErrKindName    = "NameError"
	ErrKindIndex   = "IndexError"
	ErrKindValue   = "ValueError"
	ErrKindImport  = "ImportError"
	ErrKindBridge  = "BridgeError"
	ErrKindRuntime = "RuntimeError"
)

// newRuntimeError builds an oops.OopsError carrying the kind and source line
// a throw value is later built from, per §7.
func newRuntimeError(kind string, line int, format string, args ...interface{}) error {
	return oops.
		Code(kind).
		With("line", line).
		Errorf(format, args...)
}

// wrapBridgeError tags a native bridge failure with the bridge's name so it
// survives the trip through toThrowValue.
func wrapBridgeError(bridgeName string, line int, err error) error {
	return oops.
		Code(ErrKindBridge).
		With("line", line).
		With("bridge", bridgeName).
		Wrap(err)
}

// toThrowValue converts any Go error raised during evaluation into the
// {kind, message, line} Object that catch blocks see. Values explicitly
// raised by "throw EXPR" are passed through unconverted by the caller;
// this only handles host-originated failures.
func toThrowValue(err error) *Value {
	obj := NewObject()
	var oopsErr oops.OopsError
	if errors.As(err, &oopsErr) {
		kind := oopsErr.Code()
		if kind == "" {
			kind = ErrKindRuntime
		}
		obj.Set("kind", NewString(kind))
		obj.Set("message", NewString(oopsErr.Error()))
		if line, ok := oopsErr.Context()["line"]; ok {
			if n, ok := line.(int); ok {
				obj.Set("line", NewInt(int64(n)))
			}
		}
		return NewObjectValue(obj)
	}
	obj.Set("kind", NewString(ErrKindRuntime))
	obj.Set("message", NewString(err.Error()))
	obj.Set("line", NewInt(0))
	return NewObjectValue(obj)
}

// FormatDiagnostic renders an error surfaced out of Run as the
// "<kind>: <message> at <file>:<line>:<column>" diagnostic §6.1 requires.
// A *parser.ParseError already carries its own file/line/column; an
// oops.OopsError carries its kind and line through newRuntimeError's
// context, with column left at 0 since the evaluator only threads line
// numbers through expression evaluation, not columns.
func FormatDiagnostic(filename string, err error) string {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	var oopsErr oops.OopsError
	if errors.As(err, &oopsErr) {
		kind := oopsErr.Code()
		if kind == "" {
			kind = ErrKindRuntime
		}
		line := 0
		if v, ok := oopsErr.Context()["line"]; ok {
			if n, ok := v.(int); ok {
				line = n
			}
		}
		return fmt.Sprintf("%s: %s at %s:%d:%d", kind, oopsErr.Error(), filename, line, 0)
	}
	return fmt.Sprintf("%s: %s at %s:0:0", ErrKindRuntime, err.Error(), filename)
}
