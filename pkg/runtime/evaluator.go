package runtime

import (
	"fmt"
	"io"
	"log/slog"

	"fenics/pkg/parser"
)

// returnSignal unwinds a "return" statement out of the enclosing function
// call, reusing Go's error mechanism for control flow the way a tree-walking
// evaluator naturally does.
type returnSignal struct{ value *Value }

func (r *returnSignal) Error() string { return "return" }

// throwSignal carries a "throw EXPR" value up to the nearest enclosing
// catch, or out of Run entirely if uncaught.
type throwSignal struct{ value *Value }

func (t *throwSignal) Error() string { return "throw" }

// Evaluator is the execution engine for Fenics programs. It is not safe for
// concurrent use by multiple goroutines, matching the single-threaded
// execution model in §5. Successive Run calls on one Evaluator share its
// global frame, which is how the REPL keeps declarations across inputs.
type Evaluator struct {
	globalEnv        *Environment
	methodDispatcher MethodDispatcher
	loader           *ModuleLoader
	bridges          map[string]Bridge

	stdout io.Writer
	stdin  io.Reader
	log    *slog.Logger

	ephemeralSeq int
}

// NewEvaluator creates an evaluator wired to the given I/O streams and
// module-loader file reader, with all builtins and method handlers
// registered.
func NewEvaluator(stdout io.Writer, stdin io.Reader, reader FileReader, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Evaluator{
		globalEnv: NewEnvironment(nil),
		bridges:   make(map[string]Bridge),
		stdout:    stdout,
		stdin:     stdin,
		log:       logger,
	}
	e.methodDispatcher = e.newMethodDispatcherWithAllHandlers()
	e.loader = NewModuleLoader(reader, e)
	e.defineBuiltins()
	return e
}

// BridgeLogger is implemented by bridges that want the Debug-level call
// logging §4.5 describes wired in automatically at registration time.
type BridgeLogger interface {
	SetLogger(log *slog.Logger)
}

// RegisterBridge makes a native bridge available to scripts both under
// e.bridges (for host-side lookup) and as a global identifier bound to a
// Bridge value, so scripts call it as name.method(...) directly.
func (e *Evaluator) RegisterBridge(b Bridge) {
	if bl, ok := b.(BridgeLogger); ok {
		bl.SetLogger(e.log)
	}
	e.bridges[b.Name()] = b
	e.globalEnv.Define(b.Name(), NewBridge(b), true)
}

// ExecuteFunction implements FunctionExecutor for the higher-order array
// methods (map/filter/reduce), letting method_dispatcher stay decoupled
// from the evaluator's own call machinery.
func (e *Evaluator) ExecuteFunction(fn *Value, args []*Value) (*Value, error) {
	if fn.Type != ValueTypeFunction {
		return nil, newRuntimeError(ErrKindType, 0, "cannot call non-function value")
	}
	return e.callFunction(fn, args, 0)
}

// Run parses and evaluates a complete source file in the global
// environment, returning the value of its last statement. Any error that
// escapes evaluation — a parse failure or an uncaught throw/runtime error —
// is converted into the "<kind>: <message> at <file>:<line>:<column>"
// diagnostic required by §6.1 before it reaches the caller.
func (e *Evaluator) Run(filename, source string) (*Value, error) {
	prog, err := parser.Parse(filename, source)
	if err != nil {
		return nil, fmt.Errorf("%s", FormatDiagnostic(filename, err))
	}
	e.loader.markLoaded(filename, e.globalEnv)

	var result *Value = NewNull()
	for _, stmt := range prog.Statements {
		result, err = e.evalStatement(stmt, e.globalEnv)
		if err != nil {
			if rs, ok := err.(*returnSignal); ok {
				return rs.value, nil
			}
			if ts, ok := err.(*throwSignal); ok {
				runtimeErr := newRuntimeError(ErrKindRuntime, 0, "uncaught exception: %s", ts.value.Repr())
				return nil, fmt.Errorf("%s", FormatDiagnostic(filename, runtimeErr))
			}
			return nil, fmt.Errorf("%s", FormatDiagnostic(filename, err))
		}
	}
	return result, nil
}

// nextEphemeralOrdinal hands out the sequential number used for #NUMBER
// ephemeral variables (§4.3), unique per evaluator instance.
func (e *Evaluator) nextEphemeralOrdinal() int {
	e.ephemeralSeq++
	return e.ephemeralSeq
}

func (e *Evaluator) newMethodDispatcherWithAllHandlers() MethodDispatcher {
	dispatcher := NewMethodDispatcher()
	arrayHandler := NewArrayMethodHandler()
	arrayHandler.SetFunctionExecutor(e)
	dispatcher.RegisterHandler(ValueTypeArray, arrayHandler)
	dispatcher.RegisterHandler(ValueTypeObject, NewObjectMethodHandler())
	dispatcher.RegisterHandler(ValueTypeString, NewStringMethodHandler())
	return dispatcher
}

func (e *Evaluator) print(args []*Value) {
	for i, arg := range args {
		if i > 0 {
			fmt.Fprint(e.stdout, " ")
		}
		fmt.Fprint(e.stdout, arg.String())
	}
	fmt.Fprintln(e.stdout)
}
