package runtime

import (
	"fenics/pkg/parser"
)

// evalStatement dispatches a single statement to its handler and returns
// the value it produced, for use as an implicit block/program result.
func (e *Evaluator) evalStatement(stmt *parser.Statement, env *Environment) (*Value, error) {
	switch {
	case stmt.FuncDecl != nil:
		return e.evalFuncDecl(stmt.FuncDecl, env)
	case stmt.LibDecl != nil:
		return e.evalLibDecl(stmt.LibDecl, env)
	case stmt.Import != nil:
		return e.evalImport(stmt.Import, env)
	case stmt.If != nil:
		return e.evalIf(stmt.If, env)
	case stmt.For != nil:
		return e.evalFor(stmt.For, env)
	case stmt.While != nil:
		return e.evalWhile(stmt.While.Cond, stmt.While.Body, env)
	case stmt.Loop != nil:
		// loop is a semantic alias of while; see DESIGN.md.
		return e.evalWhile(stmt.Loop.Cond, stmt.Loop.Body, env)
	case stmt.Try != nil:
		return e.evalTry(stmt.Try, env)
	case stmt.Return != nil:
		return e.evalReturn(stmt.Return, env)
	case stmt.Throw != nil:
		return e.evalThrow(stmt.Throw, env)
	case stmt.AugAssign != nil:
		return e.evalAugAssign(stmt.AugAssign, env)
	case stmt.Decl != nil:
		return e.evalDecl(stmt.Decl, env)
	case stmt.ExprStmt != nil:
		return e.evalExpr(stmt.ExprStmt.Expr, env)
	default:
		return NewNull(), nil
	}
}

// evalBlock runs a block's statements in a fresh child scope and returns the
// value of the last one.
func (e *Evaluator) evalBlock(block *parser.Block, env *Environment) (*Value, error) {
	inner := NewEnvironment(env)
	var result *Value = NewNull()
	for _, stmt := range block.Statements {
		value, err := e.evalStatement(stmt, inner)
		if err != nil {
			return nil, err
		}
		result = value
	}
	return result, nil
}

func (e *Evaluator) evalFuncDecl(decl *parser.FuncDecl, env *Environment) (*Value, error) {
	params := make([]FuncParam, len(decl.Params))
	for i, p := range decl.Params {
		fp := FuncParam{Name: p.Name}
		if p.Type != nil {
			fp.Type = typeExprName(p.Type)
		}
		params[i] = fp
	}
	fn := &Function{
		Name:       decl.Name,
		Params:     params,
		Body:       decl.Body,
		ClosureEnv: env,
	}
	value := NewFunction(fn)
	env.Define(decl.Name, value, false)
	return value, nil
}

func typeExprName(t *parser.TypeExpr) string {
	if t.Array != nil {
		return "[" + typeExprName(t.Array) + "]"
	}
	return t.Name
}

// evalLibDecl validates a lib block's exports against the current
// environment; the module loader re-derives the actual export table itself
// by re-reading the file's AST after evaluation, so this only needs to
// surface an early NameError for a mistyped export.
func (e *Evaluator) evalLibDecl(decl *parser.LibDecl, env *Environment) (*Value, error) {
	for _, name := range decl.Exports {
		if _, exists := env.Get(name); !exists {
			return nil, newRuntimeError(ErrKindName, 0, "lib export %q is not defined", name)
		}
	}
	return NewNull(), nil
}

func (e *Evaluator) evalImport(imp *parser.ImportStmt, env *Environment) (*Value, error) {
	var spec string
	byPath := imp.Path != nil
	if imp.Name != nil {
		spec = *imp.Name
	} else {
		spec = *imp.Path
	}
	module, err := e.loader.Load(spec, byPath)
	if err != nil {
		return nil, err
	}
	alias := spec
	if imp.Alias != nil {
		alias = *imp.Alias
	}
	env.Define(alias, NewModule(module), true)
	return NewNull(), nil
}

func (e *Evaluator) evalIf(stmt *parser.IfStmt, env *Environment) (*Value, error) {
	cond, err := e.evalExpr(stmt.Cond, env)
	if err != nil {
		return nil, err
	}
	if cond.IsTruthy() {
		return e.evalBlock(stmt.Then, env)
	}
	for _, elif := range stmt.Elifs {
		cond, err := e.evalExpr(elif.Cond, env)
		if err != nil {
			return nil, err
		}
		if cond.IsTruthy() {
			return e.evalBlock(elif.Then, env)
		}
	}
	if stmt.Else != nil {
		return e.evalBlock(stmt.Else, env)
	}
	return NewNull(), nil
}

func (e *Evaluator) evalFor(stmt *parser.ForStmt, env *Environment) (*Value, error) {
	iterable, err := e.evalExpr(stmt.Iterable, env)
	if err != nil {
		return nil, err
	}

	run := func(item *Value) (*Value, bool, error) {
		loopEnv := NewEnvironment(env)
		loopEnv.Define(stmt.Var, item, false)
		result, err := e.evalBlock(stmt.Body, loopEnv)
		if err != nil {
			return nil, false, err
		}
		return result, true, nil
	}

	var result *Value = NewNull()

	if stmt.RangeTo != nil {
		if iterable.Type != ValueTypeInt {
			return nil, newRuntimeError(ErrKindType, stmt.Iterable.Pos.Line, "range start must be an int")
		}
		end, err := e.evalExpr(stmt.RangeTo, env)
		if err != nil {
			return nil, err
		}
		if end.Type != ValueTypeInt {
			return nil, newRuntimeError(ErrKindType, stmt.RangeTo.Pos.Line, "range end must be an int")
		}
		// Half-open range, per §4.3: ascending if start<end, descending if
		// start>end, step of magnitude 1 either way.
		start := iterable.Int
		stop := end.Int
		if start <= stop {
			for i := start; i < stop; i++ {
				v, _, err := run(NewInt(i))
				if err != nil {
					return nil, err
				}
				result = v
			}
		} else {
			for i := start; i > stop; i-- {
				v, _, err := run(NewInt(i))
				if err != nil {
					return nil, err
				}
				result = v
			}
		}
		return result, nil
	}

	switch iterable.Type {
	case ValueTypeArray:
		for _, elem := range iterable.Array {
			v, _, err := run(elem)
			if err != nil {
				return nil, err
			}
			result = v
		}
	case ValueTypeObject:
		for _, key := range iterable.Object.Keys() {
			v, _, err := run(NewString(key))
			if err != nil {
				return nil, err
			}
			result = v
		}
	case ValueTypeString:
		for _, r := range iterable.Str {
			v, _, err := run(NewString(string(r)))
			if err != nil {
				return nil, err
			}
			result = v
		}
	default:
		return nil, newRuntimeError(ErrKindType, stmt.Iterable.Pos.Line, "cannot iterate over %s", iterable.Type)
	}
	return result, nil
}

func (e *Evaluator) evalWhile(cond *parser.Expr, body *parser.Block, env *Environment) (*Value, error) {
	var result *Value = NewNull()
	for {
		c, err := e.evalExpr(cond, env)
		if err != nil {
			return nil, err
		}
		if !c.IsTruthy() {
			break
		}
		result, err = e.evalBlock(body, env)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (e *Evaluator) evalTry(stmt *parser.TryStmt, env *Environment) (*Value, error) {
	result, err := e.evalBlock(stmt.Try, env)
	if err == nil {
		return result, nil
	}
	if _, ok := err.(*returnSignal); ok {
		return nil, err
	}
	var caught *Value
	if ts, ok := err.(*throwSignal); ok {
		caught = ts.value
	} else {
		caught = toThrowValue(err)
	}
	catchEnv := NewEnvironment(env)
	catchEnv.Define(stmt.CatchVar, caught, false)
	return e.evalBlock(stmt.Catch, catchEnv)
}

func (e *Evaluator) evalReturn(stmt *parser.ReturnStmt, env *Environment) (*Value, error) {
	value := NewNull()
	if stmt.Value != nil {
		v, err := e.evalExpr(stmt.Value, env)
		if err != nil {
			return nil, err
		}
		value = v
	}
	return nil, &returnSignal{value: value}
}

func (e *Evaluator) evalThrow(stmt *parser.ThrowStmt, env *Environment) (*Value, error) {
	value, err := e.evalExpr(stmt.Value, env)
	if err != nil {
		return nil, err
	}
	return nil, &throwSignal{value: value}
}

// evalDecl implements the combined declare-or-assign statement (§4.3):
// a fresh name in the target environment declares; an existing mutable
// binding is reassigned; an existing const binding is an error.
func (e *Evaluator) evalDecl(stmt *parser.DeclStmt, env *Environment) (*Value, error) {
	var value *Value
	if stmt.Value != nil {
		v, err := e.evalExpr(stmt.Value, env)
		if err != nil {
			return nil, err
		}
		value = v
	} else {
		obj := NewObject()
		for _, entry := range stmt.Entries {
			v, err := e.evalExpr(entry.Value, env)
			if err != nil {
				return nil, err
			}
			obj.Set(entry.Key, v)
		}
		value = NewObjectValue(obj)
	}

	target := env
	if stmt.Global {
		target = env.Global()
	}

	if stmt.Const {
		if _, exists := target.variables[stmt.Name]; exists {
			return nil, newRuntimeError(ErrKindRuntime, 0, "cannot redeclare const %q", stmt.Name)
		}
		target.Define(stmt.Name, value, true)
		return value, nil
	}

	// A bare "NAME: expr" mutates an existing binding wherever it lives in
	// the enclosing chain, matching evalAugAssign/evalPostfix/evalUnary, and
	// only declares a fresh binding in target when none is found.
	if found, ok := target.Assign(stmt.Name, value); found {
		if !ok {
			return nil, newRuntimeError(ErrKindRuntime, 0, "cannot assign to const %q", stmt.Name)
		}
		return value, nil
	}
	target.Define(stmt.Name, value, false)
	return value, nil
}

func (e *Evaluator) evalAugAssign(stmt *parser.AugAssignStmt, env *Environment) (*Value, error) {
	current, exists := env.Get(stmt.Name)
	if !exists {
		return nil, newRuntimeError(ErrKindName, 0, "undefined variable %q", stmt.Name)
	}
	delta, err := e.evalExpr(stmt.Value, env)
	if err != nil {
		return nil, err
	}
	updated, err := e.augmentedApply(stmt.Op, current, delta, 0)
	if err != nil {
		return nil, err
	}
	if found, ok := env.Assign(stmt.Name, updated); !found || !ok {
		return nil, newRuntimeError(ErrKindRuntime, 0, "cannot assign to %q", stmt.Name)
	}
	return updated, nil
}

// ---- Expressions ----

func (e *Evaluator) evalExpr(expr *parser.Expr, env *Environment) (*Value, error) {
	if expr.Word != nil {
		cond, err := e.evalExpr(expr.Word.Cond, env)
		if err != nil {
			return nil, err
		}
		if cond.IsTruthy() {
			return e.evalExpr(expr.Word.Then, env)
		}
		return e.evalExpr(expr.Word.Else, env)
	}
	return e.evalSymTernary(expr.Sym, env)
}

func (e *Evaluator) evalSymTernary(t *parser.SymTernary, env *Environment) (*Value, error) {
	cond, err := e.evalOr(t.Cond, env)
	if err != nil {
		return nil, err
	}
	if t.Then == nil {
		return cond, nil
	}
	if cond.IsTruthy() {
		return e.evalExpr(t.Then, env)
	}
	return e.evalExpr(t.Else, env)
}

func (e *Evaluator) evalOr(expr *parser.OrExpr, env *Environment) (*Value, error) {
	left, err := e.evalAnd(expr.Left, env)
	if err != nil {
		return nil, err
	}
	for _, op := range expr.Rest {
		if left.IsTruthy() {
			continue
		}
		right, err := e.evalAnd(op.Right, env)
		if err != nil {
			return nil, err
		}
		left = right
	}
	return left, nil
}

func (e *Evaluator) evalAnd(expr *parser.AndExpr, env *Environment) (*Value, error) {
	left, err := e.evalNot(expr.Left, env)
	if err != nil {
		return nil, err
	}
	for _, op := range expr.Rest {
		if !left.IsTruthy() {
			continue
		}
		right, err := e.evalNot(op.Right, env)
		if err != nil {
			return nil, err
		}
		left = right
	}
	return left, nil
}

func (e *Evaluator) evalNot(expr *parser.NotExpr, env *Environment) (*Value, error) {
	v, err := e.evalEquality(expr.Right, env)
	if err != nil {
		return nil, err
	}
	if expr.Not {
		return NewBool(!v.IsTruthy()), nil
	}
	return v, nil
}

func (e *Evaluator) evalEquality(expr *parser.EqualityExpr, env *Environment) (*Value, error) {
	left, err := e.evalComparison(expr.Left, env)
	if err != nil {
		return nil, err
	}
	for _, op := range expr.Rest {
		right, err := e.evalComparison(op.Right, env)
		if err != nil {
			return nil, err
		}
		left, err = e.applyEquality(op.Op, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (e *Evaluator) applyEquality(op string, left, right *Value) (*Value, error) {
	switch op {
	case "==":
		return NewBool(left.LooseEqual(right)), nil
	case "!=":
		return NewBool(!left.LooseEqual(right)), nil
	case "===", "is":
		return NewBool(left.StrictEqual(right)), nil
	case "!==":
		return NewBool(!left.StrictEqual(right)), nil
	case "~", "!~":
		matched, err := e.regexMatch(left, right)
		if err != nil {
			return nil, err
		}
		if op == "!~" {
			matched = !matched
		}
		return NewBool(matched), nil
	default:
		return nil, newRuntimeError(ErrKindType, 0, "unknown equality operator %q", op)
	}
}

func (e *Evaluator) regexMatch(left, right *Value) (bool, error) {
	var str *Value
	var rx *Value
	switch {
	case left.Type == ValueTypeString && right.Type == ValueTypeRegex:
		str, rx = left, right
	case left.Type == ValueTypeRegex && right.Type == ValueTypeString:
		str, rx = right, left
	default:
		return false, newRuntimeError(ErrKindType, 0, "~ requires a string and a regex")
	}
	return rx.Regex.Compiled.MatchString(str.Str), nil
}

func (e *Evaluator) evalComparison(expr *parser.ComparisonExpr, env *Environment) (*Value, error) {
	left, err := e.evalAdditive(expr.Left, env)
	if err != nil {
		return nil, err
	}
	for _, op := range expr.Rest {
		right, err := e.evalAdditive(op.Right, env)
		if err != nil {
			return nil, err
		}
		switch op.Op {
		case "<":
			left, err = e.less(left, right, 0)
		case "<=":
			left, err = e.lessEqual(left, right, 0)
		case ">":
			left, err = e.greater(left, right, 0)
		case ">=":
			left, err = e.greaterEqual(left, right, 0)
		}
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (e *Evaluator) evalAdditive(expr *parser.AdditiveExpr, env *Environment) (*Value, error) {
	left, err := e.evalMultiplicative(expr.Left, env)
	if err != nil {
		return nil, err
	}
	for _, op := range expr.Rest {
		right, err := e.evalMultiplicative(op.Right, env)
		if err != nil {
			return nil, err
		}
		if op.Op == "+" {
			left, err = e.add(left, right, 0)
		} else {
			left, err = e.subtract(left, right, 0)
		}
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (e *Evaluator) evalMultiplicative(expr *parser.MultiplicativeExpr, env *Environment) (*Value, error) {
	left, err := e.evalExponent(expr.Left, env)
	if err != nil {
		return nil, err
	}
	for _, op := range expr.Rest {
		right, err := e.evalExponent(op.Right, env)
		if err != nil {
			return nil, err
		}
		switch op.Op {
		case "*":
			left, err = e.multiply(left, right, 0)
		case "/":
			left, err = e.divide(left, right, 0)
		case "%":
			left, err = e.modulo(left, right, 0)
		}
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (e *Evaluator) evalExponent(expr *parser.ExponentExpr, env *Environment) (*Value, error) {
	left, err := e.evalUnary(expr.Left, env)
	if err != nil {
		return nil, err
	}
	if expr.Op == nil {
		return left, nil
	}
	right, err := e.evalExponent(expr.Right, env)
	if err != nil {
		return nil, err
	}
	return e.power(left, right, 0)
}

func (e *Evaluator) evalUnary(expr *parser.UnaryExpr, env *Environment) (*Value, error) {
	if expr.Op == nil {
		return e.evalPostfix(expr.Operand, env)
	}
	switch *expr.Op {
	case "!":
		v, err := e.evalPostfix(expr.Operand, env)
		if err != nil {
			return nil, err
		}
		return NewBool(!v.IsTruthy()), nil
	case "-":
		v, err := e.evalPostfix(expr.Operand, env)
		if err != nil {
			return nil, err
		}
		if !v.IsNumeric() {
			return nil, newRuntimeError(ErrKindType, 0, "unary - requires a number, got %s", v.Type)
		}
		if v.Type == ValueTypeInt {
			return NewInt(-v.Int), nil
		}
		return NewFloat(-v.Float), nil
	case "++", "--":
		name, ok := identNameOf(expr.Operand)
		if !ok {
			return nil, newRuntimeError(ErrKindRuntime, 0, "%s requires an identifier", *expr.Op)
		}
		current, exists := env.Get(name)
		if !exists {
			return nil, newRuntimeError(ErrKindName, 0, "undefined variable %q", name)
		}
		delta := int64(1)
		if *expr.Op == "--" {
			delta = -1
		}
		updated, err := e.addDelta(current, delta)
		if err != nil {
			return nil, err
		}
		if found, ok := env.Assign(name, updated); !found || !ok {
			return nil, newRuntimeError(ErrKindRuntime, 0, "cannot assign to %q", name)
		}
		return updated, nil
	default:
		return nil, newRuntimeError(ErrKindType, 0, "unknown unary operator %q", *expr.Op)
	}
}

func (e *Evaluator) addDelta(v *Value, delta int64) (*Value, error) {
	if !v.IsNumeric() {
		return nil, newRuntimeError(ErrKindType, 0, "++/-- requires a number, got %s", v.Type)
	}
	if v.Type == ValueTypeInt {
		return NewInt(v.Int + delta), nil
	}
	return NewFloat(v.Float + float64(delta)), nil
}

// identNameOf reports the bare identifier name a PostfixExpr refers to, if
// it is one (no member/index/call access applied).
func identNameOf(p *parser.PostfixExpr) (string, bool) {
	if p.Primary == nil || len(p.Primary.Access) != 0 {
		return "", false
	}
	if p.Primary.Base.Ident == nil {
		return "", false
	}
	return *p.Primary.Base.Ident, true
}

func (e *Evaluator) evalPostfix(expr *parser.PostfixExpr, env *Environment) (*Value, error) {
	value, err := e.evalPrimary(expr.Primary, env)
	if err != nil {
		return nil, err
	}
	if expr.Op == nil {
		return value, nil
	}
	name, ok := identNameOf(expr)
	if !ok {
		return nil, newRuntimeError(ErrKindRuntime, 0, "%s requires an identifier", *expr.Op)
	}
	delta := int64(1)
	if *expr.Op == "--" {
		delta = -1
	}
	updated, err := e.addDelta(value, delta)
	if err != nil {
		return nil, err
	}
	if found, ok := env.Assign(name, updated); !found || !ok {
		return nil, newRuntimeError(ErrKindRuntime, 0, "cannot assign to %q", name)
	}
	return value, nil
}

func (e *Evaluator) evalPrimary(expr *parser.PrimaryExpr, env *Environment) (*Value, error) {
	base, err := e.evalBaseExpr(expr.Base, env)
	if err != nil {
		return nil, err
	}
	for _, access := range expr.Access {
		switch {
		case access.Member != nil:
			base, err = e.evalMemberAccess(base, *access.Member, expr.Base.Pos.Line)
		case access.Index != nil:
			idx, ierr := e.evalExpr(access.Index, env)
			if ierr != nil {
				return nil, ierr
			}
			base, err = e.evalIndexAccess(base, idx, expr.Base.Pos.Line)
		case access.Call != nil:
			args := make([]*Value, len(access.Call.Args))
			for i, a := range access.Call.Args {
				av, aerr := e.evalExpr(a, env)
				if aerr != nil {
					return nil, aerr
				}
				args[i] = av
			}
			base, err = e.callFunction(base, args, expr.Base.Pos.Line)
		}
		if err != nil {
			return nil, err
		}
	}
	return base, nil
}

func (e *Evaluator) evalMemberAccess(base *Value, member string, line int) (*Value, error) {
	switch base.Type {
	case ValueTypeArray:
		switch member {
		case "length":
			return NewInt(int64(len(base.Array))), nil
		case "first":
			if len(base.Array) == 0 {
				return NewUndefined(), nil
			}
			return base.Array[0], nil
		case "last":
			if len(base.Array) == 0 {
				return NewUndefined(), nil
			}
			return base.Array[len(base.Array)-1], nil
		}
		return e.bindMethod(base, member, line)
	case ValueTypeString:
		if member == "length" {
			return NewInt(int64(len([]rune(base.Str)))), nil
		}
		return e.bindMethod(base, member, line)
	case ValueTypeObject:
		// Object member access is permissive (§7): a reserved method wins,
		// then an own field, then Undefined rather than an error.
		if handler := e.methodDispatcher.GetHandler(ValueTypeObject); handler != nil && handler.HasMethod(member) {
			return e.bindMethod(base, member, line)
		}
		if v, ok := base.Object.Get(member); ok {
			return v, nil
		}
		return NewUndefined(), nil
	case ValueTypeModule:
		if v, ok := base.Module.Exports.Get(member); ok {
			return v, nil
		}
		return nil, newRuntimeError(ErrKindImport, line, "module %q has no export %q", base.Module.Path, member)
	case ValueTypeBridge:
		return NewFunction(&Function{
			Name:      member,
			IsBuiltin: true,
			Builtin: func(args []*Value) (*Value, error) {
				v, err := base.Bridge.Call(member, args)
				if err != nil {
					return nil, wrapBridgeError(base.Bridge.Name(), line, err)
				}
				return v, nil
			},
		}), nil
	default:
		return e.bindMethod(base, member, line)
	}
}

// bindMethod produces a callable Value that, when invoked, dispatches to the
// method handler registered for target's type. Binding happens at member
// access and calling at the following "(...)" access step, so "arr.push" can
// be passed around before it is invoked.
func (e *Evaluator) bindMethod(target *Value, name string, line int) (*Value, error) {
	handler := e.methodDispatcher.GetHandler(target.Type)
	if handler == nil || !handler.HasMethod(name) {
		return nil, newRuntimeError(ErrKindName, line, "%s has no method %q", target.Type, name)
	}
	return NewFunction(&Function{
		Name:      name,
		IsBuiltin: true,
		Builtin: func(args []*Value) (*Value, error) {
			return handler.CallMethod(target, name, args)
		},
	}), nil
}

func (e *Evaluator) evalIndexAccess(base, idx *Value, line int) (*Value, error) {
	switch base.Type {
	case ValueTypeArray:
		if idx.Type != ValueTypeInt {
			return nil, newRuntimeError(ErrKindType, line, "array index must be an int")
		}
		i := idx.Int
		if i < 0 {
			i += int64(len(base.Array))
		}
		if i < 0 || i >= int64(len(base.Array)) {
			return nil, newRuntimeError(ErrKindIndex, line, "array index %d out of range", idx.Int)
		}
		return base.Array[i], nil
	case ValueTypeObject:
		if idx.Type != ValueTypeString {
			return nil, newRuntimeError(ErrKindType, line, "object key must be a string")
		}
		v, ok := base.Object.Get(idx.Str)
		if !ok {
			return nil, newRuntimeError(ErrKindIndex, line, "key %q not found", idx.Str)
		}
		return v, nil
	case ValueTypeString:
		if idx.Type != ValueTypeInt {
			return nil, newRuntimeError(ErrKindType, line, "string index must be an int")
		}
		runes := []rune(base.Str)
		i := idx.Int
		if i < 0 {
			i += int64(len(runes))
		}
		if i < 0 || i >= int64(len(runes)) {
			return nil, newRuntimeError(ErrKindIndex, line, "string index %d out of range", idx.Int)
		}
		return NewString(string(runes[i])), nil
	default:
		return nil, newRuntimeError(ErrKindType, line, "cannot index %s", base.Type)
	}
}

func (e *Evaluator) callFunction(callee *Value, args []*Value, line int) (*Value, error) {
	if callee.Type != ValueTypeFunction {
		return nil, newRuntimeError(ErrKindType, line, "cannot call non-function value of type %s", callee.Type)
	}
	fn := callee.Function
	if fn.IsBuiltin {
		return fn.Builtin(args)
	}
	// Positional binding per §4.3: a missing argument is Undefined, an extra
	// argument is discarded.
	callEnv := NewEnvironment(fn.ClosureEnv)
	for i, p := range fn.Params {
		if i < len(args) {
			callEnv.Define(p.Name, args[i], false)
		} else {
			callEnv.Define(p.Name, NewUndefined(), false)
		}
	}
	value, err := e.evalBlock(fn.Body, callEnv)
	if err != nil {
		if rs, ok := err.(*returnSignal); ok {
			return rs.value, nil
		}
		return nil, err
	}
	return value, nil
}

func (e *Evaluator) evalBaseExpr(expr *parser.BaseExpr, env *Environment) (*Value, error) {
	switch {
	case expr.Float != nil:
		return NewFloat(*expr.Float), nil
	case expr.Int != nil:
		return NewInt(*expr.Int), nil
	case expr.Str != nil:
		return e.evalStringLiteral(*expr.Str, env)
	case expr.Bool != nil:
		return NewBool(*expr.Bool == "true"), nil
	case expr.Null:
		return NewNull(), nil
	case expr.BlockNoop:
		return NewNull(), nil
	case expr.Regex != nil:
		return e.compileRegex(*expr.Regex, expr.Pos.Line)
	case expr.Ephemeral != nil:
		return e.evalEphemeral(*expr.Ephemeral, env)
	case expr.Array != nil:
		return e.evalArrayLit(expr.Array, env)
	case expr.Object != nil:
		return e.evalObjectLit(expr.Object, env)
	case expr.Ident != nil:
		v, exists := env.Get(*expr.Ident)
		if !exists {
			return nil, newRuntimeError(ErrKindName, expr.Pos.Line, "undefined variable %q", *expr.Ident)
		}
		return v, nil
	case expr.Paren != nil:
		return e.evalExpr(expr.Paren, env)
	default:
		return NewNull(), nil
	}
}

func (e *Evaluator) evalStringLiteral(raw string, env *Environment) (*Value, error) {
	parts, err := parser.ParseStringParts("<string>", raw)
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 && parts[0].Embedded == nil {
		return NewString(parts[0].Literal), nil
	}
	var sb []byte
	for _, part := range parts {
		if part.Embedded != nil {
			v, err := e.evalExpr(part.Embedded, env)
			if err != nil {
				return nil, err
			}
			sb = append(sb, v.String()...)
			continue
		}
		sb = append(sb, part.Literal...)
	}
	return NewString(string(sb)), nil
}

func (e *Evaluator) evalEphemeral(name string, env *Environment) (*Value, error) {
	if v, ok := env.GetEphemeral(name); ok {
		return v, nil
	}
	var value *Value
	if name[1] >= '0' && name[1] <= '9' {
		value = NewInt(int64(e.nextEphemeralOrdinal()))
	} else {
		value = NewUndefined()
	}
	env.SetEphemeral(name, value)
	return value, nil
}

func (e *Evaluator) evalArrayLit(lit *parser.ArrayLit, env *Environment) (*Value, error) {
	elements := make([]*Value, len(lit.Elements))
	for i, elem := range lit.Elements {
		v, err := e.evalExpr(elem, env)
		if err != nil {
			return nil, err
		}
		elements[i] = v
	}
	return NewArray(elements), nil
}

func (e *Evaluator) evalObjectLit(lit *parser.ObjectLit, env *Environment) (*Value, error) {
	obj := NewObject()
	for _, field := range lit.Fields {
		v, err := e.evalExpr(field.Value, env)
		if err != nil {
			return nil, err
		}
		obj.Set(field.Key, v)
	}
	return NewObjectValue(obj), nil
}
