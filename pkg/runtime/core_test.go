package runtime

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type memFileReader struct {
	files map[string]string
}

func (m *memFileReader) ReadFile(path string) (string, error) {
	src, ok := m.files[path]
	if !ok {
		return "", errNotFound(path)
	}
	return src, nil
}

func (m *memFileReader) Exists(path string) bool {
	_, ok := m.files[path]
	return ok
}

type notFoundErr string

func (e notFoundErr) Error() string { return "no such file: " + string(e) }

func errNotFound(path string) error { return notFoundErr(path) }

func newTestEvaluator(files map[string]string) (*Evaluator, *bytes.Buffer) {
	var out bytes.Buffer
	reader := &memFileReader{files: files}
	eval := NewEvaluator(&out, strings.NewReader(""), reader, slog.Default())
	return eval, &out
}

func run(t *testing.T, source string) string {
	t.Helper()
	eval, out := newTestEvaluator(nil)
	_, err := eval.Run("test.fenics", source)
	require.NoError(t, err)
	return out.String()
}

func TestHelloInterpolation(t *testing.T) {
	out := run(t, "name: \"World\"\nprint(\"Hello, #{name}!\")\n")
	require.Equal(t, "Hello, World!\n", out)
}

func TestFibonacci(t *testing.T) {
	out := run(t, strings.Join([]string{
		"fn fib(n) -> Int:",
		"    if n < 2:",
		"        return n",
		"    return fib(n-1) + fib(n-2)",
		"print(fib(10))",
	}, "\n")+"\n")
	require.Equal(t, "55\n", out)
}

func TestObjectIterationOrder(t *testing.T) {
	out := run(t, strings.Join([]string{
		"u:",
		"    - name: \"Ada\",",
		"    - age: 36",
		"for k in u:",
		"    print(k)",
	}, "\n")+"\n")
	require.Equal(t, "name\nage\n", out)
}

func TestTryCatchValueError(t *testing.T) {
	out := run(t, strings.Join([]string{
		"try:",
		"    int(\"abc\")",
		"catch (e):",
		"    print(e.kind)",
	}, "\n")+"\n")
	require.Equal(t, "ValueError\n", out)
}

func TestModuleImport(t *testing.T) {
	files := map[string]string{
		"mylib.fenics": strings.Join([]string{
			"fn add(a, b) -> Int:",
			"    return a + b",
			"lib mylib:",
			"    - add",
		}, "\n") + "\n",
	}
	eval, out := newTestEvaluator(files)
	source := "import mylib\nprint(mylib.add(2, 3))\n"
	_, err := eval.Run("main.fenics", source)
	require.NoError(t, err)
	require.Equal(t, "5\n", out.String())
}

func TestInterpolationWithExpressionAndProperty(t *testing.T) {
	out := run(t, "xs: [1,2,3]\nprint(\"len=#{len(xs)} first=#{xs.first}\")\n")
	require.Equal(t, "len=3 first=1\n", out)
}

// P2: integer-only arithmetic matches arbitrary-precision math modulo 64-bit
// wrap, for expressions without division.
func TestIntegerArithmeticExact(t *testing.T) {
	eval, _ := newTestEvaluator(nil)
	result, err := eval.Run("test.fenics", "(2 + 3) * 4 - 1\n")
	require.NoError(t, err)
	require.Equal(t, ValueTypeInt, result.Type)
	require.Equal(t, int64(19), result.Int)
}

// P3: reverse is an involution.
func TestArrayReverseInvolution(t *testing.T) {
	eval, _ := newTestEvaluator(nil)
	result, err := eval.Run("test.fenics", "[1,2,3].reverse().reverse()\n")
	require.NoError(t, err)
	require.Equal(t, ValueTypeArray, result.Type)
	require.Len(t, result.Array, 3)
	require.Equal(t, int64(1), result.Array[0].Int)
	require.Equal(t, int64(2), result.Array[1].Int)
	require.Equal(t, int64(3), result.Array[2].Int)
}

// P4: len(keys(o)) equals the number of distinct key insertions.
func TestObjectKeysLength(t *testing.T) {
	eval, _ := newTestEvaluator(nil)
	source := strings.Join([]string{
		"o:",
		"    - a: 1,",
		"    - b: 2,",
		"    - c: 3",
		"len(keys(o))",
	}, "\n") + "\n"
	result, err := eval.Run("test.fenics", source)
	require.NoError(t, err)
	require.Equal(t, int64(3), result.Int)
}

// P5: a const binding cannot be rebound.
func TestConstCannotBeRebound(t *testing.T) {
	eval, _ := newTestEvaluator(nil)
	_, err := eval.Run("test.fenics", "const x: 1\nx: 2\n")
	require.Error(t, err)
}

// P6: closures capture by reference.
func TestClosureCapturesByReference(t *testing.T) {
	eval, out := newTestEvaluator(nil)
	source := strings.Join([]string{
		"count: 0",
		"fn show():",
		"    print(count)",
		"count: 5",
		"show()",
	}, "\n") + "\n"
	_, err := eval.Run("test.fenics", source)
	require.NoError(t, err)
	require.Equal(t, "5\n", out.String())
}

// A bare "NAME: expr" inside a nested function must mutate the binding in
// its enclosing (non-global) frame rather than shadow it with a new local.
func TestDeclMutatesEnclosingNonGlobalFrame(t *testing.T) {
	eval, out := newTestEvaluator(nil)
	source := strings.Join([]string{
		"fn makeCounter():",
		"    count: 0",
		"    fn inc():",
		"        count: count + 1",
		"        print(count)",
		"    inc()",
		"    inc()",
		"    print(count)",
		"makeCounter()",
	}, "\n") + "\n"
	_, err := eval.Run("test.fenics", source)
	require.NoError(t, err)
	require.Equal(t, "1\n2\n2\n", out.String())
}

func TestUncaughtErrorDiagnosticFormat(t *testing.T) {
	eval, _ := newTestEvaluator(nil)
	_, err := eval.Run("test.fenics", "throw \"boom\"\n")
	require.Error(t, err)
	require.Equal(t, `RuntimeError: uncaught exception: "boom" at test.fenics:0:0`, err.Error())

	_, err = eval.Run("bad.fenics", "fn f(:\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad.fenics:")
}

func TestNaNTruthinessAndEquality(t *testing.T) {
	eval, _ := newTestEvaluator(nil)
	result, err := eval.Run("test.fenics", "(0.0 / 0.0) === (0.0 / 0.0)\n")
	require.NoError(t, err)
	require.Equal(t, ValueTypeBool, result.Type)
	require.True(t, result.Bool)

	result, err = eval.Run("test.fenics", "(0.0 / 0.0) == (0.0 / 0.0)\n")
	require.NoError(t, err)
	require.False(t, result.Bool)
}

func TestCyclicRepr(t *testing.T) {
	arr := NewArray([]*Value{NewInt(1)})
	arr.Array = append(arr.Array, arr)
	require.Equal(t, "[1, [...]]", arr.Repr())
}

func TestForRangeDescending(t *testing.T) {
	eval, out := newTestEvaluator(nil)
	_, err := eval.Run("test.fenics", "for i in 3..0:\n    print(i)\n")
	require.NoError(t, err)
	require.Equal(t, "3\n2\n1\n", out.String())
}

func TestMissingArgsPadUndefined(t *testing.T) {
	eval, _ := newTestEvaluator(nil)
	result, err := eval.Run("test.fenics", "fn f(a, b):\n    return b\nf(1)\n")
	require.NoError(t, err)
	require.Equal(t, ValueTypeUndefined, result.Type)
}
