package parser

import (
	"strings"
	"testing"

	require "github.com/alecthomas/assert/v2"
)

func TestParseFuncDecl(t *testing.T) {
	src := strings.Join([]string{
		"fn fib(n) -> Int:",
		"    if n < 2:",
		"        return n",
		"    return fib(n-1) + fib(n-2)",
	}, "\n") + "\n"
	prog, err := Parse("test.fenics", src)
	require.NoError(t, err)
	require.Equal(t, 1, len(prog.Statements))
	require.NotNil(t, prog.Statements[0].FuncDecl)
	require.Equal(t, "fib", prog.Statements[0].FuncDecl.Name)
}

func TestParseDashedObjectDecl(t *testing.T) {
	src := strings.Join([]string{
		"u:",
		"    - name: \"Ada\",",
		"    - age: 36",
	}, "\n") + "\n"
	prog, err := Parse("test.fenics", src)
	require.NoError(t, err)
	decl := prog.Statements[0].Decl
	require.NotNil(t, decl)
	require.Equal(t, 2, len(decl.Entries))
	require.Equal(t, "name", decl.Entries[0].Key)
	require.Equal(t, "age", decl.Entries[1].Key)
}

func TestParseLibDecl(t *testing.T) {
	src := strings.Join([]string{
		"fn add(a, b) -> Int:",
		"    return a + b",
		"lib mylib:",
		"    - add",
	}, "\n") + "\n"
	prog, err := Parse("mylib.fenics", src)
	require.NoError(t, err)
	lib := prog.Statements[1].LibDecl
	require.NotNil(t, lib)
	require.Equal(t, "mylib", lib.Name)
	require.Equal(t, []string{"add"}, lib.Exports)
}

func TestParseImportStmt(t *testing.T) {
	prog, err := Parse("main.fenics", "import mylib\n")
	require.NoError(t, err)
	imp := prog.Statements[0].Import
	require.NotNil(t, imp)
	require.NotNil(t, imp.Name)
	require.Equal(t, "mylib", *imp.Name)
}

func TestParseTryCatch(t *testing.T) {
	src := strings.Join([]string{
		"try:",
		"    int(\"abc\")",
		"catch (e):",
		"    print(e.kind)",
	}, "\n") + "\n"
	prog, err := Parse("test.fenics", src)
	require.NoError(t, err)
	try := prog.Statements[0].Try
	require.NotNil(t, try)
	require.Equal(t, "e", try.CatchVar)
}

func TestParseTryCatchNoColon(t *testing.T) {
	src := strings.Join([]string{
		"try:",
		"    int(\"abc\")",
		"catch (e)",
		"    print(e.kind)",
	}, "\n") + "\n"
	prog, err := Parse("test.fenics", src)
	require.NoError(t, err)
	try := prog.Statements[0].Try
	require.NotNil(t, try)
	require.Equal(t, "e", try.CatchVar)
}

func TestParseForRange(t *testing.T) {
	prog, err := Parse("test.fenics", "for i in 0..10:\n    print(i)\n")
	require.NoError(t, err)
	forStmt := prog.Statements[0].For
	require.NotNil(t, forStmt)
	require.Equal(t, "i", forStmt.Var)
	require.NotNil(t, forStmt.RangeTo)
}

func TestParseRegexVsDivision(t *testing.T) {
	prog, err := Parse("test.fenics", "x ~ /abc/i\n")
	require.NoError(t, err)
	require.Equal(t, 1, len(prog.Statements))

	prog, err = Parse("test.fenics", "a / b\n")
	require.NoError(t, err)
	require.Equal(t, 1, len(prog.Statements))
}

func TestParseTernaryForms(t *testing.T) {
	_, err := Parse("test.fenics", "x: if a then b otherwise c\n")
	require.NoError(t, err)
	_, err = Parse("test.fenics", "x: a ? b : c\n")
	require.NoError(t, err)
}

func TestParseEphemeralVariable(t *testing.T) {
	prog, err := Parse("test.fenics", "print(#1)\n")
	require.NoError(t, err)
	require.Equal(t, 1, len(prog.Statements))
}

func TestParseRejectsTabIndent(t *testing.T) {
	_, err := Parse("test.fenics", "fn f():\n\treturn 1\n")
	require.Error(t, err)
}
