// Package repl implements the interactive Fenics read-eval-print loop.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/repr"

	"fenics/pkg/parser"
	"fenics/pkg/runtime"
)

const prompt = "fenics> "
const continuationPrompt = "    | "

// REPL reads Fenics source line by line, evaluating each complete
// indentation block against a single, long-lived Evaluator so top-level
// declarations persist across inputs.
type REPL struct {
	scanner *bufio.Scanner
	output  io.Writer
	eval    *runtime.Evaluator
	showAST bool
}

// New creates a REPL bound to the given evaluator.
func New(input io.Reader, output io.Writer, eval *runtime.Evaluator) *REPL {
	return &REPL{
		scanner: bufio.NewScanner(input),
		output:  output,
		eval:    eval,
	}
}

// Start runs the loop until input is exhausted.
func (r *REPL) Start() {
	fmt.Fprintln(r.output, "Fenics REPL")
	fmt.Fprintln(r.output, "Type :help for a list of commands.")

	for {
		fmt.Fprint(r.output, prompt)
		if !r.scanner.Scan() {
			break
		}
		line := r.scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if r.handleCommand(trimmed) {
				break
			}
			continue
		}

		input := line
		for r.needsMoreInput(input) {
			fmt.Fprint(r.output, continuationPrompt)
			if !r.scanner.Scan() {
				break
			}
			next := r.scanner.Text()
			if strings.TrimSpace(next) == "" {
				break
			}
			input += "\n" + next
		}
		r.evaluate(input)
	}
	fmt.Fprintln(r.output, "\nGoodbye!")
}

// needsMoreInput uses the same bracket-balance heuristic the teacher's REPL
// used for braces, extended to a trailing colon since an indentation block
// in Fenics opens with ":" followed by an indented continuation.
func (r *REPL) needsMoreInput(input string) bool {
	trimmed := strings.TrimRight(input, " \t")
	if strings.HasSuffix(trimmed, ":") {
		return true
	}
	open := strings.Count(input, "(") + strings.Count(input, "[") + strings.Count(input, "{")
	closeCount := strings.Count(input, ")") + strings.Count(input, "]") + strings.Count(input, "}")
	return open > closeCount
}

func (r *REPL) handleCommand(cmd string) (quit bool) {
	switch {
	case cmd == ":help":
		fmt.Fprintln(r.output, "Commands:")
		fmt.Fprintln(r.output, "  :help   show this message")
		fmt.Fprintln(r.output, "  :ast    toggle printing the parsed AST instead of evaluating")
		fmt.Fprintln(r.output, "  :quit   exit the REPL")
	case cmd == ":ast":
		r.showAST = !r.showAST
		fmt.Fprintf(r.output, "AST mode: %v\n", r.showAST)
	case cmd == ":quit" || cmd == ":exit":
		return true
	default:
		fmt.Fprintf(r.output, "unknown command %q\n", cmd)
	}
	return false
}

func (r *REPL) evaluate(input string) {
	if r.showAST {
		prog, err := parser.Parse("<repl>", input+"\n")
		if err != nil {
			fmt.Fprintf(r.output, "parse error: %v\n", err)
			return
		}
		repr.Println(prog)
		return
	}

	result, err := r.eval.Run("<repl>", input+"\n")
	if err != nil {
		fmt.Fprintf(r.output, "error: %v\n", err)
		return
	}
	if result.Type != runtime.ValueTypeNull {
		fmt.Fprintln(r.output, result.Repr())
	}
}
