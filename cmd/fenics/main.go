// Command fenics is the CLI entry point for the Fenics language: it runs a
// source file to completion or drops into an interactive REPL.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"fenics/pkg/bridge"
	"fenics/pkg/repl"
	"fenics/pkg/runtime"
)

var version = "0.1.0-dev"

type cli struct {
	Run struct {
		File string `arg:"" help:"Fenics source file to execute."`
		HTTP bool   `help:"Enable the optional http bridge."`
	} `cmd:"" default:"withargs" help:"Run a .fenics script."`

	Repl struct {
		HTTP bool `help:"Enable the optional http bridge."`
	} `cmd:"" help:"Start an interactive REPL."`

	Version kong.VersionFlag `help:"Show version."`
}

func main() {
	var c cli
	parser := kong.Must(&c,
		kong.Name("fenics"),
		kong.Description("A small indentation-based scripting language."),
		kong.Vars{"version": version},
	)
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	switch ctx.Command() {
	case "run <file>":
		runFile(c.Run.File, c.Run.HTTP)
	case "repl":
		startRepl(c.Repl.HTTP)
	default:
		startRepl(false)
	}
}

// osFileReader satisfies runtime.FileReader against the real filesystem.
type osFileReader struct{}

func (osFileReader) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func (osFileReader) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func newEvaluator(withHTTP bool) *runtime.Evaluator {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	eval := runtime.NewEvaluator(os.Stdout, os.Stdin, osFileReader{}, logger)
	eval.RegisterBridge(bridge.NewFS("."))
	if withHTTP {
		eval.RegisterBridge(bridge.NewHTTP())
	}
	return eval
}

func runFile(path string, withHTTP bool) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fenics: %v\n", err)
		os.Exit(1)
	}
	eval := newEvaluator(withHTTP)
	if _, err := eval.Run(filepath.Clean(path), string(source)); err != nil {
		// Run already formats err as "<kind>: <message> at <file>:<line>:<column>".
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func startRepl(withHTTP bool) {
	eval := newEvaluator(withHTTP)
	r := repl.New(os.Stdin, os.Stdout, eval)
	r.Start()
}
