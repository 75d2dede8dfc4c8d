// Package bridge provides the native bridges scripts can call into:
// filesystem and HTTP access that the language core intentionally has no
// syntax for, per §4.5.
package bridge

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fenics/pkg/runtime"
)

// FS implements runtime.Bridge for read/exists/write file access. Script
// paths are joined onto the Root base directory as given; they are not
// checked for ".." segments, so a path can name a file outside Root.
type FS struct {
	Root string
	log  *slog.Logger
}

func NewFS(root string) *FS {
	return &FS{Root: root, log: slog.Default()}
}

func (f *FS) Name() string { return "fs" }

// SetLogger satisfies runtime.BridgeLogger; RegisterBridge calls it with the
// evaluator's own logger so fs calls are logged at Debug level per §4.5.
func (f *FS) SetLogger(log *slog.Logger) {
	f.log = log
}

func (f *FS) Call(method string, args []*runtime.Value) (*runtime.Value, error) {
	switch method {
	case "read":
		return f.read(args)
	case "exists":
		return f.exists(args)
	case "write":
		return f.write(args)
	default:
		return nil, fmt.Errorf("fs has no method %q", method)
	}
}

func (f *FS) resolve(path string) string {
	if f.Root == "" {
		return path
	}
	return f.Root + string(os.PathSeparator) + path
}

// logCall emits the Debug-level bridge call log §4.5 requires, with the
// resolved absolute path.
func (f *FS) logCall(method, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	f.log.Debug("fs call", "method", method, "path", abs)
}

func (f *FS) read(args []*runtime.Value) (*runtime.Value, error) {
	if len(args) != 1 || args[0].Type != runtime.ValueTypeString {
		return nil, fmt.Errorf("fs.read expects 1 string argument")
	}
	resolved := f.resolve(args[0].Str)
	f.logCall("read", resolved)
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, err
	}
	return runtime.NewString(string(data)), nil
}

func (f *FS) exists(args []*runtime.Value) (*runtime.Value, error) {
	if len(args) != 1 || args[0].Type != runtime.ValueTypeString {
		return nil, fmt.Errorf("fs.exists expects 1 string argument")
	}
	resolved := f.resolve(args[0].Str)
	f.logCall("exists", resolved)
	_, err := os.Stat(resolved)
	return runtime.NewBool(err == nil), nil
}

func (f *FS) write(args []*runtime.Value) (*runtime.Value, error) {
	if len(args) != 2 || args[0].Type != runtime.ValueTypeString || args[1].Type != runtime.ValueTypeString {
		return nil, fmt.Errorf("fs.write expects (string path, string content)")
	}
	resolved := f.resolve(args[0].Str)
	f.logCall("write", resolved)
	if err := os.WriteFile(resolved, []byte(args[1].Str), 0o644); err != nil {
		return nil, err
	}
	return runtime.NewNull(), nil
}
