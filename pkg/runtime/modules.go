package runtime

import (
	"path/filepath"
	"strings"

	"fenics/pkg/parser"
)

// FileReader abstracts filesystem access for the module loader so tests can
// substitute an in-memory source set.
type FileReader interface {
	ReadFile(path string) (string, error)
	Exists(path string) bool
}

// ModuleLoader implements §4.4: resolving import references to files,
// evaluating them in a fresh environment seeded with the shared global
// frame, and capturing their lib-exported functions into a Module.
type ModuleLoader struct {
	reader   FileReader
	eval     *Evaluator
	cache    map[string]*Module
	pending  map[string]*Module
	dirStack []string
}

// NewModuleLoader creates a loader with an empty cache.
func NewModuleLoader(reader FileReader, eval *Evaluator) *ModuleLoader {
	return &ModuleLoader{
		reader:  reader,
		eval:    eval,
		cache:   make(map[string]*Module),
		pending: make(map[string]*Module),
	}
}

// markLoaded records the entry file's directory as the base for resolving
// the first import it issues.
func (m *ModuleLoader) markLoaded(filename string, env *Environment) {
	m.dirStack = []string{filepath.Dir(filename)}
}

func (m *ModuleLoader) currentDir() string {
	if len(m.dirStack) == 0 {
		return "."
	}
	return m.dirStack[len(m.dirStack)-1]
}

// Load resolves ref against the importer's current directory, parses and
// evaluates the target file, and returns its captured Module. byPath
// distinguishes a quoted-string import from a bare identifier one, per the
// two resolution forms of §4.4.
func (m *ModuleLoader) Load(ref string, byPath bool) (*Module, error) {
	path, err := m.resolvePath(ref, byPath)
	if err != nil {
		return nil, err
	}
	absPath, absErr := filepath.Abs(path)
	if absErr != nil {
		absPath = path
	}

	if cached, ok := m.cache[absPath]; ok {
		m.eval.log.Debug("module loader cache hit", "ref", ref, "path", absPath)
		return cached, nil
	}
	if pending, ok := m.pending[absPath]; ok {
		m.eval.log.Debug("module loader cycle detected", "ref", ref, "path", absPath)
		return pending, nil // cycle: hand back the partially populated module
	}
	m.eval.log.Debug("module loader loading", "ref", ref, "path", absPath)

	module := &Module{Path: path, Exports: NewObject()}
	m.pending[absPath] = module
	defer delete(m.pending, absPath)

	source, err := m.reader.ReadFile(path)
	if err != nil {
		return nil, newRuntimeError(ErrKindImport, 0, "cannot read %q: %s", path, err)
	}
	prog, err := parser.Parse(path, source)
	if err != nil {
		return nil, newRuntimeError(ErrKindImport, 0, "%s: %s", path, err)
	}

	m.dirStack = append(m.dirStack, filepath.Dir(path))
	defer func() { m.dirStack = m.dirStack[:len(m.dirStack)-1] }()

	loadEnv := NewEnvironment(m.eval.globalEnv)
	for _, stmt := range prog.Statements {
		if _, evalErr := m.eval.evalStatement(stmt, loadEnv); evalErr != nil {
			switch sig := evalErr.(type) {
			case *returnSignal:
				// a bare top-level return just ends the module body early
			case *throwSignal:
				return nil, newRuntimeError(ErrKindImport, 0, "uncaught exception loading %q: %s", path, sig.value.Repr())
			default:
				return nil, evalErr
			}
		}
	}

	for _, stmt := range prog.Statements {
		if stmt.LibDecl == nil {
			continue
		}
		for _, name := range stmt.LibDecl.Exports {
			fn, exists := loadEnv.Get(name)
			if !exists {
				return nil, newRuntimeError(ErrKindImport, 0, "%q exports undefined name %q", path, name)
			}
			module.Exports.Set(name, fn)
		}
	}

	m.cache[absPath] = module
	m.eval.log.Debug("module loader exports captured", "path", absPath, "exports", module.Exports.Keys())
	return module, nil
}

// resolvePath implements the search-path rules of §4.4.
func (m *ModuleLoader) resolvePath(ref string, byPath bool) (string, error) {
	dir := m.currentDir()
	if byPath {
		path := ref
		if !strings.HasSuffix(path, ".fenics") {
			path += ".fenics"
		}
		return filepath.Join(dir, path), nil
	}

	candidates := []string{
		ref + ".fenics",
		filepath.Join("libs", ref+".fenics"),
		filepath.Join("..", "libs", ref+".fenics"),
		filepath.Join("samples", ref+".fenics"),
		filepath.Join("..", "samples", ref+".fenics"),
	}
	for _, c := range candidates {
		full := filepath.Join(dir, c)
		if m.reader.Exists(full) {
			return full, nil
		}
	}
	return "", newRuntimeError(ErrKindImport, 0, "module %q not found on the search path", ref)
}
