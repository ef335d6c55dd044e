// Package script evaluates user-authored extract and merge scripts. Scripts
// are Go source run by the yaegi interpreter; each evaluation gets a fresh
// interpreter with the standard library and the splice and papa host
// packages loaded, and returns the functions the script defined.
package script

import (
	"errors"
	"fmt"
	"go/parser"
	"go/scanner"
	"go/token"
	"reflect"
	"sort"
	"strconv"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/chr1sbest/splice/internal/logger"
	"github.com/chr1sbest/splice/internal/splice"
)

// Names of the functions a script may define.
const (
	ExtractFunc = "Extract"
	MergeFunc   = "Merge"
)

// Extractor is the normalized form of a script's Extract function.
type Extractor func(file splice.File, index int, all []splice.File) (interface{}, error)

// Merger is the normalized form of a script's Merge function.
type Merger func(records []splice.Record) (interface{}, error)

// Bindings holds the callable handles a script defined. A handle the script
// did not define is nil.
type Bindings struct {
	Extract Extractor
	Merge   Merger
}

// Options configures an Evaluator.
type Options struct {
	// Vars is the key-value context visible through splice.Var.
	Vars map[string]string
	// AllowedImports restricts the packages a script may import. Empty
	// means unrestricted. The splice and papa packages are always allowed.
	AllowedImports []string
	Logger         logger.Logger
}

// Evaluator turns script source into Bindings.
type Evaluator struct {
	vars    map[string]string
	allowed map[string]bool
	logger  logger.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(opts Options) *Evaluator {
	vars := make(map[string]string, len(opts.Vars))
	for k, v := range opts.Vars {
		vars[k] = v
	}

	var allowed map[string]bool
	if len(opts.AllowedImports) > 0 {
		allowed = map[string]bool{SplicePackage: true, PapaPackage: true}
		for _, p := range opts.AllowedImports {
			allowed[p] = true
		}
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoopLogger()
	}

	return &Evaluator{vars: vars, allowed: allowed, logger: log}
}

// Evaluate runs source in a fresh interpreter and returns the Extract and
// Merge functions it defined. name labels errors ("extract", "merge").
func (e *Evaluator) Evaluate(name, source string) (b *Bindings, err error) {
	if !hasPackageClause(source) {
		// same line, so reported positions stay valid
		source = "package main; " + source
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, name, source, parser.ImportsOnly)
	if err != nil {
		return nil, &CompileError{Script: name, Err: err}
	}
	if file.Name.Name != "main" {
		return nil, &CompileError{Script: name, Err: fmt.Errorf("package %s: scripts must be package main", file.Name.Name)}
	}

	var imports []string
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return nil, &CompileError{Script: name, Err: err}
		}
		imports = append(imports, path)
	}
	if err := e.checkImports(imports); err != nil {
		return nil, &CompileError{Script: name, Err: err}
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib symbols: %w", err)
	}
	if err := i.Use(hostSymbols(e.vars)); err != nil {
		return nil, fmt.Errorf("failed to load host symbols: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			b, err = nil, &CompileError{Script: name, Err: fmt.Errorf("evaluation panicked: %v", r)}
		}
	}()

	if _, err := i.Eval(source); err != nil {
		return nil, &CompileError{Script: name, Err: err}
	}

	b = &Bindings{}
	if v, ok := lookup(i, ExtractFunc); ok {
		if b.Extract, err = bindExtract(name, v); err != nil {
			return nil, err
		}
	}
	if v, ok := lookup(i, MergeFunc); ok {
		if b.Merge, err = bindMerge(name, v); err != nil {
			return nil, err
		}
	}

	e.logger.Debug("Evaluated script",
		logger.F("script", name),
		logger.F("imports", imports),
		logger.F("extract", b.Extract != nil),
		logger.F("merge", b.Merge != nil),
	)
	return b, nil
}

func (e *Evaluator) checkImports(imports []string) error {
	if e.allowed == nil {
		return nil
	}
	var forbidden []string
	for _, p := range imports {
		if !e.allowed[p] {
			forbidden = append(forbidden, p)
		}
	}
	if len(forbidden) == 0 {
		return nil
	}
	allowed := make([]string, 0, len(e.allowed))
	for p := range e.allowed {
		allowed = append(allowed, p)
	}
	sort.Strings(allowed)
	return fmt.Errorf("%w: %v (allowed: %v)", ErrForbiddenImport, forbidden, allowed)
}

func hasPackageClause(source string) bool {
	fset := token.NewFileSet()
	f := fset.AddFile("", fset.Base(), len(source))
	var s scanner.Scanner
	s.Init(f, []byte(source), nil, 0)
	_, tok, _ := s.Scan()
	return tok == token.PACKAGE
}

func lookup(i *interp.Interpreter, fn string) (reflect.Value, bool) {
	v, err := i.Eval("main." + fn)
	if err != nil || !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return reflect.Value{}, false
	}
	return v, true
}

var extractShapes = []string{
	"func(splice.File, int, []splice.File) (interface{}, error)",
	"func(splice.File) (interface{}, error)",
}

func bindExtract(script string, v reflect.Value) (Extractor, error) {
	var fn Extractor
	switch f := v.Interface().(type) {
	case func(splice.File, int, []splice.File) (interface{}, error):
		fn = f
	case func(splice.File) (interface{}, error):
		fn = func(file splice.File, _ int, _ []splice.File) (interface{}, error) { return f(file) }
	default:
		return nil, &SignatureError{Script: script, Func: ExtractFunc, Got: v.Type().String(), Want: extractShapes}
	}

	return func(file splice.File, index int, all []splice.File) (out interface{}, err error) {
		defer recoverInto(ExtractFunc, &err)
		return fn(file, index, all)
	}, nil
}

var mergeShapes = []string{
	"func([]splice.Record) (interface{}, error)",
	"func([]splice.Record) (string, error)",
	"func([]splice.Record) ([]byte, error)",
	"func([]splice.Record) (splice.Blob, error)",
}

func bindMerge(script string, v reflect.Value) (Merger, error) {
	var fn Merger
	switch f := v.Interface().(type) {
	case func([]splice.Record) (interface{}, error):
		fn = f
	case func([]splice.Record) (string, error):
		fn = func(r []splice.Record) (interface{}, error) { return f(r) }
	case func([]splice.Record) ([]byte, error):
		fn = func(r []splice.Record) (interface{}, error) { return f(r) }
	case func([]splice.Record) (splice.Blob, error):
		fn = func(r []splice.Record) (interface{}, error) { return f(r) }
	default:
		return nil, &SignatureError{Script: script, Func: MergeFunc, Got: v.Type().String(), Want: mergeShapes}
	}

	return func(records []splice.Record) (out interface{}, err error) {
		defer recoverInto(MergeFunc, &err)
		return fn(records)
	}, nil
}

func recoverInto(fn string, err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = &PanicError{Func: fn, Value: e}
			return
		}
		*err = &PanicError{Func: fn, Value: r}
	}
}

// IsScriptError reports whether err came from evaluating a script rather
// than from running it.
func IsScriptError(err error) bool {
	var ce *CompileError
	var se *SignatureError
	return errors.As(err, &ce) || errors.As(err, &se)
}
