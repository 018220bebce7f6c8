// Package optimizer provides the main optimization API.
//
// It coordinates parsing, normalization, the inlining pass and printing to
// produce the optimized program.
package optimizer

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/diagnostic"
	"github.com/HugoDaniel/fninline/internal/idgen"
	"github.com/HugoDaniel/fninline/internal/inline"
	"github.com/HugoDaniel/fninline/internal/parser"
	"github.com/HugoDaniel/fninline/internal/pass"
	"github.com/HugoDaniel/fninline/internal/printer"
	"github.com/HugoDaniel/fninline/internal/renamer"
)

// Options controls optimization behavior.
type Options struct {
	// Pass configures which calls are inlined.
	Pass pass.Options

	// MinifyWhitespace removes unnecessary whitespace and newlines
	MinifyWhitespace bool

	// Logger receives debug output from the pass. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns options for maximum inlining and compact output.
func DefaultOptions() Options {
	return Options{
		Pass:             pass.DefaultOptions(),
		MinifyWhitespace: true,
	}
}

// Result contains the optimization output.
type Result struct {
	// Optimized code, or the original source when optimization failed
	Code string

	// Diagnostics reported while optimizing
	Diagnostics []diagnostic.Diagnostic

	// Statistics about the optimization
	Stats Stats

	// Decisions made for every candidate function and call
	Decisions []pass.Decision
}

// Stats provides optimization statistics.
type Stats struct {
	pass.Stats
	OriginalSize  int `json:"originalSize"`
	OptimizedSize int `json:"optimizedSize"`
}

// Failed reports whether an error kept the source from being optimized.
func (r Result) Failed() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == diagnostic.Error {
			return true
		}
	}
	return false
}

// Err returns the first error diagnostic, or nil.
func (r Result) Err() error {
	for i := range r.Diagnostics {
		if r.Diagnostics[i].Severity == diagnostic.Error {
			return &r.Diagnostics[i]
		}
	}
	return nil
}

// Optimizer performs inlining on source text.
type Optimizer struct {
	options Options
	log     *zap.Logger
}

// New creates a new optimizer with the given options.
func New(options Options) *Optimizer {
	log := options.Logger
	if log == nil {
		log = zap.NewNop()
	}
	options.Pass.Logger = log
	return &Optimizer{options: options, log: log}
}

// Optimize parses, inlines and prints the given source code.
func (o *Optimizer) Optimize(source string) Result {
	result := Result{
		Code:  source,
		Stats: Stats{OriginalSize: len(source), OptimizedSize: len(source)},
	}
	diags := diagnostic.NewList(source)

	// 1. Parse into a tree
	tree, errs := parser.Parse(source)

	// 2. Report parse errors and return the original source
	if len(errs) > 0 {
		for _, err := range errs {
			diags.AddError(err.Pos, diagnostic.CodeSyntax, err.Message)
		}
		result.Diagnostics = diags.Diagnostics()
		return result
	}

	for _, name := range o.unknownKeepNames(tree) {
		diags.AddWarning(0, diagnostic.CodeKeptUnknown, fmt.Sprintf("no top-level function named %q", name))
	}

	// 3. Optimize the parsed tree
	code, stats, decisions, err := o.OptimizeTree(tree)
	if err != nil {
		var inv *inline.InvariantError
		if errors.As(err, &inv) {
			o.log.Error("inliner invariant violated", zap.Error(err))
		}
		diags.AddError(0, diagnostic.CodeInvariant, err.Error())
		result.Diagnostics = diags.Diagnostics()
		return result
	}

	result.Code = code
	result.Stats.Stats = stats
	result.Stats.OptimizedSize = len(code)
	result.Decisions = decisions
	result.Diagnostics = diags.Diagnostics()
	return result
}

// OptimizeTree runs normalization and the inlining pass on a parsed tree and
// prints it. Invariant violations inside the engine are returned as errors.
func (o *Optimizer) OptimizeTree(tree *ast.Tree) (code string, stats pass.Stats, decisions []pass.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			inv, ok := r.(*inline.InvariantError)
			if !ok {
				panic(r)
			}
			err = errors.Wrap(inv, "optimize")
		}
	}()

	renamer.Normalize(tree)
	stats, decisions, err = pass.Run(tree, idgen.New(), o.options.Pass)
	if err != nil {
		return "", pass.Stats{}, nil, errors.Wrap(err, "optimize")
	}

	p := printer.New(printer.Options{MinifyWhitespace: o.options.MinifyWhitespace})
	return p.Print(tree, tree.Root), stats, decisions, nil
}

// unknownKeepNames returns the kept names that declare no top-level
// function, which usually means a typo in the configuration.
func (o *Optimizer) unknownKeepNames(tree *ast.Tree) []string {
	declared := make(map[string]bool)
	for _, stmt := range tree.Children(tree.Root) {
		switch tree.Kind(stmt) {
		case ast.KindFunction:
			declared[tree.Str(stmt)] = true
		case ast.KindVar:
			for _, name := range tree.Children(stmt) {
				declared[tree.Str(name)] = true
			}
		}
	}
	var unknown []string
	for _, name := range o.options.Pass.KeepNames {
		if !declared[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ----------------------------------------------------------------------------
// Convenience Functions
// ----------------------------------------------------------------------------

// Optimize optimizes source with optional custom options.
// If no options are provided, DefaultOptions() is used.
func Optimize(source string, opts ...Options) Result {
	var options Options
	if len(opts) > 0 {
		options = opts[0]
	} else {
		options = DefaultOptions()
	}
	return New(options).Optimize(source)
}
