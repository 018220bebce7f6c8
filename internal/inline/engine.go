// Package inline decides whether a call can be replaced by the body of the
// function it calls, and performs the replacement.
//
// There are two strategies:
// - Direct: the call expression is replaced by the function's single
//   returned expression, with arguments substituted for parameters
// - Block: the statement holding the call is replaced by a block
//   equivalent to the whole body, writing the result to a variable
//
// The engine never looks for candidates itself. A driver finds functions and
// their references, asks CanInlineReference for each reference, asks
// InliningLowersCost whether the function as a whole is worth it, and then
// calls Inline once per reference.
//
// The tree must be normalized (see package renamer) before anything is
// inlined. Violations of that and of other preconditions are programmer
// errors and panic with an *InvariantError before the tree is modified.
package inline

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/decompose"
	"github.com/HugoDaniel/fninline/internal/idgen"
	"github.com/HugoDaniel/fninline/internal/modgraph"
	"github.com/HugoDaniel/fninline/internal/mutator"
	"github.com/HugoDaniel/fninline/internal/params"
)

// ----------------------------------------------------------------------------
// Enumerations
// ----------------------------------------------------------------------------

// Mode is the inlining strategy for one reference.
type Mode uint8

const (
	ModeDirect Mode = iota
	ModeBlock
)

func (m Mode) String() string {
	switch m {
	case ModeDirect:
		return "direct"
	case ModeBlock:
		return "block"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// CallSiteType classifies the syntactic context of a call.
type CallSiteType uint8

const (
	// Unsupported call sites cannot be block inlined.
	Unsupported CallSiteType = iota
	// SimpleCall is a call used as a statement: "f();".
	SimpleCall
	// SimpleAssignment assigns the result to a name: "x = f();".
	SimpleAssignment
	// VarDeclSimpleAssignment declares a name with the result: "var x = f();".
	VarDeclSimpleAssignment
	// Expression is any other statement the call can be moved ahead of.
	Expression
	// DecomposableExpression needs parts of its statement hoisted first.
	DecomposableExpression
)

var callSiteTypeNames = [...]string{
	Unsupported:             "Unsupported",
	SimpleCall:              "SimpleCall",
	SimpleAssignment:        "SimpleAssignment",
	VarDeclSimpleAssignment: "VarDeclSimpleAssignment",
	Expression:              "Expression",
	DecomposableExpression:  "DecomposableExpression",
}

func (c CallSiteType) String() string {
	if int(c) < len(callSiteTypeNames) {
		return callSiteTypeNames[c]
	}
	return fmt.Sprintf("CallSiteType(%d)", uint8(c))
}

// CanInlineResult is the outcome of the legality check. The zero value is No.
type CanInlineResult uint8

const (
	No CanInlineResult = iota
	Yes
	// AfterDecomposition means the call site must be decomposed and then
	// checked again.
	AfterDecomposition
)

func (r CanInlineResult) String() string {
	switch r {
	case No:
		return "no"
	case Yes:
		return "yes"
	case AfterDecomposition:
		return "after-decomposition"
	}
	return fmt.Sprintf("CanInlineResult(%d)", uint8(r))
}

func (r CanInlineResult) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// ----------------------------------------------------------------------------
// Inputs
// ----------------------------------------------------------------------------

// Reference is one call to a candidate function.
type Reference struct {
	Call   ast.NodeID
	Module *modgraph.Module // nil when the program has a single module
	Mode   Mode
}

// Function describes a candidate function.
type Function struct {
	Name string
	Node ast.NodeID // the KindFunction node

	// NamesToAlias holds parameters that always need a temporary, as found
	// by params.FindModifiedParameters.
	NamesToAlias map[string]bool

	ReferencesThis    bool
	ContainsFunctions bool

	Module *modgraph.Module

	// Removable is true when the declaration can be deleted once every
	// reference is inlined.
	Removable bool
}

// NewFunction fills in the derived fields of Function from the tree.
func NewFunction(t *ast.Tree, name string, fn ast.NodeID) Function {
	body := ast.FunctionBody(t, fn)
	return Function{
		Name:              name,
		Node:              fn,
		NamesToAlias:      params.FindModifiedParameters(t, fn),
		ReferencesThis:    ast.ReferencesThis(t, body),
		ContainsFunctions: ast.ContainsFunction(t, body),
	}
}

// ----------------------------------------------------------------------------
// Errors
// ----------------------------------------------------------------------------

// InvariantError reports misuse of the engine. It is raised with panic.
type InvariantError struct {
	Op  string
	err error
}

func (e *InvariantError) Error() string {
	return "inline: " + e.Op + ": " + e.err.Error()
}

// Unwrap returns the underlying error, which carries a stack trace.
func (e *InvariantError) Unwrap() error { return e.err }

// Cause returns the underlying error for github.com/pkg/errors.Cause.
func (e *InvariantError) Cause() error { return e.err }

func invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, err: errors.Errorf(format, args...)})
}

// ----------------------------------------------------------------------------
// Engine
// ----------------------------------------------------------------------------

// Options configures an Engine. Nil collaborators are replaced by the
// default implementations.
type Options struct {
	// AllowDecomposition lets block inlining accept calls that need their
	// statement decomposed first.
	AllowDecomposition bool

	// KnownConstants are names proven never to be reassigned. The list is
	// copied.
	KnownConstants []string

	Logger *zap.Logger

	Decomposer   Decomposer
	Injector     ArgumentInjector
	BlockBuilder BlockBuilder
	ModuleGraph  ModuleGraph
}

// Engine inlines calls within one tree. It is not safe for concurrent use.
type Engine struct {
	tree *ast.Tree
	ids  *idgen.Supplier
	log  *zap.Logger

	allowDecomposition bool
	knownConstants     map[string]bool
	purity             *ast.PurityContext

	decomposer Decomposer
	injector   ArgumentInjector
	builder    BlockBuilder
	graph      ModuleGraph
}

// New creates an engine for the tree. ids supplies the suffixes of every
// name the engine and its collaborators create.
func New(t *ast.Tree, ids *idgen.Supplier, opts Options) *Engine {
	known := lo.SliceToMap(opts.KnownConstants, func(name string) (string, bool) {
		return name, true
	})
	purity := ast.NewPurityContext(known).WithoutShadowed(globalDeclarations(t))

	e := &Engine{
		tree:               t,
		ids:                ids,
		log:                opts.Logger,
		allowDecomposition: opts.AllowDecomposition,
		knownConstants:     known,
		purity:             purity,
		decomposer:         opts.Decomposer,
		injector:           opts.Injector,
		builder:            opts.BlockBuilder,
		graph:              opts.ModuleGraph,
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.decomposer == nil {
		e.decomposer = decompose.New(t, ids, purity)
	}
	if e.injector == nil {
		e.injector = params.NewInjector(t, ids, purity)
	}
	if e.builder == nil {
		e.builder = mutator.New(t, ids, purity)
	}
	if e.graph == nil {
		e.graph = modgraph.New()
	}
	return e
}

// Tree returns the tree the engine works on.
func (e *Engine) Tree() *ast.Tree { return e.tree }

// Purity returns the side-effect oracle the engine uses.
func (e *Engine) Purity() *ast.PurityContext { return e.purity }

// Decomposer returns the decomposer the engine classifies with.
func (e *Engine) Decomposer() Decomposer { return e.decomposer }

// IsKnownConstant reports whether name was given as a known constant.
func (e *Engine) IsKnownConstant(name string) bool { return e.knownConstants[name] }

func (e *Engine) isConstantName(n ast.NodeID) bool {
	return ast.IsConstantName(e.tree, n) || e.knownConstants[e.tree.Str(n)]
}

// globalDeclarations lists the names declared at the top level, which
// shadow built-ins of the same name.
func globalDeclarations(t *ast.Tree) map[string]bool {
	declared := make(map[string]bool)
	t.Walk(t.Root, func(n ast.NodeID) bool {
		switch t.Kind(n) {
		case ast.KindVar:
			for _, name := range t.Children(n) {
				declared[t.Str(name)] = true
			}
		case ast.KindFunction:
			if ast.IsFunctionDeclaration(t, n) {
				declared[t.Str(n)] = true
			}
			return false
		}
		return true
	})
	return declared
}
