// Package pass drives the inlining engine over a whole program: it finds the
// inlinable top-level functions, decides how each call is inlined, performs
// the inlining and removes the declarations nobody needs any more.
package pass

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/dce"
	"github.com/HugoDaniel/fninline/internal/idgen"
	"github.com/HugoDaniel/fninline/internal/inline"
	"github.com/HugoDaniel/fninline/internal/modgraph"
)

// Options controls the pass.
type Options struct {
	InlineDirect       bool // Replace calls to single-return functions by the returned expression
	InlineBlock        bool // Replace call statements by a block holding the function body
	AllowDecomposition bool // Hoist earlier-evaluated operands so more calls can be block inlined
	RemoveInlined      bool // Remove declarations whose calls were all inlined

	KnownConstants []string // Global names never reassigned
	KeepNames      []string // Functions that must be neither inlined nor removed

	// Modules optionally assigns statements to modules. Functions are not
	// removed when a caller's module does not depend on the function's.
	Modules  *modgraph.Graph
	ModuleOf func(stmt ast.NodeID) *modgraph.Module

	Logger *zap.Logger
}

// DefaultOptions enables every kind of inlining.
func DefaultOptions() Options {
	return Options{
		InlineDirect:       true,
		InlineBlock:        true,
		AllowDecomposition: true,
		RemoveInlined:      true,
	}
}

// Stats summarizes one run.
type Stats struct {
	Candidates    int `json:"candidates"`
	References    int `json:"references"`
	InlinedDirect int `json:"inlinedDirect"`
	InlinedBlock  int `json:"inlinedBlock"`
	Decomposed    int `json:"decomposed"`
	Rechecked     int `json:"rechecked"`
	Removed       int `json:"removed"`
}

// Inlined returns the number of calls inlined in either mode.
func (s Stats) Inlined() int { return s.InlinedDirect + s.InlinedBlock }

// Add accumulates the counters of another run.
func (s *Stats) Add(other Stats) {
	s.Candidates += other.Candidates
	s.References += other.References
	s.InlinedDirect += other.InlinedDirect
	s.InlinedBlock += other.InlinedBlock
	s.Decomposed += other.Decomposed
	s.Rechecked += other.Rechecked
	s.Removed += other.Removed
}

// Reason explains a Decision.
type Reason string

const (
	ReasonInlined    Reason = "inlined"
	ReasonEscapes    Reason = "escapes"    // The function is used other than by calls
	ReasonMinimum    Reason = "minimum"    // Recursive or reads arguments
	ReasonIneligible Reason = "ineligible" // No enabled mode can inline the call
	ReasonCost       Reason = "cost"       // Inlining would grow the program
	ReasonStale      Reason = "stale"      // An earlier change made the call ineligible
	ReasonDetached   Reason = "detached"   // An earlier change removed the call
	ReasonDecompose  Reason = "decompose"  // Decomposition did not expose the call
)

// Decision records what happened to one call, or to a whole function when
// it was rejected before its calls were looked at.
type Decision struct {
	Function string                 `json:"function"`
	Offset   int32                  `json:"offset"`
	Mode     inline.Mode            `json:"mode"`
	Result   inline.CanInlineResult `json:"result"`
	Reason   Reason                 `json:"reason"`
}

// ----------------------------------------------------------------------------
// Run
// ----------------------------------------------------------------------------

type reference struct {
	call        ast.NodeID
	mode        inline.Mode
	result      inline.CanInlineResult
	fingerprint uint64
	decision    int // index into the decisions slice
}

type candidate struct {
	decl dce.Declaration
	fn   inline.Function
	refs []*reference
}

type runner struct {
	tree      *ast.Tree
	opts      Options
	engine    *inline.Engine
	log       *zap.Logger
	stats     Stats
	decisions []Decision
}

// Run inlines the calls to the top-level functions of a normalized tree.
func Run(tree *ast.Tree, ids *idgen.Supplier, opts Options) (Stats, []Decision, error) {
	if !tree.IsNormalized() {
		return Stats{}, nil, errors.New("pass: tree is not normalized")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	engineOpts := inline.Options{
		AllowDecomposition: opts.AllowDecomposition,
		KnownConstants:     opts.KnownConstants,
		Logger:             opts.Logger,
	}
	if opts.Modules != nil {
		engineOpts.ModuleGraph = opts.Modules
	}
	r := &runner{
		tree:   tree,
		opts:   opts,
		log:    opts.Logger,
		engine: inline.New(tree, ids, engineOpts),
	}

	candidates := r.findCandidates()
	for _, c := range candidates {
		r.analyze(c)
	}
	var inlined []string
	for _, c := range candidates {
		if r.apply(c) && c.fn.Removable {
			inlined = append(inlined, c.decl.Name)
		}
	}
	if opts.RemoveInlined {
		r.stats.Removed = dce.Sweep(tree, inlined)
	}

	r.log.Debug("inline pass finished",
		zap.Int("candidates", r.stats.Candidates),
		zap.Int("inlined", r.stats.Inlined()),
		zap.Int("removed", r.stats.Removed))
	return r.stats, r.decisions, nil
}

func (r *runner) decide(d Decision) int {
	r.decisions = append(r.decisions, d)
	return len(r.decisions) - 1
}

func (r *runner) moduleOf(n ast.NodeID) *modgraph.Module {
	if r.opts.ModuleOf == nil {
		return nil
	}
	stmt := n
	for p := r.tree.Parent(stmt); p.IsValid() && p != r.tree.Root; p = r.tree.Parent(stmt) {
		stmt = p
	}
	return r.opts.ModuleOf(stmt)
}

// ----------------------------------------------------------------------------
// Candidates
// ----------------------------------------------------------------------------

// findCandidates collects the top-level functions whose every use is a call.
func (r *runner) findCandidates() []*candidate {
	t := r.tree
	keep := lo.SliceToMap(r.opts.KeepNames, func(name string) (string, bool) { return name, true })

	var candidates []*candidate
	for _, decl := range dce.Declarations(t) {
		if keep[decl.Name] {
			continue
		}
		calls, ok := r.findCalls(decl)
		if !ok {
			r.decide(Decision{Function: decl.Name, Offset: t.Loc(decl.Statement).Start, Reason: ReasonEscapes})
			continue
		}
		if !r.engine.MeetsMinimumRequirements(decl.Name, decl.Function) {
			r.decide(Decision{Function: decl.Name, Offset: t.Loc(decl.Statement).Start, Reason: ReasonMinimum})
			continue
		}

		fn := inline.NewFunction(t, decl.Name, decl.Function)
		fn.Module = r.moduleOf(decl.Statement)
		c := &candidate{decl: decl, fn: fn}
		for _, call := range calls {
			c.refs = append(c.refs, &reference{call: call})
		}
		candidates = append(candidates, c)
	}
	r.stats.Candidates = len(candidates)
	return candidates
}

// findCalls returns the calls to decl, or false when the function is used in
// any other way.
func (r *runner) findCalls(decl dce.Declaration) ([]ast.NodeID, bool) {
	t := r.tree
	var calls []ast.NodeID
	escapes := false
	t.Walk(t.Root, func(n ast.NodeID) bool {
		if escapes {
			return false
		}
		if t.Kind(n) != ast.KindName || t.Str(n) != decl.Name || ast.IsDeclarationName(t, n) {
			return true
		}
		parent := t.Parent(n)
		switch {
		case t.Kind(parent) == ast.KindCall && ast.CallTarget(t, parent) == n:
			calls = append(calls, parent)
		case t.Kind(parent) == ast.KindGetProp &&
			(t.Str(parent) == "call" || t.Str(parent) == "apply") &&
			t.Is(t.Parent(parent), ast.KindCall) &&
			ast.CallTarget(t, t.Parent(parent)) == parent:
			calls = append(calls, t.Parent(parent))
		default:
			escapes = true
		}
		return true
	})
	return calls, !escapes
}

// ----------------------------------------------------------------------------
// Analysis
// ----------------------------------------------------------------------------

// analyze picks a mode for every call of c and decides whether inlining them
// is worth it.
func (r *runner) analyze(c *candidate) {
	t := r.tree
	e := r.engine
	direct := r.opts.InlineDirect && e.IsDirectReplacementCandidate(c.fn.Node)

	allInlinable := true
	for _, ref := range c.refs {
		r.stats.References++
		ref.result = inline.No
		if direct {
			ref.mode = inline.ModeDirect
			ref.result = e.CanInlineReference(ref.call, c.fn, inline.ModeDirect)
		}
		if ref.result == inline.No && r.opts.InlineBlock {
			ref.mode = inline.ModeBlock
			ref.result = e.CanInlineReference(ref.call, c.fn, inline.ModeBlock)
		}
		ref.fingerprint = r.fingerprint(ref.call)

		reason := ReasonInlined
		if ref.result == inline.No {
			reason = ReasonIneligible
			allInlinable = false
		}
		ref.decision = r.decide(Decision{
			Function: c.decl.Name,
			Offset:   t.Loc(ref.call).Start,
			Mode:     ref.mode,
			Result:   ref.result,
			Reason:   reason,
		})
	}
	c.fn.Removable = allInlinable && r.opts.RemoveInlined

	inlinable := lo.Filter(c.refs, func(ref *reference, _ int) bool { return ref.result != inline.No })
	refs := lo.Map(inlinable, func(ref *reference, _ int) inline.Reference {
		return inline.Reference{Call: ref.call, Module: r.moduleOf(ref.call), Mode: ref.mode}
	})
	if len(refs) > 0 && !e.InliningLowersCost(c.fn, refs) {
		for _, ref := range inlinable {
			ref.result = inline.No
			r.decisions[ref.decision].Reason = ReasonCost
		}
	}

	r.log.Debug("analyzed function",
		zap.String("function", c.decl.Name),
		zap.Int("references", len(c.refs)),
		zap.Int("inlinable", lo.CountBy(c.refs, func(ref *reference) bool { return ref.result != inline.No })),
		zap.Bool("removable", c.fn.Removable))
}

// fingerprint hashes the expression holding the call so later changes to it
// can be detected.
func (r *runner) fingerprint(call ast.NodeID) uint64 {
	root := r.engine.Decomposer().FindExpressionRoot(call)
	if !root.IsValid() {
		root = r.tree.Parent(call)
	}
	return ast.Fingerprint(r.tree, root)
}

// ----------------------------------------------------------------------------
// Inlining
// ----------------------------------------------------------------------------

// apply inlines the approved calls of c and reports whether every call of c
// was inlined.
func (r *runner) apply(c *candidate) bool {
	all := len(c.refs) > 0
	for _, ref := range c.refs {
		if ref.result == inline.No || !r.inlineReference(c, ref) {
			all = false
		}
	}
	return all
}

func (r *runner) inlineReference(c *candidate, ref *reference) bool {
	t := r.tree
	e := r.engine
	d := &r.decisions[ref.decision]

	if !t.IsAttached(ref.call) {
		d.Reason = ReasonDetached
		return false
	}

	// Inlining an earlier call may have rewritten this expression.
	if r.fingerprint(ref.call) != ref.fingerprint {
		r.stats.Rechecked++
		ref.result = e.CanInlineReference(ref.call, c.fn, ref.mode)
		d.Result = ref.result
		if ref.result == inline.No {
			d.Reason = ReasonStale
			return false
		}
	}

	if ref.result == inline.AfterDecomposition {
		e.Decomposer().MaybeDecompose(ref.call)
		r.stats.Decomposed++
		ref.result = e.CanInlineReference(ref.call, c.fn, ref.mode)
		d.Result = ref.result
		if ref.result != inline.Yes {
			d.Reason = ReasonDecompose
			return false
		}
	}

	e.Inline(ref.call, c.decl.Name, c.fn.Node, ref.mode)
	if ref.mode == inline.ModeDirect {
		r.stats.InlinedDirect++
	} else {
		r.stats.InlinedBlock++
	}
	d.Reason = ReasonInlined

	r.log.Debug("inline decision",
		zap.String("function", c.decl.Name),
		zap.Stringer("mode", ref.mode),
		zap.Stringer("result", ref.result))
	return true
}
