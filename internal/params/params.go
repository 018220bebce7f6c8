// Package params maps a call's arguments onto the called function's
// parameters and substitutes them into inlined code.
//
// Substituting an argument expression for every use of its parameter is
// only equivalent to the call when the argument is evaluated exactly once,
// at the point of the call. Arguments for which that cannot be guaranteed
// are given temporaries ("aliased") instead.
package params

import (
	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/idgen"
)

// ThisMarker is the ArgMap key holding the value "this" is bound to.
const ThisMarker = "this"

// AnonParamPrefix prefixes the names given to arguments that have no
// matching parameter.
const AnonParamPrefix = "inline_anon_param_"

// ----------------------------------------------------------------------------
// Argument Maps
// ----------------------------------------------------------------------------

// ArgMap maps parameter names to argument expressions, keeping insertion
// order so temporaries are declared in argument order.
type ArgMap struct {
	names  []string
	values map[string]ast.NodeID
}

// NewArgMap creates an empty map.
func NewArgMap() *ArgMap {
	return &ArgMap{values: make(map[string]ast.NodeID)}
}

// Set adds or replaces an entry. New entries go last.
func (m *ArgMap) Set(name string, value ast.NodeID) {
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = value
}

// Get returns the argument for name.
func (m *ArgMap) Get(name string) (ast.NodeID, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Delete removes an entry.
func (m *ArgMap) Delete(name string) {
	if _, ok := m.values[name]; !ok {
		return
	}
	delete(m.values, name)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i:i], m.names[i+1:]...)
			break
		}
	}
}

// Names returns the keys in insertion order.
func (m *ArgMap) Names() []string {
	return m.names
}

// Len returns the number of entries.
func (m *ArgMap) Len() int {
	return len(m.names)
}

// Clone returns a copy sharing the argument nodes.
func (m *ArgMap) Clone() *ArgMap {
	c := NewArgMap()
	for _, name := range m.names {
		c.Set(name, m.values[name])
	}
	return c
}

// BuildArgumentMap pairs the call's arguments with fn's parameters. The this
// marker maps to the explicit receiver of a ".call" or to "void 0". Missing
// arguments map to "void 0" and extra arguments get placeholder names. The
// returned values are the call's own argument nodes or new detached nodes;
// callers clone before attaching.
func BuildArgumentMap(t *ast.Tree, fn, call ast.NodeID, ids *idgen.Supplier) *ArgMap {
	args := NewArgMap()
	callArgs := ast.CallArgs(t, call)

	if ast.IsFunctionObjectCall(t, call) && len(callArgs) > 0 {
		args.Set(ThisMarker, callArgs[0])
		callArgs = callArgs[1:]
	} else {
		args.Set(ThisMarker, t.NewUndefined())
	}

	for i, name := range ast.ParamNames(t, fn) {
		if i < len(callArgs) {
			args.Set(name, callArgs[i])
		} else {
			args.Set(name, t.NewUndefined())
		}
	}

	for i := len(ast.ParamNames(t, fn)); i < len(callArgs); i++ {
		args.Set(AnonParamPrefix+ids.Next(), callArgs[i])
	}
	return args
}

// ----------------------------------------------------------------------------
// Parameter Safety
// ----------------------------------------------------------------------------

// FindModifiedParameters returns the parameters of fn whose value can change
// during the call: assigned, updated, redeclared, or captured by a nested
// function. Such parameters always need a temporary.
func FindModifiedParameters(t *ast.Tree, fn ast.NodeID) map[string]bool {
	params := make(map[string]bool)
	for _, name := range ast.ParamNames(t, fn) {
		params[name] = true
	}
	modified := make(map[string]bool)

	var visit func(n ast.NodeID, inner bool)
	visit = func(n ast.NodeID, inner bool) {
		switch t.Kind(n) {
		case ast.KindName:
			if params[t.Str(n)] && (inner || ast.IsAssignmentTarget(t, n) || ast.IsDeclarationName(t, n)) {
				modified[t.Str(n)] = true
			}
		case ast.KindFunction:
			inner = true
		}
		for _, c := range t.Children(n) {
			visit(c, inner)
		}
	}
	visit(ast.FunctionBody(t, fn), false)
	return modified
}

// AddTempsForCallArguments adds to namesNeedingTemps every entry of args
// that cannot be substituted directly into fn's body:
// - arguments that may create or change mutable state and are referenced
// - arguments with side effects, referenced or not
// - arguments that can be changed by the body's side effects and are read
//   after one, or inside a loop
// - arguments too large to duplicate that are referenced more than once
func AddTempsForCallArguments(t *ast.Tree, purity *ast.PurityContext, fn ast.NodeID, args *ArgMap, namesNeedingTemps map[string]bool) {
	if args.Len() == 0 {
		return
	}
	body := ast.FunctionBody(t, fn)
	afterSideEffects := namesReadAfterSideEffects(t, purity, body, args)

	for _, name := range args.Names() {
		if namesNeedingTemps[name] {
			continue
		}
		arg, _ := args.Get(name)

		var references int
		if name == ThisMarker {
			references = ast.CountShallow(t, body, ast.KindThis)
		} else {
			references = ast.NameReferenceCount(t, body, name)
		}

		argSideEffects := purity.MayHaveSideEffects(t, arg)
		safe := true
		switch {
		case !argSideEffects && references == 0:
		case purity.MayEffectMutableState(t, arg) && references > 0:
			safe = false
		case argSideEffects:
			safe = false
		case purity.CanBeSideEffected(t, arg) && afterSideEffects[name]:
			safe = false
		case references > 1:
			safe = isCheapToDuplicate(t, arg)
		}
		if !safe {
			namesNeedingTemps[name] = true
		}
	}
}

func isCheapToDuplicate(t *ast.Tree, arg ast.NodeID) bool {
	switch t.Kind(arg) {
	case ast.KindName, ast.KindThis:
		return true
	case ast.KindString:
		return len(t.Str(arg)) < 2
	}
	return ast.IsImmutableValue(t, arg)
}

// namesReadAfterSideEffects returns the argument names read, in the body,
// after some expression with side effects took effect, or inside a loop. Nested functions are not entered; parameters they capture are
// aliased regardless.
func namesReadAfterSideEffects(t *ast.Tree, purity *ast.PurityContext, body ast.NodeID, args *ArgMap) map[string]bool {
	result := make(map[string]bool)
	seen := false

	var visit func(n ast.NodeID, inLoop bool)
	visit = func(n ast.NodeID, inLoop bool) {
		switch k := t.Kind(n); {
		case k == ast.KindFunction:
			return
		case k == ast.KindName:
			if _, ok := args.Get(t.Str(n)); ok && (seen || inLoop) {
				result[t.Str(n)] = true
			}
		case k == ast.KindThis:
			if seen || inLoop {
				result[ThisMarker] = true
			}
		case k.IsLoop():
			inLoop = true
		}
		for _, c := range t.Children(n) {
			visit(c, inLoop)
		}
		// Operands are evaluated before the node's own effect.
		if hasOwnSideEffect(t, purity, n) {
			seen = true
		}
	}
	visit(body, false)
	return result
}

// hasOwnSideEffect reports whether the node itself, apart from its
// children, changes state.
func hasOwnSideEffect(t *ast.Tree, purity *ast.PurityContext, n ast.NodeID) bool {
	switch t.Kind(n) {
	case ast.KindAssign, ast.KindUpdate, ast.KindNew:
		return true
	case ast.KindUnary:
		return t.Str(n) == "delete"
	case ast.KindCall:
		return !purity.PureCalls[ast.QualifiedName(t, ast.CallTarget(t, n))]
	}
	return false
}

// ----------------------------------------------------------------------------
// Injection
// ----------------------------------------------------------------------------

// Inject replaces every parameter name under root with a clone of its
// argument, and every "this" outside nested functions with a clone of the
// this marker's value. It returns root, or root's replacement when root is
// itself a replaced name.
func Inject(t *ast.Tree, root ast.NodeID, args *ArgMap) ast.NodeID {
	return inject(t, root, args, true)
}

func inject(t *ast.Tree, n ast.NodeID, args *ArgMap, replaceThis bool) ast.NodeID {
	switch t.Kind(n) {
	case ast.KindName:
		if value, ok := args.Get(t.Str(n)); ok {
			if ast.IsDeclarationName(t, n) {
				panic("params: cannot inject over the declaration of " + t.Str(n))
			}
			return replaceWith(t, n, value)
		}
	case ast.KindThis:
		if value, ok := args.Get(ThisMarker); ok && replaceThis {
			return replaceWith(t, n, value)
		}
	case ast.KindFunction:
		replaceThis = false
	}
	for _, c := range append([]ast.NodeID(nil), t.Children(n)...) {
		inject(t, c, args, replaceThis)
	}
	return n
}

func replaceWith(t *ast.Tree, n, template ast.NodeID) ast.NodeID {
	repl := t.CloneTree(template)
	if t.Parent(n).IsValid() {
		t.Replace(n, repl)
	}
	return repl
}

// ----------------------------------------------------------------------------
// Injector
// ----------------------------------------------------------------------------

// Injector binds the package functions to one tree.
type Injector struct {
	tree   *ast.Tree
	ids    *idgen.Supplier
	purity *ast.PurityContext
}

// NewInjector creates an injector for the tree.
func NewInjector(t *ast.Tree, ids *idgen.Supplier, purity *ast.PurityContext) *Injector {
	return &Injector{tree: t, ids: ids, purity: purity}
}

// BuildArgumentMap calls the package function on the injector's tree.
func (inj *Injector) BuildArgumentMap(fn, call ast.NodeID) *ArgMap {
	return BuildArgumentMap(inj.tree, fn, call, inj.ids)
}

// AddTempsForCallArguments calls the package function on the injector's tree.
func (inj *Injector) AddTempsForCallArguments(fn ast.NodeID, args *ArgMap, namesNeedingTemps map[string]bool) {
	AddTempsForCallArguments(inj.tree, inj.purity, fn, args, namesNeedingTemps)
}

// Inject calls the package function on the injector's tree.
func (inj *Injector) Inject(root ast.NodeID, args *ArgMap) ast.NodeID {
	return Inject(inj.tree, root, args)
}
