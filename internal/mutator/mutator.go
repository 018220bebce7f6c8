// Package mutator turns a copy of a function body into a block that can
// replace one call to the function.
//
// The block declares the parameters that need temporaries, substitutes the
// remaining arguments, and rewrites every return into an assignment to the
// result name followed, when the return is not the last statement, by a
// break out of a label wrapping the whole block:
//
//	function f(a) { if (a) return 1; return 2; }
//	x = f(y);
//
//	=>
//
//	{ inline_label_f_0: { if (y) { x = 1; break inline_label_f_0; } x = 2; } }
package mutator

import (
	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/idgen"
	"github.com/HugoDaniel/fninline/internal/params"
	"github.com/HugoDaniel/fninline/internal/renamer"
)

const (
	// LabelPrefix starts the label used to leave an inlined body early.
	LabelPrefix = "inline_label_"
	// ThisPrefix starts the name of a temporary holding the bound "this".
	ThisPrefix = "inline_this_"
)

// Mutator builds inlinable blocks within one tree.
type Mutator struct {
	tree   *ast.Tree
	ids    *idgen.Supplier
	purity *ast.PurityContext
}

// New creates a mutator for the tree.
func New(t *ast.Tree, ids *idgen.Supplier, purity *ast.PurityContext) *Mutator {
	return &Mutator{tree: t, ids: ids, purity: purity}
}

// Mutate returns a detached block equivalent to calling fn at call.
//
// resultName is the variable receiving the return value, or "" when the
// value is unused. needsDefaultResult assigns "void 0" to resultName when
// the body can finish without returning. inLoop gives uninitialized
// variables an explicit "void 0", as a loop would otherwise carry their
// value from one iteration into the next.
func (m *Mutator) Mutate(fnName string, fn, call ast.NodeID, resultName string, needsDefaultResult, inLoop bool) ast.NodeID {
	t := m.tree
	clone := t.CloneTree(fn)

	renamer.MakeLocalNamesUnique(t, clone, m.ids)
	m.renameLabels(ast.FunctionBody(t, clone))
	hoistFunctionDeclarations(t, ast.FunctionBody(t, clone))

	namesToAlias := params.FindModifiedParameters(t, clone)
	args := params.BuildArgumentMap(t, clone, call, m.ids)
	params.AddTempsForCallArguments(t, m.purity, clone, args, namesToAlias)

	block := t.Detach(ast.FunctionBody(t, clone))
	m.aliasAndInject(block, args, namesToAlias)

	if inLoop {
		initializeVars(t, block)
	}

	return m.replaceReturns(block, fnName, resultName, needsDefaultResult)
}

// aliasAndInject declares a temporary for every name in namesToAlias, in
// argument order at the front of the block, and substitutes the rest.
func (m *Mutator) aliasAndInject(block ast.NodeID, args *params.ArgMap, namesToAlias map[string]bool) {
	t := m.tree
	if len(namesToAlias) == 0 {
		params.Inject(t, block, args)
		return
	}

	inject := args.Clone()
	var decls []ast.NodeID
	for _, name := range args.Names() {
		if !namesToAlias[name] {
			continue
		}
		value, _ := args.Get(name)
		if name == params.ThisMarker {
			if t.Kind(value) == ast.KindThis {
				continue
			}
			if !ast.ReferencesThis(t, block) && !m.purity.MayHaveSideEffects(t, value) {
				continue
			}
			alias := ThisPrefix + m.ids.Next()
			inject.Set(params.ThisMarker, t.NewName(alias))
			decls = append(decls, newVarAt(t, alias, t.CloneTree(value), value))
			continue
		}
		decls = append(decls, newVarAt(t, name, t.CloneTree(value), value))
		inject.Delete(name)
	}

	params.Inject(t, block, inject)
	for i := len(decls) - 1; i >= 0; i-- {
		t.AddChildToFront(block, decls[i])
	}
}

func newVarAt(t *ast.Tree, name string, init, loc ast.NodeID) ast.NodeID {
	decl := t.NewVar(name, init)
	t.SetLoc(decl, t.Loc(loc))
	return decl
}

// ----------------------------------------------------------------------------
// Body Rewrites
// ----------------------------------------------------------------------------

// renameLabels gives every label in the body a fresh name so the block can
// be placed inside a statement carrying the same label.
func (m *Mutator) renameLabels(body ast.NodeID) {
	t := m.tree
	var labels []ast.NodeID
	t.Walk(body, func(n ast.NodeID) bool {
		if t.Kind(n) == ast.KindLabel {
			labels = append(labels, n)
		}
		return n == body || t.Kind(n) != ast.KindFunction
	})

	// Innermost first, so an outer label of the same name does not claim
	// the inner label's jumps.
	for i := len(labels) - 1; i >= 0; i-- {
		label := labels[i]
		old := t.Str(label)
		renamed := old + "$inline_" + m.ids.Next()
		t.SetStr(label, renamed)
		t.Walk(t.FirstChild(label), func(n ast.NodeID) bool {
			switch t.Kind(n) {
			case ast.KindFunction:
				return false
			case ast.KindBreak, ast.KindContinue:
				if t.Str(n) == old {
					t.SetStr(n, renamed)
				}
			}
			return true
		})
	}
}

// hoistFunctionDeclarations rewrites "function g() {}" into
// "var g = function () {};" at the front of the body, since a labeled
// block cannot hold function declarations.
func hoistFunctionDeclarations(t *ast.Tree, body ast.NodeID) {
	var decls []ast.NodeID
	t.Walk(body, func(n ast.NodeID) bool {
		if n == body {
			return true
		}
		if ast.IsFunctionDeclaration(t, n) {
			decls = append(decls, n)
		}
		return t.Kind(n) != ast.KindFunction
	})

	for i := len(decls) - 1; i >= 0; i-- {
		fn := decls[i]
		name := t.Str(fn)
		t.SetStr(fn, "")
		t.Detach(fn)
		decl := newVarAt(t, name, fn, fn)
		t.AddChildToFront(body, decl)
	}
}

// initializeVars gives uninitialized declarations an explicit "void 0".
// Loops in the body already handle their own declarations.
func initializeVars(t *ast.Tree, root ast.NodeID) {
	t.Walk(root, func(n ast.NodeID) bool {
		switch k := t.Kind(n); {
		case k.IsLoop(), k == ast.KindFunction:
			return false
		case k == ast.KindVar:
			for _, name := range t.Children(n) {
				if t.ChildCount(name) == 0 {
					t.AddChildToBack(name, t.NewUndefined())
				}
			}
			return false
		}
		return true
	})
}

// replaceReturns converts the body's returns into result assignments and
// returns the node to insert: the block itself, or a block wrapping a
// label around it when some return leaves early.
func (m *Mutator) replaceReturns(block ast.NodeID, fnName, resultName string, needsDefaultResult bool) ast.NodeID {
	t := m.tree
	root := block

	returns := ast.CountShallow(t, block, ast.KindReturn)
	returnAtExit := false
	if returns > 0 {
		if last := t.LastChild(block); t.Is(last, ast.KindReturn) {
			returnAtExit = true
			if stmt := returnReplacement(t, last, resultName); stmt.IsValid() {
				t.Replace(last, stmt)
			} else {
				t.Detach(last)
			}
			returns--
		}

		if returns > 0 {
			labelName := LabelPrefix + fnName + "_" + m.ids.Next()
			replaceReturnsWithBreaks(t, block, resultName, labelName)
			label := t.NewLabel(labelName, block)
			t.SetLoc(label, t.Loc(block))
			root = t.NewBlock(label)
			t.SetLoc(root, t.Loc(block))
		}
	}

	if needsDefaultResult && !returnAtExit && resultName != "" {
		assign := t.NewAssign(t.NewName(resultName), t.NewUndefined())
		t.AddChildToBack(block, t.NewExprResult(assign))
	}
	return root
}

// returnReplacement builds the statement a return becomes: "result = value;"
// when there is a result, "value;" when the value is discarded, or
// InvalidNode when nothing remains.
func returnReplacement(t *ast.Tree, ret ast.NodeID, resultName string) ast.NodeID {
	value := ast.InvalidNode
	if v := t.FirstChild(ret); v.IsValid() {
		value = t.Detach(v)
	}
	if resultName == "" {
		if !value.IsValid() {
			return ast.InvalidNode
		}
		stmt := t.NewExprResult(value)
		t.SetLoc(stmt, t.Loc(ret))
		return stmt
	}
	if !value.IsValid() {
		value = t.NewUndefined()
	}
	stmt := t.NewExprResult(t.NewAssign(t.NewName(resultName), value))
	t.SetLoc(stmt, t.Loc(ret))
	return stmt
}

func replaceReturnsWithBreaks(t *ast.Tree, root ast.NodeID, resultName, labelName string) {
	var returns []ast.NodeID
	t.Walk(root, func(n ast.NodeID) bool {
		switch t.Kind(n) {
		case ast.KindFunction, ast.KindExprResult:
			return false
		case ast.KindReturn:
			returns = append(returns, n)
			return false
		}
		return true
	})

	for _, ret := range returns {
		brk := t.NewBreak(labelName)
		t.SetLoc(brk, t.Loc(ret))
		stmt := returnReplacement(t, ret, resultName)

		if ast.IsStatement(t, ret) {
			t.Replace(ret, brk)
			if stmt.IsValid() {
				t.AddChildBefore(stmt, brk)
			}
			continue
		}
		// A return directly under a label has no statement list to join.
		wrapper := t.NewBlock()
		if stmt.IsValid() {
			t.AddChildToBack(wrapper, stmt)
		}
		t.AddChildToBack(wrapper, brk)
		t.Replace(ret, wrapper)
	}
}
