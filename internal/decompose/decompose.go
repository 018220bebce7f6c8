// Package decompose exposes a call buried inside an expression so the call
// can be moved in front of the statement that contains it.
//
// Moving a call is only safe when nothing evaluated before it in the same
// statement has side effects, and nothing evaluated before it can be changed
// by the call. When that does not hold, the earlier parts are hoisted into
// temporaries first:
//
//	x = a + f();      =>  var decomp_0 = a; x = decomp_0 + f();
//
// Calls in a conditionally evaluated operand (the right side of && or ||,
// either branch of ?:) are never decomposed.
package decompose

import (
	"github.com/pkg/errors"

	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/idgen"
)

// DecompositionType says what has to happen before a call can be moved.
type DecompositionType uint8

const (
	// Movable calls can be moved in front of their statement as they are.
	Movable DecompositionType = iota
	// Decomposable calls need earlier parts of the statement hoisted first.
	Decomposable
	// Undecomposable calls cannot be moved.
	Undecomposable
)

var decompositionTypeNames = [...]string{
	Movable:        "Movable",
	Decomposable:   "Decomposable",
	Undecomposable: "Undecomposable",
}

func (d DecompositionType) String() string {
	if int(d) < len(decompositionTypeNames) {
		return decompositionTypeNames[d]
	}
	return "DecompositionType(?)"
}

// TempPrefix prefixes the names of hoisted temporaries.
const TempPrefix = "decomp_"

// ----------------------------------------------------------------------------
// Roots and Injection Points
// ----------------------------------------------------------------------------

// FindExpressionRoot returns the statement whose expression contains n: an
// expression statement, a return, a statement-level var, or an if whose
// condition holds n. It returns InvalidNode when n sits anywhere else, such
// as a loop header.
func FindExpressionRoot(t *ast.Tree, n ast.NodeID) ast.NodeID {
	child := n
	for p := t.Parent(n); p.IsValid(); p = t.Parent(p) {
		switch t.Kind(p) {
		case ast.KindExprResult, ast.KindReturn:
			return p
		case ast.KindIf:
			if t.FirstChild(p) == child {
				return p
			}
			return ast.InvalidNode
		case ast.KindVar:
			if ast.IsStatement(t, p) && t.ChildCount(p) == 1 {
				return p
			}
		case ast.KindScript, ast.KindBlock, ast.KindLabel, ast.KindFunction,
			ast.KindWhile, ast.KindDoWhile, ast.KindFor:
			return ast.InvalidNode
		}
		child = p
	}
	return ast.InvalidNode
}

// FindInjectionPoint returns the statement code can be inserted before so
// it runs ahead of n: its expression root, lifted over enclosing labels.
func FindInjectionPoint(t *ast.Tree, n ast.NodeID) ast.NodeID {
	root := FindExpressionRoot(t, n)
	if !root.IsValid() {
		return ast.InvalidNode
	}
	for t.Is(t.Parent(root), ast.KindLabel) {
		root = t.Parent(root)
	}
	return root
}

// ----------------------------------------------------------------------------
// Decomposer
// ----------------------------------------------------------------------------

// Decomposer classifies and rewrites call sites within one tree.
type Decomposer struct {
	tree   *ast.Tree
	ids    *idgen.Supplier
	purity *ast.PurityContext
}

// New creates a decomposer for the tree. Temporaries draw their ids from ids.
func New(t *ast.Tree, ids *idgen.Supplier, purity *ast.PurityContext) *Decomposer {
	return &Decomposer{tree: t, ids: ids, purity: purity}
}

// FindExpressionRoot is the package function bound to the decomposer's tree.
func (d *Decomposer) FindExpressionRoot(n ast.NodeID) ast.NodeID {
	return FindExpressionRoot(d.tree, n)
}

// FindInjectionPoint is the package function bound to the decomposer's tree.
func (d *Decomposer) FindInjectionPoint(n ast.NodeID) ast.NodeID {
	return FindInjectionPoint(d.tree, n)
}

// CanExposeExpression classifies how the call can be moved in front of its
// statement.
func (d *Decomposer) CanExposeExpression(call ast.NodeID) DecompositionType {
	kind, _ := d.analyze(call)
	return kind
}

// MaybeDecompose hoists everything that must run before call into
// temporaries declared ahead of the statement, leaving the call Movable. It
// panics when the call is Undecomposable.
func (d *Decomposer) MaybeDecompose(call ast.NodeID) {
	kind, hoist := d.analyze(call)
	if kind == Undecomposable {
		panic(errors.Errorf("decompose: call at offset %d cannot be exposed", d.tree.Loc(call).Start))
	}
	if len(hoist) == 0 {
		return
	}

	t := d.tree
	point := FindInjectionPoint(t, call)
	for _, expr := range hoist {
		name := TempPrefix + d.ids.Next()
		ref := t.NewName(name)
		t.SetFlags(ref, ast.FlagConstant)
		t.SetLoc(ref, t.Loc(expr))
		t.Replace(expr, ref)

		decl := t.NewVar(name, expr)
		t.SetFlags(t.FirstChild(decl), ast.FlagConstant)
		t.SetLoc(decl, t.Loc(expr))
		t.AddChildBefore(decl, point)
	}
}

// analyze walks from the call to its expression root and returns the
// classification together with the expressions that have to be hoisted, in
// evaluation order.
func (d *Decomposer) analyze(call ast.NodeID) (DecompositionType, []ast.NodeID) {
	t := d.tree
	root := FindExpressionRoot(t, call)
	if !root.IsValid() {
		return Undecomposable, nil
	}

	seenSideEffects := d.purity.MayHaveSideEffects(t, call)
	var levels [][]ast.NodeID

	child := call
	for p := t.Parent(call); p != root; p = t.Parent(p) {
		switch t.Kind(p) {
		case ast.KindAnd, ast.KindOr, ast.KindHook:
			if t.FirstChild(p) != child {
				return Undecomposable, nil
			}
		case ast.KindAssign:
			if t.Str(p) != "=" && t.Child(p, 1) == child {
				return Undecomposable, nil
			}
		}

		var level []ast.NodeID
		for _, n := range evaluatedBefore(t, p, child) {
			if d.isUnsafe(n, seenSideEffects) {
				seenSideEffects = true
				level = append(level, n)
			}
		}
		if len(level) > 0 && t.Kind(p) == ast.KindCall && level[0] == ast.CallTarget(t, p) {
			// Hoisting a method reference would lose its receiver.
			if k := t.Kind(level[0]); k == ast.KindGetProp || k == ast.KindGetElem {
				return Undecomposable, nil
			}
		}
		levels = append(levels, level)
		child = p
	}

	var hoist []ast.NodeID
	for i := len(levels) - 1; i >= 0; i-- {
		hoist = append(hoist, levels[i]...)
	}
	if len(hoist) == 0 {
		return Movable, nil
	}
	return Decomposable, hoist
}

func (d *Decomposer) isUnsafe(n ast.NodeID, followingSideEffects bool) bool {
	if followingSideEffects {
		return d.purity.CanBeSideEffected(d.tree, n)
	}
	return d.purity.MayHaveSideEffects(d.tree, n)
}

// evaluatedBefore lists the expressions of parent that are evaluated before
// child.
func evaluatedBefore(t *ast.Tree, parent, child ast.NodeID) []ast.NodeID {
	var before []ast.NodeID
	switch t.Kind(parent) {
	case ast.KindAssign:
		if t.Child(parent, 1) != child {
			return nil
		}
		target := t.FirstChild(parent)
		switch t.Kind(target) {
		case ast.KindGetProp, ast.KindGetElem:
			before = append(before, t.Children(target)...)
		}
		return before

	case ast.KindObject:
		for _, prop := range t.Children(parent) {
			if prop == child {
				break
			}
			before = append(before, t.FirstChild(prop))
		}
		return before
	}

	for _, c := range t.Children(parent) {
		if c == child {
			break
		}
		before = append(before, c)
	}
	return before
}
