package inline

import (
	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/decompose"
)

// ClassifyCallSite reports which of the supported shapes the call sits in.
// It only reads the tree.
func (e *Engine) ClassifyCallSite(call ast.NodeID) CallSiteType {
	t := e.tree
	parent := t.Parent(call)
	if !parent.IsValid() {
		return Unsupported
	}
	grandparent := t.Parent(parent)

	switch {
	case ast.IsExprCall(t, parent):
		// f();
		return SimpleCall

	case grandparent.IsValid() && ast.IsExprAssign(t, grandparent) &&
		t.Str(parent) == "=" &&
		t.FirstChild(parent) != call &&
		t.Is(t.FirstChild(parent), ast.KindName) &&
		!e.isConstantName(t.FirstChild(parent)):
		// x = f();
		return SimpleAssignment

	case t.Kind(parent) == ast.KindName &&
		!e.isConstantName(parent) &&
		t.Is(grandparent, ast.KindVar) &&
		t.ChildCount(grandparent) == 1 &&
		ast.IsStatement(t, grandparent):
		// var x = f();
		return VarDeclSimpleAssignment
	}

	if root := e.decomposer.FindExpressionRoot(call); root.IsValid() {
		switch e.decomposer.CanExposeExpression(call) {
		case decompose.Movable:
			return Expression
		case decompose.Decomposable:
			return DecomposableExpression
		}
	}
	return Unsupported
}

// isCallWithinLoop reports whether a loop encloses the call within its
// function.
func (e *Engine) isCallWithinLoop(call ast.NodeID) bool {
	t := e.tree
	for n := t.Parent(call); n.IsValid(); n = t.Parent(n) {
		if t.Kind(n).IsLoop() {
			return true
		}
		if t.Kind(n) == ast.KindFunction {
			break
		}
	}
	return false
}
