package inline

import (
	"go.uber.org/zap"

	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/renamer"
)

// ResultPrefix starts the name of the temporary receiving the value of a
// call inlined out of an expression.
const ResultPrefix = "inline_result_"

// Inline replaces the call to fn with fn's body and returns the root of the
// inserted code. The call must have been approved by CanInlineReference for
// the same mode, and any decomposition it asked for must have been done.
func (e *Engine) Inline(call ast.NodeID, fnName string, fn ast.NodeID, mode Mode) ast.NodeID {
	if !e.tree.IsNormalized() {
		invariant("Inline", "tree is not normalized")
	}
	if !e.tree.IsAttached(call) {
		invariant("Inline", "call %d is not attached to the tree", call)
	}

	var result ast.NodeID
	switch mode {
	case ModeDirect:
		result = e.inlineReturnValue(call, fn)
	case ModeBlock:
		result = e.inlineFunction(call, fnName, fn)
	default:
		invariant("Inline", "unknown mode %v", mode)
	}

	e.log.Debug("inlined call",
		zap.String("function", fnName),
		zap.Stringer("mode", mode),
		zap.Int32("offset", e.tree.Loc(call).Start))
	return result
}

// inlineReturnValue replaces the call by the substituted return value.
func (e *Engine) inlineReturnValue(call, fn ast.NodeID) ast.NodeID {
	t := e.tree
	if !e.IsDirectReplacementCandidate(fn) {
		invariant("inlineReturnValue", "function body is not a single return")
	}
	body := ast.FunctionBody(t, fn)
	args := e.injector.BuildArgumentMap(fn, call)

	var expr ast.NodeID
	if t.ChildCount(body) == 0 {
		expr = t.NewUndefined()
		t.SetLoc(expr, t.Loc(body))
	} else {
		ret := t.CloneTree(t.FirstChild(body))
		e.uniquifyNestedFunctions(ret)
		e.injector.Inject(ret, args)
		expr = t.Detach(t.FirstChild(ret))
	}

	t.Replace(call, expr)
	return expr
}

// uniquifyNestedFunctions renames the declarations of functions inside a
// cloned return value, which would otherwise exist twice.
func (e *Engine) uniquifyNestedFunctions(root ast.NodeID) {
	t := e.tree
	var nested []ast.NodeID
	t.Walk(root, func(n ast.NodeID) bool {
		if t.Kind(n) == ast.KindFunction {
			nested = append(nested, n)
			return false
		}
		return true
	})
	for _, fn := range nested {
		renamer.MakeLocalNamesUnique(t, fn, e.ids)
	}
}

// inlineFunction replaces the statement holding the call with a block
// built from fn's body.
func (e *Engine) inlineFunction(call ast.NodeID, fnName string, fn ast.NodeID) ast.NodeID {
	t := e.tree
	parent := t.Parent(call)
	grandparent := t.Parent(parent)

	// The analysis may be stale, so classify again and finish every check
	// before touching the tree.
	siteType := e.ClassifyCallSite(call)
	var resultName string
	needsDefaultResult := true
	switch siteType {
	case SimpleAssignment:
		resultName = t.Str(t.FirstChild(parent))
	case VarDeclSimpleAssignment:
		resultName = t.Str(parent)
	case SimpleCall:
		needsDefaultResult = false
	case Expression:
		// The temporary already starts out undefined.
		needsDefaultResult = false
	case DecomposableExpression:
		invariant("inlineFunction", "call to %s must be decomposed before inlining", fnName)
	default:
		invariant("inlineFunction", "unexpected call site type %v for %s", siteType, fnName)
	}

	injectionPoint := ast.InvalidNode
	if siteType == Expression {
		injectionPoint = e.decomposer.FindInjectionPoint(call)
		if !injectionPoint.IsValid() || !ast.IsStatement(t, injectionPoint) {
			invariant("inlineFunction", "no statement to insert %s before", fnName)
		}
		resultName = ResultPrefix + e.ids.Next()
	}

	inLoop := e.isCallWithinLoop(call)
	block := e.builder.Mutate(fnName, fn, call, resultName, needsDefaultResult, inLoop)

	switch siteType {
	case VarDeclSimpleAssignment:
		// var x = f();  =>  var x; {...}
		t.Detach(call)
		t.AddChildAfter(block, grandparent)

	case SimpleAssignment:
		t.Replace(grandparent, block)

	case SimpleCall:
		t.Replace(parent, block)

	case Expression:
		decl := t.NewVar(resultName, ast.InvalidNode)
		t.SetLoc(decl, t.Loc(call))
		t.AddChildToFront(block, decl)
		t.AddChildBefore(block, injectionPoint)

		ref := t.NewName(resultName)
		t.SetLoc(ref, t.Loc(call))
		t.Replace(call, ref)
	}
	return block
}
