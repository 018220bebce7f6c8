package inline

import (
	"maps"

	"github.com/HugoDaniel/fninline/internal/ast"
)

// MeetsMinimumRequirements reports whether fn can be inlined anywhere at
// all. Recursive functions and functions reading "arguments" cannot.
func (e *Engine) MeetsMinimumRequirements(fnName string, fn ast.NodeID) bool {
	t := e.tree
	body := ast.FunctionBody(t, fn)

	if ast.IsNameReferenced(t, body, fnName) {
		return false
	}
	if own := t.Str(fn); own != "" && own != fnName && ast.IsNameReferenced(t, body, own) {
		return false
	}
	return !ast.IsNameReferenced(t, body, "arguments")
}

// IsDirectReplacementCandidate reports whether fn's body is empty or a
// single "return <expr>;", the only shapes Direct mode handles.
func (e *Engine) IsDirectReplacementCandidate(fn ast.NodeID) bool {
	t := e.tree
	body := ast.FunctionBody(t, fn)
	switch t.ChildCount(body) {
	case 0:
		return true
	case 1:
		ret := t.FirstChild(body)
		return t.Kind(ret) == ast.KindReturn && t.FirstChild(ret).IsValid()
	}
	return false
}

// CanInlineReference reports whether the call to fn can be inlined in the
// given mode.
func (e *Engine) CanInlineReference(call ast.NodeID, fn Function, mode Mode) CanInlineResult {
	t := e.tree
	if !e.isSupportedCallType(call) {
		return No
	}

	// An inner function moved into a local scope would capture that
	// scope's variables and could keep them alive.
	if fn.ContainsFunctions && ast.EnclosingFunction(t, call).IsValid() {
		return No
	}

	if fn.ReferencesThis && !ast.IsFunctionObjectCall(t, call) {
		return No
	}

	switch mode {
	case ModeDirect:
		return e.canInlineDirect(call, fn.Node)
	case ModeBlock:
		return e.canInlineBlock(call, fn)
	}
	invariant("CanInlineReference", "unknown mode %v", mode)
	return No
}

// isSupportedCallType accepts "f(...)" and "f.call(this, ...)".
func (e *Engine) isSupportedCallType(call ast.NodeID) bool {
	t := e.tree
	if t.Kind(call) != ast.KindCall {
		return false
	}
	callee := ast.CallTarget(t, call)
	switch {
	case t.Kind(callee) == ast.KindName:
		return true
	case ast.IsFunctionObjectCall(t, call):
		args := ast.CallArgs(t, call)
		return len(args) > 0 && t.Kind(args[0]) == ast.KindThis
	}
	return false
}

// canInlineDirect checks that substituting the arguments into the returned
// expression neither duplicates nor drops an evaluation that matters.
func (e *Engine) canInlineDirect(call, fn ast.NodeID) CanInlineResult {
	t := e.tree
	if !e.IsDirectReplacementCandidate(fn) {
		return No
	}
	body := ast.FunctionBody(t, fn)

	args := ast.CallArgs(t, call)
	if ast.IsFunctionObjectCall(t, call) {
		if len(args) == 0 || t.Kind(args[0]) != ast.KindThis {
			invariant("canInlineDirect", "unsupported .call receiver")
		}
		args = args[1:]
	}
	paramNames := ast.ParamNames(t, fn)

	for i, arg := range args {
		if i < len(paramNames) &&
			e.purity.MayEffectMutableState(t, arg) &&
			ast.NameReferenceCount(t, body, paramNames[i]) > 1 {
			return No
		}
		if e.purity.MayHaveSideEffects(t, arg) {
			return No
		}
	}
	return Yes
}

// canInlineBlock checks the call site shape and that inlining does not
// leak new variables into closures of the calling function.
func (e *Engine) canInlineBlock(call ast.NodeID, fn Function) CanInlineResult {
	siteType := e.ClassifyCallSite(call)
	if siteType == Unsupported {
		return No
	}
	if siteType == DecomposableExpression && !e.allowDecomposition {
		return No
	}
	if !e.callMeetsBlockInliningRequirements(call, fn) {
		return No
	}
	if siteType == DecomposableExpression {
		return AfterDecomposition
	}
	return Yes
}

func (e *Engine) callMeetsBlockInliningRequirements(call ast.NodeID, fn Function) bool {
	t := e.tree
	fnContainsVars := ast.HasLocalDeclaration(t, ast.FunctionBody(t, fn.Node))

	callerContainsFunction := false
	if caller := ast.EnclosingFunction(t, call); caller.IsValid() {
		callerContainsFunction = ast.ContainsFunction(t, ast.FunctionBody(t, caller))
	}

	if fnContainsVars && callerContainsFunction {
		return false
	}

	// Temporaries are new variables too. The argument map always holds the
	// this marker, so aliased parameters are checked even for f().
	if callerContainsFunction {
		args := e.injector.BuildArgumentMap(fn.Node, call)
		names := maps.Clone(fn.NamesToAlias)
		if names == nil {
			names = make(map[string]bool)
		}
		e.injector.AddTempsForCallArguments(fn.Node, args, names)
		if len(names) > 0 {
			return false
		}
	}
	return true
}
