package ast

// ----------------------------------------------------------------------------
// Function Structure
// ----------------------------------------------------------------------------

// FunctionParams returns the ParamList of a function node.
func FunctionParams(t *Tree, fn NodeID) NodeID {
	return t.Child(fn, 0)
}

// FunctionBody returns the body Block of a function node.
func FunctionBody(t *Tree, fn NodeID) NodeID {
	return t.Child(fn, 1)
}

// ParamNames returns the declared parameter names in order.
func ParamNames(t *Tree, fn NodeID) []string {
	params := t.Children(FunctionParams(t, fn))
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = t.Str(p)
	}
	return names
}

// EnclosingFunction returns the nearest function strictly containing id, or
// InvalidNode when id is in the global scope.
func EnclosingFunction(t *Tree, id NodeID) NodeID {
	for n := t.Parent(id); n.IsValid(); n = t.Parent(n) {
		if t.Kind(n) == KindFunction {
			return n
		}
	}
	return InvalidNode
}

// ----------------------------------------------------------------------------
// Name Queries
// ----------------------------------------------------------------------------

// NameReferenceCount counts Name nodes called name in the subtree, including
// declarations and nested functions.
func NameReferenceCount(t *Tree, root NodeID, name string) int {
	count := 0
	t.Walk(root, func(n NodeID) bool {
		if t.Kind(n) == KindName && t.Str(n) == name {
			count++
		}
		return true
	})
	return count
}

// IsNameReferenced reports whether any Name node in the subtree is called name.
func IsNameReferenced(t *Tree, root NodeID, name string) bool {
	found := false
	t.Walk(root, func(n NodeID) bool {
		if found {
			return false
		}
		if t.Kind(n) == KindName && t.Str(n) == name {
			found = true
		}
		return !found
	})
	return found
}

// IsConstantName reports whether a Name node carries the constant flag.
func IsConstantName(t *Tree, n NodeID) bool {
	return t.Kind(n) == KindName && t.Flags(n).Has(FlagConstant)
}

// IsDeclarationName reports whether a Name node declares a variable or a
// parameter rather than referencing one.
func IsDeclarationName(t *Tree, n NodeID) bool {
	if t.Kind(n) != KindName {
		return false
	}
	p := t.Parent(n)
	return p.IsValid() && (t.Kind(p) == KindVar || t.Kind(p) == KindParamList)
}

// IsAssignmentTarget reports whether n is written by its parent: the target
// of an assignment, the operand of an update, or the operand of delete.
func IsAssignmentTarget(t *Tree, n NodeID) bool {
	p := t.Parent(n)
	if !p.IsValid() {
		return false
	}
	switch t.Kind(p) {
	case KindAssign:
		return t.FirstChild(p) == n
	case KindUpdate:
		return true
	case KindUnary:
		return t.Str(p) == "delete"
	}
	return false
}

// ----------------------------------------------------------------------------
// Shallow Statement Queries
// ----------------------------------------------------------------------------

// walkShallow visits the subtree without entering nested functions. The
// nested function nodes themselves are visited.
func walkShallow(t *Tree, root NodeID, visit func(NodeID)) {
	t.Walk(root, func(n NodeID) bool {
		visit(n)
		return n == root || t.Kind(n) != KindFunction
	})
}

// CountShallow counts nodes of the given kind outside nested functions.
func CountShallow(t *Tree, root NodeID, kind Kind) int {
	count := 0
	walkShallow(t, root, func(n NodeID) {
		if n != root && t.Kind(n) == kind {
			count++
		}
	})
	return count
}

// HasLocalDeclaration reports whether the subtree declares a variable or a
// function outside nested functions.
func HasLocalDeclaration(t *Tree, root NodeID) bool {
	found := false
	walkShallow(t, root, func(n NodeID) {
		if n != root && (t.Kind(n) == KindVar || IsFunctionDeclaration(t, n)) {
			found = true
		}
	})
	return found
}

// ContainsFunction reports whether the subtree holds a function node other
// than root itself.
func ContainsFunction(t *Tree, root NodeID) bool {
	found := false
	t.Walk(root, func(n NodeID) bool {
		if n != root && t.Kind(n) == KindFunction {
			found = true
		}
		return !found
	})
	return found
}

// ReferencesThis reports whether the subtree uses "this" outside nested
// functions.
func ReferencesThis(t *Tree, root NodeID) bool {
	return CountShallow(t, root, KindThis) > 0
}

// ----------------------------------------------------------------------------
// Statement Shapes
// ----------------------------------------------------------------------------

// IsStatementBlock reports whether the node holds a plain statement list.
func IsStatementBlock(t *Tree, n NodeID) bool {
	k := t.Kind(n)
	return k == KindScript || k == KindBlock
}

// IsStatement reports whether the node sits directly in a statement list.
func IsStatement(t *Tree, n NodeID) bool {
	p := t.Parent(n)
	return p.IsValid() && IsStatementBlock(t, p)
}

// IsExprCall reports whether n is an expression statement holding a call.
func IsExprCall(t *Tree, n NodeID) bool {
	return t.Kind(n) == KindExprResult && t.Is(t.FirstChild(n), KindCall)
}

// IsExprAssign reports whether n is an expression statement holding an
// assignment.
func IsExprAssign(t *Tree, n NodeID) bool {
	return t.Kind(n) == KindExprResult && t.Is(t.FirstChild(n), KindAssign)
}

// IsFunctionDeclaration reports whether n is a named function used as a
// statement.
func IsFunctionDeclaration(t *Tree, n NodeID) bool {
	return t.Kind(n) == KindFunction && t.Str(n) != "" && IsStatement(t, n)
}

// IsLoopBody reports whether n is the body of its loop parent.
func IsLoopBody(t *Tree, n NodeID) bool {
	p := t.Parent(n)
	if !p.IsValid() {
		return false
	}
	switch t.Kind(p) {
	case KindWhile, KindFor:
		return t.LastChild(p) == n
	case KindDoWhile:
		return t.FirstChild(p) == n
	}
	return false
}

// ----------------------------------------------------------------------------
// Call Shapes
// ----------------------------------------------------------------------------

// CallTarget returns the callee of a call or new expression.
func CallTarget(t *Tree, call NodeID) NodeID {
	return t.FirstChild(call)
}

// CallArgs returns the argument expressions of a call.
func CallArgs(t *Tree, call NodeID) []NodeID {
	return t.Children(call)[1:]
}

// IsFunctionObjectCall reports whether call has the form "x.call(...)".
func IsFunctionObjectCall(t *Tree, call NodeID) bool {
	callee := CallTarget(t, call)
	return t.Is(callee, KindGetProp) && t.Str(callee) == "call"
}

// IsFunctionObjectApply reports whether call has the form "x.apply(...)".
func IsFunctionObjectApply(t *Tree, call NodeID) bool {
	callee := CallTarget(t, call)
	return t.Is(callee, KindGetProp) && t.Str(callee) == "apply"
}

// QualifiedName renders a name or a chain of property reads on a name
// ("Math.max"), or returns "" for anything else.
func QualifiedName(t *Tree, n NodeID) string {
	switch t.Kind(n) {
	case KindName:
		return t.Str(n)
	case KindGetProp:
		if base := QualifiedName(t, t.FirstChild(n)); base != "" {
			return base + "." + t.Str(n)
		}
	}
	return ""
}

// ----------------------------------------------------------------------------
// Values
// ----------------------------------------------------------------------------

// IsUndefined reports whether n is "void <literal>" or the name undefined.
func IsUndefined(t *Tree, n NodeID) bool {
	switch t.Kind(n) {
	case KindUnary:
		return t.Str(n) == "void" && IsImmutableValue(t, t.FirstChild(n))
	case KindName:
		return t.Str(n) == "undefined"
	}
	return false
}

// IsImmutableValue reports whether n always evaluates to the same primitive.
func IsImmutableValue(t *Tree, n NodeID) bool {
	switch t.Kind(n) {
	case KindNumber, KindString, KindTrue, KindFalse, KindNull:
		return true
	case KindUnary:
		switch t.Str(n) {
		case "!", "-", "+", "~", "void":
			return IsImmutableValue(t, t.FirstChild(n))
		}
	case KindName:
		switch t.Str(n) {
		case "undefined", "NaN", "Infinity":
			return true
		}
	}
	return false
}
