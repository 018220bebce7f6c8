package ast

// ----------------------------------------------------------------------------
// Purity Analysis
// ----------------------------------------------------------------------------

// PurityContext answers side-effect questions about expressions.
type PurityContext struct {
	PureCalls      map[string]bool // Known pure built-in callees, by qualified name
	KnownConstants map[string]bool // Names proven never to be reassigned
}

// NewPurityContext creates a purity context with the default pure built-ins.
// knownConstants is retained, not copied.
func NewPurityContext(knownConstants map[string]bool) *PurityContext {
	return &PurityContext{
		PureCalls:      ComputePureBuiltins(),
		KnownConstants: knownConstants,
	}
}

// ComputePureBuiltins returns the set of built-in callees that neither
// mutate state nor depend on mutable state.
func ComputePureBuiltins() map[string]bool {
	pure := make(map[string]bool)

	mathFuncs := []string{
		"abs", "acos", "asin", "atan", "atan2", "ceil", "cos", "exp",
		"floor", "log", "max", "min", "pow", "round", "sin", "sqrt", "tan",
	}
	for _, fn := range mathFuncs {
		pure["Math."+fn] = true
	}

	for _, fn := range []string{"isNaN", "isFinite", "parseInt", "parseFloat", "String", "Number", "Boolean"} {
		pure[fn] = true
	}

	return pure
}

// WithoutShadowed drops pure built-ins whose root name is declared by the
// program.
func (ctx *PurityContext) WithoutShadowed(declared map[string]bool) *PurityContext {
	pure := make(map[string]bool, len(ctx.PureCalls))
	for name := range ctx.PureCalls {
		root := name
		for i := 0; i < len(name); i++ {
			if name[i] == '.' {
				root = name[:i]
				break
			}
		}
		if !declared[root] {
			pure[name] = true
		}
	}
	return &PurityContext{PureCalls: pure, KnownConstants: ctx.KnownConstants}
}

// MayHaveSideEffects reports whether evaluating n could change observable
// state. Property reads are assumed free of getters.
func (ctx *PurityContext) MayHaveSideEffects(t *Tree, n NodeID) bool {
	return ctx.checkForStateChange(t, n, false)
}

// MayEffectMutableState is MayHaveSideEffects that also counts the creation
// of new mutable objects, so duplicating such an expression is unsafe.
func (ctx *PurityContext) MayEffectMutableState(t *Tree, n NodeID) bool {
	return ctx.checkForStateChange(t, n, true)
}

func (ctx *PurityContext) checkForStateChange(t *Tree, n NodeID, checkMutable bool) bool {
	switch t.Kind(n) {
	case KindName, KindThis, KindNumber, KindString, KindTrue, KindFalse,
		KindNull, KindEmpty:
		return false

	case KindFunction:
		// Creating a closure allocates a new object.
		return checkMutable

	case KindArray, KindObject:
		if checkMutable {
			return true
		}

	case KindAssign, KindUpdate, KindNew:
		return true

	case KindUnary:
		if t.Str(n) == "delete" {
			return true
		}

	case KindCall:
		if !ctx.PureCalls[QualifiedName(t, CallTarget(t, n))] {
			return true
		}
		for _, arg := range CallArgs(t, n) {
			if ctx.checkForStateChange(t, arg, checkMutable) {
				return true
			}
		}
		return false

	case KindBinary, KindAnd, KindOr, KindHook, KindComma, KindGetProp,
		KindGetElem, KindObjectProp, KindExprResult, KindReturn, KindVar:
		// Decided by the children below.

	default:
		return true
	}

	for _, c := range t.Children(n) {
		if ctx.checkForStateChange(t, c, checkMutable) {
			return true
		}
	}
	return false
}

// CanBeSideEffected reports whether the value of n could be changed by an
// expression evaluated between two reads of n. Constant names and known
// constants cannot be.
func (ctx *PurityContext) CanBeSideEffected(t *Tree, n NodeID) bool {
	switch t.Kind(n) {
	case KindCall, KindNew, KindGetProp, KindGetElem:
		return true
	case KindName:
		return !IsConstantName(t, n) && !ctx.KnownConstants[t.Str(n)] && !IsImmutableValue(t, n)
	case KindFunction:
		return false
	}
	for _, c := range t.Children(n) {
		if ctx.CanBeSideEffected(t, c) {
			return true
		}
	}
	return false
}
