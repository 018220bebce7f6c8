package inline

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/costest"
)

// Printed-size estimates, in bytes.
const (
	nameCost  = costest.EstimatedIdentifierCost
	commaCost = 1
	parenCost = 2

	// ".call" + "this,"
	thisCallCost = 5 + 5

	// "function xx(){}" without parameters
	functionOverhead = 15
	// "return "
	returnCost = 7

	// "X:{}"
	inlineBlockOverhead = 4
	// "return" becomes "break X"
	perReturnOverhead = 2
	// "XX=" for every return after the first
	perReturnResultOverhead = 3
	// "XX=" for every aliased parameter
	perAliasOverhead = 3
)

// InliningLowersCost reports whether inlining every reference to fn is
// expected to shrink the program.
func (e *Engine) InliningLowersCost(fn Function, refs []Reference) bool {
	if len(refs) == 0 {
		return true
	}
	t := e.tree

	removable := fn.Removable
	if removable && fn.Module != nil {
		// The declaration has to stay when some caller's module can load
		// without the function's module.
		crossing := lo.ContainsBy(refs, func(r Reference) bool {
			return r.Module != nil && r.Module != fn.Module && !e.graph.DependsOn(r.Module, fn.Module)
		})
		if crossing {
			removable = false
		}
	}

	blockRefs := lo.CountBy(refs, func(r Reference) bool { return r.Mode == ModeBlock })
	directRefs := len(refs) - blockRefs

	if len(refs) == 1 && removable && directRefs == 1 {
		return true
	}

	callCost := EstimateCallCost(t, fn.Node, fn.ReferencesThis)
	lowers := e.doesLowerCost(fn.Node, callCost*len(refs),
		directRefs, InlineCostDelta(t, fn.Node, fn.NamesToAlias, ModeDirect),
		blockRefs, InlineCostDelta(t, fn.Node, fn.NamesToAlias, ModeBlock),
		removable)

	e.log.Debug("inline cost",
		zap.String("function", fn.Name),
		zap.Int("references", len(refs)),
		zap.Int("callCost", callCost),
		zap.Bool("removable", removable),
		zap.Bool("lowersCost", lowers))
	return lowers
}

// EstimateCallCost estimates the printed size of one call to fn:
// "ab(ab,ab)", plus ".call(this," when the function uses "this".
func EstimateCallCost(t *ast.Tree, fn ast.NodeID, referencesThis bool) int {
	n := t.ChildCount(ast.FunctionParams(t, fn))
	cost := nameCost + parenCost
	if n > 0 {
		cost += n*nameCost + (n-1)*commaCost
	}
	if referencesThis {
		cost += thisCallCost
	}
	return cost
}

// InlineCostDelta estimates how much one inlined copy of fn adds compared to
// the declaration it makes unnecessary. Negative values are savings.
func InlineCostDelta(t *ast.Tree, fn ast.NodeID, namesToAlias map[string]bool, mode Mode) int {
	paramCount := t.ChildCount(ast.FunctionParams(t, fn))
	commas := max(paramCount-1, 0)
	overhead := functionOverhead + commas + paramCount*nameCost

	body := ast.FunctionBody(t, fn)
	if t.ChildCount(body) == 0 {
		return -overhead
	}

	if mode == ModeDirect {
		return -(overhead + returnCost)
	}

	returns := ast.CountShallow(t, body, ast.KindReturn)
	added := returns*perReturnOverhead +
		max(returns-1, 0)*perReturnResultOverhead +
		len(namesToAlias)*perAliasOverhead
	if returns > 0 {
		added += inlineBlockOverhead
	}
	return added - overhead
}

// doesLowerCost solves "inlined size < call size" for the size of the
// function, so the function is measured only once and only up to the
// break-even point.
func (e *Engine) doesLowerCost(fn ast.NodeID, callCost, directInlines, costDeltaDirect, blockInlines, costDeltaBlock int, removable bool) bool {
	instances := directInlines + blockInlines
	if removable {
		instances--
	}

	if instances == 0 {
		// A single block inline that replaces the declaration: only refuse
		// when the block is bigger than the declaration.
		return !(blockInlines > 0 && costDeltaBlock > 0)
	}

	costDelta := directInlines*costDeltaDirect + blockInlines*costDeltaBlock
	threshold := (callCost - costDelta) / instances
	return costest.Cost(e.tree, fn, threshold+1) <= threshold
}
