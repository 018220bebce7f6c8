package inline

import (
	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/decompose"
	"github.com/HugoDaniel/fninline/internal/modgraph"
	"github.com/HugoDaniel/fninline/internal/params"
)

// Decomposer locates the statement containing a call and exposes the call
// so it can run ahead of that statement. *decompose.Decomposer implements it.
type Decomposer interface {
	FindExpressionRoot(n ast.NodeID) ast.NodeID
	FindInjectionPoint(n ast.NodeID) ast.NodeID
	CanExposeExpression(call ast.NodeID) decompose.DecompositionType
	MaybeDecompose(call ast.NodeID)
}

// ArgumentInjector binds arguments to parameters. *params.Injector
// implements it.
type ArgumentInjector interface {
	BuildArgumentMap(fn, call ast.NodeID) *params.ArgMap
	AddTempsForCallArguments(fn ast.NodeID, args *params.ArgMap, namesNeedingTemps map[string]bool)
	Inject(root ast.NodeID, args *params.ArgMap) ast.NodeID
}

// BlockBuilder turns a function body into a block replacing one call.
// *mutator.Mutator implements it.
type BlockBuilder interface {
	Mutate(fnName string, fn, call ast.NodeID, resultName string, needsDefaultResult, inLoop bool) ast.NodeID
}

// ModuleGraph answers module dependency queries. *modgraph.Graph implements
// it.
type ModuleGraph interface {
	DependsOn(a, b *modgraph.Module) bool
}

var (
	_ Decomposer       = (*decompose.Decomposer)(nil)
	_ ArgumentInjector = (*params.Injector)(nil)
	_ ModuleGraph      = (*modgraph.Graph)(nil)
)
