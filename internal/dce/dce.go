// Package dce removes top-level function declarations that nothing can
// reach any more, typically after every call to them was inlined.
//
// DCE works by:
// 1. Collecting the top-level function declarations
// 2. Building a dependency graph of the declarations each one references
// 3. Marking everything reachable from the other top-level statements as live
// 4. Removing the candidate declarations that are not live
//
// Only candidates are ever removed. Other unreachable declarations may be
// used by code outside the program and stay.
package dce

import (
	"github.com/HugoDaniel/fninline/internal/ast"
)

// Declaration is a top-level function declaration: either a function
// statement or "var f = function () {}".
type Declaration struct {
	Name      string
	Statement ast.NodeID // the Function or Var statement
	Function  ast.NodeID
}

// Declarations returns the top-level function declarations in source order.
func Declarations(t *ast.Tree) []Declaration {
	var decls []Declaration
	for _, stmt := range t.Children(t.Root) {
		if decl, ok := declarationOf(t, stmt); ok {
			decls = append(decls, decl)
		}
	}
	return decls
}

func declarationOf(t *ast.Tree, stmt ast.NodeID) (Declaration, bool) {
	switch t.Kind(stmt) {
	case ast.KindFunction:
		if name := t.Str(stmt); name != "" {
			return Declaration{Name: name, Statement: stmt, Function: stmt}, true
		}
	case ast.KindVar:
		if t.ChildCount(stmt) != 1 {
			break
		}
		name := t.FirstChild(stmt)
		if fn := t.FirstChild(name); t.Is(fn, ast.KindFunction) {
			return Declaration{Name: t.Str(name), Statement: stmt, Function: fn}, true
		}
	}
	return Declaration{}, false
}

// Mark returns the names of the declarations that are reachable from a
// top-level statement other than a candidate declaration.
func Mark(t *ast.Tree, candidates map[string]bool) map[string]bool {
	decls := Declarations(t)
	declared := make(map[string]bool, len(decls))
	for _, d := range decls {
		declared[d.Name] = true
	}

	// Build dependency graph: for each declaration, which others does it reference?
	deps := make(map[string][]string, len(decls))
	swept := make(map[ast.NodeID]bool)
	for _, d := range decls {
		if candidates[d.Name] {
			deps[d.Name] = collectRefs(t, d.Function, declared)
			swept[d.Statement] = true
		}
	}

	live := make(map[string]bool)
	for _, stmt := range t.Children(t.Root) {
		if swept[stmt] {
			continue
		}
		for _, name := range collectRefs(t, stmt, declared) {
			markLive(name, deps, live)
		}
		if decl, ok := declarationOf(t, stmt); ok {
			markLive(decl.Name, deps, live)
		}
	}
	return live
}

// collectRefs returns the declared names referenced under root.
func collectRefs(t *ast.Tree, root ast.NodeID, declared map[string]bool) []string {
	var refs []string
	t.Walk(root, func(n ast.NodeID) bool {
		if t.Kind(n) == ast.KindName && declared[t.Str(n)] && !ast.IsDeclarationName(t, n) {
			refs = append(refs, t.Str(n))
		}
		return true
	})
	return refs
}

// markLive marks a declaration and all its dependencies as live.
func markLive(name string, deps map[string][]string, live map[string]bool) {
	if live[name] {
		return
	}
	live[name] = true
	for _, dep := range deps[name] {
		markLive(dep, deps, live)
	}
}

// Sweep removes the declarations of the candidates that are no longer
// reachable and returns how many were removed. The tree must be normalized
// so that a name identifies its declaration.
func Sweep(t *ast.Tree, candidates []string) int {
	if len(candidates) == 0 {
		return 0
	}
	set := make(map[string]bool, len(candidates))
	for _, name := range candidates {
		set[name] = true
	}

	live := Mark(t, set)
	removed := 0
	for _, d := range Declarations(t) {
		if set[d.Name] && !live[d.Name] {
			t.Detach(d.Statement)
			removed++
		}
	}
	return removed
}
