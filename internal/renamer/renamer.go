// Package renamer normalizes trees so every declared name is unique.
//
// Inlining moves code between scopes. That is only safe when no declaration
// can capture or shadow another, so before the inliner runs:
// - Every local declaration that collides with any other declaration in the
//   program is renamed to name$N
// - Multi-name var statements are split into one statement per name
// - Constant declarations mark every reference to them constant
//
// Global names are never renamed; they are the program's public surface.
package renamer

import (
	"strconv"

	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/idgen"
)

// ----------------------------------------------------------------------------
// Scopes
// ----------------------------------------------------------------------------

type scope struct {
	parent *scope
	names  map[string]string // original name -> unique name
}

func (s *scope) lookup(name string) (string, bool) {
	for ; s != nil; s = s.parent {
		if renamed, ok := s.names[name]; ok {
			return renamed, true
		}
	}
	return "", false
}

// isNamedExpression reports whether fn is a named function expression, whose
// name is bound only inside its own body. A detached function, such as a
// clone of a declaration, is not one.
func isNamedExpression(t *ast.Tree, fn ast.NodeID) bool {
	return t.Str(fn) != "" && t.Parent(fn).IsValid() && !ast.IsStatement(t, fn)
}

// declaredNames lists the names a function or script declares directly:
// parameters, the name of a function expression, var names and function
// declarations not nested in another function.
func declaredNames(t *ast.Tree, fn ast.NodeID) []string {
	var names []string
	root := fn
	if t.Kind(fn) == ast.KindFunction {
		names = append(names, ast.ParamNames(t, fn)...)
		if isNamedExpression(t, fn) {
			names = append(names, t.Str(fn))
		}
		root = ast.FunctionBody(t, fn)
	}
	t.Walk(root, func(n ast.NodeID) bool {
		switch t.Kind(n) {
		case ast.KindVar:
			for _, name := range t.Children(n) {
				names = append(names, t.Str(name))
			}
		case ast.KindFunction:
			if ast.IsFunctionDeclaration(t, n) {
				names = append(names, t.Str(n))
			}
			return false
		}
		return true
	})
	return names
}

// ----------------------------------------------------------------------------
// Normalization
// ----------------------------------------------------------------------------

type normalizer struct {
	tree     *ast.Tree
	taken    map[string]bool // every identifier in use anywhere
	declared map[string]bool // names already bound by some declaration
	next     map[string]int  // per-name suffix counter
}

// Normalize rewrites the tree into normalized form and marks it normalized.
func Normalize(t *ast.Tree) {
	n := &normalizer{
		tree:     t,
		taken:    make(map[string]bool),
		declared: make(map[string]bool),
		next:     make(map[string]int),
	}

	splitVarDeclarations(t, t.Root)

	t.Walk(t.Root, func(id ast.NodeID) bool {
		switch t.Kind(id) {
		case ast.KindName, ast.KindFunction:
			if s := t.Str(id); s != "" {
				n.taken[s] = true
			}
		}
		return true
	})

	// A local must not take the name of a global the program reads
	// without declaring it, or inlined code could be captured by it.
	for name := range freeNames(t) {
		n.declared[name] = true
	}

	global := &scope{names: make(map[string]string)}
	for _, name := range declaredNames(t, t.Root) {
		global.names[name] = name
		n.declared[name] = true
	}
	n.visit(t.Root, global)

	propagateConstants(t)
	t.MarkNormalized()
}

func (n *normalizer) fresh(name string) string {
	for {
		n.next[name]++
		candidate := name + "$" + strconv.Itoa(n.next[name])
		if !n.taken[candidate] {
			n.taken[candidate] = true
			return candidate
		}
	}
}

func (n *normalizer) enterFunction(fn ast.NodeID, parent *scope) *scope {
	s := &scope{parent: parent, names: make(map[string]string)}
	for _, name := range declaredNames(n.tree, fn) {
		if _, ok := s.names[name]; ok {
			continue
		}
		unique := name
		if n.declared[name] {
			unique = n.fresh(name)
		}
		n.declared[unique] = true
		s.names[name] = unique
	}
	return s
}

// visit renames names in the subtree of root using scope s. Nested
// functions open a new scope.
func (n *normalizer) visit(root ast.NodeID, s *scope) {
	t := n.tree
	t.Walk(root, func(id ast.NodeID) bool {
		switch t.Kind(id) {
		case ast.KindName:
			if renamed, ok := s.lookup(t.Str(id)); ok {
				t.SetStr(id, renamed)
			}
			return true

		case ast.KindFunction:
			if id == root {
				return true
			}
			inner := n.enterFunction(id, s)
			if name := t.Str(id); name != "" {
				// Declarations bind in the enclosing scope, expression
				// names in their own.
				lookup := s
				if !ast.IsStatement(t, id) {
					lookup = inner
				}
				if renamed, ok := lookup.lookup(name); ok {
					t.SetStr(id, renamed)
				}
			}
			n.visit(id, inner)
			return false
		}
		return true
	})
}

// freeNames returns the names referenced somewhere without a declaration in
// any enclosing scope.
func freeNames(t *ast.Tree) map[string]bool {
	free := make(map[string]bool)
	var resolve func(fn ast.NodeID, parent *scope)
	resolve = func(fn ast.NodeID, parent *scope) {
		s := &scope{parent: parent, names: make(map[string]string)}
		for _, name := range declaredNames(t, fn) {
			s.names[name] = name
		}
		t.Walk(fn, func(id ast.NodeID) bool {
			switch t.Kind(id) {
			case ast.KindName:
				if _, ok := s.lookup(t.Str(id)); !ok {
					free[t.Str(id)] = true
				}
			case ast.KindFunction:
				if id != fn {
					resolve(id, s)
					return false
				}
			}
			return true
		})
	}
	resolve(t.Root, nil)
	return free
}

// splitVarDeclarations turns "var a, b;" into "var a; var b;" wherever the
// declaration is a statement.
func splitVarDeclarations(t *ast.Tree, root ast.NodeID) {
	var multi []ast.NodeID
	t.Walk(root, func(id ast.NodeID) bool {
		if t.Kind(id) == ast.KindVar && t.ChildCount(id) > 1 && ast.IsStatement(t, id) {
			multi = append(multi, id)
		}
		return true
	})
	for _, decl := range multi {
		names := t.DetachChildren(decl)
		t.AddChildToBack(decl, names[0])
		prev := decl
		for _, name := range names[1:] {
			next := t.NewNode(ast.KindVar, "", name)
			t.SetLoc(next, t.Loc(name))
			t.AddChildAfter(next, prev)
			prev = next
		}
	}
}

// propagateConstants flags every reference to a constant declaration. Names
// are unique at this point, so a name identifies its declaration.
func propagateConstants(t *ast.Tree) {
	constants := make(map[string]bool)
	t.Walk(t.Root, func(id ast.NodeID) bool {
		if ast.IsConstantName(t, id) && ast.IsDeclarationName(t, id) {
			constants[t.Str(id)] = true
		}
		return true
	})
	if len(constants) == 0 {
		return
	}
	t.Walk(t.Root, func(id ast.NodeID) bool {
		if t.Kind(id) == ast.KindName && constants[t.Str(id)] {
			t.SetFlags(id, t.Flags(id)|ast.FlagConstant)
		}
		return true
	})
}

// ----------------------------------------------------------------------------
// Inline Renaming
// ----------------------------------------------------------------------------

// MakeLocalNamesUnique renames every parameter and local declared directly
// or indirectly inside fn to name$inline_<id>, so a copy of fn's body can be
// placed in another scope. It returns the mapping applied to fn's own
// declarations.
func MakeLocalNamesUnique(t *ast.Tree, fn ast.NodeID, ids *idgen.Supplier) map[string]string {
	var rename func(fn ast.NodeID, parent *scope) *scope
	rename = func(fn ast.NodeID, parent *scope) *scope {
		s := &scope{parent: parent, names: make(map[string]string)}
		for _, name := range declaredNames(t, fn) {
			if _, ok := s.names[name]; !ok {
				s.names[name] = name + "$inline_" + ids.Next()
			}
		}
		if isNamedExpression(t, fn) {
			t.SetStr(fn, s.names[t.Str(fn)])
		}
		t.Walk(fn, func(id ast.NodeID) bool {
			switch t.Kind(id) {
			case ast.KindName:
				if renamed, ok := s.lookup(t.Str(id)); ok {
					t.SetStr(id, renamed)
				}
			case ast.KindFunction:
				if id == fn {
					return true
				}
				if name := t.Str(id); name != "" && ast.IsStatement(t, id) {
					if renamed, ok := s.lookup(name); ok {
						t.SetStr(id, renamed)
					}
				}
				rename(id, s)
				return false
			}
			return true
		})
		return s
	}

	top := rename(fn, nil)
	return top.names
}
