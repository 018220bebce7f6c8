// Package modgraph records which modules depend on which.
//
// A function defined in one module can only be removed after inlining when
// every module that calls it loads after it, that is when every caller's
// module depends, directly or transitively, on the definer's module.
package modgraph

import "fmt"

// Module is a node in the dependency graph.
type Module struct {
	Name string
	deps []*Module
}

func (m *Module) String() string {
	return m.Name
}

// Graph holds modules and answers transitive dependency queries.
type Graph struct {
	modules map[string]*Module
	memo    map[[2]*Module]bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		modules: make(map[string]*Module),
		memo:    make(map[[2]*Module]bool),
	}
}

// AddModule registers a module depending on deps, which must already be
// registered. Registering a name twice panics.
func (g *Graph) AddModule(name string, deps ...string) *Module {
	if _, ok := g.modules[name]; ok {
		panic(fmt.Sprintf("modgraph: duplicate module %q", name))
	}
	m := &Module{Name: name}
	for _, d := range deps {
		dep, ok := g.modules[d]
		if !ok {
			panic(fmt.Sprintf("modgraph: module %q depends on unknown module %q", name, d))
		}
		m.deps = append(m.deps, dep)
	}
	g.modules[name] = m
	clear(g.memo)
	return m
}

// Module returns the registered module with the given name, or nil.
func (g *Graph) Module(name string) *Module {
	return g.modules[name]
}

// DependsOn reports whether a depends on b, directly or transitively. A
// module does not depend on itself.
func (g *Graph) DependsOn(a, b *Module) bool {
	if a == nil || b == nil || a == b {
		return false
	}
	key := [2]*Module{a, b}
	if v, ok := g.memo[key]; ok {
		return v
	}

	found := false
	visited := make(map[*Module]bool)
	stack := append([]*Module(nil), a.deps...)
	for len(stack) > 0 && !found {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[m] {
			continue
		}
		visited[m] = true
		if m == b {
			found = true
		}
		stack = append(stack, m.deps...)
	}

	g.memo[key] = found
	return found
}
