package modgraph

import (
	"testing"

	"github.com/HugoDaniel/fninline/internal/test"
)

func TestDependsOn(t *testing.T) {
	g := New()
	base := g.AddModule("base")
	util := g.AddModule("util", "base")
	app := g.AddModule("app", "util")
	other := g.AddModule("other")

	test.AssertEqual(t, g.DependsOn(util, base), true)
	test.AssertEqual(t, g.DependsOn(app, base), true)
	test.AssertEqual(t, g.DependsOn(base, app), false)
	test.AssertEqual(t, g.DependsOn(other, base), false)
	test.AssertEqual(t, g.DependsOn(base, base), false)
	test.AssertEqual(t, g.DependsOn(nil, base), false)

	// Memoized answers stay correct.
	test.AssertEqual(t, g.DependsOn(app, base), true)
}

func TestDiamond(t *testing.T) {
	g := New()
	g.AddModule("a")
	g.AddModule("b", "a")
	g.AddModule("c", "a")
	d := g.AddModule("d", "b", "c")

	test.AssertEqual(t, g.DependsOn(d, g.Module("a")), true)
	test.AssertEqual(t, g.DependsOn(g.Module("b"), g.Module("c")), false)
	test.AssertEqual(t, d.String(), "d")
}

func TestUnknownDependencyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown dependency")
		}
	}()
	New().AddModule("a", "missing")
}
