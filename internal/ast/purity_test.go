package ast_test

import (
	"testing"

	"github.com/HugoDaniel/fninline/internal/ast"
)

func TestComputePureBuiltins(t *testing.T) {
	pure := ast.ComputePureBuiltins()
	for _, fn := range []string{"Math.max", "Math.sqrt", "parseInt", "String"} {
		if !pure[fn] {
			t.Errorf("expected %q to be marked as pure", fn)
		}
	}
	for _, fn := range []string{"max", "Math.random", "Date.now", "console.log"} {
		if pure[fn] {
			t.Errorf("expected %q not to be marked as pure", fn)
		}
	}
}

func TestMayHaveSideEffects(t *testing.T) {
	tests := []struct {
		source  string
		effects bool
		mutable bool
	}{
		{"x;", false, false},
		{"1+2*x;", false, false},
		{"a.b[c];", false, false},
		{"a?b:c;", false, false},
		{"Math.max(a,1);", false, false},
		{"Math.max(a,f());", true, true},
		{"f();", true, true},
		{"x=1;", true, true},
		{"x++;", true, true},
		{"delete a.b;", true, true},
		{"new F();", true, true},
		{"!x;", false, false},
		{"[1,2];", false, true},
		{"({a:1});", false, true},
		{"(function(){});", false, true},
		{"a&&f();", true, true},
	}
	ctx := ast.NewPurityContext(nil)
	for _, tt := range tests {
		tree := parse(t, tt.source)
		expr := firstExpr(t, tree)
		if got := ctx.MayHaveSideEffects(tree, expr); got != tt.effects {
			t.Errorf("MayHaveSideEffects(%s) = %v, want %v", tt.source, got, tt.effects)
		}
		if got := ctx.MayEffectMutableState(tree, expr); got != tt.mutable {
			t.Errorf("MayEffectMutableState(%s) = %v, want %v", tt.source, got, tt.mutable)
		}
	}
}

func TestCanBeSideEffected(t *testing.T) {
	tests := []struct {
		source   string
		affected bool
	}{
		{"1;", false},
		{"undefined;", false},
		{"K;", false},
		{"x;", true},
		{"K+1;", false},
		{"K+x;", true},
		{"a.b;", true},
		{"a[0];", true},
		{"f();", true},
		{"(function(){return x;});", false},
	}
	ctx := ast.NewPurityContext(map[string]bool{"K": true})
	for _, tt := range tests {
		tree := parse(t, tt.source)
		if got := ctx.CanBeSideEffected(tree, firstExpr(t, tree)); got != tt.affected {
			t.Errorf("CanBeSideEffected(%s) = %v, want %v", tt.source, got, tt.affected)
		}
	}
}

func TestCanBeSideEffectedConstantName(t *testing.T) {
	tree := parse(t, "x;")
	name := firstExpr(t, tree)
	ctx := ast.NewPurityContext(nil)
	if !ctx.CanBeSideEffected(tree, name) {
		t.Fatal("plain names can be side effected")
	}
	tree.SetFlags(name, ast.FlagConstant)
	if ctx.CanBeSideEffected(tree, name) {
		t.Error("constant names cannot be side effected")
	}
}

func TestWithoutShadowed(t *testing.T) {
	ctx := ast.NewPurityContext(nil).WithoutShadowed(map[string]bool{"Math": true})

	tree := parse(t, "Math.max(1,2);")
	if !ctx.MayHaveSideEffects(tree, firstExpr(t, tree)) {
		t.Error("a shadowed Math.max is an unknown call")
	}

	tree = parse(t, "parseInt(s);")
	if ctx.MayHaveSideEffects(tree, firstExpr(t, tree)) {
		t.Error("parseInt is not shadowed and stays pure")
	}
}
