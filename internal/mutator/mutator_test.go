package mutator

import (
	"testing"

	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/idgen"
	"github.com/HugoDaniel/fninline/internal/parser"
	"github.com/HugoDaniel/fninline/internal/printer"
	"github.com/HugoDaniel/fninline/internal/test"
)

// ----------------------------------------------------------------------------
// Test Helpers
// ----------------------------------------------------------------------------

type mutation struct {
	resultName         string
	needsDefaultResult bool
	inLoop             bool
}

// expectMutated parses a declaration of f followed by a statement calling
// f, and verifies the block built for that call.
func expectMutated(t *testing.T, input string, m mutation, expected string) {
	t.Helper()
	t.Run(input, func(t *testing.T) {
		tree, errs := parser.Parse(input)
		if len(errs) > 0 {
			t.Fatalf("parse errors: %v", errs)
		}
		fn := tree.FirstChild(tree.Root)
		call := ast.InvalidNode
		tree.Walk(tree.Child(tree.Root, 1), func(n ast.NodeID) bool {
			if tree.Kind(n) == ast.KindCall && ast.QualifiedName(tree, ast.CallTarget(tree, n)) != "g" && !call.IsValid() {
				call = n
			}
			return true
		})
		if !call.IsValid() {
			t.Fatal("no call found")
		}
		before := printer.Compact(tree, fn)

		mut := New(tree, idgen.New(), ast.NewPurityContext(nil))
		block := mut.Mutate("f", fn, call, m.resultName, m.needsDefaultResult, m.inLoop)

		if tree.Parent(block).IsValid() {
			t.Error("mutated block should be detached")
		}
		test.AssertEqualWithDiff(t, printer.Compact(tree, block), expected)
		test.AssertEqual(t, printer.Compact(tree, fn), before)
	})
}

// ----------------------------------------------------------------------------
// Returns
// ----------------------------------------------------------------------------

func TestSingleReturn(t *testing.T) {
	expectMutated(t,
		"function f(a) { var b = a + 1; return b; } x = f(y);",
		mutation{resultName: "x", needsDefaultResult: true},
		"{var b$inline_1=y+1;x=b$inline_1;}")
}

func TestEarlyReturn(t *testing.T) {
	expectMutated(t,
		"function f(a) { if (a) { return 1; } return 2; } x = f(y);",
		mutation{resultName: "x", needsDefaultResult: true},
		"{inline_label_f_1:{if(y){x=1;break inline_label_f_1;}x=2;}}")
}

func TestReturnValueDiscarded(t *testing.T) {
	expectMutated(t,
		"function f(a) { g(a); return a; } f(1);",
		mutation{},
		"{g(1);1;}")
	expectMutated(t,
		"function f() { g(); return; } f();",
		mutation{},
		"{g();}")
}

func TestDefaultResult(t *testing.T) {
	expectMutated(t,
		"function f(a) { if (a) { g(); } } x = f(y);",
		mutation{resultName: "x", needsDefaultResult: true},
		"{if(y){g();}x=void 0;}")
	expectMutated(t,
		"function f(a) { if (a) { g(); } } x = f(y);",
		mutation{resultName: "x"},
		"{if(y){g();}}")
}

func TestCallForm(t *testing.T) {
	expectMutated(t,
		"function f(a) { return this.v + a; } x = f.call(this, 1);",
		mutation{resultName: "x", needsDefaultResult: true},
		"{x=this.v+1;}")
}

// ----------------------------------------------------------------------------
// Parameters
// ----------------------------------------------------------------------------

func TestModifiedParameterIsAliased(t *testing.T) {
	expectMutated(t,
		"function f(a) { a = a + 1; return a; } x = f(y);",
		mutation{resultName: "x", needsDefaultResult: true},
		"{var a$inline_0=y;a$inline_0=a$inline_0+1;x=a$inline_0;}")
}

func TestExtraArgumentWithSideEffects(t *testing.T) {
	expectMutated(t,
		"function f() { return 1; } x = f(g());",
		mutation{resultName: "x", needsDefaultResult: true},
		"{var inline_anon_param_0=g();x=1;}")
}

// ----------------------------------------------------------------------------
// Body Rewrites
// ----------------------------------------------------------------------------

func TestVarsInitializedInLoops(t *testing.T) {
	expectMutated(t,
		"function f() { var t; t = g(); return t; } for (;;) { f(); }",
		mutation{inLoop: true},
		"{var t$inline_0=void 0;t$inline_0=g();t$inline_0;}")
}

func TestFunctionDeclarationsHoisted(t *testing.T) {
	expectMutated(t,
		"function f() { g(); function g() { return 1; } } f();",
		mutation{},
		"{var g$inline_0=function(){return 1;};g$inline_0();}")
}

func TestLabelsRenamed(t *testing.T) {
	expectMutated(t,
		"function f() { L: while (c) { break L; } } f();",
		mutation{},
		"{L$inline_0:while(c){break L$inline_0;}}")
}
