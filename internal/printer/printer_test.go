package printer_test

import (
	"testing"

	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/parser"
	"github.com/HugoDaniel/fninline/internal/printer"
	"github.com/HugoDaniel/fninline/internal/test"
)

// ----------------------------------------------------------------------------
// Test Helpers
// ----------------------------------------------------------------------------

func parse(t *testing.T, input string) *ast.Tree {
	t.Helper()
	tree, errs := parser.Parse(input)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return tree
}

func expectPretty(t *testing.T, input string, expected string) {
	t.Helper()
	tree := parse(t, input)
	actual := printer.New(printer.Options{}).Print(tree, tree.Root)
	test.AssertEqualWithDiff(t, actual, expected)
}

func expectRoundTrip(t *testing.T, input string) {
	t.Helper()
	tree := parse(t, input)
	first := printer.Compact(tree, tree.Root)
	again := parse(t, first)
	test.AssertEqualWithDiff(t, printer.Compact(again, again.Root), first)
}

// ----------------------------------------------------------------------------
// Pretty Printing
// ----------------------------------------------------------------------------

func TestPrettyFunction(t *testing.T) {
	expectPretty(t, "function f(a,b){return a+b}",
		"function f(a, b) {\n    return a + b;\n}\n")
}

func TestPrettyNested(t *testing.T) {
	expectPretty(t, "if(a){while(b){c()}}else{d=1}",
		"if (a) {\n    while (b) {\n        c();\n    }\n} else {\n    d = 1;\n}\n")
}

func TestPrettyStatements(t *testing.T) {
	expectPretty(t, "var x=1,y;L:{break L}",
		"var x = 1, y;\nL: {\n    break L;\n}\n")
	expectPretty(t, "for(var i=0;i<n;i++){}",
		"for (var i = 0; i < n; i++) {}\n")
	expectPretty(t, "x={a:1,b:[2,3]}",
		"x = {a: 1, b: [2, 3]};\n")
}

// ----------------------------------------------------------------------------
// Subtrees
// ----------------------------------------------------------------------------

func TestPrintExpressionSubtree(t *testing.T) {
	tree := parse(t, "x = a + f(b, c);")
	stmt := tree.FirstChild(tree.Root)
	assign := tree.FirstChild(stmt)
	value := tree.Child(assign, 1)
	test.AssertEqual(t, printer.Compact(tree, value), "a+f(b,c)")
	test.AssertEqual(t, printer.Compact(tree, stmt), "x=a+f(b,c);")
}

func TestPrintBuiltNodes(t *testing.T) {
	tree := ast.NewTree()
	sum := tree.NewNode(ast.KindBinary, "+", tree.NewName("a"), tree.NewName("b"))
	prod := tree.NewNode(ast.KindBinary, "*", sum, tree.NewNumber("2"))
	tree.AddChildToBack(tree.Root, tree.NewExprResult(prod))
	tree.AddChildToBack(tree.Root, tree.NewVar("r", tree.NewUndefined()))
	test.AssertEqual(t, printer.Compact(tree, tree.Root), "(a+b)*2;var r=void 0;")
}

func TestStatementStartingWithObject(t *testing.T) {
	tree := ast.NewTree()
	obj := tree.NewNode(ast.KindObject, "")
	get := tree.NewNode(ast.KindGetProp, "k", obj)
	tree.AddChildToBack(tree.Root, tree.NewExprResult(get))
	test.AssertEqual(t, printer.Compact(tree, tree.Root), "({}.k);")
}

func TestStringEscapes(t *testing.T) {
	tree := ast.NewTree()
	s := tree.NewNode(ast.KindString, "a\"b\\c\td\x01")
	tree.AddChildToBack(tree.Root, tree.NewExprResult(s))
	test.AssertEqual(t, printer.Compact(tree, tree.Root), `"a\"b\\c\td\x01";`)
}

// ----------------------------------------------------------------------------
// Round Trips
// ----------------------------------------------------------------------------

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"function f(a, b) { return a + b; } x = f(1, 2);",
		"var r = a ? b : c ? d : e;",
		"x = -(-y) + +(+z) - (a - b);",
		"(function () { return this; }).call(this);",
		"do { i++; } while (i < 10);",
		"L: while (true) { if (x) { break L; } else if (y) { continue L; } }",
		"a = new (g().h)().k;",
		"o[\"k\"] = typeof v === \"undefined\" ? void 0 : v;",
	}
	for _, input := range inputs {
		expectRoundTrip(t, input)
	}
}

// ----------------------------------------------------------------------------
// Sinks
// ----------------------------------------------------------------------------

type recordingSink struct {
	text  string
	names []string
	limit int
}

func (s *recordingSink) Write(str string) { s.text += str }
func (s *recordingSink) WriteName(name string) {
	s.names = append(s.names, name)
	s.text += name
}
func (s *recordingSink) Continue() bool { return s.limit == 0 || len(s.text) <= s.limit }

func TestSinkReceivesNames(t *testing.T) {
	tree := parse(t, "function f(a) { return a.length + b; }")
	sink := &recordingSink{}
	printer.New(printer.Options{MinifyWhitespace: true}).PrintTo(sink, tree, tree.Root)
	test.AssertDeepEqual(t, sink.names, []string{"f", "a", "a", "b"})
	test.AssertEqual(t, sink.text, "function f(a){return a.length+b;}")
}

func TestSinkStopsEarly(t *testing.T) {
	tree := parse(t, "a();b();c();d();e();f();")
	sink := &recordingSink{limit: 6}
	printer.New(printer.Options{MinifyWhitespace: true}).PrintTo(sink, tree, tree.Root)
	if len(sink.text) >= len("a();b();c();d();e();f();") {
		t.Errorf("expected printing to stop early, got %q", sink.text)
	}
}
