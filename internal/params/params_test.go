package params

import (
	"sort"
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

// parseFnAndCall parses a function declaration followed by one statement
// containing a call, and returns the function and the first call in that
// statement.
func parseFnAndCall(t *testing.T, input string) (*ast.Tree, ast.NodeID, ast.NodeID) {
	t.Helper()
	tree, errs := parser.Parse(input)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	fn := tree.FirstChild(tree.Root)
	call := ast.InvalidNode
	tree.Walk(tree.Child(tree.Root, 1), func(n ast.NodeID) bool {
		if tree.Kind(n) == ast.KindCall && !call.IsValid() {
			call = n
		}
		return true
	})
	if !call.IsValid() {
		t.Fatal("no call found")
	}
	return tree, fn, call
}

func printedArgs(tree *ast.Tree, args *ArgMap) map[string]string {
	out := make(map[string]string)
	for _, name := range args.Names() {
		v, _ := args.Get(name)
		out[name] = printer.Compact(tree, v)
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func expectTemps(t *testing.T, input string, expected []string) {
	t.Helper()
	t.Run(input, func(t *testing.T) {
		tree, fn, call := parseFnAndCall(t, input)
		args := BuildArgumentMap(tree, fn, call, idgen.New())
		temps := make(map[string]bool)
		AddTempsForCallArguments(tree, ast.NewPurityContext(nil), fn, args, temps)
		test.AssertDeepEqual(t, sortedKeys(temps), expected)
	})
}

// ----------------------------------------------------------------------------
// Argument Maps
// ----------------------------------------------------------------------------

func TestArgMapOrder(t *testing.T) {
	m := NewArgMap()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("b", 3)
	test.AssertDeepEqual(t, m.Names(), []string{"b", "a"})
	v, _ := m.Get("b")
	test.AssertEqual(t, v, ast.NodeID(3))

	c := m.Clone()
	c.Delete("b")
	test.AssertDeepEqual(t, c.Names(), []string{"a"})
	test.AssertEqual(t, m.Len(), 2)
}

func TestBuildArgumentMap(t *testing.T) {
	tree, fn, call := parseFnAndCall(t, "function f(a, b) {} f(1);")
	args := BuildArgumentMap(tree, fn, call, idgen.New())
	test.AssertDeepEqual(t, args.Names(), []string{ThisMarker, "a", "b"})
	test.AssertDeepEqual(t, printedArgs(tree, args), map[string]string{
		"this": "void 0",
		"a":    "1",
		"b":    "void 0",
	})
}

func TestBuildArgumentMapExtraArguments(t *testing.T) {
	tree, fn, call := parseFnAndCall(t, "function f(a) {} f(1, g(), 3);")
	args := BuildArgumentMap(tree, fn, call, idgen.New())
	test.AssertDeepEqual(t, args.Names(), []string{ThisMarker, "a", "inline_anon_param_0", "inline_anon_param_1"})
	test.AssertEqual(t, printedArgs(tree, args)["inline_anon_param_0"], "g()")
}

func TestBuildArgumentMapCallForm(t *testing.T) {
	tree, fn, call := parseFnAndCall(t, "function f(a) { return this.x + a; } f.call(this, 2);")
	args := BuildArgumentMap(tree, fn, call, idgen.New())
	test.AssertDeepEqual(t, printedArgs(tree, args), map[string]string{
		"this": "this",
		"a":    "2",
	})
}

// ----------------------------------------------------------------------------
// Parameter Safety
// ----------------------------------------------------------------------------

func TestFindModifiedParameters(t *testing.T) {
	cases := []struct {
		input    string
		expected []string
	}{
		{"function f(a, b) { return a + b; }", nil},
		{"function f(a, b) { a = 1; b++; }", []string{"a", "b"}},
		{"function f(a, b) { return function () { return a; }; }", []string{"a"}},
		{"function f(a) { var a = 2; return a; }", []string{"a"}},
		{"function f(a, b) { a.x = b; }", nil},
	}
	for _, c := range cases {
		tree, errs := parser.Parse(c.input)
		if len(errs) > 0 {
			t.Fatalf("parse errors: %v", errs)
		}
		got := sortedKeys(FindModifiedParameters(tree, tree.FirstChild(tree.Root)))
		test.AssertDeepEqual(t, got, c.expected)
	}
}

func TestAddTempsForCallArguments(t *testing.T) {
	// Simple values substitute directly.
	expectTemps(t, "function f(a, b) { return a + b; } f(1, x);", nil)
	// Side effects must happen exactly once.
	expectTemps(t, "function f(a) { return 1; } f(g());", []string{"a"})
	expectTemps(t, "function f() {} f(g());", []string{"inline_anon_param_0"})
	// New objects must not be duplicated or re-created.
	expectTemps(t, "function f(a) { return a; } f([]);", []string{"a"})
	// A read after a call may see a changed value.
	expectTemps(t, "function f(a) { g(); return a; } f(x);", []string{"a"})
	expectTemps(t, "function f(a) { var r = a; g(); return r; } f(x);", nil)
	expectTemps(t, "function f(a) { g(a); } f(x);", nil)
	expectTemps(t, "function f(a) { g(h(), a); } f(x);", []string{"a"})
	// Reads inside a loop happen more than once.
	expectTemps(t, "function f(a) { while (c) { use(a); } } f(o.p);", []string{"a"})
	// Large values are not duplicated.
	expectTemps(t, "function f(a) { return a + a; } f('long');", []string{"a"})
	expectTemps(t, "function f(a) { return a + a; } f(1);", nil)
}

// ----------------------------------------------------------------------------
// Injection
// ----------------------------------------------------------------------------

func TestInject(t *testing.T) {
	tree, fn, call := parseFnAndCall(t, "function f(a, b) { return a * b + a; } x = f(y, 2);")
	args := BuildArgumentMap(tree, fn, call, idgen.New())
	ret := tree.CloneTree(tree.FirstChild(ast.FunctionBody(tree, fn)))
	result := Inject(tree, ret, args)
	test.AssertEqual(t, result, ret)
	test.AssertEqual(t, printer.Compact(tree, ret), "return y*2+y;")

	// The original function is untouched.
	test.AssertEqual(t, printer.Compact(tree, fn), "function f(a,b){return a*b+a;}")
}

func TestInjectRoot(t *testing.T) {
	tree := ast.NewTree()
	args := NewArgMap()
	args.Set("a", tree.NewNumber("5"))
	root := tree.NewName("a")
	result := Inject(tree, root, args)
	test.AssertEqual(t, printer.Compact(tree, result), "5")
}

func TestInjectThis(t *testing.T) {
	tree, fn, _ := parseFnAndCall(t,
		"function f(a) { return this.x + function () { return this; }; } f.call(this, 1);")
	args := NewArgMap()
	args.Set(ThisMarker, tree.NewName("self"))
	body := tree.CloneTree(ast.FunctionBody(tree, fn))
	Inject(tree, body, args)
	test.AssertEqual(t, printer.Compact(tree, body), "{return self.x+function(){return this;};}")
}

func TestInjector(t *testing.T) {
	tree, fn, call := parseFnAndCall(t, "function f(a) { return a; } f(g());")
	inj := NewInjector(tree, idgen.New(), ast.NewPurityContext(nil))
	args := inj.BuildArgumentMap(fn, call)
	temps := map[string]bool{}
	inj.AddTempsForCallArguments(fn, args, temps)
	test.AssertEqual(t, temps["a"], true)
	ret := inj.Inject(tree.CloneTree(tree.FirstChild(ast.FunctionBody(tree, fn))), args)
	test.AssertEqual(t, printer.Compact(tree, ret), "return g();")
}
