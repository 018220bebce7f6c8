package ast_test

import (
	"testing"

	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/parser"
	"github.com/HugoDaniel/fninline/internal/printer"
	"github.com/HugoDaniel/fninline/internal/test"
)

func parse(t *testing.T, source string) *ast.Tree {
	t.Helper()
	tree, errs := parser.Parse(source)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return tree
}

// firstExpr returns the expression of the first statement.
func firstExpr(t *testing.T, tree *ast.Tree) ast.NodeID {
	t.Helper()
	stmt := tree.FirstChild(tree.Root)
	if !tree.Is(stmt, ast.KindExprResult) {
		t.Fatalf("first statement is %v, want ExprResult", tree.Kind(stmt))
	}
	return tree.FirstChild(stmt)
}

func find(tree *ast.Tree, kind ast.Kind, str string) ast.NodeID {
	found := ast.InvalidNode
	tree.Walk(tree.Root, func(n ast.NodeID) bool {
		if !found.IsValid() && tree.Kind(n) == kind && tree.Str(n) == str {
			found = n
		}
		return !found.IsValid()
	})
	return found
}

// ----------------------------------------------------------------------------
// Kinds and Flags
// ----------------------------------------------------------------------------

func TestKindString(t *testing.T) {
	test.AssertEqual(t, ast.KindGetProp.String(), "GetProp")
	test.AssertEqual(t, ast.KindObjectProp.String(), "ObjectProp")
	test.AssertEqual(t, ast.Kind(200).String(), "Kind(200)")
}

func TestKindIsLoop(t *testing.T) {
	for _, k := range []ast.Kind{ast.KindWhile, ast.KindDoWhile, ast.KindFor} {
		if !k.IsLoop() {
			t.Errorf("%v.IsLoop() = false", k)
		}
	}
	if ast.KindIf.IsLoop() || ast.KindLabel.IsLoop() {
		t.Error("If and Label are not loops")
	}
}

func TestNodeFlags(t *testing.T) {
	flags := ast.FlagConstant
	test.AssertEqual(t, flags.Has(ast.FlagConstant), true)
	test.AssertEqual(t, flags.Has(ast.FlagPostfix), false)
}

func TestInvalidNode(t *testing.T) {
	var id ast.NodeID
	test.AssertEqual(t, id.IsValid(), false)
	test.AssertEqual(t, id, ast.InvalidNode)
}

// ----------------------------------------------------------------------------
// Edge Operations
// ----------------------------------------------------------------------------

func TestBuildAndPrint(t *testing.T) {
	tree := ast.NewTree()
	call := tree.NewNode(ast.KindCall, "", tree.NewName("g"), tree.NewNumber("1"))
	tree.AddChildToBack(tree.Root, tree.NewExprResult(call))
	tree.AddChildToFront(tree.Root, tree.NewVar("x", tree.NewUndefined()))

	test.AssertEqual(t, printer.Compact(tree, tree.Root), "var x=void 0;g(1);")
	test.AssertEqual(t, tree.Parent(call), tree.LastChild(tree.Root))
	test.AssertEqual(t, tree.IsAttached(call), true)
}

func TestSiblings(t *testing.T) {
	tree := parse(t, "a;b;c;")
	a, b, c := tree.Child(tree.Root, 0), tree.Child(tree.Root, 1), tree.Child(tree.Root, 2)

	test.AssertEqual(t, tree.IndexInParent(b), 1)
	test.AssertEqual(t, tree.Next(a), b)
	test.AssertEqual(t, tree.Prev(c), b)
	test.AssertEqual(t, tree.Prev(a), ast.InvalidNode)
	test.AssertEqual(t, tree.Next(c), ast.InvalidNode)
	test.AssertEqual(t, tree.Child(tree.Root, 3), ast.InvalidNode)
	test.AssertEqual(t, tree.IndexInParent(tree.Root), -1)
}

func TestInsertAroundReference(t *testing.T) {
	tree := parse(t, "b;")
	b := tree.FirstChild(tree.Root)
	tree.AddChildBefore(tree.NewExprResult(tree.NewName("a")), b)
	tree.AddChildAfter(tree.NewExprResult(tree.NewName("c")), b)
	test.AssertEqual(t, printer.Compact(tree, tree.Root), "a;b;c;")
}

func TestReplace(t *testing.T) {
	tree := parse(t, "x=f(1);")
	call := find(tree, ast.KindCall, "")
	repl := tree.NewNumber("2")
	tree.Replace(call, repl)

	test.AssertEqual(t, printer.Compact(tree, tree.Root), "x=2;")
	test.AssertEqual(t, tree.Parent(call), ast.InvalidNode)
	test.AssertEqual(t, tree.IsAttached(call), false)

	// The detached call can be reattached elsewhere.
	tree.AddChildToBack(tree.Root, tree.NewExprResult(call))
	test.AssertEqual(t, printer.Compact(tree, tree.Root), "x=2;f(1);")
}

func TestDetach(t *testing.T) {
	tree := parse(t, "a;b;")
	a := tree.Detach(tree.FirstChild(tree.Root))
	test.AssertEqual(t, printer.Compact(tree, tree.Root), "b;")
	test.AssertEqual(t, tree.Parent(a), ast.InvalidNode)

	// Detaching a detached node is a no-op.
	test.AssertEqual(t, tree.Detach(a), a)

	children := tree.DetachChildren(tree.Root)
	test.AssertEqual(t, len(children), 1)
	test.AssertEqual(t, tree.ChildCount(tree.Root), 0)
	test.AssertEqual(t, tree.Parent(children[0]), ast.InvalidNode)
}

func TestAdoptTwicePanics(t *testing.T) {
	tree := parse(t, "a;")
	stmt := tree.FirstChild(tree.Root)
	defer func() {
		if recover() == nil {
			t.Error("expected a panic when adopting an attached node")
		}
	}()
	tree.AddChildToBack(tree.NewBlock(), stmt)
}

func TestInvalidIDPanics(t *testing.T) {
	tree := ast.NewTree()
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for an out-of-range id")
		}
	}()
	tree.Kind(ast.NodeID(tree.Len() + 5))
}

func TestCloneTree(t *testing.T) {
	tree := parse(t, "function f(a){return a+1;}")
	fn := tree.FirstChild(tree.Root)
	clone := tree.CloneTree(fn)

	test.AssertEqual(t, tree.Parent(clone), ast.InvalidNode)
	test.AssertEqual(t, printer.Compact(tree, clone), printer.Compact(tree, fn))
	test.AssertEqual(t, ast.Fingerprint(tree, clone), ast.Fingerprint(tree, fn))

	// Editing the original leaves the clone alone.
	tree.SetStr(find(tree, ast.KindNumber, "1"), "2")
	test.AssertEqual(t, printer.Compact(tree, tree.Root), "function f(a){return a+2;}")
	test.AssertEqual(t, printer.Compact(tree, clone), "function f(a){return a+1;}")
	if ast.Fingerprint(tree, clone) == ast.Fingerprint(tree, fn) {
		t.Error("fingerprints should differ after an edit")
	}
}

func TestFingerprintShape(t *testing.T) {
	// Same strings, different shape.
	a := parse(t, "f(g,h);")
	b := parse(t, "f(g(h));")
	if ast.Fingerprint(a, a.Root) == ast.Fingerprint(b, b.Root) {
		t.Error("fingerprints should depend on the tree shape")
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	tree := parse(t, "function f(){a;}b;")
	var names []string
	tree.Walk(tree.Root, func(n ast.NodeID) bool {
		if tree.Kind(n) == ast.KindName {
			names = append(names, tree.Str(n))
		}
		return tree.Kind(n) != ast.KindFunction
	})
	test.AssertDeepEqual(t, names, []string{"b"})
}

func TestIsAncestor(t *testing.T) {
	tree := parse(t, "if(a){b;}")
	b := find(tree, ast.KindName, "b")
	ifStmt := tree.FirstChild(tree.Root)
	test.AssertEqual(t, tree.IsAncestor(ifStmt, b), true)
	test.AssertEqual(t, tree.IsAncestor(b, b), true)
	test.AssertEqual(t, tree.IsAncestor(b, ifStmt), false)
}

func TestNormalizedFlag(t *testing.T) {
	tree := ast.NewTree()
	test.AssertEqual(t, tree.IsNormalized(), false)
	tree.MarkNormalized()
	test.AssertEqual(t, tree.IsNormalized(), true)
}

// ----------------------------------------------------------------------------
// Queries
// ----------------------------------------------------------------------------

func TestFunctionStructure(t *testing.T) {
	tree := parse(t, "function f(a,b){var x=this.y;function g(){return this;}return a;}")
	fn := tree.FirstChild(tree.Root)

	test.AssertDeepEqual(t, ast.ParamNames(tree, fn), []string{"a", "b"})
	test.AssertEqual(t, tree.Kind(ast.FunctionBody(tree, fn)), ast.KindBlock)
	test.AssertEqual(t, ast.IsFunctionDeclaration(tree, fn), true)
	test.AssertEqual(t, ast.ContainsFunction(tree, fn), true)
	test.AssertEqual(t, ast.HasLocalDeclaration(tree, fn), true)
	test.AssertEqual(t, ast.ReferencesThis(tree, fn), true)

	// The nested this is not counted.
	test.AssertEqual(t, ast.CountShallow(tree, fn, ast.KindThis), 1)
	test.AssertEqual(t, ast.CountShallow(tree, fn, ast.KindReturn), 1)

	g := find(tree, ast.KindFunction, "g")
	test.AssertEqual(t, ast.EnclosingFunction(tree, g), fn)
	test.AssertEqual(t, ast.EnclosingFunction(tree, fn), ast.InvalidNode)
}

func TestNameQueries(t *testing.T) {
	tree := parse(t, "var a=1;a=a+b;a++;delete c.d;")
	test.AssertEqual(t, ast.NameReferenceCount(tree, tree.Root, "a"), 4)
	test.AssertEqual(t, ast.IsNameReferenced(tree, tree.Root, "b"), true)
	test.AssertEqual(t, ast.IsNameReferenced(tree, tree.Root, "z"), false)

	decl := find(tree, ast.KindName, "a")
	test.AssertEqual(t, ast.IsDeclarationName(tree, decl), true)

	assign := tree.FirstChild(tree.Child(tree.Root, 1))
	test.AssertEqual(t, ast.IsAssignmentTarget(tree, tree.FirstChild(assign)), true)
	test.AssertEqual(t, ast.IsAssignmentTarget(tree, tree.LastChild(assign)), false)

	update := tree.FirstChild(tree.Child(tree.Root, 2))
	test.AssertEqual(t, ast.IsAssignmentTarget(tree, tree.FirstChild(update)), true)

	del := tree.FirstChild(tree.Child(tree.Root, 3))
	test.AssertEqual(t, ast.IsAssignmentTarget(tree, tree.FirstChild(del)), true)
}

func TestStatementShapes(t *testing.T) {
	tree := parse(t, "f();x=1;while(a){b;}")
	call, assign, loop := tree.Child(tree.Root, 0), tree.Child(tree.Root, 1), tree.Child(tree.Root, 2)

	test.AssertEqual(t, ast.IsExprCall(tree, call), true)
	test.AssertEqual(t, ast.IsExprAssign(tree, call), false)
	test.AssertEqual(t, ast.IsExprAssign(tree, assign), true)
	test.AssertEqual(t, ast.IsStatement(tree, loop), true)
	test.AssertEqual(t, ast.IsLoopBody(tree, tree.LastChild(loop)), true)
	test.AssertEqual(t, ast.IsLoopBody(tree, tree.FirstChild(loop)), false)
	test.AssertEqual(t, ast.IsStatementBlock(tree, tree.LastChild(loop)), true)
}

func TestCallShapes(t *testing.T) {
	tree := parse(t, "Math.max(a,b);f.call(this,1);f.apply(null,[]);")
	mathMax := firstExpr(t, tree)
	test.AssertEqual(t, ast.QualifiedName(tree, ast.CallTarget(tree, mathMax)), "Math.max")
	test.AssertEqual(t, len(ast.CallArgs(tree, mathMax)), 2)

	call := tree.FirstChild(tree.Child(tree.Root, 1))
	apply := tree.FirstChild(tree.Child(tree.Root, 2))
	test.AssertEqual(t, ast.IsFunctionObjectCall(tree, call), true)
	test.AssertEqual(t, ast.IsFunctionObjectApply(tree, call), false)
	test.AssertEqual(t, ast.IsFunctionObjectApply(tree, apply), true)
}

func TestQualifiedName(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"a;", "a"},
		{"a.b.c;", "a.b.c"},
		{"a[0].b;", ""},
		{"f().b;", ""},
	}
	for _, tt := range tests {
		tree := parse(t, tt.source)
		test.AssertEqual(t, ast.QualifiedName(tree, firstExpr(t, tree)), tt.expected)
	}
}

func TestValues(t *testing.T) {
	tests := []struct {
		source    string
		immutable bool
		undefined bool
	}{
		{"1;", true, false},
		{"'s';", true, false},
		{"-1;", true, false},
		{"void 0;", true, true},
		{"undefined;", true, true},
		{"NaN;", true, false},
		{"x;", false, false},
		{"[];", false, false},
		{"void x;", false, false},
	}
	for _, tt := range tests {
		tree := parse(t, tt.source)
		expr := firstExpr(t, tree)
		if got := ast.IsImmutableValue(tree, expr); got != tt.immutable {
			t.Errorf("IsImmutableValue(%s) = %v, want %v", tt.source, got, tt.immutable)
		}
		if got := ast.IsUndefined(tree, expr); got != tt.undefined {
			t.Errorf("IsUndefined(%s) = %v, want %v", tt.source, got, tt.undefined)
		}
	}
}
