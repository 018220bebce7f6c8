package costest

import (
	"testing"

	"github.com/HugoDaniel/fninline/internal/parser"
	"github.com/HugoDaniel/fninline/internal/printer"
)

func expectCost(t *testing.T, source string, expected int) {
	t.Helper()
	t.Run(source, func(t *testing.T) {
		t.Helper()
		tree, errs := parser.Parse(source)
		if len(errs) > 0 {
			t.Fatalf("parse errors: %v", errs)
		}
		if got := Cost(tree, tree.Root, 1000); got != expected {
			t.Errorf("Cost(%q) = %d, want %d", source, got, expected)
		}
	})
}

func TestCost(t *testing.T) {
	expectCost(t, "1+2;", 4)
	expectCost(t, "x=1;", 5)
	expectCost(t, "aVeryLongName=1;", 5)
	expectCost(t, "'str';", 6)
}

func TestCostMatchesCompactLengthWithoutNames(t *testing.T) {
	source := "if(1){2;}else{3;}"
	tree, _ := parser.Parse(source)
	if got, want := Cost(tree, tree.Root, 1000), len(printer.Compact(tree, tree.Root)); got != want {
		t.Errorf("Cost = %d, want %d", got, want)
	}
}

func TestCostStopsPastMax(t *testing.T) {
	tree, _ := parser.Parse("a;b;c;d;e;f;g;h;")
	full := Cost(tree, tree.Root, 1000)
	if full != 24 {
		t.Fatalf("full cost = %d, want 24", full)
	}

	bounded := Cost(tree, tree.Root, 5)
	if bounded <= 5 {
		t.Errorf("bounded cost = %d, want > 5", bounded)
	}
	if bounded >= full {
		t.Errorf("bounded cost = %d, want < %d", bounded, full)
	}
}
