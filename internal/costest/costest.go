// Package costest estimates the printed size of code.
//
// The estimate is the length of the minified output, except that every
// identifier counts as EstimatedIdentifierCost: names are assumed to be
// shortened by a later renaming pass, so their source length says nothing
// about the final size.
package costest

import (
	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/printer"
)

// EstimatedIdentifier is the stand-in for a renamed identifier.
const EstimatedIdentifier = "ab"

// EstimatedIdentifierCost is the cost of one identifier occurrence.
const EstimatedIdentifierCost = len(EstimatedIdentifier)

type costSink struct {
	cost    int
	maxCost int
}

func (s *costSink) Write(str string)      { s.cost += len(str) }
func (s *costSink) WriteName(name string) { s.cost += EstimatedIdentifierCost }
func (s *costSink) Continue() bool        { return s.cost <= s.maxCost }

// Cost returns the estimated size of the subtree rooted at id. Printing
// stops as soon as the running total exceeds maxCost, so the result is only
// exact when it is at most maxCost.
func Cost(tree *ast.Tree, id ast.NodeID, maxCost int) int {
	sink := &costSink{maxCost: maxCost}
	printer.New(printer.Options{MinifyWhitespace: true}).PrintTo(sink, tree, id)
	return sink.cost
}
