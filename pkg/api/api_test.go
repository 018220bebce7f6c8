package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineDefault(t *testing.T) {
	source := `
function square(x) {
    return x * x;
}
function report(label, value) {
    console.log(label, value);
}
var n = square(7);
report("n", n);
`
	result := InlineDefault(source)
	require.Empty(t, result.Errors)

	assert.Equal(t, `var n=7*7;{console.log("n",n);}`, result.Code)
	assert.Equal(t, 2, result.InlinedCalls)
	assert.Equal(t, 2, result.RemovedFunctions)
	assert.Less(t, result.OptimizedSize, result.OriginalSize)
	assert.Equal(t, len(result.Code), result.OptimizedSize)
}

func TestInlineDecisions(t *testing.T) {
	source := "function f(a) { return a; } function g() {} x = f(1); y = g;"
	result := InlineDefault(source)
	require.Empty(t, result.Errors)

	require.Len(t, result.Decisions, 2)
	assert.Equal(t, Decision{Function: "g", Offset: strings.Index(source, "function g"), Reason: "escapes"}, result.Decisions[0])
	assert.Equal(t, "f", result.Decisions[1].Function)
	assert.Equal(t, "direct", result.Decisions[1].Mode)
	assert.Equal(t, "inlined", result.Decisions[1].Reason)
}

func TestInlineZeroOptions(t *testing.T) {
	source := "function f() { return 1; } x = f();"
	result := Inline(source, Options{})
	require.Empty(t, result.Errors)
	assert.Equal(t, "function f() {\n    return 1;\n}\nx = f();\n", result.Code)
	assert.Zero(t, result.InlinedCalls)
}

func TestInlineKeepNames(t *testing.T) {
	opts := DefaultOptions()
	opts.KeepNames = []string{"f", "nope"}
	result := Inline("function f() { return 1; } x = f();", opts)
	require.Empty(t, result.Errors)
	assert.Equal(t, "function f(){return 1;}x=f();", result.Code)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "nope")
}

func TestInlineSyntaxError(t *testing.T) {
	source := "x = (1;"
	result := InlineDefault(source)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, source, result.Code)
	assert.True(t, strings.HasPrefix(result.Errors[0], "1:"), result.Errors[0])
}
