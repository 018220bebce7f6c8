// Package api provides the public API for the function inliner.
//
// This package is intended for programmatic use of the inliner.
// For CLI usage, see cmd/fninline.
package api

import (
	"go.uber.org/zap"

	"github.com/HugoDaniel/fninline/internal/diagnostic"
	"github.com/HugoDaniel/fninline/internal/optimizer"
	"github.com/HugoDaniel/fninline/internal/pass"
)

// Options controls inlining behavior. The zero value disables every
// transformation; DefaultOptions enables them all.
type Options struct {
	// InlineDirect replaces calls to functions whose body is a single
	// return statement by the returned expression.
	InlineDirect bool

	// InlineBlock replaces call statements, and calls inside statements
	// they can be moved ahead of, by a block holding the function body.
	InlineBlock bool

	// AllowDecomposition hoists operands evaluated before a call into
	// temporaries when that is needed to block inline the call.
	AllowDecomposition bool

	// RemoveInlined removes declarations of functions whose calls were
	// all inlined.
	RemoveInlined bool

	// KnownConstants lists global names the program never reassigns.
	KnownConstants []string

	// KeepNames lists functions that must be neither inlined nor removed,
	// such as functions called from outside the program.
	KeepNames []string

	// MinifyWhitespace prints compact output.
	MinifyWhitespace bool

	// Logger receives debug output about every decision. Nil disables it.
	Logger *zap.Logger
}

// DefaultOptions enables every transformation and compact output.
func DefaultOptions() Options {
	return Options{
		InlineDirect:       true,
		InlineBlock:        true,
		AllowDecomposition: true,
		RemoveInlined:      true,
		MinifyWhitespace:   true,
	}
}

// Decision describes what happened to one call or function.
type Decision struct {
	Function string `json:"function"`
	Offset   int    `json:"offset"`
	Mode     string `json:"mode,omitempty"`
	Reason   string `json:"reason"`
}

// Result contains the inlining output.
type Result struct {
	// Code is the optimized source code. It is the original source when
	// Errors is not empty.
	Code string `json:"code"`

	// Errors contains the errors that prevented optimization.
	Errors []string `json:"errors"`

	// Warnings contains non-blocking issues such as unknown keep names.
	Warnings []string `json:"warnings,omitempty"`

	// OriginalSize is the size of the input in bytes.
	OriginalSize int `json:"originalSize"`

	// OptimizedSize is the size of the output in bytes.
	OptimizedSize int `json:"optimizedSize"`

	// InlinedCalls is the number of calls replaced by function bodies.
	InlinedCalls int `json:"inlinedCalls"`

	// RemovedFunctions is the number of declarations removed.
	RemovedFunctions int `json:"removedFunctions"`

	// Decisions lists the outcome for every candidate function and call.
	Decisions []Decision `json:"decisions"`
}

// Inline inlines functions in source with the given options.
func Inline(source string, opts Options) Result {
	o := optimizer.New(optimizer.Options{
		Pass: pass.Options{
			InlineDirect:       opts.InlineDirect,
			InlineBlock:        opts.InlineBlock,
			AllowDecomposition: opts.AllowDecomposition,
			RemoveInlined:      opts.RemoveInlined,
			KnownConstants:     opts.KnownConstants,
			KeepNames:          opts.KeepNames,
		},
		MinifyWhitespace: opts.MinifyWhitespace,
		Logger:           opts.Logger,
	})

	result := o.Optimize(source)

	apiResult := Result{
		Code:             result.Code,
		OriginalSize:     result.Stats.OriginalSize,
		OptimizedSize:    result.Stats.OptimizedSize,
		InlinedCalls:     result.Stats.Inlined(),
		RemovedFunctions: result.Stats.Removed,
	}
	for i := range result.Diagnostics {
		d := &result.Diagnostics[i]
		if d.Severity == diagnostic.Error {
			apiResult.Errors = append(apiResult.Errors, d.Error())
		} else {
			apiResult.Warnings = append(apiResult.Warnings, d.Error())
		}
	}
	for _, d := range result.Decisions {
		decision := Decision{
			Function: d.Function,
			Offset:   int(d.Offset),
			Reason:   string(d.Reason),
		}
		if d.Reason != pass.ReasonEscapes && d.Reason != pass.ReasonMinimum {
			decision.Mode = d.Mode.String()
		}
		apiResult.Decisions = append(apiResult.Decisions, decision)
	}
	return apiResult
}

// InlineDefault inlines functions in source with DefaultOptions.
func InlineDefault(source string) Result {
	return Inline(source, DefaultOptions())
}
