//go:build js && wasm

// Command fninline-wasm is the WebAssembly build of the function inliner.
// It exposes the inliner to JavaScript via syscall/js.
package main

import (
	"syscall/js"

	"github.com/segmentio/encoding/json"

	"github.com/HugoDaniel/fninline/pkg/api"
)

var version = "0.1.0"

// jsOptions mirrors the JavaScript options object.
type jsOptions struct {
	InlineDirect       *bool    `json:"inlineDirect"`
	InlineBlock        *bool    `json:"inlineBlock"`
	AllowDecomposition *bool    `json:"allowDecomposition"`
	RemoveInlined      *bool    `json:"removeInlined"`
	MinifyWhitespace   *bool    `json:"minifyWhitespace"`
	KnownConstants     []string `json:"knownConstants"`
	KeepNames          []string `json:"keepNames"`
}

func (o jsOptions) apply(opts *api.Options) {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&opts.InlineDirect, o.InlineDirect)
	set(&opts.InlineBlock, o.InlineBlock)
	set(&opts.AllowDecomposition, o.AllowDecomposition)
	set(&opts.RemoveInlined, o.RemoveInlined)
	set(&opts.MinifyWhitespace, o.MinifyWhitespace)
	opts.KnownConstants = o.KnownConstants
	opts.KeepNames = o.KeepNames
}

func main() {
	js.Global().Set("__fninline", js.ValueOf(map[string]interface{}{
		"inline":  js.FuncOf(inlineJS),
		"version": version,
	}))

	// Keep the Go runtime alive
	select {}
}

// inlineJS is the JavaScript-callable inline function.
// Signature: __fninline.inline(source: string, options?: object) => object
func inlineJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("inline requires at least 1 argument (source)")
	}

	opts := api.DefaultOptions()
	if len(args) > 1 && !args[1].IsUndefined() && !args[1].IsNull() {
		var jsOpts jsOptions
		raw := js.Global().Get("JSON").Call("stringify", args[1]).String()
		if err := json.Unmarshal([]byte(raw), &jsOpts); err != nil {
			return makeError("invalid options: " + err.Error())
		}
		jsOpts.apply(&opts)
	}

	result := api.Inline(args[0].String(), opts)

	// js.ValueOf only accepts plain maps, slices and scalars.
	var out map[string]interface{}
	data, err := json.Marshal(result)
	if err != nil {
		return makeError(err.Error())
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return makeError(err.Error())
	}
	return out
}

func makeError(msg string) interface{} {
	return map[string]interface{}{
		"code":   "",
		"errors": []interface{}{msg},
	}
}
