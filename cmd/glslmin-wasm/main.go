//go:build js && wasm

// Command glslmin-wasm is the WebAssembly build of the GLSL minifier.
// It exposes batch minification to JavaScript via syscall/js.
package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/HugoDaniel/glslmin/pkg/api"
)

var version = "0.1.0"

// jsOptions mirrors the JavaScript options object.
type jsOptions struct {
	RewriteAllGlobals *bool    `json:"rewriteAllGlobals"`
	MinifyWhitespace  *bool    `json:"minifyWhitespace"`
	MinifyIdentifiers *bool    `json:"minifyIdentifiers"`
	MinifySyntax      *bool    `json:"minifySyntax"`
	KeywordMacros     *bool    `json:"keywordMacros"`
	MaxNameLength     *int     `json:"maxNameLength"`
	KeepNames         []string `json:"keepNames"`
}

func main() {
	js.Global().Set("__glslmin", js.ValueOf(map[string]interface{}{
		"minify":  js.FuncOf(minifyJS),
		"version": version,
	}))

	// Keep the Go runtime alive
	select {}
}

// minifyJS is the JavaScript-callable minify function.
// Signature: __glslmin.minify(sources: string[], options?: object) => object
func minifyJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return makeError("minify requires an array of shader sources")
	}

	length := args[0].Get("length").Int()
	sources := make([]string, length)
	for i := 0; i < length; i++ {
		sources[i] = args[0].Index(i).String()
	}

	opts := api.MinifyOptions{
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		MaxNameLength:     2,
	}
	if len(args) > 1 && !args[1].IsUndefined() && !args[1].IsNull() {
		var jsOpts jsOptions
		jsonStr := js.Global().Get("JSON").Call("stringify", args[1]).String()
		if err := json.Unmarshal([]byte(jsonStr), &jsOpts); err != nil {
			return makeError("invalid options: " + err.Error())
		}
		setBool(&opts.RewriteAllGlobals, jsOpts.RewriteAllGlobals)
		setBool(&opts.MinifyWhitespace, jsOpts.MinifyWhitespace)
		setBool(&opts.MinifyIdentifiers, jsOpts.MinifyIdentifiers)
		setBool(&opts.MinifySyntax, jsOpts.MinifySyntax)
		setBool(&opts.KeywordMacros, jsOpts.KeywordMacros)
		if jsOpts.MaxNameLength != nil {
			opts.MaxNameLength = *jsOpts.MaxNameLength
		}
		opts.KeepNames = jsOpts.KeepNames
	}

	result := api.MinifyWithOptions(sources, opts)

	// js.ValueOf only accepts []interface{} and map[string]interface{}
	shaders := make([]interface{}, len(result.Shaders))
	for i, s := range result.Shaders {
		shaders[i] = s
	}
	globals := make([]interface{}, len(result.Globals))
	for i, g := range result.Globals {
		globals[i] = map[string]interface{}{"old": g.Old, "new": g.New}
	}
	members := make(map[string]interface{}, len(result.Members))
	for k, v := range result.Members {
		members[k] = v
	}
	errors := make([]interface{}, len(result.Errors))
	for i, e := range result.Errors {
		errors[i] = e
	}

	return map[string]interface{}{
		"shaders":      shaders,
		"globals":      globals,
		"members":      members,
		"errors":       errors,
		"originalSize": result.OriginalSize,
		"minifiedSize": result.MinifiedSize,
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// makeError creates a result object with an error.
func makeError(msg string) interface{} {
	return map[string]interface{}{
		"shaders":      []interface{}{},
		"globals":      []interface{}{},
		"members":      map[string]interface{}{},
		"errors":       []interface{}{msg},
		"originalSize": 0,
		"minifiedSize": 0,
	}
}
