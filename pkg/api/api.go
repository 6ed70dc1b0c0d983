// Package api provides the public API for the GLSL minifier.
//
// This package is intended for programmatic use of the minifier.
// For CLI usage, see cmd/glslmin.
package api

import (
	"github.com/HugoDaniel/glslmin/internal/minifier"
)

// MinifyOptions controls minification behavior.
type MinifyOptions struct {
	// RewriteAllGlobals renames uniforms and attributes too.
	// When false (default), they keep their names so that host code can
	// still query their locations; only functions, struct types,
	// varyings, constants, members and locals are shortened.
	RewriteAllGlobals bool

	// MinifyWhitespace removes unnecessary whitespace and newlines.
	MinifyWhitespace bool

	// MinifyIdentifiers renames identifiers to shorter names.
	MinifyIdentifiers bool

	// MinifySyntax removes dead functions, inlines constant macros,
	// groups declarations and shortens numeric literals.
	MinifySyntax bool

	// KeywordMacros abbreviates frequent keywords with #define directives.
	KeywordMacros bool

	// MaxNameLength bounds generated names; 0 means unbounded.
	MaxNameLength int

	// KeepNames specifies identifier names that should not be renamed.
	KeepNames []string
}

// Rename is one old to new identifier pair.
type Rename struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// MinifyResult contains the minification output.
type MinifyResult struct {
	// Shaders holds the minified shaders in input order, escaped so that
	// each can be pasted between double quotes in host source.
	Shaders []string `json:"shaders"`

	// Globals maps uniform then attribute names, the names host code
	// refers to.
	Globals []Rename `json:"globals"`

	// Members maps struct member names.
	Members map[string]string `json:"members"`

	// Errors contains any errors encountered during minification.
	// If non-empty, Shaders is empty.
	Errors []string `json:"errors,omitempty"`

	// OriginalSize is the size of the input in bytes.
	OriginalSize int `json:"originalSize"`

	// MinifiedSize is the size of the output in bytes.
	MinifiedSize int `json:"minifiedSize"`
}

// Minify minifies a batch of GLSL shaders with every transformation
// enabled except keyword macros.
func Minify(sources []string, rewriteAllGlobals bool) MinifyResult {
	return MinifyWithOptions(sources, MinifyOptions{
		RewriteAllGlobals: rewriteAllGlobals,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		MaxNameLength:     minifier.DefaultOptions().MaxNameLength,
	})
}

// MinifyWithOptions minifies a batch of GLSL shaders with custom options.
func MinifyWithOptions(sources []string, opts MinifyOptions) MinifyResult {
	m := minifier.New(minifier.Options{
		RewriteAllGlobals: opts.RewriteAllGlobals,
		TreeShaking:       opts.MinifySyntax,
		InlineMacros:      opts.MinifySyntax,
		RenameIdentifiers: opts.MinifyIdentifiers,
		GroupDeclarations: opts.MinifySyntax,
		CompactNumbers:    opts.MinifySyntax,
		KeywordMacros:     opts.KeywordMacros,
		MinifyWhitespace:  opts.MinifyWhitespace,
		MaxNameLength:     opts.MaxNameLength,
		KeepNames:         opts.KeepNames,
	})

	result, err := m.MinifyBatch(sources)
	if err != nil {
		return MinifyResult{Errors: []string{err.Error()}}
	}

	globals := make([]Rename, len(result.Globals))
	for i, p := range result.Globals {
		globals[i] = Rename{Old: p.Old, New: p.New}
	}

	return MinifyResult{
		Shaders:      result.Shaders,
		Globals:      globals,
		Members:      result.Members,
		OriginalSize: result.Stats.OriginalSize,
		MinifiedSize: result.Stats.MinifiedSize,
	}
}

// MinifyWhitespaceOnly removes whitespace without renaming identifiers.
// This is the safest minification option.
func MinifyWhitespaceOnly(sources []string) MinifyResult {
	return MinifyWithOptions(sources, MinifyOptions{
		MinifyWhitespace: true,
	})
}

// ----------------------------------------------------------------------------
// Reflection API
// ----------------------------------------------------------------------------

// ReflectResult describes the interface of a shader batch as written.
type ReflectResult struct {
	// Declarations contains the uniform, attribute, varying and const
	// declarations of the batch, each listed once, in first-seen order.
	Declarations []DeclarationInfo `json:"declarations"`

	// Structs contains the user struct names.
	Structs []string `json:"structs"`

	// Functions contains the function names other than main.
	Functions []string `json:"functions"`

	// Errors contains any errors encountered during scanning.
	Errors []string `json:"errors,omitempty"`
}

// DeclarationInfo describes one global declaration.
type DeclarationInfo struct {
	// Qualifier is "uniform", "attribute", "varying" or "const".
	Qualifier string `json:"qualifier"`

	// Type is the type name, without precision qualifier.
	Type string `json:"type"`

	// Name is the variable name.
	Name string `json:"name"`

	// Array is the array suffix such as "[4]", or "".
	Array string `json:"array,omitempty"`
}

// Reflect lists the declarations, structs and functions of a batch.
// This is useful to check what host code may bind without minifying.
func Reflect(sources []string) ReflectResult {
	cat, err := minifier.New(minifier.DefaultOptions()).Inspect(sources)
	if err != nil {
		return ReflectResult{Errors: []string{err.Error()}}
	}

	result := ReflectResult{
		Declarations: make([]DeclarationInfo, len(cat.Globals)),
		Structs:      cat.Structs,
		Functions:    cat.FunctionNames(),
	}
	for i, g := range cat.Globals {
		result.Declarations[i] = DeclarationInfo{
			Qualifier: g.Qualifier.String(),
			Type:      g.Type,
			Name:      g.Name,
			Array:     g.ArraySuffix,
		}
	}
	return result
}
