// Package minifier provides the main minification API.
//
// It runs a batch of GLSL shaders through every stage: comment stripping,
// structural scanning, cataloging, dead function removal, macro inlining,
// renaming, declaration grouping, literal compaction, keyword macros and
// printing. Each stage finishes for the whole batch before the next one
// starts, because renaming and dead code removal need to see every shader.
package minifier

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/HugoDaniel/glslmin/internal/ast"
	"github.com/HugoDaniel/glslmin/internal/catalog"
	"github.com/HugoDaniel/glslmin/internal/dce"
	"github.com/HugoDaniel/glslmin/internal/grouper"
	"github.com/HugoDaniel/glslmin/internal/keywords"
	"github.com/HugoDaniel/glslmin/internal/logger"
	"github.com/HugoDaniel/glslmin/internal/macro"
	"github.com/HugoDaniel/glslmin/internal/numeric"
	"github.com/HugoDaniel/glslmin/internal/preprocess"
	"github.com/HugoDaniel/glslmin/internal/printer"
	"github.com/HugoDaniel/glslmin/internal/renamer"
	"github.com/HugoDaniel/glslmin/internal/scanner"
)

// Options controls minification behavior.
type Options struct {
	// RewriteAllGlobals renames uniforms and attributes too. When false
	// they keep their names so host code can still look them up.
	RewriteAllGlobals bool

	// TreeShaking removes functions not reachable from any main.
	TreeShaking bool

	// InlineMacros replaces constant object-like macros by their value.
	InlineMacros bool

	// RenameIdentifiers shortens functions, structs, globals, members and
	// locals.
	RenameIdentifiers bool

	// GroupDeclarations merges uniform/attribute/varying declarations of
	// the same type.
	GroupDeclarations bool

	// CompactNumbers rewrites numeric literals in their shortest form.
	CompactNumbers bool

	// KeywordMacros abbreviates frequent keywords with #defines.
	KeywordMacros bool

	// MinifyWhitespace removes unnecessary whitespace and newlines
	MinifyWhitespace bool

	// MaxNameLength bounds generated names; 0 means unbounded.
	MaxNameLength int

	// KeepNames prevents specific names from being renamed
	KeepNames []string
}

// DefaultOptions returns options for maximum minification that keep host
// visible names.
func DefaultOptions() Options {
	return Options{
		TreeShaking:       true,
		InlineMacros:      true,
		RenameIdentifiers: true,
		GroupDeclarations: true,
		CompactNumbers:    true,
		KeywordMacros:     true,
		MinifyWhitespace:  true,
		MaxNameLength:     2,
	}
}

// Result contains the minification output.
type Result struct {
	// Shaders holds the minified shaders in input order, escaped for use
	// inside a string literal.
	Shaders []string

	// Globals maps the uniform then attribute names, the names host code
	// refers to.
	Globals []renamer.Pair

	// Members maps struct member names.
	Members map[string]string

	// Statistics about the minification
	Stats Stats
}

// Stats provides minification statistics.
type Stats struct {
	OriginalSize        int
	MinifiedSize        int
	FunctionsRemoved    int
	MacrosInlined       int
	SymbolsRenamed      int
	LocalsRenamed       int
	DeclarationsGrouped int
	LiteralsCompacted   int
	KeywordMacros       int
}

// Minifier performs GLSL batch minification.
type Minifier struct {
	options Options
}

// New creates a new minifier with the given options.
func New(options Options) *Minifier {
	return &Minifier{options: options}
}

// batch is the state handed from stage to stage.
type batch struct {
	shaders []*ast.Shader
	types   *scanner.TypeSet
	cats    []*catalog.Catalog
	pinned  []map[string]bool // Per shader identifiers used by surviving macros
	texts   []string
	stats   Stats
}

// MinifyBatch minifies the given sources as one program. Either every
// shader is minified or an error is returned.
func (m *Minifier) MinifyBatch(sources []string) (*Result, error) {
	b := newBatch(sources)
	if err := m.scan(b, sources); err != nil {
		return nil, err
	}
	if m.options.TreeShaking {
		m.shake(b)
	}
	m.inlineMacros(b)

	result := &Result{Members: map[string]string{}}
	if m.options.RenameIdentifiers {
		if err := m.rename(b, result); err != nil {
			logger.Logger().Warn("renaming failed", "err", err)
			return nil, err
		}
	} else {
		b.collect()
		result.Globals = renamer.IdentityPairs(catalog.Merge(b.cats...))
	}
	if m.options.GroupDeclarations {
		m.group(b)
	}
	for i, s := range b.shaders {
		b.texts[i] = s.Text()
	}
	if m.options.CompactNumbers {
		m.compactNumbers(b)
	}
	if m.options.KeywordMacros {
		m.synthesizeKeywords(b)
	}
	m.print(b)

	result.Shaders = b.texts
	for _, s := range b.texts {
		b.stats.MinifiedSize += len(s)
	}
	result.Stats = b.stats
	logger.Logger().Info("batch minified",
		"shaders", len(sources),
		"original", b.stats.OriginalSize,
		"minified", b.stats.MinifiedSize)
	return result, nil
}

// Inspect catalogs a batch without transforming it: the symbols are the
// ones of the sources as written.
func (m *Minifier) Inspect(sources []string) (*catalog.Catalog, error) {
	b := newBatch(sources)
	if err := m.scan(b, sources); err != nil {
		return nil, err
	}
	return catalog.Merge(b.cats...), nil
}

func newBatch(sources []string) *batch {
	b := &batch{
		shaders: make([]*ast.Shader, len(sources)),
		cats:    make([]*catalog.Catalog, len(sources)),
		pinned:  make([]map[string]bool, len(sources)),
		texts:   make([]string, len(sources)),
	}
	for _, src := range sources {
		b.stats.OriginalSize += len(src)
	}
	return b
}

// ----------------------------------------------------------------------------
// Stages
// ----------------------------------------------------------------------------

// scan strips comments, chunks every shader and catalogs it.
func (m *Minifier) scan(b *batch, sources []string) error {
	pre := make([]string, len(sources))
	_ = forEach(len(sources), func(i int) error {
		pre[i] = preprocess.Process(sources[i])
		return nil
	})
	stageDone("preprocess", len(sources))

	var structs []string
	for _, src := range pre {
		structs = append(structs, catalog.StructNames(src)...)
	}
	b.types = scanner.NewTypeSet(structs)
	sc := scanner.New(b.types)

	err := forEach(len(pre), func(i int) error {
		chunks, err := sc.Scan(pre[i])
		if err != nil {
			return fmt.Errorf("shader %d: %w", i, err)
		}
		b.shaders[i] = &ast.Shader{Index: i, Chunks: chunks}
		return nil
	})
	if err != nil {
		logger.Logger().Warn("scanning failed", "err", err)
		return err
	}
	stageDone("scanner", len(pre))

	b.collect()
	stageDone("catalog", len(pre))
	return nil
}

// collect catalogs every shader.
func (b *batch) collect() {
	_ = forEach(len(b.shaders), func(i int) error {
		b.cats[i] = catalog.Collect(b.shaders[i], b.types)
		return nil
	})
}

// shake removes the functions no main can reach.
func (m *Minifier) shake(b *batch) {
	merged := catalog.Merge(b.cats...)
	removed := dce.Eliminate(b.shaders, merged.FunctionNames())
	b.stats.FunctionsRemoved = len(removed)
	if len(removed) > 0 {
		logger.Logger().Debug("functions removed", "names", removed)
	}
	stageDone("dce", len(b.shaders))
}

// inlineMacros resolves constant macros and records the identifiers the
// remaining macros mention.
func (m *Minifier) inlineMacros(b *batch) {
	inlined := make([]int, len(b.shaders))
	_ = forEach(len(b.shaders), func(i int) error {
		unresolved := b.cats[i].Macros
		if m.options.InlineMacros {
			res := macro.Evaluate(b.shaders[i])
			inlined[i] = len(res.Inlined)
			unresolved = res.Unresolved
		}
		for _, mac := range unresolved {
			if !mac.IsFunctionLike() && mac.Value != "" {
				logger.Logger().Debug("macro left as is", "shader", i, "macro", mac.Name)
			}
		}
		b.pinned[i] = renamer.MacroIdentifiers(unresolved)
		return nil
	})
	for _, n := range inlined {
		b.stats.MacrosInlined += n
	}
	stageDone("macro", len(b.shaders))
}

// rename allocates names for the whole batch, then rewrites every shader.
func (m *Minifier) rename(b *batch, result *Result) error {
	// Dead functions and inlined macros are gone; catalog what is left.
	b.collect()
	merged := catalog.Merge(b.cats...)

	alloc := renamer.NewAllocator(merged, renamer.Options{
		RewriteAllGlobals: m.options.RewriteAllGlobals,
		MaxNameLength:     m.options.MaxNameLength,
		KeepNames:         m.options.KeepNames,
	})
	if err := alloc.Allocate(merged); err != nil {
		return err
	}

	ls := renamer.NewLocalScanner(b.types)
	locals := make([]int, len(b.shaders))
	err := forEach(len(b.shaders), func(i int) error {
		n, err := alloc.Rewrite(b.shaders[i], ls, b.pinned[i])
		if err != nil {
			return fmt.Errorf("shader %d: %w", i, err)
		}
		locals[i] = n
		return nil
	})
	if err != nil {
		return err
	}

	// Struct names changed; later stages match declarations by type.
	var structs []string
	for _, s := range b.shaders {
		for _, st := range s.Structs() {
			structs = append(structs, st.Name)
		}
	}
	b.types = scanner.NewTypeSet(structs)

	result.Globals = alloc.HostPairs()
	result.Members = alloc.Members().Map()
	b.stats.SymbolsRenamed = alloc.Renamed()
	for _, n := range locals {
		b.stats.LocalsRenamed += n
	}
	stageDone("renamer", len(b.shaders))
	return nil
}

func (m *Minifier) group(b *batch) {
	g := grouper.New(b.types)
	removed := make([]int, len(b.shaders))
	_ = forEach(len(b.shaders), func(i int) error {
		removed[i] = g.Group(b.shaders[i])
		return nil
	})
	for _, n := range removed {
		b.stats.DeclarationsGrouped += n
	}
	stageDone("grouper", len(b.shaders))
}

func (m *Minifier) compactNumbers(b *batch) {
	changed := make([]int, len(b.texts))
	_ = forEach(len(b.texts), func(i int) error {
		b.texts[i], changed[i] = numeric.Compact(b.texts[i])
		return nil
	})
	for _, n := range changed {
		b.stats.LiteralsCompacted += n
	}
	stageDone("numeric", len(b.texts))
}

func (m *Minifier) synthesizeKeywords(b *batch) {
	syn := keywords.New()
	defines := make([]int, len(b.texts))
	_ = forEach(len(b.texts), func(i int) error {
		var defs []keywords.Define
		b.texts[i], defs = syn.Apply(b.texts[i])
		defines[i] = len(defs)
		return nil
	})
	for _, n := range defines {
		b.stats.KeywordMacros += n
	}
	stageDone("keywords", len(b.texts))
}

func (m *Minifier) print(b *batch) {
	p := printer.New(printer.Options{MinifyWhitespace: m.options.MinifyWhitespace})
	_ = forEach(len(b.texts), func(i int) error {
		b.texts[i] = p.Print(b.texts[i])
		return nil
	})
	stageDone("printer", len(b.texts))
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// forEach runs fn for 0..n-1 on up to GOMAXPROCS goroutines. When several
// calls fail, the error of the lowest index is returned so a batch always
// reports the same error.
func forEach(n int, fn func(i int) error) error {
	errs := make([]error, n)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			errs[i] = fn(i)
			return errs[i]
		})
	}
	if g.Wait() == nil {
		return nil
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func stageDone(stage string, shaders int) {
	logger.Logger().Debug("stage complete", "minifier.stage", stage, "shaders", shaders)
}

// ----------------------------------------------------------------------------
// Convenience Functions
// ----------------------------------------------------------------------------

// Minify minifies a batch with optional custom options.
// If no options are provided, DefaultOptions() is used.
func Minify(sources []string, opts ...Options) (*Result, error) {
	options := DefaultOptions()
	if len(opts) > 0 {
		options = opts[0]
	}
	return New(options).MinifyBatch(sources)
}
