// Package dce implements dead code elimination for GLSL shader batches.
//
// DCE works by:
// 1. Finding roots (every main across the batch, plus any function named
//    from top-level text such as a macro body)
// 2. Building a call graph from identifier references in function bodies
// 3. Marking every function reachable from a root as live
// 4. Removing function and prototype chunks of non-live functions
package dce

import (
	"sort"

	"github.com/HugoDaniel/glslmin/internal/ast"
	"github.com/HugoDaniel/glslmin/internal/lexer"
)

// CallGraph maps each function name to the function names its bodies
// reference. Overloads and same-named definitions in different shaders
// share one node.
type CallGraph struct {
	edges map[string][]string
	nodes map[string]bool
}

// BuildCallGraph builds the call graph of the batch over the given
// function names.
func BuildCallGraph(shaders []*ast.Shader, functions []string) *CallGraph {
	g := &CallGraph{
		edges: make(map[string][]string),
		nodes: make(map[string]bool, len(functions)+1),
	}
	for _, name := range functions {
		g.nodes[name] = true
	}
	g.nodes["main"] = true

	for _, s := range shaders {
		for i := range s.Chunks {
			c := &s.Chunks[i]
			if c.Kind != ast.ChunkFunction {
				continue
			}
			from := c.Function.Name
			refs := references(c.Function.Arguments+c.Function.Body, g.nodes)
			g.edges[from] = appendUnique(g.edges[from], refs...)
		}
	}
	return g
}

// Callees returns the functions name references directly.
func (g *CallGraph) Callees(name string) []string {
	return g.edges[name]
}

// Roots returns main plus every function referenced outside function
// bodies: from residual text, conditional blocks, struct definitions and
// #define bodies. A function named only by a macro is otherwise invisible
// to the graph.
func (g *CallGraph) Roots(shaders []*ast.Shader) []string {
	var roots []string
	hasMain := false
	for _, s := range shaders {
		for i := range s.Chunks {
			c := &s.Chunks[i]
			switch c.Kind {
			case ast.ChunkFunction:
				if c.Function.IsMain() {
					hasMain = true
				}
			case ast.ChunkStruct:
				roots = appendUnique(roots, references(c.Struct.String(), g.nodes)...)
			case ast.ChunkOther, ast.ChunkConditional:
				roots = appendUnique(roots, references(c.Text, g.nodes)...)
			}
		}
	}
	if !hasMain {
		return nil
	}
	return appendUnique([]string{"main"}, roots...)
}

// Reachable returns the set of functions reachable from roots.
func (g *CallGraph) Reachable(roots []string) map[string]bool {
	visited := make(map[string]bool)
	for _, r := range roots {
		g.markLive(r, visited)
	}
	return visited
}

// markLive marks a function and all its callees as live.
func (g *CallGraph) markLive(name string, visited map[string]bool) {
	// Already visited? Recursion and mutual recursion stop here.
	if visited[name] {
		return
	}
	visited[name] = true

	for _, callee := range g.edges[name] {
		g.markLive(callee, visited)
	}
}

// Prune removes the function and prototype chunks of every function not in
// live and returns the removed names, sorted. main is always kept. A nil
// live set keeps everything, which is what happens when no shader in the
// batch has a main.
func Prune(shaders []*ast.Shader, live map[string]bool) []string {
	if live == nil {
		return nil
	}

	removed := make(map[string]bool)
	for _, s := range shaders {
		kept := s.Chunks[:0]
		for _, c := range s.Chunks {
			if f := c.Function; f != nil && !f.IsMain() && !live[f.Name] {
				removed[f.Name] = true
				continue
			}
			kept = append(kept, c)
		}
		s.Chunks = kept
	}

	names := make([]string, 0, len(removed))
	for name := range removed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Eliminate runs the whole analysis: it builds the call graph, marks
// reachable functions and prunes the rest.
func Eliminate(shaders []*ast.Shader, functions []string) []string {
	g := BuildCallGraph(shaders, functions)
	roots := g.Roots(shaders)
	if roots == nil {
		return nil
	}
	return Prune(shaders, g.Reachable(roots))
}

// references returns the names in set that text mentions as plain
// identifiers. Member accesses (after '.') are not references.
func references(text string, set map[string]bool) []string {
	var refs []string
	lexer.RewriteIdents(text, func(name string, member bool) string {
		if !member && set[name] {
			refs = appendUnique(refs, name)
		}
		return name
	})
	return refs
}

func appendUnique(list []string, items ...string) []string {
	for _, it := range items {
		found := false
		for _, x := range list {
			if x == it {
				found = true
				break
			}
		}
		if !found {
			list = append(list, it)
		}
	}
	return list
}
