package dce

import (
	"strings"
	"testing"

	"github.com/HugoDaniel/glslmin/internal/ast"
	"github.com/HugoDaniel/glslmin/internal/catalog"
	"github.com/HugoDaniel/glslmin/internal/scanner"
	"github.com/HugoDaniel/glslmin/internal/test"
)

func parseBatch(t *testing.T, sources ...string) ([]*ast.Shader, []string) {
	t.Helper()
	var structs []string
	for _, src := range sources {
		structs = append(structs, catalog.StructNames(src)...)
	}
	types := scanner.NewTypeSet(structs)
	sc := scanner.New(types)

	var shaders []*ast.Shader
	var cats []*catalog.Catalog
	for i, src := range sources {
		chunks, err := sc.Scan(src)
		if err != nil {
			t.Fatalf("shader %d: %v", i, err)
		}
		s := &ast.Shader{Index: i, Chunks: chunks}
		shaders = append(shaders, s)
		cats = append(cats, catalog.Collect(s, types))
	}
	return shaders, catalog.Merge(cats...).FunctionNames()
}

func functionNames(shaders []*ast.Shader) string {
	var names []string
	for _, s := range shaders {
		for _, f := range s.Functions() {
			names = append(names, f.Name)
		}
	}
	return strings.Join(names, ",")
}

// ----------------------------------------------------------------------------
// Call Graph Tests
// ----------------------------------------------------------------------------

func TestBuildCallGraph_Edges(t *testing.T) {
	shaders, fns := parseBatch(t, `
float a() { return 1.0; }
float b() { return a() + a(); }
void main() { gl_FragColor = vec4(b()); }
`)
	g := BuildCallGraph(shaders, fns)
	test.AssertEqual(t, strings.Join(g.Callees("main"), ","), "b")
	test.AssertEqual(t, strings.Join(g.Callees("b"), ","), "a")
	test.AssertEqual(t, len(g.Callees("a")), 0)
}

func TestBuildCallGraph_BoundaryDiscipline(t *testing.T) {
	shaders, fns := parseBatch(t, `
float f() { return 1.0; }
void main() { float ff = 2.0; float f2 = ff; gl_FragColor = vec4(f2); }
`)
	g := BuildCallGraph(shaders, fns)
	test.AssertEqual(t, len(g.Callees("main")), 0)
}

func TestBuildCallGraph_MemberAccessIsNotACall(t *testing.T) {
	shaders, fns := parseBatch(t, `
struct S { float len; };
float len() { return 1.0; }
void main() { S s; gl_FragColor = vec4(s.len); }
`)
	g := BuildCallGraph(shaders, fns)
	test.AssertEqual(t, len(g.Callees("main")), 0)
}

// ----------------------------------------------------------------------------
// Elimination Tests
// ----------------------------------------------------------------------------

func TestEliminate_RemovesUnreachable(t *testing.T) {
	shaders, fns := parseBatch(t, `
float used() { return 1.0; }
float unused() { return 2.0; }
void main() { gl_FragColor = vec4(used()); }
`)
	removed := Eliminate(shaders, fns)
	test.AssertEqual(t, strings.Join(removed, ","), "unused")
	test.AssertEqual(t, functionNames(shaders), "used,main")
	if strings.Contains(shaders[0].Text(), "unused") {
		t.Errorf("unused function still present:\n%s", shaders[0].Text())
	}
}

func TestEliminate_UnreachableCycle(t *testing.T) {
	shaders, fns := parseBatch(t, `
float B(float x);
float A(float x) { return B(x - 1.0); }
float B(float x) { return A(x * 0.5); }
void main() { gl_FragColor = vec4(0.0); }
`)
	removed := Eliminate(shaders, fns)
	test.AssertEqual(t, strings.Join(removed, ","), "A,B")
	test.AssertEqual(t, functionNames(shaders), "main")
}

func TestEliminate_ReachableCycleTerminates(t *testing.T) {
	shaders, fns := parseBatch(t, `
float even(float n);
float odd(float n) { return n <= 0.0 ? 0.0 : even(n - 1.0); }
float even(float n) { return n <= 0.0 ? 1.0 : odd(n - 1.0); }
float self(float n) { return n > 0.0 ? self(n - 1.0) : n; }
void main() { gl_FragColor = vec4(odd(3.0) + self(2.0)); }
`)
	removed := Eliminate(shaders, fns)
	test.AssertEqual(t, len(removed), 0)
	test.AssertEqual(t, functionNames(shaders), "even,odd,even,self,main")
}

func TestEliminate_RootsAcrossBatch(t *testing.T) {
	shaders, fns := parseBatch(t,
		"float shared() { return 1.0; }\nfloat vsOnly() { return 2.0; }\nvoid main() { gl_Position = vec4(vsOnly()); }\n",
		"float shared() { return 1.0; }\nvoid main() { gl_FragColor = vec4(shared()); }\n",
	)
	removed := Eliminate(shaders, fns)
	test.AssertEqual(t, len(removed), 0)
	test.AssertEqual(t, functionNames(shaders), "shared,vsOnly,main,shared,main")
}

func TestEliminate_MacroReferenceIsRoot(t *testing.T) {
	shaders, fns := parseBatch(t, `
#define SHADE(x) helper(x)
float helper(float x) { return x; }
void main() { gl_FragColor = vec4(SHADE(1.0)); }
`)
	removed := Eliminate(shaders, fns)
	test.AssertEqual(t, len(removed), 0)
}

func TestEliminate_NoMainKeepsEverything(t *testing.T) {
	shaders, fns := parseBatch(t, "float a() { return 1.0; }\nfloat b() { return 2.0; }\n")
	removed := Eliminate(shaders, fns)
	test.AssertEqual(t, len(removed), 0)
	test.AssertEqual(t, functionNames(shaders), "a,b")
}

func TestReachable_Closure(t *testing.T) {
	g := &CallGraph{
		edges: map[string][]string{
			"main": {"a"},
			"a":    {"b", "c"},
			"c":    {"a"},
			"d":    {"e"},
		},
	}
	live := g.Reachable([]string{"main"})
	for _, name := range []string{"main", "a", "b", "c"} {
		test.AssertEqual(t, live[name], true)
	}
	test.AssertEqual(t, live["d"], false)
	test.AssertEqual(t, live["e"], false)
}
