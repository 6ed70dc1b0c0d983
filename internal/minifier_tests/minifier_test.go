// Package minifier_tests provides integration tests for the GLSL minifier.
//
// Every case runs a whole batch through minifier.MinifyBatch and compares
// the escaped output shader by shader.
package minifier_tests

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/HugoDaniel/glslmin/internal/diagnostic"
	"github.com/HugoDaniel/glslmin/internal/minifier"
	"github.com/HugoDaniel/glslmin/internal/renamer"
	"github.com/HugoDaniel/glslmin/internal/test"
)

// ----------------------------------------------------------------------------
// Test Helpers
// ----------------------------------------------------------------------------

// expectMinified runs a batch and compares every output shader.
func expectMinified(t *testing.T, name string, inputs []string, opts minifier.Options, expected []string) *minifier.Result {
	t.Helper()
	var result *minifier.Result
	t.Run(name, func(t *testing.T) {
		t.Helper()
		var err error
		result, err = minifier.New(opts).MinifyBatch(inputs)
		if err != nil {
			t.Fatalf("MinifyBatch: %v", err)
		}
		test.AssertEqual(t, len(result.Shaders), len(expected))
		for i := range expected {
			if i < len(result.Shaders) {
				test.AssertEqualWithDiff(t, result.Shaders[i], expected[i])
			}
		}
	})
	return result
}

// fullOpts returns every stage except keyword macros, whose output depends
// on token frequencies and is tested separately.
func fullOpts(rewriteAll bool) minifier.Options {
	opts := minifier.DefaultOptions()
	opts.KeywordMacros = false
	opts.RewriteAllGlobals = rewriteAll
	return opts
}

func pairs(ps []renamer.Pair) string {
	var parts []string
	for _, p := range ps {
		parts = append(parts, p.Old+"="+p.New)
	}
	return strings.Join(parts, ",")
}

// ----------------------------------------------------------------------------
// Batch Scenario
// ----------------------------------------------------------------------------

const vertexShader = `
attribute vec3 position;
uniform mat4 projection;
uniform mat4 view;
varying vec3 color;

void main() {
    color = position; // pass through
    gl_Position = projection * view * vec4(position, 1.0);
}
`

const fragmentShader = `
precision mediump float;
uniform float brightness;
uniform float contrast;
varying vec3 color;

/* never called */
vec3 unused(vec3 c) {
    return c * 2.0;
}

void main() {
    gl_FragColor = vec4(color * brightness * contrast, 1.0);
}
`

func TestBatchKeepsHostNames(t *testing.T) {
	result := expectMinified(t, "KeepHostNames", []string{vertexShader, fragmentShader}, fullOpts(false), []string{
		"attribute vec3 position;uniform mat4 projection,view;varying vec3 A;" +
			"void main(){A=position;gl_Position=projection*view*vec4(position,1.);}",
		"precision mediump float;uniform float brightness,contrast;varying vec3 A;" +
			"void main(){gl_FragColor=vec4(A*brightness*contrast,1.);}",
	})
	if result == nil {
		return
	}
	test.AssertEqual(t, pairs(result.Globals),
		"brightness=brightness,contrast=contrast,projection=projection,view=view,position=position")
	test.AssertEqual(t, result.Stats.FunctionsRemoved, 1)
	test.AssertEqual(t, result.Stats.DeclarationsGrouped, 2)
}

func TestBatchRewriteAllGlobals(t *testing.T) {
	result := expectMinified(t, "RewriteAllGlobals", []string{vertexShader, fragmentShader}, fullOpts(true), []string{
		"attribute vec3 E;uniform mat4 C,D;varying vec3 F;" +
			"void main(){F=E;gl_Position=C*D*vec4(E,1.);}",
		"precision mediump float;uniform float A,B;varying vec3 F;" +
			"void main(){gl_FragColor=vec4(F*A*B,1.);}",
	})
	if result == nil {
		return
	}
	test.AssertEqual(t, pairs(result.Globals), "brightness=A,contrast=B,projection=C,view=D,position=E")
	test.AssertEqual(t, len(result.Members), 0)
}

func TestBatchWithoutRenamingListsHostNames(t *testing.T) {
	opts := fullOpts(false)
	opts.RenameIdentifiers = false
	result, err := minifier.New(opts).MinifyBatch([]string{vertexShader, fragmentShader})
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, pairs(result.Globals),
		"brightness=brightness,contrast=contrast,projection=projection,view=view,position=position")
	test.AssertEqual(t, len(result.Members), 0)
}

func TestBatchDeterministic(t *testing.T) {
	inputs := []string{vertexShader, fragmentShader, vertexShader}
	first, err := minifier.Minify(inputs)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := minifier.Minify(inputs)
		if err != nil {
			t.Fatal(err)
		}
		for j := range inputs {
			test.AssertEqual(t, again.Shaders[j], first.Shaders[j])
		}
	}
	test.AssertEqual(t, first.Shaders[0], first.Shaders[2])
}

// ----------------------------------------------------------------------------
// Full Pipeline
// ----------------------------------------------------------------------------

const lightShader = `#version 100
precision highp float;
#define SCALE 2.0
#define HALF (SCALE / 4.0)

struct Light {
    vec3 position;
    float intensity;
};
uniform Light light;

float shade(float d) {
    float k = d * HALF;
    return k * light.intensity;
}

void main() {
    float dist = length(light.position);
    gl_FragColor = vec4(shade(dist) * SCALE);
}
`

func TestFullPipeline(t *testing.T) {
	result := expectMinified(t, "Light", []string{lightShader}, fullOpts(true), []string{
		`#version 100\nprecision highp float;struct B{vec3 b;float a;};uniform B C;` +
			`float A(float a){float b=a*.5;return b*C.a;}` +
			`void main(){float a=length(C.b);gl_FragColor=vec4(A(a)*2.);}`,
	})
	if result == nil {
		return
	}
	test.AssertEqual(t, pairs(result.Globals), "light=C")
	test.AssertEqual(t, result.Members["intensity"], "a")
	test.AssertEqual(t, result.Members["position"], "b")
	test.AssertEqual(t, result.Stats.MacrosInlined, 2)
	test.AssertEqual(t, result.Stats.LocalsRenamed, 3)
}

func TestKeywordMacros(t *testing.T) {
	opts := minifier.DefaultOptions()
	expectMinified(t, "FloatMacro", []string{
		"void main(){float a=1.;float b=a;float c=b;float d=c;float e=d;float f=e;gl_FragColor=vec4(f);}",
	}, opts, []string{
		`#define a float\nvoid main(){a g=1.;a h=g;a i=h;a j=i;a k=j;a l=k;gl_FragColor=vec4(l);}`,
	})
}

func TestWhitespaceOnly(t *testing.T) {
	expectMinified(t, "Directives", []string{
		"#version 300 es\n#ifdef GL_ES\nprecision mediump float;\n#endif\n\n\nvoid main() {\n  gl_FragColor = vec4(1.0);\n}\n",
	}, minifier.Options{MinifyWhitespace: true}, []string{
		`#version 300 es\n#ifdef GL_ES\nprecision mediump float;\n#endif\nvoid main(){gl_FragColor=vec4(1.0);}`,
	})
}

// ----------------------------------------------------------------------------
// Errors
// ----------------------------------------------------------------------------

func TestStructuralErrorAbortsBatch(t *testing.T) {
	result, err := minifier.Minify([]string{vertexShader, "void main() {\n  gl_FragColor = vec4(1.0);\n"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if result != nil {
		t.Error("no partial output expected")
	}
	var d *diagnostic.Diagnostic
	if !errors.As(err, &d) {
		t.Fatalf("expected a diagnostic, got %T: %v", err, err)
	}
	test.AssertEqual(t, d.Code, diagnostic.CodeUnbalancedBraces)
	test.AssertEqual(t, d.Range.Start.Line, 1)
	if !strings.HasPrefix(err.Error(), "shader 1: ") {
		t.Errorf("error should name the shader: %v", err)
	}
}

func TestPoolExhaustion(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, "varying float v%d;\n", i)
	}
	sb.WriteString("void main() {}\n")

	opts := fullOpts(true)
	opts.MaxNameLength = 1
	_, err := minifier.New(opts).MinifyBatch([]string{sb.String()})

	var ex *renamer.ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	test.AssertEqual(t, ex.Namespace, renamer.NamespaceVaryings)
	test.AssertEqual(t, ex.Needed, 30)
	test.AssertEqual(t, ex.Available, 26)

	opts.MaxNameLength = 0
	if _, err := minifier.New(opts).MinifyBatch([]string{sb.String()}); err != nil {
		t.Errorf("unbounded names should recover: %v", err)
	}
}

func TestEmptyBatch(t *testing.T) {
	result, err := minifier.Minify(nil)
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, len(result.Shaders), 0)
}
