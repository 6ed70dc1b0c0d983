// Package source reads the shaders of a batch.
//
// GLSL files are taken as they are. WGSL files are compiled to GLSL ES with
// naga, one shader per entry point, so a WebGPU module can be minified
// together with hand written GLSL.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/ir"

	"github.com/HugoDaniel/glslmin/internal/logger"
)

// Shader is one input of a batch.
type Shader struct {
	// Name identifies the shader in output files and messages: the file
	// name, with the entry point appended for WGSL inputs.
	Name string

	// Stage is "vertex", "fragment" or "compute" when known.
	Stage string

	// Path is the file the shader was read from, empty for stdin.
	Path string

	// Source is GLSL source text.
	Source string
}

// GLSLExtensions are the file extensions read verbatim.
var GLSLExtensions = []string{".glsl", ".vert", ".frag", ".vs", ".fs"}

// IsShaderFile reports whether path has an extension ReadFile accepts.
func IsShaderFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".wgsl" {
		return true
	}
	for _, e := range GLSLExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadFile reads the shaders stored in one file.
func ReadFile(path string) ([]Shader, error) {
	if !IsShaderFile(path) {
		return nil, fmt.Errorf("%s: unsupported shader extension %q", path, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".wgsl" {
		shaders, err := FromWGSL(name, string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for i := range shaders {
			shaders[i].Path = path
		}
		return shaders, nil
	}

	return []Shader{{
		Name:   name,
		Stage:  stageFromExtension(ext),
		Path:   path,
		Source: string(data),
	}}, nil
}

// ReadFiles reads every file in order. The batch keeps the order of the
// arguments, and the entry point order within a WGSL file.
func ReadFiles(paths []string) ([]Shader, error) {
	var shaders []Shader
	for _, path := range paths {
		s, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		shaders = append(shaders, s...)
	}
	return shaders, nil
}

// FromWGSL compiles a WGSL module to one GLSL shader per entry point.
// Vertex and fragment stages target GLSL ES 3.00, compute stages ES 3.10.
func FromWGSL(name, src string) ([]Shader, error) {
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, err
	}
	if len(module.EntryPoints) == 0 {
		return nil, fmt.Errorf("no entry points")
	}

	shaders := make([]Shader, 0, len(module.EntryPoints))
	for _, ep := range module.EntryPoints {
		opts := glsl.DefaultOptions()
		opts.LangVersion = glsl.VersionES300
		if ep.Stage == ir.StageCompute {
			opts.LangVersion = glsl.VersionES310
		}
		opts.EntryPoint = ep.Name

		code, info, err := glsl.Compile(module, opts)
		if err != nil {
			return nil, fmt.Errorf("entry point %s: %w", ep.Name, err)
		}
		logger.Logger().Debug("wgsl entry point compiled",
			"file", name,
			"entry", ep.Name,
			"extensions", info.UsedExtensions)

		shaders = append(shaders, Shader{
			Name:   strings.TrimSuffix(name, filepath.Ext(name)) + "." + ep.Name,
			Stage:  stageName(ep.Stage),
			Source: code,
		})
	}
	return shaders, nil
}

// Sources returns the source texts of a batch.
func Sources(shaders []Shader) []string {
	out := make([]string, len(shaders))
	for i, s := range shaders {
		out[i] = s.Source
	}
	return out
}

func stageName(stage ir.ShaderStage) string {
	switch stage {
	case ir.StageVertex:
		return "vertex"
	case ir.StageFragment:
		return "fragment"
	case ir.StageCompute:
		return "compute"
	}
	return ""
}

func stageFromExtension(ext string) string {
	switch ext {
	case ".vert", ".vs":
		return "vertex"
	case ".frag", ".fs":
		return "fragment"
	}
	return ""
}
