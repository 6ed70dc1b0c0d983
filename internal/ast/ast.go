// Package ast defines the structural model of a GLSL shader batch.
//
// This is not a syntax tree. The structural scanner partitions each shader
// into an ordered list of chunks (functions, structs, conditional blocks and
// residual text); concatenating the chunks reproduces the shader. Later
// stages mutate chunk text in place and finally flatten the shader back to
// a string.
package ast

import "strings"

// ----------------------------------------------------------------------------
// Chunks
// ----------------------------------------------------------------------------

// ChunkKind classifies a contiguous span of shader source.
type ChunkKind uint8

const (
	// ChunkOther is residual top-level text: declarations, directives,
	// precision statements.
	ChunkOther ChunkKind = iota

	// ChunkConditional is an outermost #if...#endif range that contains no
	// function or struct definition.
	ChunkConditional

	// ChunkStruct is a struct definition up to and including its ';'.
	ChunkStruct

	// ChunkFunction is a function definition with a brace-matched body.
	ChunkFunction

	// ChunkPrototype is a function declaration without a body.
	ChunkPrototype
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkOther:
		return "other"
	case ChunkConditional:
		return "conditional"
	case ChunkStruct:
		return "struct"
	case ChunkFunction:
		return "function"
	case ChunkPrototype:
		return "prototype"
	default:
		return "unknown"
	}
}

// Chunk is one structurally classified span of a shader.
type Chunk struct {
	Kind   ChunkKind
	Offset int // Byte offset in the preprocessed source

	// Text holds the span for ChunkOther and ChunkConditional.
	Text string

	// Function is set for ChunkFunction and ChunkPrototype.
	Function *Function

	// Struct is set for ChunkStruct.
	Struct *Struct
}

// String reassembles the chunk's source text.
func (c *Chunk) String() string {
	switch c.Kind {
	case ChunkFunction, ChunkPrototype:
		return c.Function.String()
	case ChunkStruct:
		return c.Struct.String()
	default:
		return c.Text
	}
}

// Function is a function definition or prototype.
type Function struct {
	ReturnType string // Including any precision qualifier
	Name       string
	Arguments  string // Text between the parentheses
	Body       string // "{...}" for definitions, ";" for prototypes
}

// String reassembles the function's source text.
func (f *Function) String() string {
	return f.ReturnType + " " + f.Name + "(" + f.Arguments + ")" + f.Body
}

// IsMain reports whether f is a shader entry point.
func (f *Function) IsMain() bool {
	return f.Name == "main"
}

// Struct is a struct definition.
type Struct struct {
	Name    string
	Members []Member
	Body    string // Text between the braces
	Tail    string // Text after '}' up to and including ';'
}

// String reassembles the struct's source text.
func (s *Struct) String() string {
	return "struct " + s.Name + "{" + s.Body + "}" + s.Tail
}

// Member is a struct member declaration.
type Member struct {
	Type string
	Name string
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

// Qualifier is a storage qualifier of a global declaration.
type Qualifier uint8

const (
	Uniform Qualifier = iota
	Attribute
	Varying
	Const
)

// Qualifiers lists every qualifier in allocation order.
var Qualifiers = []Qualifier{Uniform, Attribute, Varying, Const}

func (q Qualifier) String() string {
	switch q {
	case Uniform:
		return "uniform"
	case Attribute:
		return "attribute"
	case Varying:
		return "varying"
	case Const:
		return "const"
	default:
		return "unknown"
	}
}

// ParseQualifier converts a keyword to a Qualifier.
func ParseQualifier(s string) (Qualifier, bool) {
	switch s {
	case "uniform":
		return Uniform, true
	case "attribute":
		return Attribute, true
	case "varying":
		return Varying, true
	case "const":
		return Const, true
	}
	return 0, false
}

// Global is a qualifier-tagged top-level declaration.
type Global struct {
	Qualifier   Qualifier
	Type        string
	Name        string
	ArraySuffix string // "[4]" or ""
}

// Macro is a #define directive.
type Macro struct {
	RawLine    string
	Name       string
	Params     []string // Non-nil for function-like macros
	Value      string
	Resolved   string // Literal the value evaluated to
	IsResolved bool
}

// IsFunctionLike reports whether the macro takes parameters.
func (m *Macro) IsFunctionLike() bool {
	return m.Params != nil
}

// ----------------------------------------------------------------------------
// Shader
// ----------------------------------------------------------------------------

// Shader is one source of the batch.
type Shader struct {
	Index  int // Position in the input batch
	Chunks []Chunk
}

// Text concatenates the shader's chunks.
func (s *Shader) Text() string {
	var sb strings.Builder
	for i := range s.Chunks {
		sb.WriteString(s.Chunks[i].String())
	}
	return sb.String()
}

// Functions returns the function and prototype chunks in source order.
func (s *Shader) Functions() []*Function {
	var out []*Function
	for i := range s.Chunks {
		if f := s.Chunks[i].Function; f != nil {
			out = append(out, f)
		}
	}
	return out
}

// Structs returns the struct definitions in source order.
func (s *Shader) Structs() []*Struct {
	var out []*Struct
	for i := range s.Chunks {
		if st := s.Chunks[i].Struct; st != nil {
			out = append(out, st)
		}
	}
	return out
}

// Transform applies fn to every piece of text the shader owns: residual
// text, function headers, arguments and bodies, struct bodies and tails.
// Function and struct names are left alone.
func (s *Shader) Transform(fn func(string) string) {
	for i := range s.Chunks {
		c := &s.Chunks[i]
		switch c.Kind {
		case ChunkFunction, ChunkPrototype:
			c.Function.ReturnType = fn(c.Function.ReturnType)
			c.Function.Arguments = fn(c.Function.Arguments)
			c.Function.Body = fn(c.Function.Body)
		case ChunkStruct:
			c.Struct.Body = fn(c.Struct.Body)
			c.Struct.Tail = fn(c.Struct.Tail)
		default:
			c.Text = fn(c.Text)
		}
	}
}
