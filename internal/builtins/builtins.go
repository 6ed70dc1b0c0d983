// Package builtins defines the GLSL vocabulary the minifier needs to know
// about: built-in type names, storage and precision qualifiers, keywords,
// built-in functions and variables, and swizzle component sets.
//
// Nothing in here is renamed. The tables feed the structural scanner (which
// needs to recognize a type token before a function header), the renamer
// (which must never hand out a reserved name) and the keyword macro
// synthesizer (which picks its candidates from them).
package builtins

import (
	"regexp"
	"strings"
)

// ----------------------------------------------------------------------------
// Types
// ----------------------------------------------------------------------------

// TypePatterns are regular-expression fragments matching every built-in
// GLSL type that can start a declaration. They are joined into one
// alternation together with user struct names.
var TypePatterns = []string{
	"void", "bool", "u?int", "float", "double",
	"(?:b|i|u|d)?vec[2-4]",
	"d?mat[2-4](?:x[2-4])?",
	"(?:i|u)?sampler[1-3]D",
	"(?:i|u)?samplerCube(?:Array)?",
	"(?:i|u)?sampler2DRect",
	"(?:i|u)?sampler[1-2]DArray",
	"(?:i|u)?samplerBuffer",
	"(?:i|u)?sampler2DMS(?:Array)?",
	"sampler[1-2]DShadow",
	"samplerCubeShadow",
	"sampler2DRectShadow",
	"sampler[1-2]DArrayShadow",
	"samplerCubeArrayShadow",
	"samplerExternalOES",
	"(?:i|u)?image[1-3]D",
	"(?:i|u)?imageCube(?:Array)?",
	"(?:i|u)?image2DRect",
	"(?:i|u)?image[1-2]DArray",
	"(?:i|u)?imageBuffer",
	"(?:i|u)?image2DMS(?:Array)?",
	"atomic_uint",
}

var builtinTypeRe = regexp.MustCompile(`^(?:` + strings.Join(TypePatterns, "|") + `)$`)

// IsBuiltinType reports whether name is a built-in GLSL type.
func IsBuiltinType(name string) bool {
	return builtinTypeRe.MatchString(name)
}

// ----------------------------------------------------------------------------
// Qualifiers
// ----------------------------------------------------------------------------

// PrecisionPattern matches an optional precision qualifier followed by
// whitespace.
const PrecisionPattern = `(?:(?:highp|mediump|lowp)\s+)?`

// ----------------------------------------------------------------------------
// Keywords
// ----------------------------------------------------------------------------

// Keywords contains GLSL keywords and reserved words (GLSL 4.60 and
// GLSL ES 3.20, including future-reserved words).
var Keywords = map[string]bool{
	"attribute": true, "const": true, "uniform": true, "varying": true,
	"buffer": true, "shared": true, "coherent": true, "volatile": true,
	"restrict": true, "readonly": true, "writeonly": true,
	"layout": true, "centroid": true, "flat": true, "smooth": true,
	"noperspective": true, "patch": true, "sample": true, "invariant": true,
	"precise": true, "break": true, "continue": true, "do": true, "for": true,
	"while": true, "switch": true, "case": true, "default": true, "if": true,
	"else": true, "subroutine": true, "in": true, "out": true, "inout": true,
	"true": true, "false": true, "discard": true, "return": true,
	"lowp": true, "mediump": true, "highp": true, "precision": true,
	"struct": true, "main": true,

	// Reserved for future use
	"common": true, "partition": true, "active": true, "asm": true,
	"class": true, "union": true, "enum": true, "typedef": true,
	"template": true, "this": true, "resource": true, "goto": true,
	"inline": true, "noinline": true, "public": true, "static": true,
	"extern": true, "external": true, "interface": true, "long": true,
	"short": true, "half": true, "fixed": true, "unsigned": true,
	"superp": true, "input": true, "output": true, "hvec2": true,
	"hvec3": true, "hvec4": true, "fvec2": true, "fvec3": true,
	"fvec4": true, "filter": true, "sizeof": true, "cast": true,
	"namespace": true, "using": true, "sampler3DRect": true,

	// Preprocessor operators and predefined macros
	"defined": true, "__LINE__": true, "__FILE__": true, "__VERSION__": true,
	"GL_ES": true, "GL_FRAGMENT_PRECISION_HIGH": true,
}

// BuiltinFunctions lists GLSL built-in functions (ES 1.00 through 4.60).
var BuiltinFunctions = []string{
	"radians", "degrees", "sin", "cos", "tan", "asin", "acos", "atan",
	"sinh", "cosh", "tanh", "asinh", "acosh", "atanh",
	"pow", "exp", "log", "exp2", "log2", "sqrt", "inversesqrt",
	"abs", "sign", "floor", "trunc", "round", "roundEven", "ceil", "fract",
	"mod", "modf", "min", "max", "clamp", "mix", "step", "smoothstep",
	"isnan", "isinf", "floatBitsToInt", "floatBitsToUint",
	"intBitsToFloat", "uintBitsToFloat", "fma", "frexp", "ldexp",
	"packUnorm2x16", "packSnorm2x16", "packUnorm4x8", "packSnorm4x8",
	"unpackUnorm2x16", "unpackSnorm2x16", "unpackUnorm4x8", "unpackSnorm4x8",
	"packHalf2x16", "unpackHalf2x16", "packDouble2x32", "unpackDouble2x32",
	"length", "distance", "dot", "cross", "normalize", "faceforward",
	"reflect", "refract", "matrixCompMult", "outerProduct", "transpose",
	"determinant", "inverse", "lessThan", "lessThanEqual", "greaterThan",
	"greaterThanEqual", "equal", "notEqual", "any", "all", "not",
	"uaddCarry", "usubBorrow", "umulExtended", "imulExtended",
	"bitfieldExtract", "bitfieldInsert", "bitfieldReverse", "bitCount",
	"findLSB", "findMSB",
	"texture", "textureSize", "textureQueryLod", "textureQueryLevels",
	"textureSamples", "textureProj", "textureLod", "textureOffset",
	"texelFetch", "texelFetchOffset", "textureProjOffset",
	"textureLodOffset", "textureProjLod", "textureProjLodOffset",
	"textureGrad", "textureGradOffset", "textureProjGrad",
	"textureProjGradOffset", "textureGather", "textureGatherOffset",
	"textureGatherOffsets",
	"texture1D", "texture2D", "texture3D", "textureCube",
	"texture2DProj", "texture2DLod", "texture2DProjLod", "textureCubeLod",
	"shadow2D", "shadow2DProj",
	"dFdx", "dFdy", "dFdxFine", "dFdyFine", "dFdxCoarse", "dFdyCoarse",
	"fwidth", "fwidthFine", "fwidthCoarse",
	"interpolateAtCentroid", "interpolateAtSample", "interpolateAtOffset",
	"noise1", "noise2", "noise3", "noise4",
	"EmitStreamVertex", "EndStreamPrimitive", "EmitVertex", "EndPrimitive",
	"barrier", "memoryBarrier", "groupMemoryBarrier",
	"atomicAdd", "atomicMin", "atomicMax", "atomicAnd", "atomicOr",
	"atomicXor", "atomicExchange", "atomicCompSwap",
	"atomicCounter", "atomicCounterIncrement", "atomicCounterDecrement",
	"imageLoad", "imageStore", "imageSize", "imageSamples",
	"imageAtomicAdd", "imageAtomicMin", "imageAtomicMax", "imageAtomicAnd",
	"imageAtomicOr", "imageAtomicXor", "imageAtomicExchange",
	"imageAtomicCompSwap",
}

// BuiltinVariables lists the gl_-prefixed variables plus the struct members
// of built-in blocks reached through member access.
var BuiltinVariables = []string{
	"gl_Position", "gl_PointSize", "gl_ClipDistance", "gl_CullDistance",
	"gl_VertexID", "gl_InstanceID", "gl_VertexIndex", "gl_InstanceIndex",
	"gl_FragCoord", "gl_FrontFacing", "gl_PointCoord", "gl_FragColor",
	"gl_FragData", "gl_FragDepth", "gl_SampleID", "gl_SamplePosition",
	"gl_SampleMask", "gl_SampleMaskIn", "gl_PrimitiveID", "gl_Layer",
	"gl_ViewportIndex", "gl_NumWorkGroups", "gl_WorkGroupSize",
	"gl_WorkGroupID", "gl_LocalInvocationID", "gl_GlobalInvocationID",
	"gl_LocalInvocationIndex", "gl_DepthRange", "gl_MaxDrawBuffers",
	"gl_MaxVertexAttribs", "gl_MaxTextureImageUnits",
}

// BuiltinMembers are member names reachable on built-in variables
// (gl_DepthRange.near, array.length()). User struct members with these
// names keep them.
var BuiltinMembers = []string{"near", "far", "diff", "length"}

var builtinFunctionSet = func() map[string]bool {
	m := make(map[string]bool, len(BuiltinFunctions))
	for _, f := range BuiltinFunctions {
		m[f] = true
	}
	return m
}()

// IsBuiltinFunction reports whether name is a GLSL built-in function.
func IsBuiltinFunction(name string) bool {
	return builtinFunctionSet[name]
}

// Reserved returns a fresh set of every name the renamer must never
// produce: keywords, built-in functions, built-in variables and the
// built-in type names that can be enumerated.
func Reserved() map[string]bool {
	reserved := make(map[string]bool, len(Keywords)+len(BuiltinFunctions)+64)
	for kw := range Keywords {
		reserved[kw] = true
	}
	for _, f := range BuiltinFunctions {
		reserved[f] = true
	}
	for _, v := range BuiltinVariables {
		reserved[v] = true
	}
	for _, p := range []string{"", "b", "i", "u", "d"} {
		for n := 2; n <= 4; n++ {
			reserved[p+"vec"+string(rune('0'+n))] = true
		}
	}
	for _, p := range []string{"", "d"} {
		for r := 2; r <= 4; r++ {
			reserved[p+"mat"+string(rune('0'+r))] = true
			for c := 2; c <= 4; c++ {
				reserved[p+"mat"+string(rune('0'+r))+"x"+string(rune('0'+c))] = true
			}
		}
	}
	for _, t := range []string{"void", "bool", "int", "uint", "float", "double", "sampler2D", "samplerCube", "sampler3D"} {
		reserved[t] = true
	}
	return reserved
}

// ----------------------------------------------------------------------------
// Swizzles
// ----------------------------------------------------------------------------

// SwizzleSets are the three component naming sets of GLSL vectors.
var SwizzleSets = []string{"xyzw", "rgba", "stpq"}

// IsSwizzle reports whether name could be a vector swizzle: one to four
// characters, all drawn from the same component set.
func IsSwizzle(name string) bool {
	if len(name) == 0 || len(name) > 4 {
		return false
	}
	for _, set := range SwizzleSets {
		ok := true
		for i := 0; i < len(name); i++ {
			if strings.IndexByte(set, name[i]) < 0 {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// SwizzlePermutations returns every permutation without repetition of
// length 2 to 4 over each component set, in a fixed order.
func SwizzlePermutations() []string {
	var out []string
	for _, set := range SwizzleSets {
		for n := 2; n <= 4; n++ {
			permute(set, n, nil, make([]bool, len(set)), &out)
		}
	}
	return out
}

func permute(set string, n int, prefix []byte, used []bool, out *[]string) {
	if len(prefix) == n {
		*out = append(*out, string(prefix))
		return
	}
	for i := 0; i < len(set); i++ {
		if used[i] {
			continue
		}
		used[i] = true
		permute(set, n, append(prefix, set[i]), used, out)
		used[i] = false
	}
}
