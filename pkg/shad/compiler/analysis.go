// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package compiler

import (
	"fmt"
	"strings"

	"github.com/shad-lang/shad/pkg/shad/ast"
	"github.com/shad-lang/shad/pkg/util/source"
)

// Builtin type names.
const (
	// F32Type is the 32-bit floating point type name.
	F32Type = "f32"
	// U32Type is the 32-bit unsigned integer type name.
	U32Type = "u32"
	// I32Type is the 32-bit signed integer type name.
	I32Type = "i32"
	// BoolType is the boolean type name.
	BoolType = "bool"
)

// PreludeModule is the module name under which the built-in prelude source is
// merged into the compilation input.
const PreludeModule = "prelude"

// BufferId identifies a buffer by its defining module and name.
type BufferId struct {
	Module string
	Name   string
}

func (id BufferId) String() string {
	return id.Module + "." + id.Name
}

// ConstantId identifies a constant by its defining module and name.
type ConstantId struct {
	Module string
	Name   string
}

func (id ConstantId) String() string {
	return id.Module + "." + id.Name
}

// FnId identifies one function overload: the defining module, the name, the
// parameter type list and the generic argument list.
type FnId struct {
	Module string
	Name   string
	// Comma-joined parameter type ids.
	Params string
	// Comma-joined generic arguments.
	Generics string
}

func (id FnId) String() string {
	return fmt.Sprintf("%s.%s(%s)", id.Module, id.Name, id.Params)
}

// TypeId identifies a type.  Built-in types have an empty module; user types
// carry their defining module.  The zero TypeId is the "no return" sentinel.
type TypeId struct {
	Module   string
	Name     string
	Generics string
}

// BuiltinTypeId constructs the id of a built-in type.
func BuiltinTypeId(name string) TypeId {
	return TypeId{Name: name}
}

// IsValid reports whether this id denotes an actual type, as opposed to the
// "no return" sentinel.
func (id TypeId) IsValid() bool {
	return id.Name != ""
}

// IsBuiltin reports whether this id denotes a built-in type.
func (id TypeId) IsBuiltin() bool {
	return id.Module == ""
}

func (id TypeId) String() string {
	name := id.Name
	//
	if id.Module != "" {
		name = id.Module + "." + name
	}
	//
	if id.Generics != "" {
		name = name + "<" + id.Generics + ">"
	}
	//
	return name
}

// JoinTypeIds produces the comma-joined form of a type id list, as used
// within function keys.
func JoinTypeIds(ids []TypeId) string {
	names := make([]string, len(ids))
	//
	for i, id := range ids {
		names[i] = id.String()
	}
	//
	return strings.Join(names, ", ")
}

// ============================================================================
// Identifier occurrences
// ============================================================================

// IdentSource distinguishes what an identifier occurrence resolved to.
type IdentSource uint8

const (
	// SourceVar marks a local variable use; Var holds the definition id.
	SourceVar IdentSource = iota
	// SourceParam marks a parameter use; Var holds the parameter name id.
	SourceParam
	// SourceBuffer marks a buffer use.
	SourceBuffer
	// SourceConstant marks a constant use.
	SourceConstant
	// SourceFn marks a callee name.
	SourceFn
	// SourceField marks a struct field within a field chain.
	SourceField
)

// IdentInfo is one entry of the identifier occurrence table, mapping an
// identifier occurrence to the item it refers to and the type it takes.
type IdentInfo struct {
	Source IdentSource
	// Definition node id, for variables and parameters.
	Var uint64
	// Referred item, for the respective sources.
	Buffer   BufferId
	Constant ConstantId
	Fn       FnId
	// Type taken by the occurrence; the zero id when unknown or unit.
	Type TypeId
	// Whether the occurrence has reference semantics.
	IsRef bool
}

// ============================================================================
// Items
// ============================================================================

// Buffer is an analyzed buffer item.
type Buffer struct {
	Id BufferId
	// Position in the global buffer order; stable across compilation.
	Index int
	Ast   *ast.Buffer
	// Type of the init expression, once resolved.
	Type TypeId
}

// Constant is an analyzed constant item.
type Constant struct {
	Id  ConstantId
	Ast *ast.Constant
	// Evaluated value, or nil when evaluation failed.
	Value *ConstantValue
}

// GenericParamInfo is one registered generic parameter.
type GenericParamInfo struct {
	Name string
	// Whether this is a constant parameter (as opposed to a type parameter).
	IsConst bool
	// Declared type of a constant parameter.
	Type TypeId
	Ast  *ast.GenericParam
}

// Function is an analyzed function overload.
type Function struct {
	Id  FnId
	Ast *ast.Fn
	// Declared parameter types, in order.
	ParamTypes []TypeId
	// Declared return type; the zero id when none.
	ReturnType TypeId
	// Whether the function returns a reference.
	ReturnsRef bool
	// Whether the function body has been inlined into its callers.
	IsInlined bool
	Generics  []GenericParamInfo
}

// TypeField is one analyzed struct field.
type TypeField struct {
	Name string
	Type TypeId
	// Alias flag; nothing sets it, and no struct constructors are emitted.
	IsAlias bool
	Ast     *ast.StructField
}

// Type is an analyzed type.
type Type struct {
	Id TypeId
	// Nil for built-in types.
	Ast *ast.Struct
	// Ordered fields.
	Fields []TypeField
	// The name used for storage buffers of this type.
	BufName string
	// The name used for expressions of this type.
	ExprName string
	// The size in bytes of this type.
	Size     int
	Generics []GenericParamInfo
}

// FieldNamed returns the field of this type with a given name, or nil.
func (t *Type) FieldNamed(name string) *TypeField {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	//
	return nil
}

// ============================================================================
// Run blocks and shaders
// ============================================================================

// BufferInitBlock is the synthesized statement block initializing one buffer.
type BufferInitBlock struct {
	Buffer BufferId
	Ast    *ast.Run
}

// RunBlock is an analyzed `run` or `init` block.
type RunBlock struct {
	Module string
	Ast    *ast.Run
}

// Priority returns the declared priority of this block, or zero.
func (p *RunBlock) Priority() int32 {
	return p.Ast.PriorityOrDefault()
}

// ComputeShader is one assembled compute shader.
type ComputeShader struct {
	// Shader name, used for diagnostics and in the CLI's shader listings.
	Name   string
	Module string
	// Span of the originating block or buffer.
	Span source.Span
	// The buffers bound by the shader, in binding order.
	BufferIds []BufferId
	// The functions used by the shader.
	Fns []FnId
	// The types used by the shader.
	Types []TypeId
	// The statements of the shader body.
	Statements []ast.Statement
}

// ============================================================================
// Analysis
// ============================================================================

// Analysis is the compilation context threaded through every pass: the item
// tables, the identifier occurrence table, the accumulated errors and the id
// counter.  Later passes read state written by earlier ones; mutations are
// never concurrent.
type Analysis struct {
	// Source files by module name.
	Files map[string]*source.File
	// Parsed syntax trees by module name.
	Asts map[string]*ast.Root
	// Module names in deterministic compilation order.
	Modules []string
	// Visibility list per module: the module itself followed by its imports
	// in reverse textual order, then the prelude.
	VisibleModules map[string][]string

	Buffers     map[BufferId]*Buffer
	BufferOrder []BufferId

	Constants     map[ConstantId]*Constant
	ConstantOrder []ConstantId

	Fns     map[FnId]*Function
	FnOrder []FnId

	Types     map[TypeId]*Type
	TypeOrder []TypeId

	// Identifier occurrence table, keyed by node id.
	Idents map[uint64]*IdentInfo

	InitBlocks []*BufferInitBlock
	// Startup (`init`) blocks, executed once after buffer initialization.
	StartupBlocks []*RunBlock
	RunBlocks     []*RunBlock

	InitShaders []*ComputeShader
	StepShaders []*ComputeShader

	Errors  []source.SemanticError
	counter *Counter
}

// NewAnalysis constructs an empty analysis sharing the parser's id counter.
func NewAnalysis(counter *Counter) *Analysis {
	return &Analysis{
		Files:          make(map[string]*source.File),
		Asts:           make(map[string]*ast.Root),
		VisibleModules: make(map[string][]string),
		Buffers:        make(map[BufferId]*Buffer),
		Constants:      make(map[ConstantId]*Constant),
		Fns:            make(map[FnId]*Function),
		Types:          make(map[TypeId]*Type),
		Idents:         make(map[uint64]*IdentInfo),
		counter:        counter,
	}
}

// NextId allocates a fresh node id for a synthesized node.
func (a *Analysis) NextId() uint64 {
	return a.counter.Next()
}

// Error appends a semantic error to the shared error list.
func (a *Analysis) Error(err source.SemanticError) {
	a.Errors = append(a.Errors, err)
}

// Ident returns the occurrence entry of a given identifier, or nil when the
// identifier never resolved.
func (a *Analysis) Ident(ident *ast.Ident) *IdentInfo {
	return a.Idents[ident.Id]
}

// ExprTypeName renders a type id for error messages, or `<no return>` for
// the sentinel.
func ExprTypeName(id TypeId) string {
	if !id.IsValid() {
		return "<no return>"
	}
	//
	return id.String()
}
