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
package ast

import (
	"github.com/shad-lang/shad/pkg/util/source"
)

// Names under which operators are registered as functions.  Binary and unary
// operators are desugared at parse time into calls of these, so that the
// whole analysis only ever deals with function calls.
const (
	AddFn = "__add__"
	SubFn = "__sub__"
	MulFn = "__mul__"
	DivFn = "__div__"
	ModFn = "__mod__"
	EqFn  = "__eq__"
	NeFn  = "__ne__"
	GtFn  = "__gt__"
	LtFn  = "__lt__"
	GeFn  = "__ge__"
	LeFn  = "__le__"
	AndFn = "__and__"
	OrFn  = "__or__"
	NegFn = "__neg__"
	NotFn = "__not__"
)

// BinaryFns lists the operator functions which require exactly two
// parameters.
var BinaryFns = []string{
	AddFn, SubFn, MulFn, DivFn, ModFn, EqFn, NeFn, GtFn, LtFn, GeFn, LeFn, AndFn, OrFn,
}

// UnaryFns lists the operator functions which require exactly one parameter.
var UnaryFns = []string{NegFn, NotFn}

// IdentKind distinguishes the syntactic role of an identifier occurrence.
// Rewrites use it to decide which occurrences participate in variable
// renaming.
type IdentKind uint8

const (
	// IdentOther marks a value occurrence (variable, parameter, buffer or
	// constant use).
	IdentOther IdentKind = iota
	// IdentVarDef marks the defining occurrence of a local variable.
	IdentVarDef
	// IdentFnRef marks the callee name of a function call.
	IdentFnRef
	// IdentFieldRef marks a field within a field access chain.
	IdentFieldRef
)

// Ident is a single identifier occurrence.  Its id is unique across the whole
// program and keys the resolution table.
type Ident struct {
	Span  source.Span
	Label string
	Id    uint64
	Kind  IdentKind
}

// LiteralKind identifies the type a literal takes directly from its lexical
// form.
type LiteralKind uint8

const (
	// LitI32 is a plain integer literal.
	LitI32 LiteralKind = iota
	// LitU32 is an integer literal with the `u` suffix.
	LitU32
	// LitF32 is a literal containing `.`.
	LitF32
	// LitBool is `true` or `false`.
	LitBool
)

// Literal is a numeric or boolean literal.  Value holds the original lexical
// text, including digit separators and any suffix until normalization.
type Literal struct {
	Span  source.Span
	Value string
	Kind  LiteralKind
}

// FnCall is a function call, including desugared operator applications.
type FnCall struct {
	Span source.Span
	// Callee name; its id keys the resolved overload.
	Name Ident
	// Optional generic arguments.
	Generics []Expr
	// Positional arguments.
	Args []Expr
}

// ExprRoot is the root of an expression: an identifier, a function call, or a
// literal.
type ExprRoot interface {
	isExprRoot()
	// SpanOf returns the source span of this root.
	SpanOf() source.Span
}

func (p *Ident) isExprRoot()   {}
func (p *FnCall) isExprRoot()  {}
func (p *Literal) isExprRoot() {}

// SpanOf returns the source span of this identifier.
func (p *Ident) SpanOf() source.Span { return p.Span }

// SpanOf returns the source span of this call.
func (p *FnCall) SpanOf() source.Span { return p.Span }

// SpanOf returns the source span of this literal.
func (p *Literal) SpanOf() source.Span { return p.Span }

// Expr is a root followed by an optional field access chain.
type Expr struct {
	Span   source.Span
	Root   ExprRoot
	Fields []Ident
}

// IsIdentPath reports whether this expression is a plain identifier path,
// i.e. an identifier root followed only by fields.
func (p *Expr) IsIdentPath() bool {
	_, ok := p.Root.(*Ident)
	return ok
}

// RootIdent returns the root identifier of this expression, or nil when the
// root is not an identifier.
func (p *Expr) RootIdent() *Ident {
	if ident, ok := p.Root.(*Ident); ok {
		return ident
	}
	//
	return nil
}

// Clone produces a deep copy of this expression.  Identifier ids are
// preserved, since occurrence-table entries describe every copy equally.
func (p *Expr) Clone() *Expr {
	clone := &Expr{p.Span, cloneRoot(p.Root), append([]Ident(nil), p.Fields...)}
	return clone
}

func cloneRoot(root ExprRoot) ExprRoot {
	switch root := root.(type) {
	case *Ident:
		r := *root
		return &r
	case *Literal:
		r := *root
		return &r
	case *FnCall:
		r := FnCall{root.Span, root.Name, cloneExprs(root.Generics), cloneExprs(root.Args)}
		return &r
	}
	//
	panic("unreachable")
}

func cloneExprs(exprs []Expr) []Expr {
	clones := make([]Expr, len(exprs))
	//
	for i := range exprs {
		clones[i] = *exprs[i].Clone()
	}
	//
	return clones
}

// ============================================================================
// Statements
// ============================================================================

// Statement is one statement within a function body or a run block.
type Statement interface {
	isStatement()
	// SpanOf returns the source span of this statement.
	SpanOf() source.Span
}

// VarDefinition is `var name = expr;` or `ref name = expr;`.
type VarDefinition struct {
	Span source.Span
	Name Ident
	// Ref-qualified variables alias a place rather than copying a value.
	IsRef bool
	Expr  Expr
}

// Assignment is `left = expr;` where left is an identifier path, or
// (before left-value extraction) a call followed by fields.
type Assignment struct {
	Span source.Span
	Left Expr
	Expr Expr
}

// Return is `return expr;`.
type Return struct {
	Span source.Span
	Expr Expr
}

// FnCallStatement is a bare call statement `f(...);`.
type FnCallStatement struct {
	Span source.Span
	Call FnCall
}

func (p *VarDefinition) isStatement()   {}
func (p *Assignment) isStatement()      {}
func (p *Return) isStatement()          {}
func (p *FnCallStatement) isStatement() {}

// SpanOf returns the source span of this definition.
func (p *VarDefinition) SpanOf() source.Span { return p.Span }

// SpanOf returns the source span of this assignment.
func (p *Assignment) SpanOf() source.Span { return p.Span }

// SpanOf returns the source span of this statement.
func (p *Return) SpanOf() source.Span { return p.Span }

// SpanOf returns the source span of this statement.
func (p *FnCallStatement) SpanOf() source.Span { return p.Span }

// ============================================================================
// Items
// ============================================================================

// Item is a top-level declaration within a source file.
type Item interface {
	isItem()
	// SpanOf returns the source span of this item.
	SpanOf() source.Span
}

// Import brings another module into scope, e.g. `import a.b.c;`.  Leading
// `~` segments navigate to the parent of the importing module.
type Import struct {
	Span source.Span
	// Number of leading `~` segments.
	ParentCount int
	Segments    []Ident
}

// Buffer is `buf name = expr;`, a persistent GPU-visible value.
type Buffer struct {
	Span  source.Span
	IsPub bool
	Name  Ident
	Value Expr
}

// Constant is `const NAME = expr;`, evaluated at compile time.
type Constant struct {
	Span  source.Span
	IsPub bool
	Name  Ident
	Value Expr
}

// GenericParam is one generic parameter of a function or struct.  A type
// parameter has no declared type; a constant parameter carries one.
type GenericParam struct {
	Span source.Span
	Name Ident
	// Declared type for constant parameters, nil for type parameters.
	Type *Ident
}

// TypeRef is a type usage: a name with optional generic arguments, and an
// optional `ref` qualifier in return position.
type TypeRef struct {
	Span     source.Span
	Name     Ident
	Generics []Expr
	IsRef    bool
}

// FnParam is one function parameter.
type FnParam struct {
	Span source.Span
	Name Ident
	Type TypeRef
}

// Fn is a function item.  Gpu functions are externally provided and carry no
// body; const functions can be evaluated at compile time.
type Fn struct {
	Span    source.Span
	IsPub   bool
	IsConst bool
	IsGpu   bool
	Name    Ident
	// Optional generic parameters.
	Generics []GenericParam
	Params   []FnParam
	// Nil when the function returns nothing.
	ReturnType *TypeRef
	Statements []Statement
}

// StructField is one field of a struct item.
type StructField struct {
	Span source.Span
	Name Ident
	Type TypeRef
}

// Struct is a user-defined type.
type Struct struct {
	Span     source.Span
	IsPub    bool
	Name     Ident
	Generics []GenericParam
	Fields   []StructField
}

// Run is a `run` block compiled into a step shader, or an `init` block
// executed once at startup.  The id orders blocks of equal priority.
type Run struct {
	Span source.Span
	Id   uint64
	// Nil when no priority was given.
	Priority *int32
	// True for `init` blocks.
	IsInit     bool
	Statements []Statement
}

func (p *Import) isItem()   {}
func (p *Buffer) isItem()   {}
func (p *Constant) isItem() {}
func (p *Fn) isItem()       {}
func (p *Struct) isItem()   {}
func (p *Run) isItem()      {}

// SpanOf returns the source span of this item.
func (p *Import) SpanOf() source.Span { return p.Span }

// SpanOf returns the source span of this item.
func (p *Buffer) SpanOf() source.Span { return p.Span }

// SpanOf returns the source span of this item.
func (p *Constant) SpanOf() source.Span { return p.Span }

// SpanOf returns the source span of this item.
func (p *Fn) SpanOf() source.Span { return p.Span }

// SpanOf returns the source span of this item.
func (p *Struct) SpanOf() source.Span { return p.Span }

// SpanOf returns the source span of this item.
func (p *Run) SpanOf() source.Span { return p.Span }

// PriorityOrDefault returns the declared priority of this run block, or zero.
func (p *Run) PriorityOrDefault() int32 {
	if p.Priority == nil {
		return 0
	}
	//
	return *p.Priority
}

// Root is the syntax tree of one source file.
type Root struct {
	Items []Item
}
