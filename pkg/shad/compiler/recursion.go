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
	"slices"

	"github.com/shad-lang/shad/pkg/shad/ast"
)

// Recursion detection runs four separate depth-first walks, one per edge
// kind: buffer to buffer through init expressions, constant to constant
// through init expressions, function to function through call sites, and type
// to type through struct fields.  Each walk maintains a stack of usages; a
// cycle is reported when the walk re-enters the item it started from, so
// every participant of a cycle reports it once, with its own primary span.
// Items merely reaching a foreign cycle never report it, and a reported item
// joins an errored set so overlapping cycles are not reported again from the
// same entry point.

type recursionCheck[I comparable] struct {
	a *Analysis
	// Item whose walk is in progress.
	current I
	kind    string
	// Usage stack and the matching item ids.
	stack    []UsedItem
	stackIds []I
	errored  map[I]bool
}

func newRecursionCheck[I comparable](a *Analysis, kind string) *recursionCheck[I] {
	return &recursionCheck[I]{a: a, kind: kind, errored: make(map[I]bool)}
}

// Enter one usage edge.  When the edge closes a cycle the walk stops
// descending; it descends into the used item otherwise.
func (c *recursionCheck[I]) enter(id I, usage UsedItem, recurse func()) {
	c.stack = append(c.stack, usage)
	c.stackIds = append(c.stackIds, id)
	//
	if id == c.current {
		// The walk returned to its entry point.
		if !c.errored[c.current] {
			c.errored[c.current] = true
			c.a.Error(errRecursion(c.kind, usage.Name, c.stack))
		}
	} else if !slices.Contains(c.stackIds[:len(c.stackIds)-1], id) {
		// Not a foreign cycle, keep descending.
		recurse()
	}
	//
	c.stack = c.stack[:len(c.stack)-1]
	c.stackIds = c.stackIds[:len(c.stackIds)-1]
}

// ============================================================================
// Buffers
// ============================================================================

// CheckBufferRecursion reports buffers which transitively reference
// themselves through their init expressions, including through function
// calls.
func CheckBufferRecursion(a *Analysis) {
	check := newRecursionCheck[BufferId](a, "buffer")
	//
	for _, id := range a.BufferOrder {
		check.current = id
		visitor := &bufferRecursion{check: check}
		ast.WalkExpr(visitor, &a.Buffers[id].Ast.Value)
	}
}

type bufferRecursion struct {
	ast.NopVisitor
	check *recursionCheck[BufferId]
	// Functions already descended into; call cycles are reported by the
	// function walk, not here.
	visited []FnId
}

func (v *bufferRecursion) EnterFnCall(call *ast.FnCall) {
	fn := ResolvedFn(v.check.a, call)
	//
	if fn == nil || fn.Ast.IsGpu || containsFnId(v.visited, fn.Id) {
		return
	}
	//
	v.visited = append(v.visited, fn.Id)
	ast.WalkStatements(v, fn.Ast.Statements)
	v.visited = v.visited[:len(v.visited)-1]
}

func (v *bufferRecursion) EnterIdent(ident *ast.Ident) {
	info := v.check.a.Ident(ident)
	//
	if info == nil || info.Source != SourceBuffer {
		return
	}
	//
	target := v.check.a.Buffers[info.Buffer]
	usage := UsedItem{
		UsageSpan: ident.Span,
		DefSpan:   target.Ast.Name.Span,
		Name:      target.Id.String(),
	}
	//
	v.check.enter(info.Buffer, usage, func() {
		ast.WalkExpr(v, &target.Ast.Value)
	})
}

// ============================================================================
// Constants
// ============================================================================

// CheckConstantRecursion reports constants which transitively reference
// themselves through their init expressions.
func CheckConstantRecursion(a *Analysis) {
	check := newRecursionCheck[ConstantId](a, "constant")
	//
	for _, id := range a.ConstantOrder {
		check.current = id
		visitor := &constantRecursion{check: check}
		ast.WalkExpr(visitor, &a.Constants[id].Ast.Value)
	}
}

type constantRecursion struct {
	ast.NopVisitor
	check *recursionCheck[ConstantId]
	// Functions already descended into; call cycles are reported by the
	// function walk, not here.
	visited []FnId
}

func (v *constantRecursion) EnterFnCall(call *ast.FnCall) {
	fn := ResolvedFn(v.check.a, call)
	//
	if fn == nil || fn.Ast.IsGpu || containsFnId(v.visited, fn.Id) {
		return
	}
	//
	v.visited = append(v.visited, fn.Id)
	ast.WalkStatements(v, fn.Ast.Statements)
	v.visited = v.visited[:len(v.visited)-1]
}

func (v *constantRecursion) EnterIdent(ident *ast.Ident) {
	info := v.check.a.Ident(ident)
	//
	if info == nil || info.Source != SourceConstant {
		return
	}
	//
	target := v.check.a.Constants[info.Constant]
	usage := UsedItem{
		UsageSpan: ident.Span,
		DefSpan:   target.Ast.Name.Span,
		Name:      target.Id.String(),
	}
	//
	v.check.enter(info.Constant, usage, func() {
		ast.WalkExpr(v, &target.Ast.Value)
	})
}

// ============================================================================
// Functions
// ============================================================================

// CheckFnRecursion reports functions which transitively call themselves.
func CheckFnRecursion(a *Analysis) {
	check := newRecursionCheck[FnId](a, "function")
	//
	for _, id := range a.FnOrder {
		check.current = id
		visitor := &fnRecursion{check: check}
		ast.WalkStatements(visitor, a.Fns[id].Ast.Statements)
	}
}

type fnRecursion struct {
	ast.NopVisitor
	check *recursionCheck[FnId]
}

func (v *fnRecursion) EnterFnCall(call *ast.FnCall) {
	fn := ResolvedFn(v.check.a, call)
	//
	if fn == nil {
		return
	}
	//
	usage := UsedItem{
		UsageSpan: call.Name.Span,
		DefSpan:   fn.Ast.Name.Span,
		Name:      fn.Id.String(),
	}
	//
	v.check.enter(fn.Id, usage, func() {
		ast.WalkStatements(v, fn.Ast.Statements)
	})
}

// ============================================================================
// Types
// ============================================================================

// CheckTypeRecursion reports struct types which transitively contain
// themselves through field types.
func CheckTypeRecursion(a *Analysis) {
	check := newRecursionCheck[TypeId](a, "type")
	//
	for _, id := range a.TypeOrder {
		t := a.Types[id]
		//
		if t.Ast == nil {
			continue
		}
		//
		check.current = id
		visitTypeFields(check, t)
	}
}

func visitTypeFields(check *recursionCheck[TypeId], t *Type) {
	for i := range t.Fields {
		field := &t.Fields[i]
		fieldType, ok := check.a.Types[field.Type]
		//
		if !ok || fieldType.Ast == nil {
			continue
		}
		//
		usage := UsedItem{
			UsageSpan: field.Ast.Type.Span,
			DefSpan:   fieldType.Ast.Name.Span,
			Name:      fieldType.Id.String(),
		}
		//
		check.enter(fieldType.Id, usage, func() {
			visitTypeFields(check, fieldType)
		})
	}
}
