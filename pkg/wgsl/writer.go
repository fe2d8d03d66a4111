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

// Package wgsl generates WGSL compute shader text from the lowered program
// representation.
package wgsl

import (
	"fmt"
	"strings"

	"github.com/shad-lang/shad/pkg/shad/ast"
	"github.com/shad-lang/shad/pkg/shad/compiler"
)

// Spaces per indentation level in emitted shader bodies.
const indentUnit = 4

// Binary and unary operator symbols, keyed by the operator function names.
var binaryOperators = map[string]string{
	ast.AddFn: "+", ast.SubFn: "-", ast.MulFn: "*", ast.DivFn: "/",
	ast.ModFn: "%", ast.EqFn: "==", ast.NeFn: "!=", ast.GtFn: ">",
	ast.LtFn: "<", ast.GeFn: ">=", ast.LeFn: "<=", ast.AndFn: "&&",
	ast.OrFn: "||",
}

var unaryOperators = map[string]string{
	ast.NegFn: "-", ast.NotFn: "!",
}

// EmitShader renders one compute shader as WGSL text: the buffer bindings,
// the struct and function definitions it uses (each definition preceding its
// users), and a `main` entry point holding the shader statements.
func EmitShader(a *compiler.Analysis, shader *compiler.ComputeShader) (string, error) {
	w := &writer{a: a}
	//
	var sections []string
	//
	if bindings := w.bufferBindings(shader); bindings != "" {
		sections = append(sections, bindings)
	}
	//
	if structs := w.structDefinitions(shader); structs != "" {
		sections = append(sections, structs)
	}
	//
	if fns := w.fnDefinitions(shader); fns != "" {
		sections = append(sections, fns)
	}
	//
	sections = append(sections, w.mainFn(shader))
	//
	return strings.Join(sections, "\n\n"), w.err
}

type writer struct {
	a   *compiler.Analysis
	err error
}

// Record an internal invariant violation; the first one wins.
func (w *writer) invalid(name string) {
	if w.err == nil {
		w.err = fmt.Errorf("internal error: identifier `%s` cannot be emitted in WGSL", name)
	}
}

func (w *writer) checkIdent(name string) string {
	if !IsIdentAccepted(name) {
		w.invalid(name)
	}
	//
	return name
}

// ============================================================================
// Sections
// ============================================================================

func (w *writer) bufferBindings(shader *compiler.ComputeShader) string {
	lines := make([]string, 0, len(shader.BufferIds))
	//
	for binding, id := range shader.BufferIds {
		buffer := w.a.Buffers[id]
		lines = append(lines, fmt.Sprintf(
			"@group(0) @binding(%d) var<storage, read_write> %s: %s;",
			binding, w.bufferName(buffer), w.typeName(buffer.Type, true)))
	}
	//
	return strings.Join(lines, "\n")
}

func (w *writer) structDefinitions(shader *compiler.ComputeShader) string {
	var (
		definitions []string
		emitted     = make(map[compiler.TypeId]bool)
	)
	// Emit depth-first so every definition precedes its users.
	var emit func(id compiler.TypeId)
	//
	emit = func(id compiler.TypeId) {
		t, ok := w.a.Types[id]
		//
		if !ok || t.Ast == nil || emitted[id] {
			return
		}
		//
		emitted[id] = true
		//
		for i := range t.Fields {
			emit(t.Fields[i].Type)
		}
		//
		definitions = append(definitions, w.structDefinition(t))
	}
	//
	for _, id := range shader.Types {
		emit(id)
	}
	//
	return strings.Join(definitions, "\n\n")
}

func (w *writer) structDefinition(t *compiler.Type) string {
	var builder strings.Builder
	//
	fmt.Fprintf(&builder, "struct %s {\n", w.checkIdent(t.ExprName))
	//
	for i := range t.Fields {
		fmt.Fprintf(&builder, "%s%s: %s,\n", indent(1),
			w.checkIdent(t.Fields[i].Name), w.typeName(t.Fields[i].Type, false))
	}
	//
	builder.WriteString("}")
	//
	return builder.String()
}

func (w *writer) fnDefinitions(shader *compiler.ComputeShader) string {
	var (
		definitions []string
		emitted     = make(map[compiler.FnId]bool)
	)
	// Emit callees before callers.
	var emit func(id compiler.FnId)
	//
	emit = func(id compiler.FnId) {
		fn, ok := w.a.Fns[id]
		//
		if !ok || fn.Ast.IsGpu || emitted[id] {
			return
		}
		//
		emitted[id] = true
		//
		for _, callee := range compiler.DirectCallees(w.a, fn.Ast.Statements) {
			if callee != id {
				emit(callee)
			}
		}
		//
		definitions = append(definitions, w.fnDefinition(fn))
	}
	//
	for _, id := range shader.Fns {
		emit(id)
	}
	//
	return strings.Join(definitions, "\n\n")
}

func (w *writer) fnDefinition(fn *compiler.Function) string {
	var builder strings.Builder
	//
	params := make([]string, len(fn.Ast.Params))
	//
	for i := range fn.Ast.Params {
		params[i] = fmt.Sprintf("%s: %s",
			w.checkIdent(fn.Ast.Params[i].Name.Label), w.typeName(fn.ParamTypes[i], false))
	}
	//
	fmt.Fprintf(&builder, "fn %s(%s)", w.fnName(fn), strings.Join(params, ", "))
	//
	if fn.ReturnType.IsValid() {
		fmt.Fprintf(&builder, " -> %s", w.typeName(fn.ReturnType, false))
	}
	//
	builder.WriteString(" {\n")
	w.statements(&builder, fn.Ast.Statements)
	builder.WriteString("\n}")
	//
	return builder.String()
}

func (w *writer) mainFn(shader *compiler.ComputeShader) string {
	var builder strings.Builder
	//
	builder.WriteString("@compute @workgroup_size(1, 1, 1) fn main() {\n")
	w.statements(&builder, shader.Statements)
	builder.WriteString("\n}")
	//
	return builder.String()
}

// ============================================================================
// Statements
// ============================================================================

func (w *writer) statements(builder *strings.Builder, statements []ast.Statement) {
	for i, statement := range statements {
		if i != 0 {
			builder.WriteString("\n")
		}
		//
		w.statement(builder, statement, 1)
	}
}

func (w *writer) statement(builder *strings.Builder, statement ast.Statement, level int) {
	switch statement := statement.(type) {
	case *ast.VarDefinition:
		fmt.Fprintf(builder, "%svar %s = %s;", indent(level),
			w.checkIdent(statement.Name.Label), w.expr(&statement.Expr))
	case *ast.Assignment:
		fmt.Fprintf(builder, "%s%s = %s;", indent(level),
			w.expr(&statement.Left), w.expr(&statement.Expr))
	case *ast.Return:
		fmt.Fprintf(builder, "%sreturn %s;", indent(level), w.expr(&statement.Expr))
	case *ast.FnCallStatement:
		fmt.Fprintf(builder, "%s%s;", indent(level), w.fnCall(&statement.Call))
	}
}

// ============================================================================
// Expressions
// ============================================================================

func (w *writer) expr(expr *ast.Expr) string {
	text := w.exprRoot(expr.Root)
	//
	for i := range expr.Fields {
		text += "." + w.checkIdent(expr.Fields[i].Label)
	}
	//
	return text
}

func (w *writer) exprRoot(root ast.ExprRoot) string {
	switch root := root.(type) {
	case *ast.Ident:
		return w.valueIdent(root)
	case *ast.Literal:
		return w.literal(root)
	case *ast.FnCall:
		return w.fnCall(root)
	}
	//
	panic("unreachable")
}

func (w *writer) valueIdent(ident *ast.Ident) string {
	info := w.a.Ident(ident)
	//
	if info != nil && info.Source == compiler.SourceBuffer {
		return w.bufferName(w.a.Buffers[info.Buffer])
	}
	//
	return w.checkIdent(ident.Label)
}

// Booleans are rendered through `u32`, matching the storage form of `bool`
// buffers.
func (w *writer) literal(literal *ast.Literal) string {
	switch literal.Kind {
	case ast.LitU32:
		return literal.Value + "u"
	case ast.LitBool:
		return "u32(" + literal.Value + ")"
	}
	//
	return literal.Value
}

func (w *writer) fnCall(call *ast.FnCall) string {
	args := make([]string, len(call.Args))
	//
	for i := range call.Args {
		args[i] = w.expr(&call.Args[i])
	}
	//
	fn := compiler.ResolvedFn(w.a, call)
	if fn == nil {
		// Unresolved calls never reach emission.
		w.invalid(call.Name.Label)
		return ""
	}
	// Operator calls render as operator applications.
	if fn.Ast.IsGpu {
		if symbol, ok := binaryOperators[call.Name.Label]; ok {
			return fmt.Sprintf("(%s %s %s)", args[0], symbol, args[1])
		} else if symbol, ok := unaryOperators[call.Name.Label]; ok {
			return fmt.Sprintf("%s(%s)", symbol, args[0])
		}
		// Externally provided functions keep their declared name.
		return fmt.Sprintf("%s(%s)", w.checkIdent(call.Name.Label), strings.Join(args, ", "))
	}
	//
	return fmt.Sprintf("%s(%s)", w.fnName(fn), strings.Join(args, ", "))
}

// ============================================================================
// Names
// ============================================================================

// Buffers are emitted as `{name}_{index}` with their stable global index.
func (w *writer) bufferName(buffer *compiler.Buffer) string {
	return fmt.Sprintf("%s_%d", buffer.Ast.Name.Label, buffer.Index)
}

// Functions are emitted as `{name}_{id}` with their defining occurrence id;
// operator overloads swap the underscore prefix for `op_`.
func (w *writer) fnName(fn *compiler.Function) string {
	base := fn.Ast.Name.Label
	//
	if strings.HasPrefix(base, "__") {
		base = "op_" + strings.Trim(base, "_")
	}
	//
	return w.checkIdent(fmt.Sprintf("%s_%d", base, fn.Ast.Name.Id))
}

func (w *writer) typeName(id compiler.TypeId, bufferForm bool) string {
	t, ok := w.a.Types[id]
	if !ok {
		w.invalid(id.String())
		return ""
	}
	//
	if bufferForm {
		return t.BufName
	}
	//
	return t.ExprName
}

func indent(level int) string {
	return strings.Repeat(" ", level*indentUnit)
}
