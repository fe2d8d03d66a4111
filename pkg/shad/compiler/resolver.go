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

// ResolveIdents resolves every identifier occurrence in expression position
// and records, for each, the item it refers to together with its type.  The
// walk is bottom-up, so that function calls resolve against the types of
// their arguments (which is what makes overloading work).  Buffers and
// constants are resolved on demand when first referenced, so that types
// propagate regardless of textual or module order; cycles are cut here and
// reported by the recursion checks.  Resolution is best-effort: one
// unresolved identifier does not abort resolution of its siblings.
func ResolveIdents(a *Analysis) {
	r := &resolver{
		a:         a,
		buffers:   make(map[BufferId]uint8),
		constants: make(map[ConstantId]uint8),
	}
	//
	for _, id := range a.ConstantOrder {
		r.resolveConstant(id)
	}
	//
	for _, id := range a.BufferOrder {
		r.resolveBuffer(id)
	}
	//
	// Only registered overloads are resolved; the body of a duplicated
	// definition is skipped, its error having been reported already.
	for _, id := range a.FnOrder {
		fn := a.Fns[id]
		sc := newScope(r, id.Module, fn)
		sc.resolveStatements(fn.Ast.Statements)
	}
	//
	for _, module := range a.Modules {
		for _, item := range a.Asts[module].Items {
			if run, ok := item.(*ast.Run); ok {
				sc := newScope(r, module, nil)
				sc.resolveStatements(run.Statements)
			}
		}
	}
}

// Item resolution states.
const (
	resolving uint8 = 1
	resolved  uint8 = 2
)

type resolver struct {
	a *Analysis
	// Buffer and constant resolution states, guarding on-demand resolution
	// against cycles and repeats.
	buffers   map[BufferId]uint8
	constants map[ConstantId]uint8
}

func (r *resolver) resolveBuffer(id BufferId) {
	if r.buffers[id] != 0 {
		return
	}
	//
	r.buffers[id] = resolving
	//
	buffer := r.a.Buffers[id]
	sc := newScope(r, id.Module, nil)
	buffer.Type = sc.resolveExpr(&buffer.Ast.Value)
	r.a.Idents[buffer.Ast.Name.Id].Type = buffer.Type
	//
	r.buffers[id] = resolved
}

func (r *resolver) resolveConstant(id ConstantId) {
	if r.constants[id] != 0 {
		return
	}
	//
	r.constants[id] = resolving
	//
	constant := r.a.Constants[id]
	sc := newScope(r, id.Module, nil)
	constantType := sc.resolveExpr(&constant.Ast.Value)
	r.a.Idents[constant.Ast.Name.Id].Type = constantType
	//
	r.constants[id] = resolved
}

// scope carries the lookup context for one statement block: the enclosing
// function (for parameters), and the stack of local variable frames.
type scope struct {
	r      *resolver
	a      *Analysis
	module string
	// Enclosing function, nil at item level.
	fn *Function
	// Innermost frame last.
	locals []map[string]*localVar
}

type localVar struct {
	// Node id of the defining occurrence.
	defId uint64
	typ   TypeId
	isRef bool
}

func newScope(r *resolver, module string, fn *Function) *scope {
	return &scope{r, r.a, module, fn, []map[string]*localVar{{}}}
}

func (sc *scope) resolveStatements(statements []ast.Statement) {
	for _, statement := range statements {
		sc.resolveStatement(statement)
	}
}

func (sc *scope) resolveStatement(statement ast.Statement) {
	switch statement := statement.(type) {
	case *ast.VarDefinition:
		typ := sc.resolveExpr(&statement.Expr)
		//
		sc.a.Idents[statement.Name.Id] = &IdentInfo{
			Source: SourceVar,
			Var:    statement.Name.Id,
			Type:   typ,
			IsRef:  statement.IsRef,
		}
		//
		frame := sc.locals[len(sc.locals)-1]
		frame[statement.Name.Label] = &localVar{statement.Name.Id, typ, statement.IsRef}
	case *ast.Assignment:
		sc.resolveExpr(&statement.Left)
		sc.resolveExpr(&statement.Expr)
	case *ast.Return:
		sc.resolveExpr(&statement.Expr)
	case *ast.FnCallStatement:
		sc.resolveCall(&statement.Call)
	}
}

// Resolve an expression bottom-up, returning its type.  If any sub-expression
// fails to resolve, the whole expression is un-typed and downstream errors
// for it are suppressed.
func (sc *scope) resolveExpr(expr *ast.Expr) TypeId {
	var typ TypeId
	//
	switch root := expr.Root.(type) {
	case *ast.Ident:
		typ = sc.resolveValueIdent(root)
	case *ast.Literal:
		typ = literalType(root)
	case *ast.FnCall:
		typ = sc.resolveCall(root)
	}
	// Field chain
	for i := range expr.Fields {
		typ = sc.resolveField(&expr.Fields[i], typ)
	}
	//
	return typ
}

// Resolve a plain identifier occurrence using the ordered scope rules:
// parameters, then local variables, then the current module's items, then
// imported public items in visibility order.
func (sc *scope) resolveValueIdent(ident *ast.Ident) TypeId {
	// 1. Function parameters
	if sc.fn != nil {
		for i := range sc.fn.Ast.Params {
			param := &sc.fn.Ast.Params[i]
			//
			if param.Name.Label == ident.Label {
				info := &IdentInfo{
					Source: SourceParam,
					Var:    param.Name.Id,
					Type:   sc.fn.ParamTypes[i],
				}
				sc.a.Idents[ident.Id] = info
				//
				return info.Type
			}
		}
	}
	// 2. Local variables, innermost frame outward
	for i := len(sc.locals) - 1; i >= 0; i-- {
		if local, ok := sc.locals[i][ident.Label]; ok {
			sc.a.Idents[ident.Id] = &IdentInfo{
				Source: SourceVar,
				Var:    local.defId,
				Type:   local.typ,
				IsRef:  local.isRef,
			}
			//
			return local.typ
		}
	}
	// 3 & 4. Module items, then imported public items
	buffer, isBuffer := FindBuffer(sc.a, sc.module, ident.Label)
	constant, isConstant := FindConstant(sc.a, sc.module, ident.Label)
	// When both match, the item of the earlier visible module wins.
	if isBuffer && isConstant {
		visible := sc.a.VisibleModules[sc.module]
		isBuffer = slices.Index(visible, buffer.Id.Module) <= slices.Index(visible, constant.Id.Module)
	}
	//
	if isBuffer {
		sc.r.resolveBuffer(buffer.Id)
		//
		sc.a.Idents[ident.Id] = &IdentInfo{
			Source: SourceBuffer,
			Buffer: buffer.Id,
			Type:   buffer.Type,
		}
		//
		return buffer.Type
	}
	//
	if isConstant {
		sc.r.resolveConstant(constant.Id)
		//
		info := &IdentInfo{Source: SourceConstant, Constant: constant.Id}
		//
		if named := sc.a.Idents[constant.Ast.Name.Id]; named != nil {
			info.Type = named.Type
		}
		//
		sc.a.Idents[ident.Id] = info
		//
		return info.Type
	}
	//
	sc.a.Error(errIdentNotFound(ident))
	//
	return TypeId{}
}

// Resolve a function call against the types of its arguments.
func (sc *scope) resolveCall(call *ast.FnCall) TypeId {
	argTypes := make([]TypeId, len(call.Args))
	failed := false
	//
	for i := range call.Args {
		argTypes[i] = sc.resolveExpr(&call.Args[i])
		//
		if !argTypes[i].IsValid() {
			failed = true
		}
	}
	// Suppress resolution when any argument is un-typed.
	if failed {
		return TypeId{}
	}
	//
	var (
		params   = JoinTypeIds(argTypes)
		generics = RenderGenericArgs(call.Generics)
	)
	//
	fn, ok := FindFn(sc.a, sc.module, call.Name.Label, params, generics)
	if !ok {
		fn, ok = findGenericFn(sc.a, sc.module, call, params)
	}
	//
	if !ok {
		sc.a.Error(errFnNotFound(call, call.Name.Label+"("+params+")"))
		return TypeId{}
	}
	//
	sc.a.Idents[call.Name.Id] = &IdentInfo{
		Source: SourceFn,
		Fn:     fn.Id,
		Type:   fn.ReturnType,
		IsRef:  fn.ReturnsRef,
	}
	//
	return fn.ReturnType
}

// A call with generic arguments resolves against the declaring overload by
// matching the argument count against the declared parameter count.
func findGenericFn(a *Analysis, module string, call *ast.FnCall, params string) (*Function, bool) {
	if len(call.Generics) == 0 {
		return nil, false
	}
	//
	for _, visible := range a.VisibleModules[module] {
		for _, id := range a.FnOrder {
			fn := a.Fns[id]
			//
			if id.Module != visible || id.Name != call.Name.Label || id.Params != params {
				continue
			} else if len(fn.Generics) != len(call.Generics) {
				continue
			} else if visible != module && !fn.Ast.IsPub {
				continue
			}
			//
			return fn, true
		}
	}
	//
	return nil, false
}

// Resolve a field access against the receiver's type.
func (sc *scope) resolveField(field *ast.Ident, receiver TypeId) TypeId {
	if !receiver.IsValid() {
		return TypeId{}
	}
	//
	receiverType, ok := sc.a.Types[receiver]
	if !ok {
		return TypeId{}
	}
	//
	typeField := receiverType.FieldNamed(field.Label)
	if typeField == nil {
		sc.a.Error(errFieldNotFound(field, receiver))
		return TypeId{}
	}
	//
	sc.a.Idents[field.Id] = &IdentInfo{Source: SourceField, Type: typeField.Type}
	//
	return typeField.Type
}

// literalType gives the type a literal takes directly from its lexical form.
func literalType(literal *ast.Literal) TypeId {
	switch literal.Kind {
	case ast.LitF32:
		return BuiltinTypeId(F32Type)
	case ast.LitU32:
		return BuiltinTypeId(U32Type)
	case ast.LitI32:
		return BuiltinTypeId(I32Type)
	}
	//
	return BuiltinTypeId(BoolType)
}
