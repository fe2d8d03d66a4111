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
	"slices"

	"github.com/shad-lang/shad/pkg/shad/ast"
)

// RegisterBuiltinTypes inserts the four primitive types into the type table.
// Boolean buffers are stored as `u32`.
func RegisterBuiltinTypes(a *Analysis) {
	for _, name := range []string{F32Type, U32Type, I32Type, BoolType} {
		bufName := name
		//
		if name == BoolType {
			bufName = U32Type
		}
		//
		id := BuiltinTypeId(name)
		a.Types[id] = &Type{Id: id, BufName: bufName, ExprName: name, Size: 4}
		a.TypeOrder = append(a.TypeOrder, id)
	}
}

// RegisterTypes inserts every struct item into the type table.  Duplicates
// keep the first definition and produce an error.  Field types are resolved
// separately, once all types are known.
func RegisterTypes(a *Analysis) {
	for _, module := range a.Modules {
		for _, item := range a.Asts[module].Items {
			structItem, ok := item.(*ast.Struct)
			if !ok {
				continue
			}
			//
			id := TypeId{Module: module, Name: structItem.Name.Label}
			//
			if existing, ok := a.Types[id]; ok {
				a.Error(errDuplicatedItem("type", structItem.Name.Label,
					structItem.Name.Span, existing.Ast.Name.Span))
				continue
			}
			// Emitted names embed the defining occurrence id to stay unique
			// across modules.
			name := fmt.Sprintf("%s_%d", structItem.Name.Label, structItem.Name.Id)
			//
			a.Types[id] = &Type{
				Id:       id,
				Ast:      structItem,
				BufName:  name,
				ExprName: name,
				Generics: registerGenerics(a, module, structItem.Generics),
			}
			a.TypeOrder = append(a.TypeOrder, id)
		}
	}
}

// ResolveTypeFields resolves the declared type of every struct field and
// computes byte sizes.  Unresolvable fields and recursion both yield a zero
// size; the corresponding errors are produced by the validation stage.
func ResolveTypeFields(a *Analysis) {
	for _, id := range a.TypeOrder {
		t := a.Types[id]
		//
		if t.Ast == nil {
			continue
		}
		//
		for i := range t.Ast.Fields {
			field := &t.Ast.Fields[i]
			fieldType, _ := resolveFieldType(a, id.Module, &field.Type)
			//
			t.Fields = append(t.Fields, TypeField{
				Name: field.Name.Label,
				Type: fieldType,
				Ast:  field,
			})
		}
	}
	// Sizes require all fields resolved first.
	for _, id := range a.TypeOrder {
		computeSize(a, id, nil)
	}
}

// Resolve a field type without producing an error; validation reports
// unresolved or invisible field types with their own diagnostics.
func resolveFieldType(a *Analysis, module string, ref *ast.TypeRef) (TypeId, bool) {
	id, ok := FindType(a, module, ref.Name.Label, RenderGenericArgs(ref.Generics))
	return id, ok
}

func computeSize(a *Analysis, id TypeId, visiting []TypeId) int {
	t, ok := a.Types[id]
	//
	if !ok || slices.Contains(visiting, id) {
		// Unknown or recursive; recursion is reported separately.
		return 0
	} else if t.Size != 0 || t.Ast == nil {
		return t.Size
	}
	//
	visiting = append(visiting, id)
	size := 0
	//
	for i := range t.Fields {
		size += computeSize(a, t.Fields[i].Type, visiting)
	}
	//
	t.Size = size
	//
	return size
}

// RegisterConstants inserts every constant item into the constant table.
func RegisterConstants(a *Analysis) {
	for _, module := range a.Modules {
		for _, item := range a.Asts[module].Items {
			constant, ok := item.(*ast.Constant)
			if !ok {
				continue
			}
			//
			id := ConstantId{Module: module, Name: constant.Name.Label}
			//
			if existing, ok := a.Constants[id]; ok {
				a.Error(errDuplicatedItem("constant", constant.Name.Label,
					constant.Name.Span, existing.Ast.Name.Span))
				continue
			}
			//
			a.Constants[id] = &Constant{Id: id, Ast: constant}
			a.ConstantOrder = append(a.ConstantOrder, id)
			a.Idents[constant.Name.Id] = &IdentInfo{Source: SourceConstant, Constant: id}
		}
	}
}

// RegisterBuffers inserts every buffer item into the buffer table, assigning
// each a stable global index used for emitted names.
func RegisterBuffers(a *Analysis) {
	for _, module := range a.Modules {
		for _, item := range a.Asts[module].Items {
			buffer, ok := item.(*ast.Buffer)
			if !ok {
				continue
			}
			//
			id := BufferId{Module: module, Name: buffer.Name.Label}
			//
			if existing, ok := a.Buffers[id]; ok {
				a.Error(errDuplicatedItem("buffer", buffer.Name.Label,
					buffer.Name.Span, existing.Ast.Name.Span))
				continue
			}
			//
			a.Buffers[id] = &Buffer{Id: id, Index: len(a.BufferOrder), Ast: buffer}
			a.BufferOrder = append(a.BufferOrder, id)
			a.Idents[buffer.Name.Id] = &IdentInfo{Source: SourceBuffer, Buffer: id}
		}
	}
}

// RegisterFns inserts every function item into the function table.  The key
// includes the parameter type list, so that overloads coexist.  Operator
// functions additionally have their arity checked here.
func RegisterFns(a *Analysis) {
	for _, module := range a.Modules {
		for _, item := range a.Asts[module].Items {
			fn, ok := item.(*ast.Fn)
			if !ok {
				continue
			}
			//
			registerFn(a, module, fn)
		}
	}
}

func registerFn(a *Analysis, module string, fn *ast.Fn) {
	checkOperatorArity(a, fn)
	//
	paramTypes := make([]TypeId, len(fn.Params))
	//
	for i := range fn.Params {
		paramTypes[i], _ = ResolveTypeRef(a, module, &fn.Params[i].Type)
	}
	//
	var (
		returnType TypeId
		returnsRef bool
	)
	//
	if fn.ReturnType != nil {
		returnType, _ = ResolveTypeRef(a, module, fn.ReturnType)
		returnsRef = fn.ReturnType.IsRef
	}
	//
	id := FnId{
		Module:   module,
		Name:     fn.Name.Label,
		Params:   JoinTypeIds(paramTypes),
		Generics: renderGenericParams(fn.Generics),
	}
	//
	if existing, ok := a.Fns[id]; ok {
		a.Error(errDuplicatedItem("function", fn.Name.Label,
			fn.Name.Span, existing.Ast.Name.Span))
		return
	}
	//
	a.Fns[id] = &Function{
		Id:         id,
		Ast:        fn,
		ParamTypes: paramTypes,
		ReturnType: returnType,
		ReturnsRef: returnsRef,
		Generics:   registerGenerics(a, module, fn.Generics),
	}
	a.FnOrder = append(a.FnOrder, id)
	// Parameters resolve to themselves.
	for i := range fn.Params {
		a.Idents[fn.Params[i].Name.Id] = &IdentInfo{
			Source: SourceParam,
			Var:    fn.Params[i].Name.Id,
			Type:   paramTypes[i],
		}
	}
}

// Operator functions require a fixed number of parameters: two for binary
// operators, one for unary ones.
func checkOperatorArity(a *Analysis, fn *ast.Fn) {
	name := fn.Name.Label
	//
	if slices.Contains(ast.BinaryFns, name) && len(fn.Params) != 2 {
		a.Error(errInvalidParamCount(fn, 2))
	} else if slices.Contains(ast.UnaryFns, name) && len(fn.Params) != 1 {
		a.Error(errInvalidParamCount(fn, 1))
	}
}

// Register the generic parameters of an item.  Constant parameters must have
// one of the four primitive types.
func registerGenerics(a *Analysis, module string, params []ast.GenericParam) []GenericParamInfo {
	infos := make([]GenericParamInfo, 0, len(params))
	//
	for i := range params {
		param := &params[i]
		info := GenericParamInfo{Name: param.Name.Label, Ast: param}
		//
		if param.Type != nil {
			info.IsConst = true
			//
			if id, ok := FindType(a, module, param.Type.Label, ""); ok {
				info.Type = id
			} else {
				a.Error(errTypeNotFound(param.Type))
			}
		}
		//
		infos = append(infos, info)
	}
	//
	return infos
}

// The key form of a declared generic parameter list.
func renderGenericParams(params []ast.GenericParam) string {
	if len(params) == 0 {
		return ""
	}
	//
	names := make([]string, len(params))
	//
	for i := range params {
		names[i] = params[i].Name.Label
	}
	//
	return JoinStrings(names)
}

// JoinStrings joins with the `, ` separator used by every key form.
func JoinStrings(items []string) string {
	result := ""
	//
	for i, item := range items {
		if i != 0 {
			result += ", "
		}
		//
		result += item
	}
	//
	return result
}

// RegisterRunBlocks collects the statement blocks from which shaders are
// assembled: one synthesized init block per buffer, the `init` items, and the
// `run` items.
func RegisterRunBlocks(a *Analysis) {
	for _, id := range a.BufferOrder {
		buffer := a.Buffers[id]
		// Synthesize `buffer = init_expr;` with the buffer's own occurrence
		// ids, so that resolution covers both equally.
		name := buffer.Ast.Name
		assignment := &ast.Assignment{
			Span: buffer.Ast.Span,
			Left: ast.Expr{Span: name.Span, Root: &name},
			Expr: *buffer.Ast.Value.Clone(),
		}
		//
		a.InitBlocks = append(a.InitBlocks, &BufferInitBlock{
			Buffer: id,
			Ast: &ast.Run{
				Span:       buffer.Ast.Span,
				Id:         a.NextId(),
				Statements: []ast.Statement{assignment},
			},
		})
	}
	//
	for _, module := range a.Modules {
		for _, item := range a.Asts[module].Items {
			run, ok := item.(*ast.Run)
			if !ok {
				continue
			}
			//
			block := &RunBlock{Module: module, Ast: run}
			//
			if run.IsInit {
				a.StartupBlocks = append(a.StartupBlocks, block)
			} else {
				a.RunBlocks = append(a.RunBlocks, block)
			}
		}
	}
}
