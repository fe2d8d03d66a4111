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
	"strings"

	"github.com/shad-lang/shad/pkg/shad/ast"
)

// Lookup helpers shared by registration and resolution.  Every lookup walks
// the visibility list of the module performing the search: non-public items
// are only visible inside their defining module.

// FindType looks up a type by name from a given module.
func FindType(a *Analysis, module string, name string, generics string) (TypeId, bool) {
	for _, visible := range a.VisibleModules[module] {
		id := TypeId{Module: visible, Name: name, Generics: generics}
		//
		if t, ok := a.Types[id]; ok && (visible == module || t.Ast == nil || t.Ast.IsPub) {
			return id, true
		}
	}
	// Fall back on built-in types
	id := BuiltinTypeId(name)
	//
	if _, ok := a.Types[id]; ok && generics == "" {
		return id, true
	}
	//
	return TypeId{}, false
}

// ResolveTypeRef resolves a type usage from a given module, or produces an
// error.
func ResolveTypeRef(a *Analysis, module string, ref *ast.TypeRef) (TypeId, bool) {
	generics := RenderGenericArgs(ref.Generics)
	//
	if id, ok := FindType(a, module, ref.Name.Label, generics); ok {
		return id, true
	}
	//
	a.Error(errTypeNotFound(&ref.Name))
	//
	return TypeId{}, false
}

// FindBuffer looks up a buffer by name from a given module.
func FindBuffer(a *Analysis, module string, name string) (*Buffer, bool) {
	for _, visible := range a.VisibleModules[module] {
		id := BufferId{Module: visible, Name: name}
		//
		if buffer, ok := a.Buffers[id]; ok && (visible == module || buffer.Ast.IsPub) {
			return buffer, true
		}
	}
	//
	return nil, false
}

// FindConstant looks up a constant by name from a given module.
func FindConstant(a *Analysis, module string, name string) (*Constant, bool) {
	for _, visible := range a.VisibleModules[module] {
		id := ConstantId{Module: visible, Name: name}
		//
		if constant, ok := a.Constants[id]; ok && (visible == module || constant.Ast.IsPub) {
			return constant, true
		}
	}
	//
	return nil, false
}

// FindFn looks up a function overload by name, parameter type list and
// generic arguments from a given module.
func FindFn(a *Analysis, module string, name string, params string, generics string) (*Function, bool) {
	for _, visible := range a.VisibleModules[module] {
		id := FnId{Module: visible, Name: name, Params: params, Generics: generics}
		//
		if fn, ok := a.Fns[id]; ok && (visible == module || fn.Ast.IsPub) {
			return fn, true
		}
	}
	//
	return nil, false
}

// ResolvedFn returns the overload a call resolved to, or nil when the call
// never resolved.
func ResolvedFn(a *Analysis, call *ast.FnCall) *Function {
	if info := a.Idents[call.Name.Id]; info != nil && info.Source == SourceFn {
		return a.Fns[info.Fn]
	}
	//
	return nil
}

// RenderGenericArgs produces the textual key form of a generic argument
// list.  Literals contribute their normalized text, identifiers their label.
func RenderGenericArgs(args []ast.Expr) string {
	if len(args) == 0 {
		return ""
	}
	//
	rendered := make([]string, len(args))
	//
	for i := range args {
		rendered[i] = renderGenericArg(&args[i])
	}
	//
	return strings.Join(rendered, ", ")
}

func renderGenericArg(arg *ast.Expr) string {
	switch root := arg.Root.(type) {
	case *ast.Literal:
		return normalizeLiteral(root.Value)
	case *ast.Ident:
		return root.Label
	}
	//
	return "?"
}

// Remove digit separators and the `u` suffix from a literal's lexical form.
func normalizeLiteral(text string) string {
	text = strings.ReplaceAll(text, "_", "")
	return strings.TrimSuffix(text, "u")
}
