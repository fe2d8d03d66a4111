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
	"github.com/shad-lang/shad/pkg/shad/ast"
)

// Check runs every validation over the resolved program: duplicated
// parameters, const-scope validity, the four recursion walks, literal
// ranges, assignment targets, return placement and struct field types.
// Checks are gathered after resolution so that each one sees the complete
// occurrence table.
func Check(a *Analysis) {
	CheckFnParams(a)
	CheckConstScopes(a)
	CheckBufferRecursion(a)
	CheckConstantRecursion(a)
	CheckFnRecursion(a)
	CheckTypeRecursion(a)
	CheckLiterals(a)
	CheckStatements(a)
	CheckStructs(a)
	CheckGenerics(a)
}

// CheckFnParams reports duplicated parameter names within one function.
func CheckFnParams(a *Analysis) {
	for _, id := range a.FnOrder {
		fn := a.Fns[id].Ast
		names := make(map[string]*ast.Ident, len(fn.Params))
		//
		for i := range fn.Params {
			name := &fn.Params[i].Name
			//
			if existing, ok := names[name.Label]; ok {
				a.Error(errDuplicatedParam(name, existing))
			} else {
				names[name.Label] = name
			}
		}
	}
}

// CheckConstScopes verifies that constant initializers only reference
// constants and only call `const` functions.
func CheckConstScopes(a *Analysis) {
	for _, id := range a.ConstantOrder {
		checker := &constScopeCheck{a: a}
		ast.WalkExpr(checker, &a.Constants[id].Ast.Value)
	}
}

type constScopeCheck struct {
	ast.NopVisitor
	a *Analysis
}

func (c *constScopeCheck) EnterIdent(ident *ast.Ident) {
	if ident.Kind != ast.IdentOther {
		return
	}
	//
	if info := c.a.Ident(ident); info != nil {
		switch info.Source {
		case SourceConstant, SourceVar, SourceParam, SourceField:
			return
		}
		//
		c.a.Error(errNonConstItem(ident))
	}
}

func (c *constScopeCheck) EnterFnCall(call *ast.FnCall) {
	if fn := ResolvedFn(c.a, call); fn != nil && !fn.Ast.IsConst {
		c.a.Error(errNonConstFnCall(call))
	}
}

// CheckStructs verifies that every struct field's declared type resolves, and
// that types defined in other modules are visible from the declaring module.
func CheckStructs(a *Analysis) {
	for _, id := range a.TypeOrder {
		t := a.Types[id]
		//
		if t.Ast == nil {
			continue
		}
		//
		for i := range t.Fields {
			field := t.Fields[i].Ast
			//
			if t.Fields[i].Type.IsValid() {
				continue
			}
			// Distinguish an invisible cross-module type from an unknown one.
			if definedAnywhere(a, field.Type.Name.Label) {
				a.Error(errInvalidFieldType(field))
			} else {
				a.Error(errTypeNotFound(&field.Type.Name))
			}
		}
	}
}

func definedAnywhere(a *Analysis, name string) bool {
	for _, id := range a.TypeOrder {
		if id.Name == name && id.Module != "" {
			return true
		}
	}
	//
	return false
}

// CheckGenerics verifies that constant generic parameters are declared with
// one of the four primitive types.
func CheckGenerics(a *Analysis) {
	for _, id := range a.FnOrder {
		checkGenericParams(a, a.Fns[id].Generics)
	}
	//
	for _, id := range a.TypeOrder {
		checkGenericParams(a, a.Types[id].Generics)
	}
}

func checkGenericParams(a *Analysis, params []GenericParamInfo) {
	for i := range params {
		param := &params[i]
		//
		// Unresolved parameter types were already reported at registration.
		if param.IsConst && param.Type.IsValid() && !param.Type.IsBuiltin() {
			a.Error(errUnsupportedConstGenericType(param.Ast.Type))
		}
	}
}
