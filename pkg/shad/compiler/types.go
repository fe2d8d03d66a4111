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

// ExprType computes the type of an already resolved expression from the
// occurrence table.  The zero id is returned for expressions which failed
// resolution or call a function with no return type.
func ExprType(a *Analysis, expr *ast.Expr) TypeId {
	// The last field determines the type of a field chain.
	if n := len(expr.Fields); n > 0 {
		if info := a.Ident(&expr.Fields[n-1]); info != nil {
			return info.Type
		}
		//
		return TypeId{}
	}
	//
	return RootType(a, expr)
}

// RootType computes the type of an expression root, ignoring any field
// chain.
func RootType(a *Analysis, expr *ast.Expr) TypeId {
	switch root := expr.Root.(type) {
	case *ast.Ident:
		if info := a.Ident(root); info != nil {
			return info.Type
		}
	case *ast.Literal:
		return literalType(root)
	case *ast.FnCall:
		if info := a.Ident(&root.Name); info != nil {
			return info.Type
		}
	}
	//
	return TypeId{}
}

// ExprSemantic distinguishes whether an expression produces a place that can
// be assigned to (a reference), a plain value, or failed to resolve.
type ExprSemantic uint8

const (
	// SemanticNone marks unresolved expressions.
	SemanticNone ExprSemantic = iota
	// SemanticRef marks expressions denoting an assignable place.
	SemanticRef
	// SemanticValue marks plain values.
	SemanticValue
)

// Semantic computes the reference-vs-value semantic of an expression.
func Semantic(a *Analysis, expr *ast.Expr) ExprSemantic {
	switch root := expr.Root.(type) {
	case *ast.Literal:
		return SemanticValue
	case *ast.Ident:
		info := a.Ident(root)
		//
		if info == nil {
			return SemanticNone
		} else if info.Source == SourceConstant {
			return SemanticValue
		}
		//
		return SemanticRef
	case *ast.FnCall:
		info := a.Ident(&root.Name)
		//
		if info == nil {
			return SemanticNone
		} else if len(expr.Fields) > 0 || info.IsRef {
			return SemanticRef
		} else if info.Type.IsValid() {
			return SemanticValue
		}
		//
		return SemanticNone
	}
	//
	return SemanticNone
}
