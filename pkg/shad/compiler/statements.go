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

// CheckStatements validates statement-level rules: assignment targets and
// type agreement, and `return` placement.
func CheckStatements(a *Analysis) {
	for _, id := range a.FnOrder {
		fn := a.Fns[id]
		//
		if fn.Ast.IsGpu {
			continue
		}
		//
		checkFnReturns(a, fn)
		checkAssignments(a, fn.Ast.Statements)
	}
	//
	for _, block := range append(a.StartupBlocks, a.RunBlocks...) {
		checkNoReturn(a, block.Ast.Statements)
		checkAssignments(a, block.Ast.Statements)
	}
	//
	checkValueExprs(a)
}

// Buffers and variables must be initialized with value-producing
// expressions; a resolved call to a function with no return type is
// rejected.
func checkValueExprs(a *Analysis) {
	for _, id := range a.BufferOrder {
		checkValueExpr(a, &a.Buffers[id].Ast.Value)
	}
	//
	forEachBlock(a, func(statements *[]ast.Statement) {
		for _, statement := range *statements {
			if definition, ok := statement.(*ast.VarDefinition); ok {
				checkValueExpr(a, &definition.Expr)
			}
		}
	})
}

func checkValueExpr(a *Analysis, expr *ast.Expr) {
	call, ok := expr.Root.(*ast.FnCall)
	if !ok {
		return
	}
	//
	if fn := ResolvedFn(a, call); fn != nil && !fn.ReturnType.IsValid() {
		a.Error(errNoReturnValue(expr.Span))
	}
}

// A `return` statement is only permitted as the last statement of a function
// body, and its expression type must match the declared return type.
func checkFnReturns(a *Analysis, fn *Function) {
	statements := fn.Ast.Statements
	//
	for i, statement := range statements {
		ret, ok := statement.(*ast.Return)
		if !ok {
			continue
		}
		//
		if i+1 < len(statements) {
			a.Error(errStatementAfterReturn(statements[i+1], ret.Span))
		}
		//
		if !fn.ReturnType.IsValid() {
			a.Error(errReturnWithoutReturnType(ret))
			continue
		}
		//
		actual := ExprType(a, &ret.Expr)
		//
		if actual.IsValid() && actual != fn.ReturnType {
			a.Error(errReturnTypeMismatch(ret, fn, actual))
		}
	}
}

// A `return` outside any function is an error.
func checkNoReturn(a *Analysis, statements []ast.Statement) {
	for _, statement := range statements {
		if ret, ok := statement.(*ast.Return); ok {
			a.Error(errReturnOutsideFn(ret))
		}
	}
}

// The left-hand side of an assignment must denote an assignable place: an
// identifier path rooted in a variable, parameter or buffer, or a call
// returning a reference.  Its type must agree with the assigned expression.
func checkAssignments(a *Analysis, statements []ast.Statement) {
	for _, statement := range statements {
		assignment, ok := statement.(*ast.Assignment)
		if !ok {
			continue
		}
		//
		switch Semantic(a, &assignment.Left) {
		case SemanticValue:
			if assignment.Left.IsIdentPath() {
				// Rooted in a constant.
				a.Error(errInvalidAssignmentTarget(assignment))
			} else {
				// A call returning a plain value.
				a.Error(errNotRefLeftValue(assignment.Left.Span))
			}
			//
			continue
		case SemanticNone:
			// Unresolved; already reported.
			continue
		}
		//
		left := ExprType(a, &assignment.Left)
		right := ExprType(a, &assignment.Expr)
		//
		if left.IsValid() && right.IsValid() && left != right {
			a.Error(errAssignmentTypeMismatch(assignment, left, right))
		}
	}
}
