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

	"github.com/shad-lang/shad/pkg/shad/ast"
	"github.com/shad-lang/shad/pkg/util/source"
)

// Constructors for every semantic error the analysis can produce.  Each error
// carries a primary located message plus zero or more informational ones.

func errModuleNotFound(item *ast.Import, module string) source.SemanticError {
	return source.NewSemanticError(
		fmt.Sprintf("module `%s` not found", module),
		source.LocatedMessage{Level: source.LevelError, Span: item.Span, Text: "imported here"},
	)
}

func errDuplicatedItem(kind string, name string, duplicate source.Span, existing source.Span) source.SemanticError {
	return source.NewSemanticError(
		fmt.Sprintf("%s `%s` is defined multiple times", kind, name),
		source.LocatedMessage{Level: source.LevelError, Span: duplicate, Text: "duplicated " + kind},
		source.LocatedMessage{Level: source.LevelInfo, Span: existing, Text: "first definition"},
	)
}

func errDuplicatedParam(duplicate *ast.Ident, existing *ast.Ident) source.SemanticError {
	return source.NewSemanticError(
		fmt.Sprintf("parameter `%s` is defined multiple times", duplicate.Label),
		source.LocatedMessage{Level: source.LevelError, Span: duplicate.Span, Text: "duplicated parameter"},
		source.LocatedMessage{Level: source.LevelInfo, Span: existing.Span, Text: "first definition"},
	)
}

func errInvalidParamCount(fn *ast.Fn, expected int) source.SemanticError {
	return source.NewSemanticError(
		fmt.Sprintf("function `%s` takes %d parameter(s)", fn.Name.Label, expected),
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  fn.Name.Span,
			Text:  fmt.Sprintf("found %d parameter(s)", len(fn.Params)),
		},
	)
}

func errIdentNotFound(ident *ast.Ident) source.SemanticError {
	return source.NewSemanticError(
		fmt.Sprintf("`%s` identifier not found", ident.Label),
		source.LocatedMessage{Level: source.LevelError, Span: ident.Span, Text: "undefined identifier"},
	)
}

func errTypeNotFound(name *ast.Ident) source.SemanticError {
	return source.NewSemanticError(
		fmt.Sprintf("`%s` type not found", name.Label),
		source.LocatedMessage{Level: source.LevelError, Span: name.Span, Text: "undefined type"},
	)
}

func errFnNotFound(call *ast.FnCall, key string) source.SemanticError {
	return source.NewSemanticError(
		fmt.Sprintf("`%s` function not found", key),
		source.LocatedMessage{Level: source.LevelError, Span: call.Name.Span, Text: "undefined function"},
	)
}

func errFieldNotFound(field *ast.Ident, typeId TypeId) source.SemanticError {
	return source.NewSemanticError(
		fmt.Sprintf("field `%s` not found in type `%s`", field.Label, typeId),
		source.LocatedMessage{Level: source.LevelError, Span: field.Span, Text: "undefined field"},
	)
}

func errInvalidFieldType(field *ast.StructField) source.SemanticError {
	return source.NewSemanticError(
		fmt.Sprintf("invalid type for field `%s`", field.Name.Label),
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  field.Type.Span,
			Text:  "type not visible from the defining module",
		},
	)
}

func errUnsupportedConstGenericType(name *ast.Ident) source.SemanticError {
	return source.NewSemanticError(
		"unsupported constant generic parameter type",
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  name.Span,
			Text:  "expected `u32`, `i32`, `f32` or `bool`",
		},
	)
}

// UsedItem is one frame of a recursion-check stack.
type UsedItem struct {
	UsageSpan source.Span
	DefSpan   source.Span
	Name      string
}

func errRecursion(kind string, name string, stack []UsedItem) source.SemanticError {
	messages := []source.LocatedMessage{{
		Level: source.LevelError,
		Span:  stack[len(stack)-1].UsageSpan,
		Text:  fmt.Sprintf("recursive %s `%s`", kind, name),
	}}
	//
	for i := range stack {
		messages = append(messages, source.LocatedMessage{
			Level: source.LevelInfo,
			Span:  stack[i].UsageSpan,
			Text:  fmt.Sprintf("`%s` used here", stack[i].Name),
		})
	}
	//
	return source.NewSemanticError(fmt.Sprintf("recursive %s `%s`", kind, name), messages...)
}

func errInvalidInteger(literal *ast.Literal, typeName string) source.SemanticError {
	return source.NewSemanticError(
		fmt.Sprintf("`%s` literal out of range", typeName),
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  literal.Span,
			Text:  fmt.Sprintf("value is outside allowed range of `%s`", typeName),
		},
	)
}

func errTooManyF32Digits(literal *ast.Literal, count int, limit int) source.SemanticError {
	return source.NewSemanticError(
		"`f32` literal with too many digits in integer part",
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  literal.Span,
			Text:  fmt.Sprintf("found %d digits, maximum is %d", count, limit),
		},
	)
}

func errNonConstFnCall(call *ast.FnCall) source.SemanticError {
	return source.NewSemanticError(
		"invalid function call in `const` context",
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  call.Name.Span,
			Text:  "not a `const` function",
		},
	)
}

func errNonConstItem(ident *ast.Ident) source.SemanticError {
	return source.NewSemanticError(
		"invalid reference in `const` context",
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  ident.Span,
			Text:  "not a constant",
		},
	)
}

func errDivisionByZero(span source.Span) source.SemanticError {
	return source.NewSemanticError(
		"division by zero in constant expression",
		source.LocatedMessage{Level: source.LevelError, Span: span, Text: "evaluates to zero"},
	)
}

func errConstantOverflow(span source.Span, typeName string) source.SemanticError {
	return source.NewSemanticError(
		"constant expression overflow",
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  span,
			Text:  fmt.Sprintf("value is outside allowed range of `%s`", typeName),
		},
	)
}

func errAssignmentTypeMismatch(assignment *ast.Assignment, left TypeId, right TypeId) source.SemanticError {
	return source.NewSemanticError(
		"invalid type in assignment",
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  assignment.Expr.Span,
			Text:  fmt.Sprintf("expression of type `%s`", ExprTypeName(right)),
		},
		source.LocatedMessage{
			Level: source.LevelInfo,
			Span:  assignment.Left.Span,
			Text:  fmt.Sprintf("expected type `%s`", ExprTypeName(left)),
		},
	)
}

func errInvalidAssignmentTarget(assignment *ast.Assignment) source.SemanticError {
	return source.NewSemanticError(
		"invalid left value in assignment",
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  assignment.Left.Span,
			Text:  "expected a variable, parameter or buffer",
		},
	)
}

func errNotRefLeftValue(span source.Span) source.SemanticError {
	return source.NewSemanticError(
		"left value in assignment is not a reference",
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  span,
			Text:  "this function doesn't return a reference",
		},
	)
}

func errNoReturnValue(span source.Span) source.SemanticError {
	return source.NewSemanticError(
		"expression has no value",
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  span,
			Text:  "this function doesn't return a value",
		},
	)
}

func errReturnOutsideFn(statement *ast.Return) source.SemanticError {
	return source.NewSemanticError(
		"`return` statement used outside function",
		source.LocatedMessage{Level: source.LevelError, Span: statement.Span, Text: "invalid statement"},
	)
}

func errReturnWithoutReturnType(statement *ast.Return) source.SemanticError {
	return source.NewSemanticError(
		"use of `return` in a function with no return type",
		source.LocatedMessage{Level: source.LevelError, Span: statement.Span, Text: "invalid statement"},
	)
}

func errReturnTypeMismatch(statement *ast.Return, fn *Function, actual TypeId) source.SemanticError {
	return source.NewSemanticError(
		"invalid type for returned expression",
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  statement.Expr.Span,
			Text:  fmt.Sprintf("expression of type `%s`", ExprTypeName(actual)),
		},
		source.LocatedMessage{
			Level: source.LevelInfo,
			Span:  fn.Ast.ReturnType.Span,
			Text:  fmt.Sprintf("expected type `%s`", ExprTypeName(fn.ReturnType)),
		},
	)
}

func errStatementAfterReturn(statement ast.Statement, returnSpan source.Span) source.SemanticError {
	return source.NewSemanticError(
		"statement found after `return` statement",
		source.LocatedMessage{
			Level: source.LevelError,
			Span:  statement.SpanOf(),
			Text:  "this statement cannot be defined after a `return` statement",
		},
		source.LocatedMessage{
			Level: source.LevelInfo,
			Span:  returnSpan,
			Text:  "`return` statement defined here",
		},
	)
}
