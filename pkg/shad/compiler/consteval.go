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
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/shad-lang/shad/pkg/shad/ast"
	"github.com/shad-lang/shad/pkg/util/source"
)

// ConstantKind identifies the shape of an evaluated constant.
type ConstantKind uint8

const (
	// KindF32 is a 32-bit float value.
	KindF32 ConstantKind = iota
	// KindU32 is a 32-bit unsigned value.
	KindU32
	// KindI32 is a 32-bit signed value.
	KindI32
	// KindBool is a boolean value.
	KindBool
	// KindStruct is an ordered list of named field values.
	KindStruct
)

// ConstantField is one field of an evaluated struct value, in declaration
// order.
type ConstantField struct {
	Name string
	// Alias flag; nothing sets it, and no struct constructors are emitted.
	IsAlias bool
	Value   ConstantValue
}

// ConstantValue is the result of evaluating a constant expression.
type ConstantValue struct {
	Kind ConstantKind
	F32  float32
	U32  uint32
	I32  int32
	Bool bool
	// Struct type id and fields, for KindStruct.
	Struct TypeId
	Fields []ConstantField
}

// TypeId returns the type this value takes.
func (v ConstantValue) TypeId() TypeId {
	switch v.Kind {
	case KindF32:
		return BuiltinTypeId(F32Type)
	case KindU32:
		return BuiltinTypeId(U32Type)
	case KindI32:
		return BuiltinTypeId(I32Type)
	case KindBool:
		return BuiltinTypeId(BoolType)
	}
	//
	return v.Struct
}

// LiteralText renders this value in its normalized literal form, without
// digit separators or suffix.
func (v ConstantValue) LiteralText() string {
	switch v.Kind {
	case KindF32:
		text := strconv.FormatFloat(float64(v.F32), 'f', -1, 32)
		//
		if !strings.Contains(text, ".") {
			text += ".0"
		}
		//
		return text
	case KindU32:
		return strconv.FormatUint(uint64(v.U32), 10)
	case KindI32:
		return strconv.FormatInt(int64(v.I32), 10)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	}
	//
	panic("struct constant has no literal form")
}

// LiteralKind returns the literal kind matching this value's type.
func (v ConstantValue) LiteralKind() ast.LiteralKind {
	switch v.Kind {
	case KindF32:
		return ast.LitF32
	case KindU32:
		return ast.LitU32
	case KindI32:
		return ast.LitI32
	}
	//
	return ast.LitBool
}

// EvalConstants evaluates the initializer of every constant item.  Constants
// referencing other constants evaluate on demand; cycles fail silently here
// and are reported by the recursion checks.
func EvalConstants(a *Analysis) {
	e := &evaluator{a: a, states: make(map[ConstantId]uint8)}
	//
	for _, id := range a.ConstantOrder {
		e.evalConstant(id)
	}
}

// A stack frame binding variable and parameter definition ids to values
// whilst evaluating a `const` function call.
type constScope map[uint64]ConstantValue

type evaluator struct {
	a      *Analysis
	states map[ConstantId]uint8
	// Constant scopes, innermost last.
	scopes []constScope
	// Silent evaluation never reports errors; used when folding runtime
	// expressions opportunistically.
	silent bool
}

// Report an evaluation error, unless evaluating silently.
func (e *evaluator) error(err source.SemanticError) {
	if !e.silent {
		e.a.Error(err)
	}
}

func (e *evaluator) evalConstant(id ConstantId) {
	if e.states[id] != 0 {
		return
	}
	//
	e.states[id] = resolving
	constant := e.a.Constants[id]
	// Item initializers never see the scopes of enclosing evaluations.
	saved := e.scopes
	e.scopes = nil
	//
	if value, ok := e.evalExpr(&constant.Ast.Value); ok {
		constant.Value = &value
	}
	//
	e.scopes = saved
	e.states[id] = resolved
}

func (e *evaluator) evalExpr(expr *ast.Expr) (ConstantValue, bool) {
	value, ok := e.evalRoot(expr)
	if !ok {
		return value, false
	}
	// Field chain over struct values
	for i := range expr.Fields {
		if value.Kind != KindStruct {
			return ConstantValue{}, false
		}
		//
		index := slices.IndexFunc(value.Fields, func(f ConstantField) bool {
			return f.Name == expr.Fields[i].Label
		})
		//
		if index < 0 {
			return ConstantValue{}, false
		}
		//
		value = value.Fields[index].Value
	}
	//
	return value, true
}

func (e *evaluator) evalRoot(expr *ast.Expr) (ConstantValue, bool) {
	switch root := expr.Root.(type) {
	case *ast.Literal:
		return evalLiteral(root)
	case *ast.Ident:
		return e.evalIdent(root)
	case *ast.FnCall:
		return e.evalCall(root)
	}
	//
	return ConstantValue{}, false
}

func (e *evaluator) evalIdent(ident *ast.Ident) (ConstantValue, bool) {
	info := e.a.Ident(ident)
	if info == nil {
		return ConstantValue{}, false
	}
	//
	switch info.Source {
	case SourceConstant:
		e.evalConstant(info.Constant)
		//
		if value := e.a.Constants[info.Constant].Value; value != nil {
			return *value, true
		}
	case SourceVar, SourceParam:
		return e.varValue(info.Var)
	}
	//
	return ConstantValue{}, false
}

func (e *evaluator) evalCall(call *ast.FnCall) (ConstantValue, bool) {
	fn := ResolvedFn(e.a, call)
	if fn == nil {
		return ConstantValue{}, false
	}
	//
	args := make([]ConstantValue, len(call.Args))
	//
	for i := range call.Args {
		value, ok := e.evalExpr(&call.Args[i])
		if !ok {
			return ConstantValue{}, false
		}
		//
		args[i] = value
	}
	// Operators of the prelude evaluate natively.
	if fn.Ast.IsGpu {
		if fn.Ast.IsConst && isOperatorFn(call.Name.Label) {
			return e.applyOperator(call, args)
		}
		//
		return ConstantValue{}, false
	}
	// Other calls require a `const` function, whose body is executed with a
	// fresh constant scope binding the parameters.
	if !fn.Ast.IsConst {
		return ConstantValue{}, false
	}
	//
	frame := make(constScope, len(args))
	//
	for i := range fn.Ast.Params {
		frame[fn.Ast.Params[i].Name.Id] = args[i]
	}
	//
	e.scopes = append(e.scopes, frame)
	value, ok := e.evalBody(fn.Ast.Statements)
	e.scopes = e.scopes[:len(e.scopes)-1]
	//
	return value, ok
}

func (e *evaluator) evalBody(statements []ast.Statement) (ConstantValue, bool) {
	for _, statement := range statements {
		switch statement := statement.(type) {
		case *ast.VarDefinition:
			value, ok := e.evalExpr(&statement.Expr)
			if !ok {
				return ConstantValue{}, false
			}
			//
			e.scopes[len(e.scopes)-1][statement.Name.Id] = value
		case *ast.Assignment:
			if !e.evalAssignment(statement) {
				return ConstantValue{}, false
			}
		case *ast.Return:
			return e.evalExpr(&statement.Expr)
		default:
			return ConstantValue{}, false
		}
	}
	//
	return ConstantValue{}, false
}

func (e *evaluator) evalAssignment(statement *ast.Assignment) bool {
	root := statement.Left.RootIdent()
	if root == nil || len(statement.Left.Fields) != 0 {
		return false
	}
	//
	info := e.a.Ident(root)
	if info == nil || (info.Source != SourceVar && info.Source != SourceParam) {
		return false
	}
	//
	value, ok := e.evalExpr(&statement.Expr)
	if !ok {
		return false
	}
	//
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i][info.Var]; ok {
			e.scopes[i][info.Var] = value
			return true
		}
	}
	//
	return false
}

func (e *evaluator) varValue(id uint64) (ConstantValue, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if value, ok := e.scopes[i][id]; ok {
			return value, true
		}
	}
	//
	return ConstantValue{}, false
}

func evalLiteral(literal *ast.Literal) (ConstantValue, bool) {
	text := normalizeLiteral(literal.Value)
	//
	switch literal.Kind {
	case ast.LitF32:
		value, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return ConstantValue{}, false
		}
		//
		return ConstantValue{Kind: KindF32, F32: float32(value)}, true
	case ast.LitU32:
		value, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return ConstantValue{}, false
		}
		//
		return ConstantValue{Kind: KindU32, U32: uint32(value)}, true
	case ast.LitI32:
		value, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return ConstantValue{}, false
		}
		//
		return ConstantValue{Kind: KindI32, I32: int32(value)}, true
	}
	//
	return ConstantValue{Kind: KindBool, Bool: text == "true"}, true
}

func isOperatorFn(name string) bool {
	return slices.Contains(ast.BinaryFns, name) || slices.Contains(ast.UnaryFns, name)
}

// ============================================================================
// Native operator evaluation
// ============================================================================

//nolint:gocyclo
func (e *evaluator) applyOperator(call *ast.FnCall, args []ConstantValue) (ConstantValue, bool) {
	var (
		name = call.Name.Label
		span = call.Span
	)
	//
	switch name {
	case ast.NegFn:
		return e.applyNeg(span, args[0])
	case ast.NotFn:
		return ConstantValue{Kind: KindBool, Bool: !args[0].Bool}, true
	case ast.AndFn:
		return ConstantValue{Kind: KindBool, Bool: args[0].Bool && args[1].Bool}, true
	case ast.OrFn:
		return ConstantValue{Kind: KindBool, Bool: args[0].Bool || args[1].Bool}, true
	case ast.EqFn, ast.NeFn, ast.GtFn, ast.LtFn, ast.GeFn, ast.LeFn:
		return applyComparison(name, args[0], args[1]), true
	}
	// Arithmetic
	switch args[0].Kind {
	case KindF32:
		return applyF32(name, args[0].F32, args[1].F32), true
	case KindU32:
		return e.applyU32(name, span, args[0].U32, args[1].U32)
	case KindI32:
		return e.applyI32(name, span, args[0].I32, args[1].I32)
	}
	//
	return ConstantValue{}, false
}

func (e *evaluator) applyNeg(span source.Span, arg ConstantValue) (ConstantValue, bool) {
	switch arg.Kind {
	case KindF32:
		return ConstantValue{Kind: KindF32, F32: -arg.F32}, true
	case KindI32:
		if arg.I32 == math.MinInt32 {
			e.error(errConstantOverflow(span, I32Type))
			return ConstantValue{}, false
		}
		//
		return ConstantValue{Kind: KindI32, I32: -arg.I32}, true
	}
	//
	return ConstantValue{}, false
}

func applyComparison(name string, left ConstantValue, right ConstantValue) ConstantValue {
	var result bool
	//
	switch name {
	case ast.EqFn:
		result = compare(left, right) == 0
	case ast.NeFn:
		result = compare(left, right) != 0
	case ast.GtFn:
		result = compare(left, right) > 0
	case ast.LtFn:
		result = compare(left, right) < 0
	case ast.GeFn:
		result = compare(left, right) >= 0
	case ast.LeFn:
		result = compare(left, right) <= 0
	}
	//
	return ConstantValue{Kind: KindBool, Bool: result}
}

func compare(left ConstantValue, right ConstantValue) int {
	switch left.Kind {
	case KindF32:
		switch {
		case left.F32 < right.F32:
			return -1
		case left.F32 > right.F32:
			return 1
		}
	case KindU32:
		switch {
		case left.U32 < right.U32:
			return -1
		case left.U32 > right.U32:
			return 1
		}
	case KindI32:
		switch {
		case left.I32 < right.I32:
			return -1
		case left.I32 > right.I32:
			return 1
		}
	case KindBool:
		switch {
		case !left.Bool && right.Bool:
			return -1
		case left.Bool && !right.Bool:
			return 1
		}
	}
	//
	return 0
}

func applyF32(name string, left float32, right float32) ConstantValue {
	var result float32
	//
	switch name {
	case ast.AddFn:
		result = left + right
	case ast.SubFn:
		result = left - right
	case ast.MulFn:
		result = left * right
	case ast.DivFn:
		result = left / right
	case ast.ModFn:
		result = math32.Mod(left, right)
	}
	//
	return ConstantValue{Kind: KindF32, F32: result}
}

func (e *evaluator) applyU32(name string, span source.Span, left uint32, right uint32) (ConstantValue, bool) {
	var result uint64
	//
	switch name {
	case ast.AddFn:
		result = uint64(left) + uint64(right)
	case ast.SubFn:
		if left < right {
			e.error(errConstantOverflow(span, U32Type))
			return ConstantValue{}, false
		}
		//
		result = uint64(left) - uint64(right)
	case ast.MulFn:
		result = uint64(left) * uint64(right)
	case ast.DivFn, ast.ModFn:
		if right == 0 {
			e.error(errDivisionByZero(span))
			return ConstantValue{}, false
		}
		//
		if name == ast.DivFn {
			result = uint64(left / right)
		} else {
			result = uint64(left % right)
		}
	}
	//
	if result > math.MaxUint32 {
		e.error(errConstantOverflow(span, U32Type))
		return ConstantValue{}, false
	}
	//
	return ConstantValue{Kind: KindU32, U32: uint32(result)}, true
}

func (e *evaluator) applyI32(name string, span source.Span, left int32, right int32) (ConstantValue, bool) {
	var result int64
	//
	switch name {
	case ast.AddFn:
		result = int64(left) + int64(right)
	case ast.SubFn:
		result = int64(left) - int64(right)
	case ast.MulFn:
		result = int64(left) * int64(right)
	case ast.DivFn, ast.ModFn:
		if right == 0 {
			e.error(errDivisionByZero(span))
			return ConstantValue{}, false
		}
		//
		if name == ast.DivFn {
			result = int64(left) / int64(right)
		} else {
			result = int64(left) % int64(right)
		}
	}
	//
	if result > math.MaxInt32 || result < math.MinInt32 {
		e.error(errConstantOverflow(span, I32Type))
		return ConstantValue{}, false
	}
	//
	return ConstantValue{Kind: KindI32, I32: int32(result)}, true
}
