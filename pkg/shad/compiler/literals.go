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
	"strconv"
	"strings"

	"github.com/shad-lang/shad/pkg/shad/ast"
)

// The maximum number of integer-part digits of an `f32` literal.
const f32IntPartLimit = 38

// CheckLiterals verifies that every integer literal parses losslessly into
// its type and that `f32` literals keep a representable integer part.
func CheckLiterals(a *Analysis) {
	checker := &literalCheck{a: a}
	//
	for _, module := range a.Modules {
		for _, item := range a.Asts[module].Items {
			switch item := item.(type) {
			case *ast.Buffer:
				ast.WalkExpr(checker, &item.Value)
			case *ast.Constant:
				ast.WalkExpr(checker, &item.Value)
			case *ast.Fn:
				ast.WalkStatements(checker, item.Statements)
			case *ast.Run:
				ast.WalkStatements(checker, item.Statements)
			}
		}
	}
}

type literalCheck struct {
	ast.NopVisitor
	a *Analysis
}

func (c *literalCheck) EnterLiteral(literal *ast.Literal) {
	switch literal.Kind {
	case ast.LitF32:
		c.checkF32(literal)
	case ast.LitU32:
		c.checkInt(literal, U32Type)
	case ast.LitI32:
		c.checkInt(literal, I32Type)
	}
}

func (c *literalCheck) checkF32(literal *ast.Literal) {
	count := intPartDigitCount(literal.Value)
	//
	if count > f32IntPartLimit {
		c.a.Error(errTooManyF32Digits(literal, count, f32IntPartLimit))
	}
}

func (c *literalCheck) checkInt(literal *ast.Literal, typeName string) {
	var err error
	//
	text := normalizeLiteral(literal.Value)
	//
	if typeName == U32Type {
		_, err = strconv.ParseUint(text, 10, 32)
	} else {
		_, err = strconv.ParseInt(text, 10, 32)
	}
	//
	if err != nil {
		c.a.Error(errInvalidInteger(literal, typeName))
	}
}

// Count the digits before the `.` of a float literal, ignoring separators.
func intPartDigitCount(text string) int {
	intPart := text[:strings.Index(text, ".")]
	return len(strings.ReplaceAll(intPart, "_", ""))
}
