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
	"regexp"
	"testing"

	"github.com/shad-lang/shad/pkg/shad/ast"
	"github.com/shad-lang/shad/pkg/util/source"
)

// A reduced prelude covering the operators used by the tests here.
const testPrelude = `
pub const gpu fn __add__(a: u32, b: u32) -> u32;
pub const gpu fn __mul__(a: u32, b: u32) -> u32;
`

func TestNormalizeLiterals_Idempotent(t *testing.T) {
	a := analyzeSource(t, "buf x = 1_000u + 2_4u;")
	//
	NormalizeLiterals(a)
	first := literalValues(a)
	//
	NormalizeLiterals(a)
	second := literalValues(a)
	//
	if len(first) == 0 {
		t.Fatalf("no literals found")
	}
	//
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("literal %d changed on second pass: %q vs %q", i, first[i], second[i])
		}
		//
		if first[i] == "1_000u" || first[i] == "1000u" {
			t.Errorf("literal %d not normalized: %q", i, first[i])
		}
	}
}

func TestNormalizeLiterals_ValuePreserved(t *testing.T) {
	a := analyzeSource(t, "buf x = 1_000u;")
	//
	NormalizeLiterals(a)
	//
	values := literalValues(a)
	//
	if len(values) != 1 || values[0] != "1000" {
		t.Errorf("got %v, expected [1000]", values)
	}
}

func TestInlineConstants_Idempotent(t *testing.T) {
	a := analyzeSource(t, "const K = 2u; buf x = K + 1u;")
	//
	NormalizeLiterals(a)
	InlineConstants(a)
	first := literalValues(a)
	//
	InlineConstants(a)
	second := literalValues(a)
	//
	// The constant reference became the literal 2.
	if len(first) != 2 {
		t.Fatalf("got %d literals, expected 2", len(first))
	}
	//
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("literal %d changed on second pass: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestRenameVariables_Shape(t *testing.T) {
	a := analyzeSource(t, `
		buf x = 1u;
		run {
			var count = x;
			var total = count + 1u;
			x = total;
		}
	`)
	//
	Transform(a)
	//
	var (
		pattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*_[0-9]+$`)
		seen    = make(map[string]bool)
	)
	//
	for _, block := range a.RunBlocks {
		for _, statement := range block.Ast.Statements {
			definition, ok := statement.(*ast.VarDefinition)
			if !ok {
				continue
			}
			//
			if !pattern.MatchString(definition.Name.Label) {
				t.Errorf("variable %q not renamed to label_{id}", definition.Name.Label)
			}
			//
			if seen[definition.Name.Label] {
				t.Errorf("variable name %q not unique", definition.Name.Label)
			}
			//
			seen[definition.Name.Label] = true
		}
	}
	//
	if len(seen) != 2 {
		t.Errorf("got %d variables, expected 2", len(seen))
	}
}

func TestCopyOutParams(t *testing.T) {
	a := analyzeSource(t, `
		fn bump(n: u32) -> u32 {
			return n + 1u;
		}
		buf x = bump(1u);
	`)
	//
	Transform(a)
	//
	fn := a.Fns[findFnId(a, "bump")]
	// A shadow definition was prepended for the parameter.
	definition, ok := fn.Ast.Statements[0].(*ast.VarDefinition)
	//
	if !ok {
		t.Fatalf("expected a shadow variable definition first")
	}
	//
	if definition.IsRef {
		t.Errorf("shadow definition must not be a ref")
	}
	// Its initializer reads the parameter itself.
	if root := definition.Expr.RootIdent(); root == nil || root.Label != "n" {
		t.Errorf("shadow initializer does not read the parameter")
	}
}

func TestInlineRefVars_NoRefLeft(t *testing.T) {
	a := analyzeSource(t, `
		buf x = 1u;
		run {
			ref alias = x;
			alias = 2u;
		}
	`)
	//
	Transform(a)
	//
	for _, block := range a.RunBlocks {
		for _, statement := range block.Ast.Statements {
			if definition, ok := statement.(*ast.VarDefinition); ok && definition.IsRef {
				t.Errorf("ref binding %q survived lowering", definition.Name.Label)
			}
		}
		// The assignment now targets the buffer directly.
		assignment := block.Ast.Statements[len(block.Ast.Statements)-1].(*ast.Assignment)
		root := assignment.Left.RootIdent()
		//
		if root == nil {
			t.Fatalf("assignment target is not an identifier path")
		}
		//
		if info := a.Ident(root); info == nil || info.Source != SourceBuffer {
			t.Errorf("assignment target does not resolve to the buffer")
		}
	}
}

// ==================================================================
// Framework
// ==================================================================

func analyzeSource(t *testing.T, text string) *Analysis {
	t.Helper()
	//
	var (
		counter = NewCounter()
		a       = NewAnalysis(counter)
		files   = []*source.File{
			source.NewSourceFile("main", "main.shd", []byte(text)),
			source.NewSourceFile(PreludeModule, "prelude.shd", []byte(testPrelude)),
		}
	)
	//
	for _, file := range files {
		a.Files[file.Module()] = file
		//
		root, err := Parse(file, counter)
		if err != nil {
			t.Fatalf("unexpected syntax error: %v", err)
		}
		//
		a.Asts[file.Module()] = root
		a.Modules = append(a.Modules, file.Module())
	}
	//
	RegisterModules(a)
	RegisterBuiltinTypes(a)
	RegisterTypes(a)
	ResolveTypeFields(a)
	RegisterConstants(a)
	RegisterBuffers(a)
	RegisterFns(a)
	RegisterRunBlocks(a)
	ResolveIdents(a)
	EvalConstants(a)
	Check(a)
	//
	if len(a.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", a.Errors)
	}
	//
	return a
}

// Collect every literal text in init and run blocks, in walk order.
func literalValues(a *Analysis) []string {
	collector := &literalCollector{}
	//
	for _, block := range a.InitBlocks {
		ast.WalkStatements(collector, block.Ast.Statements)
	}
	//
	for _, block := range a.RunBlocks {
		ast.WalkStatements(collector, block.Ast.Statements)
	}
	//
	return collector.values
}

type literalCollector struct {
	ast.NopVisitor
	values []string
}

func (v *literalCollector) EnterLiteral(literal *ast.Literal) {
	v.values = append(v.values, literal.Value)
}

func findFnId(a *Analysis, name string) FnId {
	for _, id := range a.FnOrder {
		if id.Name == name {
			return id
		}
	}
	//
	return FnId{}
}
