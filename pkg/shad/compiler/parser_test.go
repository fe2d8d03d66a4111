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
	"testing"

	"github.com/shad-lang/shad/pkg/shad/ast"
	"github.com/shad-lang/shad/pkg/util/source"
)

func TestParse_Precedence(t *testing.T) {
	root := parseOne(t, "buf x = 1u + 2u * 3u;")
	//
	buffer := root.Items[0].(*ast.Buffer)
	// Operators desugar into calls: __add__(1u, __mul__(2u, 3u)).
	add := buffer.Value.Root.(*ast.FnCall)
	//
	if add.Name.Label != ast.AddFn {
		t.Fatalf("got %s, expected %s", add.Name.Label, ast.AddFn)
	}
	//
	mul := add.Args[1].Root.(*ast.FnCall)
	//
	if mul.Name.Label != ast.MulFn {
		t.Errorf("got %s, expected %s", mul.Name.Label, ast.MulFn)
	}
}

func TestParse_LeftAssociativity(t *testing.T) {
	root := parseOne(t, "buf x = 1u - 2u - 3u;")
	//
	buffer := root.Items[0].(*ast.Buffer)
	// (1u - 2u) - 3u
	outer := buffer.Value.Root.(*ast.FnCall)
	inner := outer.Args[0].Root.(*ast.FnCall)
	//
	if outer.Name.Label != ast.SubFn || inner.Name.Label != ast.SubFn {
		t.Errorf("got (%s, %s), expected two %s calls", outer.Name.Label, inner.Name.Label, ast.SubFn)
	}
	//
	if literal, ok := outer.Args[1].Root.(*ast.Literal); !ok || literal.Value != "3u" {
		t.Errorf("expected 3u as outer right operand")
	}
}

func TestParse_UnaryDesugar(t *testing.T) {
	root := parseOne(t, "buf x = -1;")
	//
	buffer := root.Items[0].(*ast.Buffer)
	neg := buffer.Value.Root.(*ast.FnCall)
	//
	if neg.Name.Label != ast.NegFn || len(neg.Args) != 1 {
		t.Errorf("got %s/%d, expected %s/1", neg.Name.Label, len(neg.Args), ast.NegFn)
	}
}

func TestParse_TrailingComma(t *testing.T) {
	parseOne(t, "buf x = foo(1u, 2u,);")
}

func TestParse_FieldChain(t *testing.T) {
	root := parseOne(t, "run { a.b.c = 1u; }")
	//
	run := root.Items[0].(*ast.Run)
	assignment := run.Statements[0].(*ast.Assignment)
	//
	if len(assignment.Left.Fields) != 2 {
		t.Fatalf("got %d fields, expected 2", len(assignment.Left.Fields))
	}
	//
	if assignment.Left.Fields[0].Label != "b" || assignment.Left.Fields[1].Label != "c" {
		t.Errorf("got (%s, %s), expected (b, c)",
			assignment.Left.Fields[0].Label, assignment.Left.Fields[1].Label)
	}
	//
	for _, field := range assignment.Left.Fields {
		if field.Kind != ast.IdentFieldRef {
			t.Errorf("field %s is not marked as a field reference", field.Label)
		}
	}
}

func TestParse_RunPriority(t *testing.T) {
	root := parseOne(t, "run priority -5 { }")
	//
	run := root.Items[0].(*ast.Run)
	//
	if run.Priority == nil || *run.Priority != -5 {
		t.Errorf("got %v, expected -5", run.Priority)
	}
	//
	if run.IsInit {
		t.Errorf("run block parsed as init block")
	}
}

func TestParse_InitBlock(t *testing.T) {
	root := parseOne(t, "init { var x = 1u; }")
	//
	run := root.Items[0].(*ast.Run)
	//
	if !run.IsInit {
		t.Errorf("init block not marked as init")
	}
}

func TestParse_GpuFn(t *testing.T) {
	root := parseOne(t, "pub gpu fn sqrt(a: f32) -> f32;")
	//
	fn := root.Items[0].(*ast.Fn)
	//
	if !fn.IsGpu || !fn.IsPub || fn.IsConst {
		t.Errorf("unexpected qualifiers on gpu function")
	}
	//
	if fn.ReturnType == nil || fn.ReturnType.Name.Label != "f32" {
		t.Errorf("missing return type")
	}
}

func TestParse_ConstGpuFn(t *testing.T) {
	root := parseOne(t, "pub const gpu fn __add__(a: u32, b: u32) -> u32;")
	//
	fn := root.Items[0].(*ast.Fn)
	//
	if !fn.IsGpu || !fn.IsConst {
		t.Errorf("unexpected qualifiers on const gpu function")
	}
}

func TestParse_RefReturnType(t *testing.T) {
	root := parseOne(t, "fn first(p: Point) -> ref f32 { return p.x; }")
	//
	fn := root.Items[0].(*ast.Fn)
	//
	if fn.ReturnType == nil || !fn.ReturnType.IsRef {
		t.Errorf("expected a ref return type")
	}
}

func TestParse_Import(t *testing.T) {
	root := parseOne(t, "import ~.a.b;")
	//
	imported := root.Items[0].(*ast.Import)
	//
	if imported.ParentCount != 1 || len(imported.Segments) != 2 {
		t.Errorf("got %d/%d, expected 1 parent and 2 segments",
			imported.ParentCount, len(imported.Segments))
	}
}

func TestParse_UniqueIds(t *testing.T) {
	counter := NewCounter()
	seen := make(map[uint64]bool)
	//
	for _, text := range []string{"buf x = 1u + 2u;", "buf y = x * x;"} {
		srcfile := source.NewSourceFile("main", "main.shd", []byte(text))
		//
		root, err := Parse(srcfile, counter)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		//
		collector := &idCollector{t: t, seen: seen}
		//
		for _, item := range root.Items {
			buffer := item.(*ast.Buffer)
			collector.check(&buffer.Name)
			ast.WalkExpr(collector, &buffer.Value)
		}
	}
}

func TestParse_Error(t *testing.T) {
	srcfile := source.NewSourceFile("main", "main.shd", []byte("buf = 1;"))
	//
	_, err := Parse(srcfile, NewCounter())
	if err == nil {
		t.Fatalf("expected a syntax error")
	}
	//
	if err.Message() != "expected buffer name" {
		t.Errorf("got %q, expected \"expected buffer name\"", err.Message())
	}
	//
	if err.Span().Start() != 4 {
		t.Errorf("got span start %d, expected 4", err.Span().Start())
	}
}

// ==================================================================
// Framework
// ==================================================================

func parseOne(t *testing.T, text string) *ast.Root {
	t.Helper()
	//
	srcfile := source.NewSourceFile("main", "main.shd", []byte(text))
	//
	root, err := Parse(srcfile, NewCounter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	//
	return root
}

type idCollector struct {
	ast.NopVisitor
	t    *testing.T
	seen map[uint64]bool
}

func (v *idCollector) EnterIdent(ident *ast.Ident) {
	v.check(ident)
}

func (v *idCollector) check(ident *ast.Ident) {
	if v.seen[ident.Id] {
		v.t.Errorf("node id %d assigned twice", ident.Id)
	}
	//
	v.seen[ident.Id] = true
}
