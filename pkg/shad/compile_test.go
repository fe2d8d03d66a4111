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
package shad_test

import (
	"strings"
	"testing"

	"github.com/shad-lang/shad/pkg/shad"
	"github.com/shad-lang/shad/pkg/shad/compiler"
	"github.com/shad-lang/shad/pkg/util/source"
)

func TestCompile_SimpleBuffer(t *testing.T) {
	program := compileOne(t, "buf x = 1u + 2u;")
	//
	checkNoErrors(t, program)
	//
	if len(program.InitShaders) != 1 {
		t.Fatalf("got %d init shaders, expected 1", len(program.InitShaders))
	}
	//
	code := program.InitShaders[0].Code
	checkContains(t, code, "@group(0) @binding(0) var<storage, read_write> x_0: u32;")
	checkContains(t, code, "    x_0 = 3u;")
	// Buffer metadata for the embedding runner.
	buffer, ok := program.Buffer(compiler.BufferId{Module: "main", Name: "x"})
	if !ok {
		t.Fatalf("buffer x not found")
	} else if buffer.TypeName != "u32" || buffer.Size != 4 || buffer.Index != 0 {
		t.Errorf("got %v, expected u32 buffer of size 4 at index 0", buffer)
	}
}

func TestCompile_ConstantFolding(t *testing.T) {
	folded := compileOne(t, "const K = 2u; buf x = K + 1u;")
	direct := compileOne(t, "buf x = 2u + 1u;")
	//
	checkNoErrors(t, folded)
	checkNoErrors(t, direct)
	//
	if folded.InitShaders[0].Code != direct.InitShaders[0].Code {
		t.Errorf("got %q, expected %q", folded.InitShaders[0].Code, direct.InitShaders[0].Code)
	}
	//
	checkContains(t, folded.InitShaders[0].Code, "x_0 = 3u;")
}

func TestCompile_BufferRecursion(t *testing.T) {
	program := compileOne(t, "buf a = b; buf b = a;")
	//
	if len(program.Errors) != 2 {
		t.Fatalf("got %d errors, expected 2", len(program.Errors))
	}
	//
	first := program.Errors[0].Primary().Span
	second := program.Errors[1].Primary().Span
	//
	if first == second {
		t.Errorf("expected distinct primary spans, got %v twice", first)
	}
	// No WGSL may be emitted for an erroneous program.
	if len(program.InitShaders)+len(program.StepShaders) != 0 {
		t.Errorf("expected no shaders, got %d", len(program.InitShaders)+len(program.StepShaders))
	}
}

func TestCompile_Overloading(t *testing.T) {
	program := compileOne(t, `
		fn foo(x: u32) -> u32 { return x; }
		fn foo(x: f32) -> f32 { return x; }
		buf a = foo(1u);
		buf b = foo(1.0);
	`)
	//
	checkNoErrors(t, program)
	//
	a, _ := program.Buffer(compiler.BufferId{Module: "main", Name: "a"})
	b, _ := program.Buffer(compiler.BufferId{Module: "main", Name: "b"})
	//
	if a.TypeName != "u32" {
		t.Errorf("got %s, expected u32", a.TypeName)
	}
	//
	if b.TypeName != "f32" {
		t.Errorf("got %s, expected f32", b.TypeName)
	}
	// Each init shader carries its own overload definition.
	checkContains(t, program.InitShaders[0].Code, "fn foo_")
	checkContains(t, program.InitShaders[0].Code, "-> u32")
	checkContains(t, program.InitShaders[1].Code, "-> f32")
}

func TestCompile_PriorityOrdering(t *testing.T) {
	program := compile(t, map[string]string{
		"first":  "run priority 10 { var a = 1u; }",
		"second": "run priority -5 { var b = 2u; }",
	})
	//
	checkNoErrors(t, program)
	//
	if len(program.StepShaders) != 2 {
		t.Fatalf("got %d step shaders, expected 2", len(program.StepShaders))
	}
	//
	if program.StepShaders[0].Module != "first" || program.StepShaders[1].Module != "second" {
		t.Errorf("got order (%s, %s), expected (first, second)",
			program.StepShaders[0].Module, program.StepShaders[1].Module)
	}
}

func TestCompile_RefInlining(t *testing.T) {
	program := compileOne(t, `
		struct Point { x: f32, y: f32, }
		gpu fn point(a: f32, b: f32) -> Point;
		buf s = point(1.0, 2.0);
		run {
			ref r = s.x;
			r = 9.5;
		}
	`)
	//
	checkNoErrors(t, program)
	//
	if len(program.StepShaders) != 1 {
		t.Fatalf("got %d step shaders, expected 1", len(program.StepShaders))
	}
	//
	code := program.StepShaders[0].Code
	// The ref binding is gone; the assignment targets the buffer field.
	checkContains(t, code, "s_0.x = 9.5;")
	//
	if strings.Contains(code, "var r") {
		t.Errorf("ref binding survived lowering:\n%s", code)
	}
	// The struct definition is emitted for the shader.
	checkContains(t, code, "struct Point_")
}

func TestCompile_InitShaderOrdering(t *testing.T) {
	program := compile(t, map[string]string{
		"app": "import lib; buf y = base + 1u;",
		"lib": "pub buf base = 2u;",
	})
	//
	checkNoErrors(t, program)
	//
	if len(program.InitShaders) != 2 {
		t.Fatalf("got %d init shaders, expected 2", len(program.InitShaders))
	}
	// The read buffer must be initialized first.
	if program.InitShaders[0].Name != "init:lib.base" {
		t.Errorf("got %s first, expected init:lib.base", program.InitShaders[0].Name)
	}
	//
	if program.InitShaders[1].Name != "init:app.y" {
		t.Errorf("got %s second, expected init:app.y", program.InitShaders[1].Name)
	}
	// Every init shader only reads buffers already initialized; the written
	// buffer is the one the shader is named after.
	initialized := make(map[compiler.BufferId]bool)
	//
	for _, shader := range program.InitShaders {
		for _, binding := range shader.Buffers {
			written := shader.Name == "init:"+binding.Buffer.String()
			//
			if !written && !initialized[binding.Buffer] {
				t.Errorf("shader %s reads uninitialized buffer %s", shader.Name, binding.Buffer)
			}
			//
			if written {
				initialized[binding.Buffer] = true
			}
		}
	}
}

func TestCompile_ModuleNotFound(t *testing.T) {
	program := compileOne(t, "import nope; buf x = 1u;")
	//
	if len(program.Errors) != 1 {
		t.Fatalf("got %d errors, expected 1", len(program.Errors))
	}
	//
	checkContains(t, program.Errors[0].Message, "module `nope` not found")
}

func TestCompile_PrivateItemNotVisible(t *testing.T) {
	program := compile(t, map[string]string{
		"app": "import lib; buf y = base + 1u;",
		"lib": "buf base = 2u;",
	})
	//
	if len(program.Errors) == 0 {
		t.Fatalf("expected an error for a non-public import")
	}
	//
	checkContains(t, program.Errors[0].Message, "`base` identifier not found")
}

func TestCompile_DuplicatedFunction(t *testing.T) {
	program := compileOne(t, `
		fn foo(x: u32) -> u32 { return x; }
		fn foo(x: u32) -> u32 { return x; }
		buf a = foo(1u);
	`)
	//
	if len(program.Errors) != 1 {
		t.Fatalf("got %d errors, expected 1", len(program.Errors))
	}
	//
	checkContains(t, program.Errors[0].Message, "function `foo` is defined multiple times")
}

func TestCompile_LiteralBoundaries(t *testing.T) {
	// Largest valid u32 literal.
	checkNoErrors(t, compileOne(t, "buf x = 4294967295u;"))
	// One past it.
	program := compileOne(t, "buf x = 4294967296u;")
	if len(program.Errors) != 1 {
		t.Fatalf("got %d errors, expected 1", len(program.Errors))
	}
	//
	checkContains(t, program.Errors[0].Message, "`u32` literal out of range")
	// 38 integer-part digits parse, 39 do not.
	digits38 := strings.Repeat("9", 38)
	checkNoErrors(t, compileOne(t, "buf x = "+digits38+".0;"))
	//
	program = compileOne(t, "buf x = 9"+digits38+".0;")
	if len(program.Errors) != 1 {
		t.Fatalf("got %d errors, expected 1", len(program.Errors))
	}
	//
	checkContains(t, program.Errors[0].Message, "too many digits")
}

func TestCompile_DigitSeparators(t *testing.T) {
	separated := compileOne(t, "buf x = 1_000u + 2_4u;")
	plain := compileOne(t, "buf x = 1000u + 24u;")
	//
	checkNoErrors(t, separated)
	checkNoErrors(t, plain)
	//
	if separated.InitShaders[0].Code != plain.InitShaders[0].Code {
		t.Errorf("got %q, expected %q", separated.InitShaders[0].Code, plain.InitShaders[0].Code)
	}
}

func TestCompile_ReturnPlacement(t *testing.T) {
	program := compileOne(t, `
		fn foo(x: u32) -> u32 {
			return x;
			var y = 1u;
		}
		buf a = foo(1u);
	`)
	//
	if len(program.Errors) != 1 {
		t.Fatalf("got %d errors, expected 1", len(program.Errors))
	}
	//
	checkContains(t, program.Errors[0].Message, "statement found after `return`")
	// Return outside any function.
	program = compileOne(t, "run { return 1u; }")
	//
	if len(program.Errors) != 1 {
		t.Fatalf("got %d errors, expected 1", len(program.Errors))
	}
	//
	checkContains(t, program.Errors[0].Message, "`return` statement used outside function")
}

func TestCompile_ReturnTypeMismatch(t *testing.T) {
	program := compileOne(t, `
		fn foo(x: u32) -> u32 { return 1.0; }
		buf a = foo(1u);
	`)
	//
	if len(program.Errors) != 1 {
		t.Fatalf("got %d errors, expected 1", len(program.Errors))
	}
	//
	checkContains(t, program.Errors[0].Message, "invalid type for returned expression")
}

func TestCompile_AssignToConstant(t *testing.T) {
	program := compileOne(t, "const K = 1u; run { K = 2u; }")
	//
	if len(program.Errors) != 1 {
		t.Fatalf("got %d errors, expected 1", len(program.Errors))
	}
	//
	checkContains(t, program.Errors[0].Message, "invalid left value")
}

func TestCompile_AssignmentTypeMismatch(t *testing.T) {
	program := compileOne(t, "buf x = 1u; run { x = 1.0; }")
	//
	if len(program.Errors) != 1 {
		t.Fatalf("got %d errors, expected 1", len(program.Errors))
	}
	//
	checkContains(t, program.Errors[0].Message, "invalid type in assignment")
}

func TestCompile_InvalidConstScope(t *testing.T) {
	program := compileOne(t, "buf x = 1u; const K = x;")
	//
	if len(program.Errors) != 1 {
		t.Fatalf("got %d errors, expected 1", len(program.Errors))
	}
	//
	checkContains(t, program.Errors[0].Message, "invalid reference in `const` context")
}

func TestCompile_ConstFn(t *testing.T) {
	program := compileOne(t, `
		const fn double(x: u32) -> u32 { return x * 2u; }
		const K = double(21u);
		buf x = K;
	`)
	//
	checkNoErrors(t, program)
	checkContains(t, program.InitShaders[0].Code, "x_0 = 42u;")
}

func TestCompile_ConstantOverflow(t *testing.T) {
	program := compileOne(t, "const K = 4294967295u + 1u; buf x = K;")
	//
	if len(program.Errors) == 0 {
		t.Fatalf("expected an overflow error")
	}
	//
	checkContains(t, program.Errors[0].Message, "overflow")
}

func TestCompile_DivisionByZero(t *testing.T) {
	program := compileOne(t, "const K = 1u / 0u; buf x = K;")
	//
	if len(program.Errors) == 0 {
		t.Fatalf("expected a division by zero error")
	}
	//
	checkContains(t, program.Errors[0].Message, "division by zero")
}

func TestCompile_FnRecursion(t *testing.T) {
	program := compileOne(t, `
		fn odd(x: u32) -> u32 { return even(x); }
		fn even(x: u32) -> u32 { return odd(x); }
		buf a = odd(1u);
	`)
	//
	if len(program.Errors) != 2 {
		t.Fatalf("got %d errors, expected 2", len(program.Errors))
	}
	//
	checkContains(t, program.Errors[0].Message, "recursive function")
}

func TestCompile_TypeRecursion(t *testing.T) {
	program := compileOne(t, `
		struct A { b: B, }
		struct B { a: A, }
	`)
	//
	if len(program.Errors) != 2 {
		t.Fatalf("got %d errors, expected 2", len(program.Errors))
	}
	//
	checkContains(t, program.Errors[0].Message, "recursive type")
}

func TestCompile_BoolBufferStorage(t *testing.T) {
	program := compileOne(t, "buf flag = true;")
	//
	checkNoErrors(t, program)
	// `bool` buffers are stored as `u32`.
	checkContains(t, program.InitShaders[0].Code, "var<storage, read_write> flag_0: u32;")
	checkContains(t, program.InitShaders[0].Code, "flag_0 = u32(true);")
}

func TestCompile_StepShaderStatements(t *testing.T) {
	program := compileOne(t, `
		buf x = 0u;
		run {
			var next = x + 1u;
			x = next;
		}
	`)
	//
	checkNoErrors(t, program)
	//
	code := program.StepShaders[0].Code
	// User variables are renamed to label_{id} forms.
	checkContains(t, code, "var next_")
	checkContains(t, code, "x_0 = next_")
	checkContains(t, code, "(x_0 + 1u)")
}

func TestCompile_SyntaxError(t *testing.T) {
	program := compileOne(t, "buf x 1u;")
	//
	if len(program.Errors) != 1 {
		t.Fatalf("got %d errors, expected 1", len(program.Errors))
	}
	//
	checkContains(t, program.Errors[0].Message, "expected `=`")
	//
	if program.Errors[0].Primary().Text != "here" {
		t.Errorf("got %q, expected \"here\"", program.Errors[0].Primary().Text)
	}
}

func TestCompile_MissingRoot(t *testing.T) {
	_, err := shad.Compile(shad.Config{Prelude: true}, "does/not/exist")
	//
	if err == nil {
		t.Errorf("expected an I/O error for a missing root")
	}
}

// ==================================================================
// Framework
// ==================================================================

func compileOne(t *testing.T, text string) *shad.Program {
	return compile(t, map[string]string{"main": text})
}

func compile(t *testing.T, sources map[string]string) *shad.Program {
	t.Helper()
	//
	var (
		files   []*source.File
		modules []string
	)
	//
	for module := range sources {
		modules = append(modules, module)
	}
	// Deterministic compilation order
	for _, module := range sortedStrings(modules) {
		files = append(files, source.NewSourceFile(module, module+".shd", []byte(sources[module])))
	}
	//
	return shad.CompileFiles(shad.Config{Prelude: true}, files)
}

func sortedStrings(items []string) []string {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j] < items[j-1]; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
	//
	return items
}

func checkNoErrors(t *testing.T, program *shad.Program) {
	t.Helper()
	//
	if program.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", program.RenderErrors(source.NewPlainReporter()))
	}
}

func checkContains(t *testing.T, text string, expected string) {
	t.Helper()
	//
	if !strings.Contains(text, expected) {
		t.Errorf("missing %q in:\n%s", expected, text)
	}
}
