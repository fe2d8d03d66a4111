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

// Package shad provides the compiler for the Shad shading language.  Source
// files are compiled into WGSL compute shaders, together with the buffer
// bindings and execution order those shaders require.
package shad

import (
	_ "embed"

	"github.com/shad-lang/shad/pkg/shad/compiler"
	"github.com/shad-lang/shad/pkg/util/source"
	"github.com/shad-lang/shad/pkg/wgsl"
	log "github.com/sirupsen/logrus"
)

// PRELUDE is the built-in source text providing primitive operators.  It is
// merged into the compilation input so that its items participate in
// visibility exactly like user code.
//
//go:embed prelude.shd
var PRELUDE []byte

// Config encapsulates options which affect compilation.
type Config struct {
	// Enable the built-in prelude.
	Prelude bool
}

// Compile compiles all Shad source files under a given root, which may also
// name a single file.  An error is returned only for I/O failures; syntax
// and semantic errors accumulate on the returned program.
func Compile(config Config, root string) (*Program, error) {
	files, err := source.ReadDir(root)
	//
	if err != nil {
		return nil, err
	}
	//
	return CompileFiles(config, files), nil
}

// CompileFiles compiles an explicit set of source files.  This is the
// entry point used by the testing environment.
func CompileFiles(config Config, files []*source.File) *Program {
	if config.Prelude {
		prelude := source.NewSourceFile(compiler.PreludeModule, "prelude.shd", PRELUDE)
		files = append(files, prelude)
	}
	// A single id counter is threaded through the parsing of every file, so
	// that node ids are unique across the whole program.
	counter := compiler.NewCounter()
	a := compiler.NewAnalysis(counter)
	//
	for _, file := range files {
		a.Files[file.Module()] = file
		//
		root, err := compiler.Parse(file, counter)
		if err != nil {
			a.Error(source.SyntaxErrorAsSemantic(err))
			continue
		}
		//
		a.Asts[file.Module()] = root
		a.Modules = append(a.Modules, file.Module())
	}
	//
	log.Debugf("parsed %d module(s)", len(a.Modules))
	// Registration must complete before any resolution, so that item lookup
	// never depends on declaration order.
	compiler.RegisterModules(a)
	compiler.RegisterBuiltinTypes(a)
	compiler.RegisterTypes(a)
	compiler.ResolveTypeFields(a)
	compiler.RegisterConstants(a)
	compiler.RegisterBuffers(a)
	compiler.RegisterFns(a)
	compiler.RegisterRunBlocks(a)
	log.Debugf("registered %d buffer(s), %d constant(s), %d function(s), %d type(s)",
		len(a.BufferOrder), len(a.ConstantOrder), len(a.FnOrder), len(a.TypeOrder))
	//
	compiler.ResolveIdents(a)
	compiler.EvalConstants(a)
	compiler.Check(a)
	log.Debugf("analysis completed with %d error(s)", len(a.Errors))
	// The lowering rewrites and shader assembly require a well-formed
	// program; WGSL is only emitted when no error was produced.
	if len(a.Errors) == 0 {
		compiler.Transform(a)
		compiler.AssembleShaders(a)
	}
	//
	return newProgram(a)
}

func newProgram(a *compiler.Analysis) *Program {
	program := &Program{analysis: a, Errors: a.Errors}
	//
	if len(a.Errors) > 0 {
		return program
	}
	//
	program.InitShaders = emitShaders(a, a.InitShaders, program)
	program.StepShaders = emitShaders(a, a.StepShaders, program)
	// Emission failures invalidate the shader set.
	if len(program.Errors) > 0 {
		program.InitShaders = nil
		program.StepShaders = nil
	}
	//
	log.Debugf("emitted %d init shader(s) and %d step shader(s)",
		len(program.InitShaders), len(program.StepShaders))
	//
	return program
}

func emitShaders(a *compiler.Analysis, shaders []*compiler.ComputeShader, program *Program) []Shader {
	emitted := make([]Shader, 0, len(shaders))
	//
	for _, shader := range shaders {
		code, err := wgsl.EmitShader(a, shader)
		//
		if err != nil {
			program.Errors = append(program.Errors, source.NewSemanticError(err.Error(),
				source.LocatedMessage{Level: source.LevelError, Span: shader.Span, Text: "emitted from here"}))
			continue
		}
		//
		bindings := make([]BufferBinding, len(shader.BufferIds))
		//
		for binding, id := range shader.BufferIds {
			buffer := a.Buffers[id]
			bufferType := a.Types[buffer.Type]
			//
			bindings[binding] = BufferBinding{
				Buffer:   id,
				TypeName: bufferType.BufName,
				Size:     bufferType.Size,
				Binding:  binding,
			}
		}
		//
		emitted = append(emitted, Shader{
			Name:    shader.Name,
			Module:  shader.Module,
			Code:    code,
			Buffers: bindings,
		})
	}
	//
	return emitted
}
