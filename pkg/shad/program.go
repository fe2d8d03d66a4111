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
package shad

import (
	"github.com/shad-lang/shad/pkg/shad/compiler"
	"github.com/shad-lang/shad/pkg/util/source"
)

// Program is the result of one compilation.  When the error list is empty it
// holds the emitted shaders in execution order: every init shader, then the
// step shaders to run on each step.  It is immutable to its consumers.
type Program struct {
	// Init shaders in dependency order, followed by startup shaders.
	InitShaders []Shader
	// Step shaders in execution order.
	StepShaders []Shader
	// Every syntax and semantic error produced during compilation.
	Errors []source.SemanticError
	//
	analysis *compiler.Analysis
}

// Shader is one emitted compute shader.
type Shader struct {
	// Diagnostic name of this shader.
	Name string
	// Module the shader originates from.
	Module string
	// The WGSL text of this shader.
	Code string
	// The buffers to bind, in binding order.
	Buffers []BufferBinding
}

// BufferBinding describes one buffer bound by a shader.
type BufferBinding struct {
	Buffer compiler.BufferId
	// The WGSL storage type of the buffer.
	TypeName string
	// The size in bytes of the buffer.
	Size int
	// The binding index within the shader's bind group.
	Binding int
}

// BufferInfo describes one buffer of a compiled program, for embedding
// runners which allocate and read GPU buffers.
type BufferInfo struct {
	Id compiler.BufferId
	// The WGSL storage type of the buffer.
	TypeName string
	// The size in bytes of the buffer.
	Size int
	// The stable global index of the buffer.
	Index int
}

// HasErrors reports whether compilation produced any error.
func (p *Program) HasErrors() bool {
	return len(p.Errors) > 0
}

// RenderErrors pretty-prints every accumulated error as annotated source
// snippets, grouped by module.
func (p *Program) RenderErrors(reporter *source.Reporter) string {
	return reporter.RenderAll(p.Errors)
}

// Buffers returns every buffer of the program, in global index order.
func (p *Program) Buffers() []BufferInfo {
	infos := make([]BufferInfo, 0, len(p.analysis.BufferOrder))
	//
	for _, id := range p.analysis.BufferOrder {
		if info, ok := p.Buffer(id); ok {
			infos = append(infos, info)
		}
	}
	//
	return infos
}

// Buffer returns the metadata of one buffer, if it exists.
func (p *Program) Buffer(id compiler.BufferId) (BufferInfo, bool) {
	buffer, ok := p.analysis.Buffers[id]
	if !ok {
		return BufferInfo{}, false
	}
	//
	bufferType, ok := p.analysis.Types[buffer.Type]
	if !ok {
		return BufferInfo{}, false
	}
	//
	return BufferInfo{
		Id:       id,
		TypeName: bufferType.BufName,
		Size:     bufferType.Size,
		Index:    buffer.Index,
	}, true
}
