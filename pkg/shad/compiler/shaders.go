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
	"sort"

	"github.com/shad-lang/shad/pkg/shad/ast"
)

// AssembleShaders groups the lowered statement blocks into compute shaders.
// Init shaders (one per buffer) are ordered topologically over the
// reads-from-buffer relation, so that every shader only reads buffers that
// are already initialized; ties break lexicographically by module then node
// id.  Startup blocks follow, then step shaders ordered by descending
// priority, module and node id.
func AssembleShaders(a *Analysis) {
	assembleInitShaders(a)
	assembleStartupShaders(a)
	assembleStepShaders(a)
}

func assembleInitShaders(a *Analysis) {
	blocks := make(map[BufferId]*BufferInitBlock, len(a.InitBlocks))
	dependencies := make(map[BufferId]map[BufferId]bool, len(a.InitBlocks))
	//
	for _, block := range a.InitBlocks {
		blocks[block.Buffer] = block
		reads := make(map[BufferId]bool)
		// Self references have been reported as recursion already; the cycle
		// is broken arbitrarily here.
		for _, read := range ListBuffers(a, block.Ast) {
			if read != block.Buffer {
				reads[read] = true
			}
		}
		//
		dependencies[block.Buffer] = reads
	}
	// Candidates in deterministic order: module, then defining node id.
	pending := make([]BufferId, len(a.BufferOrder))
	copy(pending, a.BufferOrder)
	//
	sort.Slice(pending, func(i, j int) bool {
		bi, bj := a.Buffers[pending[i]], a.Buffers[pending[j]]
		//
		if bi.Id.Module != bj.Id.Module {
			return bi.Id.Module < bj.Id.Module
		}
		//
		return bi.Ast.Name.Id < bj.Ast.Name.Id
	})
	//
	initialized := make(map[BufferId]bool, len(pending))
	//
	for len(pending) > 0 {
		var remaining []BufferId
		//
		progressed := false
		//
		for _, id := range pending {
			ready := true
			//
			for dependency := range dependencies[id] {
				if !initialized[dependency] {
					ready = false
					break
				}
			}
			//
			if !ready {
				remaining = append(remaining, id)
				continue
			}
			//
			a.InitShaders = append(a.InitShaders, newShader(a, "init:"+id.String(), id.Module, blocks[id].Ast))
			initialized[id] = true
			progressed = true
		}
		// A cycle survived recursion reporting; break it arbitrarily.
		if !progressed {
			id := remaining[0]
			a.InitShaders = append(a.InitShaders, newShader(a, "init:"+id.String(), id.Module, blocks[id].Ast))
			initialized[id] = true
			remaining = remaining[1:]
		}
		//
		pending = remaining
	}
}

func assembleStartupShaders(a *Analysis) {
	blocks := make([]*RunBlock, len(a.StartupBlocks))
	copy(blocks, a.StartupBlocks)
	//
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Module != blocks[j].Module {
			return blocks[i].Module < blocks[j].Module
		}
		//
		return blocks[i].Ast.Id < blocks[j].Ast.Id
	})
	//
	for _, block := range blocks {
		a.InitShaders = append(a.InitShaders, newShader(a, "startup:"+block.Module, block.Module, block.Ast))
	}
}

func assembleStepShaders(a *Analysis) {
	blocks := make([]*RunBlock, len(a.RunBlocks))
	copy(blocks, a.RunBlocks)
	// Higher priority runs first.
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Priority() != blocks[j].Priority() {
			return blocks[i].Priority() > blocks[j].Priority()
		} else if blocks[i].Module != blocks[j].Module {
			return blocks[i].Module < blocks[j].Module
		}
		//
		return blocks[i].Ast.Id < blocks[j].Ast.Id
	})
	//
	for _, block := range blocks {
		a.StepShaders = append(a.StepShaders, newShader(a, "run:"+block.Module, block.Module, block.Ast))
	}
}

func newShader(a *Analysis, name string, module string, block *ast.Run) *ComputeShader {
	return &ComputeShader{
		Name:       name,
		Module:     module,
		Span:       block.Span,
		BufferIds:  ListBuffers(a, block),
		Fns:        ListFns(a, block),
		Types:      ListTypes(a, block),
		Statements: block.Statements,
	}
}

// ============================================================================
// Listings
// ============================================================================

// ListBuffers collects the buffers a block reads or writes, including through
// function calls, in global buffer order.
func ListBuffers(a *Analysis, block *ast.Run) []BufferId {
	listing := &bufferListing{a: a, found: make(map[BufferId]bool)}
	ast.WalkStatements(listing, block.Statements)
	//
	ids := make([]BufferId, 0, len(listing.found))
	//
	for _, id := range a.BufferOrder {
		if listing.found[id] {
			ids = append(ids, id)
		}
	}
	//
	return ids
}

type bufferListing struct {
	ast.NopVisitor
	a     *Analysis
	found map[BufferId]bool
	// Functions already descended into, against recursive call chains.
	visited []FnId
}

func (v *bufferListing) EnterFnCall(call *ast.FnCall) {
	fn := ResolvedFn(v.a, call)
	//
	if fn == nil || fn.Ast.IsGpu || containsFnId(v.visited, fn.Id) {
		return
	}
	//
	v.visited = append(v.visited, fn.Id)
	ast.WalkStatements(v, fn.Ast.Statements)
	v.visited = v.visited[:len(v.visited)-1]
}

func (v *bufferListing) EnterIdent(ident *ast.Ident) {
	if ident.Kind == ast.IdentFieldRef {
		return
	}
	//
	if info := v.a.Ident(ident); info != nil && info.Source == SourceBuffer {
		v.found[info.Buffer] = true
	}
}

// ListFns collects the functions a block transitively calls, in registration
// order.
func ListFns(a *Analysis, block *ast.Run) []FnId {
	listing := &fnListing{a: a, found: make(map[FnId]bool)}
	ast.WalkStatements(listing, block.Statements)
	//
	ids := make([]FnId, 0, len(listing.found))
	//
	for _, id := range a.FnOrder {
		if listing.found[id] {
			ids = append(ids, id)
		}
	}
	//
	return ids
}

type fnListing struct {
	ast.NopVisitor
	a     *Analysis
	found map[FnId]bool
}

func (v *fnListing) EnterFnCall(call *ast.FnCall) {
	fn := ResolvedFn(v.a, call)
	//
	if fn == nil || v.found[fn.Id] {
		return
	}
	//
	v.found[fn.Id] = true
	//
	if !fn.Ast.IsGpu {
		ast.WalkStatements(v, fn.Ast.Statements)
	}
}

// ListTypes collects the types a block transitively references: the types of
// its buffers, the parameter and return types of the functions it calls, and
// every field type reachable from those.
func ListTypes(a *Analysis, block *ast.Run) []TypeId {
	found := make(map[TypeId]bool)
	//
	for _, fnId := range ListFns(a, block) {
		fn := a.Fns[fnId]
		//
		for _, paramType := range fn.ParamTypes {
			collectTypes(a, paramType, found)
		}
		//
		collectTypes(a, fn.ReturnType, found)
	}
	//
	for _, bufferId := range ListBuffers(a, block) {
		collectTypes(a, a.Buffers[bufferId].Type, found)
	}
	//
	ids := make([]TypeId, 0, len(found))
	//
	for _, id := range a.TypeOrder {
		if found[id] {
			ids = append(ids, id)
		}
	}
	//
	return ids
}

func collectTypes(a *Analysis, id TypeId, found map[TypeId]bool) {
	if !id.IsValid() || found[id] {
		return
	}
	//
	found[id] = true
	//
	if t, ok := a.Types[id]; ok {
		for i := range t.Fields {
			collectTypes(a, t.Fields[i].Type, found)
		}
	}
}

// DirectCallees returns the functions called directly within a statement
// list, in registration order.  The emitter uses this to order function
// definitions before their users.
func DirectCallees(a *Analysis, statements []ast.Statement) []FnId {
	listing := &calleeListing{a: a, found: make(map[FnId]bool)}
	ast.WalkStatements(listing, statements)
	//
	ids := make([]FnId, 0, len(listing.found))
	//
	for _, id := range a.FnOrder {
		if listing.found[id] {
			ids = append(ids, id)
		}
	}
	//
	return ids
}

type calleeListing struct {
	ast.NopVisitor
	a     *Analysis
	found map[FnId]bool
}

func (v *calleeListing) EnterFnCall(call *ast.FnCall) {
	if fn := ResolvedFn(v.a, call); fn != nil {
		v.found[fn.Id] = true
	}
}

func containsFnId(ids []FnId, id FnId) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	//
	return false
}
