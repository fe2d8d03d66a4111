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
)

// Label given to every synthesized variable.
const generatedLabel = "generated"

// Transform lowers the resolved program into a form directly translatable to
// WGSL.  The passes run in a fixed order on the whole program; each preserves
// the invariants established by earlier stages.  Synthesized nodes take
// fresh ids with matching occurrence entries; nodes surviving a pass keep
// their ids.
func Transform(a *Analysis) {
	NormalizeLiterals(a)
	InlineConstants(a)
	FoldConstants(a)
	ExtractCallStatements(a)
	ExtractLeftValues(a)
	InlineRefVars(a)
	CopyOutParams(a)
	RenameVariables(a)
}

// Apply a statement-list rewrite to every init block, startup block, run
// block, and non-gpu function body.
func forEachBlock(a *Analysis, rewrite func(*[]ast.Statement)) {
	for _, block := range a.InitBlocks {
		rewrite(&block.Ast.Statements)
	}
	//
	for _, block := range a.StartupBlocks {
		rewrite(&block.Ast.Statements)
	}
	//
	for _, block := range a.RunBlocks {
		rewrite(&block.Ast.Statements)
	}
	//
	for _, id := range a.FnOrder {
		if fn := a.Fns[id]; !fn.Ast.IsGpu {
			rewrite(&fn.Ast.Statements)
		}
	}
}

// Synthesize `var generated = expr;` together with an identifier referring to
// the new variable, allocating fresh ids whose type mirrors the expression.
func extractInVariable(a *Analysis, expr *ast.Expr, isRef bool) (ast.Statement, ast.Ident) {
	var (
		typeId = ExprType(a, expr)
		defId  = a.NextId()
		useId  = a.NextId()
	)
	//
	a.Idents[defId] = &IdentInfo{Source: SourceVar, Var: defId, Type: typeId, IsRef: isRef}
	a.Idents[useId] = &IdentInfo{Source: SourceVar, Var: defId, Type: typeId, IsRef: isRef}
	//
	definition := &ast.VarDefinition{
		Span:  expr.Span,
		Name:  ast.Ident{Span: expr.Span, Label: generatedLabel, Id: defId, Kind: ast.IdentVarDef},
		IsRef: isRef,
		Expr:  *expr.Clone(),
	}
	use := ast.Ident{Span: expr.Span, Label: generatedLabel, Id: useId, Kind: ast.IdentOther}
	//
	return definition, use
}

// ============================================================================
// 1. Literal normalization
// ============================================================================

// NormalizeLiterals removes digit-separator underscores and the `u` suffix
// from every numeric literal's text.  Type annotations are unchanged, and
// applying the pass twice is a no-op.
func NormalizeLiterals(a *Analysis) {
	normalizer := &literalNormalizer{}
	//
	forEachBlock(a, func(statements *[]ast.Statement) {
		ast.WalkStatements(normalizer, *statements)
	})
}

type literalNormalizer struct {
	ast.NopVisitor
}

func (v *literalNormalizer) EnterLiteral(literal *ast.Literal) {
	literal.Value = normalizeLiteral(literal.Value)
}

// ============================================================================
// 2. Constant inlining
// ============================================================================

// InlineConstants replaces every expression root resolving to a constant by
// the constant's evaluated literal.  Constants whose evaluation failed are
// left in place; the corresponding errors have already been reported.
func InlineConstants(a *Analysis) {
	inliner := &constantInliner{a: a}
	//
	forEachBlock(a, func(statements *[]ast.Statement) {
		ast.WalkStatements(inliner, *statements)
	})
}

type constantInliner struct {
	ast.NopVisitor
	a *Analysis
}

func (v *constantInliner) EnterExpr(expr *ast.Expr) {
	root := expr.RootIdent()
	if root == nil {
		return
	}
	//
	info := v.a.Ident(root)
	if info == nil || info.Source != SourceConstant {
		return
	}
	//
	value := v.a.Constants[info.Constant].Value
	//
	if value != nil && value.Kind != KindStruct {
		expr.Root = &ast.Literal{
			Span:  root.Span,
			Value: value.LiteralText(),
			Kind:  value.LiteralKind(),
		}
	}
}

// ============================================================================
// Constant expression folding
// ============================================================================

// FoldConstants replaces every expression the constant evaluator can fully
// evaluate with its literal value.  Runtime expressions which cannot be
// evaluated are left untouched, without any error; overflow and division by
// zero in actual `const` contexts were reported during constant evaluation.
func FoldConstants(a *Analysis) {
	folder := &constantFolder{
		e: &evaluator{a: a, states: make(map[ConstantId]uint8), silent: true},
	}
	//
	forEachBlock(a, func(statements *[]ast.Statement) {
		ast.WalkStatements(folder, *statements)
	})
}

type constantFolder struct {
	ast.NopVisitor
	e *evaluator
}

func (v *constantFolder) ExitExpr(expr *ast.Expr) {
	// Already a literal, or not evaluable at compile time.
	if _, ok := expr.Root.(*ast.Literal); ok && len(expr.Fields) == 0 {
		return
	}
	//
	if _, ok := expr.Root.(*ast.FnCall); !ok {
		return
	}
	//
	if value, ok := v.e.evalExpr(expr); ok && value.Kind != KindStruct {
		expr.Root = &ast.Literal{
			Span:  expr.Span,
			Value: value.LiteralText(),
			Kind:  value.LiteralKind(),
		}
		expr.Fields = nil
	}
}

// ============================================================================
// 3. Function-call statement extraction
// ============================================================================

// ExtractCallStatements rewrites every bare call statement whose callee
// returns a typed value into `var generated = call(...);`.  After this pass
// no statement is a bare call with a non-unit result.
func ExtractCallStatements(a *Analysis) {
	forEachBlock(a, func(statements *[]ast.Statement) {
		for i, statement := range *statements {
			call, ok := statement.(*ast.FnCallStatement)
			if !ok {
				continue
			}
			//
			fn := ResolvedFn(a, &call.Call)
			if fn == nil || !fn.ReturnType.IsValid() {
				continue
			}
			//
			expr := ast.Expr{Span: call.Span, Root: &call.Call}
			definition, _ := extractInVariable(a, &expr, false)
			(*statements)[i] = definition
		}
	})
}

// ============================================================================
// 4. Left-value extraction
// ============================================================================

// ExtractLeftValues rewrites assignments whose left-hand side is rooted in a
// function call: the call is extracted into a preceding variable (a `ref`
// when the callee returns a reference) and the left-hand side becomes the
// new variable's identifier.
func ExtractLeftValues(a *Analysis) {
	forEachBlock(a, func(statements *[]ast.Statement) {
		var rewritten []ast.Statement
		//
		for _, statement := range *statements {
			assignment, ok := statement.(*ast.Assignment)
			if ok {
				if call, ok := assignment.Left.Root.(*ast.FnCall); ok {
					isRef := false
					//
					if fn := ResolvedFn(a, call); fn != nil {
						isRef = fn.ReturnsRef
					}
					//
					callExpr := ast.Expr{Span: call.Span, Root: call}
					definition, use := extractInVariable(a, &callExpr, isRef)
					rewritten = append(rewritten, definition)
					assignment.Left.Root = &use
				}
			}
			//
			rewritten = append(rewritten, statement)
		}
		//
		*statements = rewritten
	})
}

// ============================================================================
// 5. Reference-variable inlining
// ============================================================================

// InlineRefVars eliminates `ref` bindings by textual substitution: every
// later use of a `ref` variable is replaced by the bound expression's root
// with the use's field chain appended.  Only identifier-path bindings are
// substituted; a call-rooted binding degrades to a plain variable so that no
// `ref` qualifier survives the pass.
func InlineRefVars(a *Analysis) {
	forEachBlock(a, func(statements *[]ast.Statement) {
		inliner := &refVarInliner{a: a, bindings: make(map[uint64]*ast.Expr)}
		//
		for _, statement := range *statements {
			ast.WalkStatement(inliner, statement)
		}
		// Drop the inlined bindings.
		var rewritten []ast.Statement
		//
		for _, statement := range *statements {
			if definition, ok := statement.(*ast.VarDefinition); ok && definition.IsRef {
				if _, inlined := inliner.bindings[definition.Name.Id]; inlined {
					continue
				}
				// Call-rooted binding, kept as a plain variable.
				definition.IsRef = false
			}
			//
			rewritten = append(rewritten, statement)
		}
		//
		*statements = rewritten
	})
}

type refVarInliner struct {
	ast.NopVisitor
	a *Analysis
	// Ref definition id to bound expression.
	bindings map[uint64]*ast.Expr
}

func (v *refVarInliner) ExitVarDefinition(definition *ast.VarDefinition) {
	if definition.IsRef && definition.Expr.IsIdentPath() {
		v.bindings[definition.Name.Id] = &definition.Expr
	}
}

func (v *refVarInliner) ExitExpr(expr *ast.Expr) {
	root := expr.RootIdent()
	if root == nil {
		return
	}
	//
	info := v.a.Ident(root)
	if info == nil || info.Source != SourceVar {
		return
	}
	//
	if bound, ok := v.bindings[info.Var]; ok {
		replacement := bound.Clone()
		expr.Root = replacement.Root
		expr.Fields = append(replacement.Fields, expr.Fields...)
	}
}

// ============================================================================
// 6. Parameter copy-out
// ============================================================================

// CopyOutParams prepends, to every non-gpu non-inlined function body, a
// `var p = p;` shadow for each parameter p, so that mutations of the
// parameter inside the body do not affect the caller.  Later uses of the
// parameter bind to the shadow through variable renaming.
func CopyOutParams(a *Analysis) {
	for _, id := range a.FnOrder {
		fn := a.Fns[id]
		//
		if fn.Ast.IsGpu || fn.IsInlined {
			continue
		}
		//
		shadows := make([]ast.Statement, 0, len(fn.Ast.Params))
		//
		for i := range fn.Ast.Params {
			param := &fn.Ast.Params[i]
			//
			var (
				defId = a.NextId()
				useId = a.NextId()
			)
			//
			a.Idents[defId] = &IdentInfo{Source: SourceVar, Var: defId, Type: fn.ParamTypes[i]}
			a.Idents[useId] = &IdentInfo{Source: SourceParam, Var: param.Name.Id, Type: fn.ParamTypes[i]}
			//
			use := ast.Ident{Span: param.Name.Span, Label: param.Name.Label, Id: useId, Kind: ast.IdentOther}
			shadows = append(shadows, &ast.VarDefinition{
				Span: param.Name.Span,
				Name: ast.Ident{Span: param.Name.Span, Label: param.Name.Label, Id: defId, Kind: ast.IdentVarDef},
				Expr: ast.Expr{Span: param.Name.Span, Root: &use},
			})
		}
		//
		fn.Ast.Statements = append(shadows, fn.Ast.Statements...)
	}
}

// ============================================================================
// 7. Variable renaming
// ============================================================================

// RenameVariables gives every variable definition a fresh `{label}_{id}`
// name and rewrites every referring identifier accordingly.  This removes
// accidental collisions between user code and the prelude, and between
// parameters and their copy-out shadows.
func RenameVariables(a *Analysis) {
	forEachBlock(a, func(statements *[]ast.Statement) {
		renamer := &variableRenamer{a: a, names: make(map[string]uint64)}
		//
		for _, statement := range *statements {
			ast.WalkStatement(renamer, statement)
		}
	})
}

type variableRenamer struct {
	ast.NopVisitor
	a *Analysis
	// Original label to renaming id.
	names map[string]uint64
}

func (v *variableRenamer) ExitVarDefinition(definition *ast.VarDefinition) {
	id := v.a.NextId()
	v.names[definition.Name.Label] = id
	definition.Name.Label = fmt.Sprintf("%s_%d", definition.Name.Label, id)
}

func (v *variableRenamer) EnterIdent(ident *ast.Ident) {
	if ident.Kind != ast.IdentOther {
		return
	}
	// Renaming is textual: any value occurrence matching a renamed label
	// refers to that variable, since definitions shadow outer items from
	// their position onward.  This is what binds parameter uses to their
	// copy-out shadows.
	if id, ok := v.names[ident.Label]; ok {
		ident.Label = fmt.Sprintf("%s_%d", ident.Label, id)
	}
}
