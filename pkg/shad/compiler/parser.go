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
	"github.com/shad-lang/shad/pkg/util/source"
)

// Counter allocates node ids.  A single counter is threaded through the
// parsing of every source file, and later through the rewrite passes, so that
// ids are unique across the entire program.
type Counter struct {
	next uint64
}

// NewCounter constructs a fresh id counter.
func NewCounter() *Counter {
	return &Counter{}
}

// Next returns a previously unallocated id.
func (p *Counter) Next() uint64 {
	id := p.next
	p.next++
	//
	return id
}

// Parse lexes and parses a single source file into a syntax tree.  Parsing
// stops at the first mismatch, producing a single syntax error with the
// earliest mismatch span and the expected-token label.
func Parse(srcfile *source.File, counter *Counter) (*ast.Root, *source.SyntaxError) {
	tokens, err := Lex(srcfile)
	//
	if err != nil {
		return nil, err
	}
	//
	parser := &parser{srcfile, tokens, 0, counter}
	//
	return parser.parseRoot()
}

type parser struct {
	srcfile *source.File
	tokens  []source.Token
	// Position within the tokens
	index   int
	counter *Counter
}

func (p *parser) parseRoot() (*ast.Root, *source.SyntaxError) {
	root := &ast.Root{}
	//
	for p.lookahead().Kind != END_OF {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		//
		root.Items = append(root.Items, item)
	}
	//
	return root, nil
}

// ============================================================================
// Items
// ============================================================================

func (p *parser) parseItem() (ast.Item, *source.SyntaxError) {
	var isPub bool
	//
	if _, ok := p.accept(KW_PUB); ok {
		isPub = true
	}
	//
	token := p.lookahead()
	//
	switch token.Kind {
	case KW_IMPORT:
		return p.parseImport()
	case KW_BUF:
		return p.parseBuffer(isPub)
	case KW_CONST:
		// Either a constant item or a const function
		p.index++
		//
		if p.lookahead().Kind == KW_FN {
			return p.parseFn(isPub, true, false)
		} else if p.lookahead().Kind == KW_GPU {
			// Externally provided functions the constant evaluator knows
			// natively, such as the prelude operators.
			p.index++
			return p.parseFn(isPub, true, true)
		}
		//
		return p.parseConstant(token, isPub)
	case KW_GPU:
		p.index++
		return p.parseFn(isPub, false, true)
	case KW_FN:
		return p.parseFn(isPub, false, false)
	case KW_STRUCT:
		return p.parseStruct(isPub)
	case KW_RUN:
		return p.parseRun()
	case KW_INIT:
		return p.parseInit()
	}
	//
	return nil, p.expected(token, "item")
}

func (p *parser) parseImport() (ast.Item, *source.SyntaxError) {
	var item ast.Import
	//
	start, _ := p.accept(KW_IMPORT)
	// Leading `~` segments navigate to parent modules
	for {
		if _, ok := p.accept(TILDE); !ok {
			break
		}
		//
		item.ParentCount++
		//
		if _, err := p.match(DOT, "`.`"); err != nil {
			return nil, err
		}
	}
	//
	for {
		segment, err := p.match(IDENT, "module segment")
		if err != nil {
			return nil, err
		}
		//
		item.Segments = append(item.Segments, p.newIdent(segment, ast.IdentOther))
		//
		if _, ok := p.accept(DOT); !ok {
			break
		}
	}
	//
	end, err := p.match(SEMICOLON, "`;`")
	if err != nil {
		return nil, err
	}
	//
	item.Span = start.Span.Join(end.Span)
	//
	return &item, nil
}

func (p *parser) parseBuffer(isPub bool) (ast.Item, *source.SyntaxError) {
	start, _ := p.accept(KW_BUF)
	//
	name, err := p.match(IDENT, "buffer name")
	if err != nil {
		return nil, err
	}
	//
	if _, err := p.match(EQUALS, "`=`"); err != nil {
		return nil, err
	}
	//
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	//
	end, err := p.match(SEMICOLON, "`;`")
	if err != nil {
		return nil, err
	}
	//
	return &ast.Buffer{
		Span:  start.Span.Join(end.Span),
		IsPub: isPub,
		Name:  p.newIdent(name, ast.IdentOther),
		Value: value,
	}, nil
}

func (p *parser) parseConstant(start source.Token, isPub bool) (ast.Item, *source.SyntaxError) {
	name, err := p.match(IDENT, "constant name")
	if err != nil {
		return nil, err
	}
	//
	if _, err := p.match(EQUALS, "`=`"); err != nil {
		return nil, err
	}
	//
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	//
	end, err := p.match(SEMICOLON, "`;`")
	if err != nil {
		return nil, err
	}
	//
	return &ast.Constant{
		Span:  start.Span.Join(end.Span),
		IsPub: isPub,
		Name:  p.newIdent(name, ast.IdentOther),
		Value: value,
	}, nil
}

func (p *parser) parseStruct(isPub bool) (ast.Item, *source.SyntaxError) {
	start, _ := p.accept(KW_STRUCT)
	//
	name, err := p.match(IDENT, "struct name")
	if err != nil {
		return nil, err
	}
	//
	generics, err := p.parseGenericParams()
	if err != nil {
		return nil, err
	}
	//
	if _, err := p.match(LBRACE, "`{`"); err != nil {
		return nil, err
	}
	//
	var fields []ast.StructField
	//
	for p.lookahead().Kind != RBRACE {
		fieldName, err := p.match(IDENT, "field name")
		if err != nil {
			return nil, err
		}
		//
		if _, err := p.match(COLON, "`:`"); err != nil {
			return nil, err
		}
		//
		fieldType, err := p.parseTypeRef(false)
		if err != nil {
			return nil, err
		}
		//
		fields = append(fields, ast.StructField{
			Span: fieldName.Span.Join(fieldType.Span),
			Name: p.newIdent(fieldName, ast.IdentOther),
			Type: fieldType,
		})
		// Trailing comma permitted
		if _, ok := p.accept(COMMA); !ok {
			break
		}
	}
	//
	end, err := p.match(RBRACE, "`}`")
	if err != nil {
		return nil, err
	}
	//
	return &ast.Struct{
		Span:     start.Span.Join(end.Span),
		IsPub:    isPub,
		Name:     p.newIdent(name, ast.IdentOther),
		Generics: generics,
		Fields:   fields,
	}, nil
}

func (p *parser) parseFn(isPub bool, isConst bool, isGpu bool) (ast.Item, *source.SyntaxError) {
	start, err := p.match(KW_FN, "`fn`")
	if err != nil {
		return nil, err
	}
	//
	name, err := p.match(IDENT, "function name")
	if err != nil {
		return nil, err
	}
	//
	generics, err := p.parseGenericParams()
	if err != nil {
		return nil, err
	}
	//
	if _, err := p.match(LPAREN, "`(`"); err != nil {
		return nil, err
	}
	//
	var params []ast.FnParam
	//
	for p.lookahead().Kind != RPAREN {
		paramName, err := p.match(IDENT, "parameter name")
		if err != nil {
			return nil, err
		}
		//
		if _, err := p.match(COLON, "`:`"); err != nil {
			return nil, err
		}
		//
		paramType, err := p.parseTypeRef(false)
		if err != nil {
			return nil, err
		}
		//
		params = append(params, ast.FnParam{
			Span: paramName.Span.Join(paramType.Span),
			Name: p.newIdent(paramName, ast.IdentOther),
			Type: paramType,
		})
		// Trailing comma permitted
		if _, ok := p.accept(COMMA); !ok {
			break
		}
	}
	//
	if _, err := p.match(RPAREN, "`)`"); err != nil {
		return nil, err
	}
	//
	fn := &ast.Fn{
		IsPub:    isPub,
		IsConst:  isConst,
		IsGpu:    isGpu,
		Name:     p.newIdent(name, ast.IdentOther),
		Generics: generics,
		Params:   params,
	}
	// Optional return type
	if _, ok := p.accept(ARROW); ok {
		returnType, err := p.parseTypeRef(true)
		if err != nil {
			return nil, err
		}
		//
		fn.ReturnType = &returnType
	}
	// Gpu functions are externally provided and have no body
	if isGpu {
		end, err := p.match(SEMICOLON, "`;`")
		if err != nil {
			return nil, err
		}
		//
		fn.Span = start.Span.Join(end.Span)
		//
		return fn, nil
	}
	//
	statements, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	//
	fn.Statements = statements
	fn.Span = start.Span.Join(end)
	//
	return fn, nil
}

func (p *parser) parseRun() (ast.Item, *source.SyntaxError) {
	var priority *int32
	//
	start, _ := p.accept(KW_RUN)
	//
	if _, ok := p.accept(KW_PRIORITY); ok {
		value, err := p.parsePriority()
		if err != nil {
			return nil, err
		}
		//
		priority = &value
	}
	//
	statements, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	//
	return &ast.Run{
		Span:       start.Span.Join(end),
		Id:         p.counter.Next(),
		Priority:   priority,
		Statements: statements,
	}, nil
}

func (p *parser) parseInit() (ast.Item, *source.SyntaxError) {
	start, _ := p.accept(KW_INIT)
	//
	statements, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	//
	return &ast.Run{
		Span:       start.Span.Join(end),
		Id:         p.counter.Next(),
		IsInit:     true,
		Statements: statements,
	}, nil
}

func (p *parser) parsePriority() (int32, *source.SyntaxError) {
	negative := false
	//
	if _, ok := p.accept(MINUS); ok {
		negative = true
	}
	//
	token, err := p.match(NUMBER, "priority")
	if err != nil {
		return 0, err
	}
	//
	text := strings.ReplaceAll(token.Span.Text(), "_", "")
	//
	value, parseErr := strconv.ParseInt(text, 10, 32)
	if parseErr != nil {
		return 0, p.srcfile.SyntaxError(token.Span, "expected integer priority")
	}
	//
	if negative {
		value = -value
	}
	//
	return int32(value), nil
}

// ============================================================================
// Statements
// ============================================================================

func (p *parser) parseBlock() ([]ast.Statement, source.Span, *source.SyntaxError) {
	if _, err := p.match(LBRACE, "`{`"); err != nil {
		return nil, source.Span{}, err
	}
	//
	var statements []ast.Statement
	//
	for p.lookahead().Kind != RBRACE {
		statement, err := p.parseStatement()
		if err != nil {
			return nil, source.Span{}, err
		}
		//
		statements = append(statements, statement)
	}
	//
	end, err := p.match(RBRACE, "`}`")
	if err != nil {
		return nil, source.Span{}, err
	}
	//
	return statements, end.Span, nil
}

func (p *parser) parseStatement() (ast.Statement, *source.SyntaxError) {
	token := p.lookahead()
	//
	switch token.Kind {
	case KW_VAR:
		return p.parseVarDefinition(false)
	case KW_REF:
		return p.parseVarDefinition(true)
	case KW_RETURN:
		return p.parseReturn()
	case IDENT:
		return p.parseAssignmentOrCall()
	}
	//
	return nil, p.expected(token, "statement")
}

func (p *parser) parseVarDefinition(isRef bool) (ast.Statement, *source.SyntaxError) {
	start := p.lookahead()
	p.index++
	//
	name, err := p.match(IDENT, "variable name")
	if err != nil {
		return nil, err
	}
	//
	if _, err := p.match(EQUALS, "`=`"); err != nil {
		return nil, err
	}
	//
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	//
	end, err := p.match(SEMICOLON, "`;`")
	if err != nil {
		return nil, err
	}
	//
	return &ast.VarDefinition{
		Span:  start.Span.Join(end.Span),
		Name:  p.newIdent(name, ast.IdentVarDef),
		IsRef: isRef,
		Expr:  expr,
	}, nil
}

func (p *parser) parseReturn() (ast.Statement, *source.SyntaxError) {
	start, _ := p.accept(KW_RETURN)
	//
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	//
	end, err := p.match(SEMICOLON, "`;`")
	if err != nil {
		return nil, err
	}
	//
	return &ast.Return{Span: start.Span.Join(end.Span), Expr: expr}, nil
}

func (p *parser) parseAssignmentOrCall() (ast.Statement, *source.SyntaxError) {
	left, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	//
	if _, ok := p.accept(EQUALS); ok {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		//
		end, err := p.match(SEMICOLON, "`;`")
		if err != nil {
			return nil, err
		}
		//
		return &ast.Assignment{
			Span: left.Span.Join(end.Span),
			Left: left,
			Expr: expr,
		}, nil
	}
	//
	end, err := p.match(SEMICOLON, "`;`")
	if err != nil {
		return nil, err
	}
	// Only a plain call can stand as a statement
	if call, ok := left.Root.(*ast.FnCall); ok && len(left.Fields) == 0 {
		return &ast.FnCallStatement{Span: left.Span.Join(end.Span), Call: *call}, nil
	}
	//
	return nil, p.expected(end, "`=`")
}

// ============================================================================
// Expressions
// ============================================================================

type binaryLevel struct {
	// Token kind to operator function name.
	ops map[uint]string
}

var (
	orLevel  = binaryLevel{map[uint]string{OR_OR: ast.OrFn}}
	andLevel = binaryLevel{map[uint]string{AND_AND: ast.AndFn}}
	cmpLevel = binaryLevel{map[uint]string{
		EQ_EQ: ast.EqFn, NOT_EQ: ast.NeFn,
		LANGLE: ast.LtFn, LT_EQ: ast.LeFn,
		RANGLE: ast.GtFn, GT_EQ: ast.GeFn,
	}}
	addLevel = binaryLevel{map[uint]string{PLUS: ast.AddFn, MINUS: ast.SubFn}}
	mulLevel = binaryLevel{map[uint]string{STAR: ast.MulFn, SLASH: ast.DivFn, PERCENT: ast.ModFn}}
)

func (p *parser) parseExpr() (ast.Expr, *source.SyntaxError) {
	return p.parseBinary(orLevel, func() (ast.Expr, *source.SyntaxError) {
		return p.parseBinary(andLevel, func() (ast.Expr, *source.SyntaxError) {
			return p.parseBinary(cmpLevel, p.parseAdditive)
		})
	})
}

func (p *parser) parseAdditive() (ast.Expr, *source.SyntaxError) {
	return p.parseBinary(addLevel, func() (ast.Expr, *source.SyntaxError) {
		return p.parseBinary(mulLevel, p.parseUnary)
	})
}

// Parse a left-associative sequence of binary operators at one precedence
// level, desugaring each application into an operator function call.
func (p *parser) parseBinary(level binaryLevel,
	next func() (ast.Expr, *source.SyntaxError)) (ast.Expr, *source.SyntaxError) {
	//
	left, err := next()
	if err != nil {
		return left, err
	}
	//
	for {
		name, ok := level.ops[p.lookahead().Kind]
		if !ok {
			return left, nil
		}
		//
		op := p.lookahead()
		p.index++
		//
		right, err := next()
		if err != nil {
			return right, err
		}
		//
		left = p.operatorCall(name, op.Span, left, right)
	}
}

func (p *parser) parseUnary() (ast.Expr, *source.SyntaxError) {
	var name string
	//
	switch p.lookahead().Kind {
	case MINUS:
		name = ast.NegFn
	case NOT:
		name = ast.NotFn
	default:
		return p.parseAtom()
	}
	//
	op := p.lookahead()
	p.index++
	//
	arg, err := p.parseUnary()
	if err != nil {
		return arg, err
	}
	//
	span := op.Span.Join(arg.Span)
	call := &ast.FnCall{
		Span: span,
		Name: ast.Ident{Span: op.Span, Label: name, Id: p.counter.Next(), Kind: ast.IdentFnRef},
		Args: []ast.Expr{arg},
	}
	//
	return ast.Expr{Span: span, Root: call}, nil
}

func (p *parser) parseAtom() (ast.Expr, *source.SyntaxError) {
	token := p.lookahead()
	//
	switch token.Kind {
	case NUMBER:
		p.index++
		return p.literalExpr(token, literalKind(token.Span.Text())), nil
	case KW_TRUE, KW_FALSE:
		p.index++
		return p.literalExpr(token, ast.LitBool), nil
	case LPAREN:
		p.index++
		//
		expr, err := p.parseExpr()
		if err != nil {
			return expr, err
		}
		//
		if _, err := p.match(RPAREN, "`)`"); err != nil {
			return ast.Expr{}, err
		}
		//
		return expr, nil
	case IDENT:
		return p.parseValue()
	}
	//
	return ast.Expr{}, p.expected(token, "expression")
}

// Parse an identifier path or function call, with an optional field chain.
func (p *parser) parseValue() (ast.Expr, *source.SyntaxError) {
	name, err := p.match(IDENT, "identifier")
	if err != nil {
		return ast.Expr{}, err
	}
	//
	var (
		root     ast.ExprRoot
		span     = name.Span
		generics []ast.Expr
	)
	// Attempt generic arguments.  `f<` is ambiguous with a comparison, so the
	// attempt is rolled back unless a call follows.
	if p.lookahead().Kind == LANGLE {
		saved := p.index
		//
		if args, err := p.parseGenericArgs(); err != nil || p.lookahead().Kind != LPAREN {
			p.index = saved
		} else {
			generics = args
		}
	}
	//
	if p.lookahead().Kind == LPAREN {
		args, end, err := p.parseArgs()
		if err != nil {
			return ast.Expr{}, err
		}
		//
		span = span.Join(end)
		root = &ast.FnCall{
			Span:     span,
			Name:     p.newIdent(name, ast.IdentFnRef),
			Generics: generics,
			Args:     args,
		}
	} else {
		ident := p.newIdent(name, ast.IdentOther)
		root = &ident
	}
	//
	expr := ast.Expr{Span: span, Root: root}
	// Field chain
	for {
		if _, ok := p.accept(DOT); !ok {
			break
		}
		//
		field, err := p.match(IDENT, "field name")
		if err != nil {
			return ast.Expr{}, err
		}
		//
		expr.Fields = append(expr.Fields, p.newIdent(field, ast.IdentFieldRef))
		expr.Span = expr.Span.Join(field.Span)
	}
	//
	return expr, nil
}

func (p *parser) parseArgs() ([]ast.Expr, source.Span, *source.SyntaxError) {
	if _, err := p.match(LPAREN, "`(`"); err != nil {
		return nil, source.Span{}, err
	}
	//
	var args []ast.Expr
	//
	for p.lookahead().Kind != RPAREN {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, source.Span{}, err
		}
		//
		args = append(args, arg)
		// Trailing comma permitted
		if _, ok := p.accept(COMMA); !ok {
			break
		}
	}
	//
	end, err := p.match(RPAREN, "`)`")
	if err != nil {
		return nil, source.Span{}, err
	}
	//
	return args, end.Span, nil
}

// Generic arguments are parsed below the comparison level, so that the
// closing `>` is never consumed as an operator.
func (p *parser) parseGenericArgs() ([]ast.Expr, *source.SyntaxError) {
	if _, err := p.match(LANGLE, "`<`"); err != nil {
		return nil, err
	}
	//
	var args []ast.Expr
	//
	for p.lookahead().Kind != RANGLE {
		arg, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		//
		args = append(args, arg)
		//
		if _, ok := p.accept(COMMA); !ok {
			break
		}
	}
	//
	if _, err := p.match(RANGLE, "`>`"); err != nil {
		return nil, err
	}
	//
	return args, nil
}

func (p *parser) parseGenericParams() ([]ast.GenericParam, *source.SyntaxError) {
	if p.lookahead().Kind != LANGLE {
		return nil, nil
	}
	//
	p.index++
	//
	var params []ast.GenericParam
	//
	for p.lookahead().Kind != RANGLE {
		name, err := p.match(IDENT, "generic parameter name")
		if err != nil {
			return nil, err
		}
		//
		param := ast.GenericParam{Span: name.Span, Name: p.newIdent(name, ast.IdentOther)}
		// Constant parameters carry a declared type
		if _, ok := p.accept(COLON); ok {
			typeName, err := p.match(IDENT, "type name")
			if err != nil {
				return nil, err
			}
			//
			typeIdent := p.newIdent(typeName, ast.IdentOther)
			param.Type = &typeIdent
			param.Span = param.Span.Join(typeName.Span)
		}
		//
		params = append(params, param)
		//
		if _, ok := p.accept(COMMA); !ok {
			break
		}
	}
	//
	if _, err := p.match(RANGLE, "`>`"); err != nil {
		return nil, err
	}
	//
	return params, nil
}

func (p *parser) parseTypeRef(allowRef bool) (ast.TypeRef, *source.SyntaxError) {
	var isRef bool
	//
	if allowRef {
		if _, ok := p.accept(KW_REF); ok {
			isRef = true
		}
	}
	//
	name, err := p.match(IDENT, "type name")
	if err != nil {
		return ast.TypeRef{}, err
	}
	//
	var generics []ast.Expr
	//
	if p.lookahead().Kind == LANGLE {
		generics, err = p.parseGenericArgs()
		if err != nil {
			return ast.TypeRef{}, err
		}
	}
	//
	return ast.TypeRef{
		Span:     name.Span,
		Name:     p.newIdent(name, ast.IdentOther),
		Generics: generics,
		IsRef:    isRef,
	}, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (p *parser) operatorCall(name string, opSpan source.Span, left ast.Expr, right ast.Expr) ast.Expr {
	span := left.Span.Join(right.Span)
	call := &ast.FnCall{
		Span: span,
		Name: ast.Ident{Span: opSpan, Label: name, Id: p.counter.Next(), Kind: ast.IdentFnRef},
		Args: []ast.Expr{left, right},
	}
	//
	return ast.Expr{Span: span, Root: call}
}

func (p *parser) literalExpr(token source.Token, kind ast.LiteralKind) ast.Expr {
	literal := &ast.Literal{Span: token.Span, Value: token.Span.Text(), Kind: kind}
	return ast.Expr{Span: token.Span, Root: literal}
}

func literalKind(text string) ast.LiteralKind {
	if strings.Contains(text, ".") {
		return ast.LitF32
	} else if strings.HasSuffix(text, "u") {
		return ast.LitU32
	}
	//
	return ast.LitI32
}

func (p *parser) newIdent(token source.Token, kind ast.IdentKind) ast.Ident {
	return ast.Ident{
		Span:  token.Span,
		Label: token.Span.Text(),
		Id:    p.counter.Next(),
		Kind:  kind,
	}
}

// lookahead returns the current token without advancing.  There is always a
// lookahead token because EOF is appended at the end of the token stream.
func (p *parser) lookahead() source.Token {
	if p.index >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	//
	return p.tokens[p.index]
}

func (p *parser) accept(kind uint) (source.Token, bool) {
	token := p.lookahead()
	//
	if token.Kind == kind {
		p.index++
		return token, true
	}
	//
	return token, false
}

func (p *parser) match(kind uint, expected string) (source.Token, *source.SyntaxError) {
	token := p.lookahead()
	//
	if token.Kind != kind {
		return token, p.expected(token, expected)
	}
	//
	p.index++
	//
	return token, nil
}

func (p *parser) expected(token source.Token, expected string) *source.SyntaxError {
	return p.srcfile.SyntaxError(token.Span, "expected "+expected)
}
