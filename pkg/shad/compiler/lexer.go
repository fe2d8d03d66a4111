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
	"github.com/shad-lang/shad/pkg/util"
	"github.com/shad-lang/shad/pkg/util/source"
)

// END_OF signals "end of file".
const END_OF uint = 0

// WHITESPACE signals whitespace.
const WHITESPACE uint = 1

// IDENT signals an identifier or keyword.
const IDENT uint = 2

// NUMBER signals a numeric literal, including any `.`, digit separators and
// the `u` suffix.
const NUMBER uint = 3

// Symbols.  Multi-character symbols must be scanned before their prefixes.
const (
	ARROW uint = iota + 4 // ->
	EQ_EQ                 // ==
	NOT_EQ                // !=
	LT_EQ                 // <=
	GT_EQ                 // >=
	AND_AND               // &&
	OR_OR                 // ||
	EQUALS                // =
	LANGLE                // <
	RANGLE                // >
	NOT                   // !
	PLUS                  // +
	MINUS                 // -
	STAR                  // *
	SLASH                 // /
	PERCENT               // %
	COMMA                 // ,
	SEMICOLON             // ;
	COLON                 // :
	DOT                   // .
	TILDE                 // ~
	LPAREN                // (
	RPAREN                // )
	LBRACE                // {
	RBRACE                // }
)

// Keywords.
const (
	KW_BUF uint = iota + 29
	KW_CONST
	KW_FN
	KW_GPU
	KW_RUN
	KW_RETURN
	KW_VAR
	KW_REF
	KW_IMPORT
	KW_INIT
	KW_NATIVE
	KW_STRUCT
	KW_PRIORITY
	KW_PUB
	KW_TRUE
	KW_FALSE
)

var keywords = map[string]uint{
	"buf":      KW_BUF,
	"const":    KW_CONST,
	"fn":       KW_FN,
	"gpu":      KW_GPU,
	"run":      KW_RUN,
	"return":   KW_RETURN,
	"var":      KW_VAR,
	"ref":      KW_REF,
	"import":   KW_IMPORT,
	"init":     KW_INIT,
	"native":   KW_NATIVE,
	"struct":   KW_STRUCT,
	"priority": KW_PRIORITY,
	"pub":      KW_PUB,
	"true":     KW_TRUE,
	"false":    KW_FALSE,
}

var scanner source.Scanner[rune] = source.Or(
	source.Many(WHITESPACE, ' ', '\t', '\r', '\n'),
	source.Scanner[rune](&identScanner{}),
	source.Scanner[rune](&numberScanner{}),
	source.Word(ARROW, '-', '>'),
	source.Word(EQ_EQ, '=', '='),
	source.Word(NOT_EQ, '!', '='),
	source.Word(LT_EQ, '<', '='),
	source.Word(GT_EQ, '>', '='),
	source.Word(AND_AND, '&', '&'),
	source.Word(OR_OR, '|', '|'),
	source.One(EQUALS, '='),
	source.One(LANGLE, '<'),
	source.One(RANGLE, '>'),
	source.One(NOT, '!'),
	source.One(PLUS, '+'),
	source.One(MINUS, '-'),
	source.One(STAR, '*'),
	source.One(SLASH, '/'),
	source.One(PERCENT, '%'),
	source.One(COMMA, ','),
	source.One(SEMICOLON, ';'),
	source.One(COLON, ':'),
	source.One(DOT, '.'),
	source.One(TILDE, '~'),
	source.One(LPAREN, '('),
	source.One(RPAREN, ')'),
	source.One(LBRACE, '{'),
	source.One(RBRACE, '}'),
	source.Eof[rune](END_OF))

// Lex tokenises a given source file.  Comments are blanked beforehand so that
// token offsets always refer to the original text, whitespace is dropped, and
// identifiers matching a keyword are retagged.
func Lex(srcfile *source.File) ([]source.Token, *source.SyntaxError) {
	var (
		text   = blankComments(srcfile.Contents())
		lexer  = source.NewLexer(text, scanner)
		tokens = lexer.Collect()
	)
	// Check whether anything was left (if so this is an error)
	if lexer.Remaining() != 0 {
		index := int(lexer.Index())
		span := source.NewSpan(index, index+1).In(srcfile)
		//
		return nil, srcfile.SyntaxError(span, "unknown character")
	}
	//
	filtered := make([]source.Token, 0, len(tokens))
	//
	for _, token := range tokens {
		if token.Kind == WHITESPACE {
			continue
		}
		// Attach the owning file to every span
		token.Span = token.Span.In(srcfile)
		// Retag keywords
		if token.Kind == IDENT {
			if kind, ok := keywords[token.Span.Text()]; ok {
				token.Kind = kind
			}
		}
		//
		filtered = append(filtered, token)
	}
	//
	return filtered, nil
}

// Replace comment bytes with spaces, so that the offsets of all subsequent
// tokens are preserved.  Comments begin with `//` and run to end of line.
func blankComments(contents []rune) []rune {
	var (
		text    = make([]rune, len(contents))
		comment = false
	)
	//
	copy(text, contents)
	//
	for i := 0; i < len(text); i++ {
		if comment && text[i] == '\n' {
			comment = false
		} else if !comment && text[i] == '/' && i+1 < len(text) && text[i+1] == '/' {
			comment = true
		}
		//
		if comment {
			text[i] = ' '
		}
	}
	//
	return text
}

// ============================================================================
// Identifier Scanner
// ============================================================================

// Scans `[A-Za-z_][A-Za-z0-9_]*`.
type identScanner struct{}

func (p *identScanner) Scan(items []rune) util.Option[source.Token] {
	if len(items) == 0 || !isIdentStart(items[0]) {
		return util.None[source.Token]()
	}
	//
	i := 1
	//
	for i < len(items) && isIdentPart(items[i]) {
		i++
	}
	//
	return util.Some(source.Token{Kind: IDENT, Span: source.NewSpan(0, i)})
}

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// ============================================================================
// Number Scanner
// ============================================================================

// Scans `[0-9][0-9_]*` with an optional fractional part `.[0-9_]*` and an
// optional `u` suffix.  The `.` is consumed only when a digit led into the
// number, hence field access on literals never arises.
type numberScanner struct{}

func (p *numberScanner) Scan(items []rune) util.Option[source.Token] {
	if len(items) == 0 || !isDigit(items[0]) {
		return util.None[source.Token]()
	}
	//
	i := scanDigits(items, 1)
	// Fractional part
	if i < len(items) && items[i] == '.' {
		i = scanDigits(items, i+1)
	} else if i < len(items) && items[i] == 'u' {
		// Unsigned suffix
		i++
	}
	//
	return util.Some(source.Token{Kind: NUMBER, Span: source.NewSpan(0, i)})
}

func scanDigits(items []rune, i int) int {
	for i < len(items) && (isDigit(items[i]) || items[i] == '_') {
		i++
	}
	//
	return i
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
