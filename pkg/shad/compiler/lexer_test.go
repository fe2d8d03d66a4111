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

	"github.com/shad-lang/shad/pkg/util/source"
)

func TestLex_00(t *testing.T) {
	checkLex(t, "", kindSpan{END_OF, 0, 0})
}

func TestLex_01(t *testing.T) {
	checkLex(t, "buf x = 1u;",
		kindSpan{KW_BUF, 0, 3},
		kindSpan{IDENT, 4, 5},
		kindSpan{EQUALS, 6, 7},
		kindSpan{NUMBER, 8, 10},
		kindSpan{SEMICOLON, 10, 11},
		kindSpan{END_OF, 11, 11})
}

func TestLex_02(t *testing.T) {
	checkLex(t, "a->b",
		kindSpan{IDENT, 0, 1},
		kindSpan{ARROW, 1, 3},
		kindSpan{IDENT, 3, 4},
		kindSpan{END_OF, 4, 4})
}

func TestLex_03(t *testing.T) {
	checkLex(t, "1 <= 2",
		kindSpan{NUMBER, 0, 1},
		kindSpan{LT_EQ, 2, 4},
		kindSpan{NUMBER, 5, 6},
		kindSpan{END_OF, 6, 6})
}

func TestLex_04(t *testing.T) {
	// Floats keep their fractional part, integers their `u` suffix and
	// digit separators.
	checkLex(t, "1_000u 2.5 3.",
		kindSpan{NUMBER, 0, 6},
		kindSpan{NUMBER, 7, 10},
		kindSpan{NUMBER, 11, 13},
		kindSpan{END_OF, 13, 13})
}

func TestLex_05(t *testing.T) {
	// Comment bytes are blanked, so later offsets are preserved.
	checkLex(t, "buf // c\nx",
		kindSpan{KW_BUF, 0, 3},
		kindSpan{IDENT, 9, 10},
		kindSpan{END_OF, 10, 10})
}

func TestLex_06(t *testing.T) {
	srcfile := source.NewSourceFile("main", "main.shd", []byte("buf $"))
	//
	if _, err := Lex(srcfile); err == nil {
		t.Errorf("expected an error for an unknown character")
	}
}

func TestLex_07(t *testing.T) {
	// Keywords are retagged identifiers.
	checkLex(t, "ref refx",
		kindSpan{KW_REF, 0, 3},
		kindSpan{IDENT, 4, 8},
		kindSpan{END_OF, 8, 8})
}

// ==================================================================
// Framework
// ==================================================================

type kindSpan struct {
	kind       uint
	start, end int
}

func checkLex(t *testing.T, input string, expected ...kindSpan) {
	t.Helper()
	//
	srcfile := source.NewSourceFile("main", "main.shd", []byte(input))
	//
	tokens, err := Lex(srcfile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	//
	if len(tokens) != len(expected) {
		t.Fatalf("got %d tokens, expected %d", len(tokens), len(expected))
	}
	//
	for i, token := range tokens {
		e := expected[i]
		//
		if token.Kind != e.kind || token.Span.Start() != e.start || token.Span.End() != e.end {
			t.Errorf("token %d: got (%d, %d..%d), expected (%d, %d..%d)", i,
				token.Kind, token.Span.Start(), token.Span.End(), e.kind, e.start, e.end)
		}
	}
}
