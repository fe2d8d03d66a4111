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
package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const END_OF uint = 0
const WSPACE uint = 1
const NUMBER uint = 2
const ARROW uint = 3
const MINUS uint = 4

var testScanner Scanner[rune] = Or(
	Many(WSPACE, ' ', '\t'),
	ManyWith(NUMBER, '0', '9'),
	Word(ARROW, '-', '>'),
	One(MINUS, '-'),
	Eof[rune](END_OF))

func TestLexer_00(t *testing.T) {
	checkLexer(t, "12 -> -3",
		Token{NUMBER, NewSpan(0, 2)},
		Token{WSPACE, NewSpan(2, 3)},
		Token{ARROW, NewSpan(3, 5)},
		Token{WSPACE, NewSpan(5, 6)},
		Token{MINUS, NewSpan(6, 7)},
		Token{NUMBER, NewSpan(7, 8)},
		Token{END_OF, NewSpan(8, 8)})
}

func TestLexer_01(t *testing.T) {
	// Unmatched input stops the lexer, leaving a remainder.
	lexer := NewLexer([]rune("1x"), testScanner)
	lexer.Collect()
	//
	if lexer.Remaining() != 1 {
		t.Errorf("got %d remaining, expected 1", lexer.Remaining())
	}
}

func checkLexer(t *testing.T, input string, expected ...Token) {
	t.Helper()
	//
	lexer := NewLexer([]rune(input), testScanner)
	tokens := lexer.Collect()
	//
	if len(tokens) != len(expected) {
		t.Fatalf("got %d tokens, expected %d", len(tokens), len(expected))
	}
	//
	for i := range tokens {
		if tokens[i] != expected[i] {
			t.Errorf("token %d: got %v, expected %v", i, tokens[i], expected[i])
		}
	}
}

func TestReadDir_00(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.shd", "buf x = 1u;")
	writeFile(t, root, filepath.Join("sub", "b.shd"), "buf y = 2u;")
	writeFile(t, root, "ignored.txt", "not a source")
	//
	files, err := ReadDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	//
	if len(files) != 2 {
		t.Fatalf("got %d files, expected 2", len(files))
	}
	// Files come back ordered by module name.
	if files[0].Module() != "a" || files[1].Module() != "sub.b" {
		t.Errorf("got (%s, %s), expected (a, sub.b)", files[0].Module(), files[1].Module())
	}
}

func TestReadDir_01(t *testing.T) {
	if _, err := ReadDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("expected an error for a missing root")
	}
}

func TestReadDir_02(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "single.shd", "buf x = 1u;")
	// A single file is accepted as root.
	files, err := ReadDir(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	//
	if len(files) != 1 || files[0].Module() != "single" {
		t.Errorf("got %d files, expected module single", len(files))
	}
}

func TestSpan_Join(t *testing.T) {
	srcfile := NewSourceFile("main", "main.shd", []byte("buf x = 1u;"))
	//
	joined := srcfile.Span(4, 5).Join(srcfile.Span(8, 10))
	//
	if joined.Start() != 4 || joined.End() != 10 {
		t.Errorf("got %d..%d, expected 4..10", joined.Start(), joined.End())
	}
	//
	if joined.Module() != "main" {
		t.Errorf("got %s, expected main", joined.Module())
	}
}

func TestSpan_Text(t *testing.T) {
	srcfile := NewSourceFile("main", "main.shd", []byte("buf x = 1u;"))
	//
	if text := srcfile.Span(4, 5).Text(); text != "x" {
		t.Errorf("got %q, expected \"x\"", text)
	}
}

func TestFindFirstEnclosingLine(t *testing.T) {
	srcfile := NewSourceFile("main", "main.shd", []byte("first\nsecond\nthird"))
	//
	line := srcfile.FindFirstEnclosingLine(srcfile.Span(7, 9))
	//
	if line.Number() != 2 {
		t.Errorf("got line %d, expected 2", line.Number())
	}
	//
	if line.String() != "second" {
		t.Errorf("got %q, expected \"second\"", line.String())
	}
}

func TestReporter_Render(t *testing.T) {
	srcfile := NewSourceFile("main", "main.shd", []byte("buf x = y;"))
	//
	err := NewSemanticError("`y` identifier not found",
		LocatedMessage{Level: LevelError, Span: srcfile.Span(8, 9), Text: "undefined identifier"})
	//
	rendered := NewPlainReporter().Render(&err)
	//
	for _, expected := range []string{"error: `y` identifier not found", "main.shd:1:9", "buf x = y;", "^ undefined identifier"} {
		if !contains(rendered, expected) {
			t.Errorf("missing %q in:\n%s", expected, rendered)
		}
	}
}

// ==================================================================
// Framework
// ==================================================================

func writeFile(t *testing.T, root string, name string, text string) string {
	t.Helper()
	//
	path := filepath.Join(root, name)
	//
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	//
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	//
	return path
}

func contains(text string, expected string) bool {
	return strings.Contains(text, expected)
}
