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
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileExtension is the extension expected of every Shad source file.
const FileExtension = "shd"

// File represents a given source file (typically stored on disk).  Every file
// is identified by a logical module name, which is its path relative to the
// source root with separators replaced by dots and the extension stripped.
type File struct {
	// Logical module name for this source file.
	module string
	// Physical path of this source file.
	path string
	// Contents of this file.
	contents []rune
}

// NewSourceFile constructs a new source file from a given byte array.
func NewSourceFile(module string, path string, bytes []byte) *File {
	// Convert bytes into runes for easier parsing
	contents := []rune(string(bytes))
	return &File{module, path, contents}
}

// ReadDir reads all Shad source files found under a given root directory, or
// produces an error if the root does not exist.  The root may also name a
// single source file directly.  Files are returned ordered by module name so
// that compilation is deterministic.
func ReadDir(root string) ([]*File, error) {
	info, err := os.Stat(root)
	//
	if err != nil {
		return nil, err
	} else if !info.IsDir() {
		bytes, err := os.ReadFile(root)
		if err != nil {
			return nil, err
		}
		//
		return []*File{NewSourceFile(moduleName(filepath.Base(root)), root, bytes)}, nil
	}
	//
	var files []*File
	//
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		} else if entry.Type().IsRegular() && filepath.Ext(path) == "."+FileExtension {
			bytes, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			//
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			//
			files = append(files, NewSourceFile(moduleName(rel), path, bytes))
		}
		//
		return nil
	})
	//
	if err != nil {
		return nil, err
	}
	// Ensure deterministic compilation order
	sort.Slice(files, func(i, j int) bool { return files[i].module < files[j].module })
	//
	return files, nil
}

// Module returns the logical module name of this source file.
func (s *File) Module() string {
	return s.module
}

// Path returns the physical path of this source file.
func (s *File) Path() string {
	return s.path
}

// Contents returns the contents of this source file.
func (s *File) Contents() []rune {
	return s.contents
}

// Span constructs a span over this file whilst checking it lies within the
// file contents.
func (s *File) Span(start int, end int) Span {
	if start > end || end > len(s.contents) {
		panic(fmt.Sprintf("invalid span %d..%d in module %s", start, end, s.module))
	}
	//
	return Span{start, end, s}
}

// SyntaxError constructs a syntax error over a given span of this file with a
// given message.
func (s *File) SyntaxError(span Span, msg string) *SyntaxError {
	return &SyntaxError{span, msg}
}

// FindFirstEnclosingLine determines the first line in this source file which
// encloses the start of a span.  Observe that, if the position is beyond the
// bounds of the source file then the last physical line is returned.  Also,
// the returned line is not guaranteed to enclose the entire span, as these can
// cross multiple lines.
func (s *File) FindFirstEnclosingLine(span Span) Line {
	// Index identifies the current position within the original text.
	index := span.start
	// Num records the line number, counting from 1.
	num := 1
	// Start records the starting offset of the current line.
	start := 0
	// Find the line.
	for i := 0; i < len(s.contents); i++ {
		if i == index {
			end := findEndOfLine(index, s.contents)
			return Line{s.contents, start, end, num}
		} else if s.contents[i] == '\n' {
			num++
			start = i + 1
		}
	}
	//
	return Line{s.contents, start, len(s.contents), num}
}

// Line provides information about a given line within the original string.
// This includes the line number (counting from 1), and the range of the line
// within the original string.
type Line struct {
	// Original text
	text []rune
	// Range within original text of this line.
	start, end int
	// Line number of this line (counting from 1).
	number int
}

// Get the string representing this line.
func (p *Line) String() string {
	// Extract runes representing line
	runes := p.text[p.start:p.end]
	// Convert into string
	return string(runes)
}

// Number gets the line number of this line, where the first line in a string
// has line number 1.
func (p *Line) Number() int {
	return p.number
}

// Start returns the starting index of this line in the original string.
func (p *Line) Start() int {
	return p.start
}

// Length returns the number of characters in this line.
func (p *Line) Length() int {
	return p.end - p.start
}

// Convert a path relative to the source root into a dotted module name.
func moduleName(rel string) string {
	rel = strings.TrimSuffix(rel, "."+FileExtension)
	rel = strings.ReplaceAll(rel, string(filepath.Separator), ".")
	// Guard against platforms accepting both separators
	return strings.ReplaceAll(rel, "/", ".")
}

// Find the end of the enclosing line
func findEndOfLine(index int, text []rune) int {
	for i := index; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}
	// No end in sight!
	return len(text)
}
