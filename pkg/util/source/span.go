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

import "fmt"

// Span represents a contiguous slice of an original source file.  Instead of
// representing this as a string slice, however, it is useful to retain the
// physical indices along with the owning file.  This allows us to do certain
// things, such as determine the enclosing line, etc.
type Span struct {
	// The first character of this span in the original string.
	start int
	// One past the final character of this span in the original string.
	end int
	// Enclosing source file.  Spans produced by the scanning framework have
	// no file attached until they are shifted into one (see In).
	srcfile *File
}

// NewSpan constructs a new span whilst checking the internal invariants are
// maintained.
func NewSpan(start int, end int) Span {
	if start > end {
		panic("invalid span")
	}
	//
	return Span{start, end, nil}
}

// In attaches a given source file to this span.
func (p Span) In(srcfile *File) Span {
	return Span{p.start, p.end, srcfile}
}

// Start returns the starting index of this span in the original string.
func (p Span) Start() int {
	return p.start
}

// End returns one past the last index of this span in the original string.
func (p Span) End() int {
	return p.end
}

// Length returns the number of characters covered by this span in the
// original string.
func (p Span) Length() int {
	return p.end - p.start
}

// SourceFile returns the source file that this span covers, or nil for a raw
// token span.
func (p Span) SourceFile() *File {
	return p.srcfile
}

// Module returns the module name of the file this span covers, or the empty
// string for a raw token span.
func (p Span) Module() string {
	if p.srcfile == nil {
		return ""
	}
	//
	return p.srcfile.Module()
}

// Text returns the slice of the original source text this span covers.
func (p Span) Text() string {
	return string(p.srcfile.Contents()[p.start:p.end])
}

// Join combines this span with another from the same file, taking the
// earliest start and the latest end.
func (p Span) Join(other Span) Span {
	if p.srcfile != other.srcfile {
		panic("cannot join spans from different modules")
	}
	//
	return Span{min(p.start, other.start), max(p.end, other.end), p.srcfile}
}

func (p Span) String() string {
	return fmt.Sprintf("%s:%d..%d", p.Module(), p.start, p.end)
}
