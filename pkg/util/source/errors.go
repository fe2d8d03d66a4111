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

// SyntaxError is a structured error which retains the span of the original
// string where an error occurred, along with an error message.  The parser
// produces at most one of these per source file, at the first mismatch.
type SyntaxError struct {
	// Byte range of the string being parsed where the error arose.
	span Span
	// Error message being reported
	msg string
}

// SourceFile returns the underlying source file that this syntax error covers.
func (p *SyntaxError) SourceFile() *File {
	return p.span.SourceFile()
}

// Span returns the span of the original text on which this error is reported.
func (p *SyntaxError) Span() Span {
	return p.span
}

// Message returns the message to be reported.
func (p *SyntaxError) Message() string {
	return p.msg
}

// Error implements the error interface.
func (p *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", p.span.Module(), p.span.Start(), p.span.End(), p.msg)
}

// FirstEnclosingLine determines the first line in this source file to which
// this error is associated.
func (p *SyntaxError) FirstEnclosingLine() Line {
	return p.SourceFile().FindFirstEnclosingLine(p.span)
}

// Level identifies the severity of a located message within a semantic error.
type Level uint8

const (
	// LevelError marks the primary message(s) of a semantic error.
	LevelError Level = iota
	// LevelInfo marks secondary, informational messages.
	LevelInfo
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	//
	return "info"
}

// LocatedMessage is one annotated span within a semantic error.
type LocatedMessage struct {
	// The message level.
	Level Level
	// The message span.
	Span Span
	// The message text.
	Text string
}

// SemanticError is an error produced by any analysis stage after parsing.  It
// carries a human-readable headline and an ordered list of located messages,
// the first of which is the primary span.
type SemanticError struct {
	// Main error message.
	Message string
	// Located messages to improve debugging.
	Messages []LocatedMessage
}

// NewSemanticError constructs a semantic error from a headline and one or
// more located messages.
func NewSemanticError(message string, messages ...LocatedMessage) SemanticError {
	if len(messages) == 0 {
		panic("semantic error without located message")
	}
	//
	return SemanticError{message, messages}
}

// Primary returns the first located message of this error.
func (p *SemanticError) Primary() LocatedMessage {
	return p.Messages[0]
}

// Module returns the module of the primary span of this error.
func (p *SemanticError) Module() string {
	return p.Primary().Span.Module()
}

// Error implements the error interface.
func (p *SemanticError) Error() string {
	span := p.Primary().Span
	return fmt.Sprintf("%s:%d:%d: %s", span.Module(), span.Start(), span.End(), p.Message)
}

// SyntaxErrorAsSemantic converts a syntax error into the semantic error form,
// so that all compilation errors can accumulate in a single list.  The single
// located message carries the fixed "here" label.
func SyntaxErrorAsSemantic(err *SyntaxError) SemanticError {
	return NewSemanticError(err.Message(), LocatedMessage{LevelError, err.Span(), "here"})
}
