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
	"os"
	"sort"
	"strings"

	"golang.org/x/term"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[1;31m"
	ansiBlue  = "\033[1;34m"
)

// Reporter renders semantic errors as annotated source snippets.  Colors are
// applied only when requested (typically when writing to a terminal).
type Reporter struct {
	colored bool
}

// NewReporter constructs a reporter, enabling colors when stdout is a
// terminal.
func NewReporter() *Reporter {
	return &Reporter{term.IsTerminal(int(os.Stdout.Fd()))}
}

// NewPlainReporter constructs a reporter which never applies colors.
func NewPlainReporter() *Reporter {
	return &Reporter{false}
}

// RenderAll renders a list of errors grouped by module, ordered by module
// name then by primary span.
func (p *Reporter) RenderAll(errors []SemanticError) string {
	var builder strings.Builder
	// Group errors without disturbing the caller's list
	sorted := make([]SemanticError, len(errors))
	copy(sorted, errors)
	//
	sort.SliceStable(sorted, func(i, j int) bool {
		mi, mj := sorted[i].Module(), sorted[j].Module()
		if mi != mj {
			return mi < mj
		}
		//
		return sorted[i].Primary().Span.Start() < sorted[j].Primary().Span.Start()
	})
	//
	for i := range sorted {
		if i != 0 {
			builder.WriteString("\n")
		}
		//
		builder.WriteString(p.Render(&sorted[i]))
	}
	//
	return builder.String()
}

// Render renders a single semantic error as an annotated snippet.
func (p *Reporter) Render(err *SemanticError) string {
	var builder strings.Builder
	//
	builder.WriteString(p.color(ansiRed, "error"))
	builder.WriteString(": ")
	builder.WriteString(err.Message)
	builder.WriteString("\n")
	//
	for i := range err.Messages {
		p.renderMessage(&builder, &err.Messages[i])
	}
	//
	return builder.String()
}

// Render one located message with its enclosing source line and a highlight
// underneath the span.
func (p *Reporter) renderMessage(builder *strings.Builder, msg *LocatedMessage) {
	var (
		span       = msg.Span
		srcfile    = span.SourceFile()
		line       = srcfile.FindFirstEnclosingLine(span)
		lineOffset = span.Start() - line.Start()
	)
	// Calculate length (ensures don't overflow line)
	length := max(1, min(line.Length()-lineOffset, span.Length()))
	// Print location + line number
	fmt.Fprintf(builder, "  --> %s:%d:%d\n", srcfile.Path(), line.Number(), 1+lineOffset)
	// Print line
	fmt.Fprintf(builder, "%4d | %s\n", line.Number(), line.String())
	// Print highlight (todo: account for tabs)
	marker := "^"
	color := ansiRed
	//
	if msg.Level == LevelInfo {
		marker = "-"
		color = ansiBlue
	}
	//
	fmt.Fprintf(builder, "     | %s%s\n", strings.Repeat(" ", lineOffset),
		p.color(color, strings.Repeat(marker, length)+" "+msg.Text))
}

func (p *Reporter) color(code string, text string) string {
	if !p.colored {
		return text
	}
	//
	return code + text + ansiReset
}
