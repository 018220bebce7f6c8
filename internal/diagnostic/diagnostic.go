// Package diagnostic provides error reporting with source context for the
// optimizer and the command line tool.
package diagnostic

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic.
type Severity uint8

const (
	// Error stops the file from being optimized.
	Error Severity = iota
	// Warning is a non-blocking issue.
	Warning
	// Note provides additional context.
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Code identifies a class of diagnostic.
type Code string

const (
	CodeSyntax      Code = "E0001" // Source did not parse
	CodeInvariant   Code = "E0100" // Inliner invariant violated
	CodeKeptUnknown Code = "W0001" // A keep name matched no function
)

// Position represents a position in source code.
type Position struct {
	Offset int // Byte offset (0-based)
	Line   int // Line number (1-based)
	Column int // Column number (1-based)
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Pos      Position
}

// Error returns a formatted error string.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Pos.Line, d.Pos.Column, d.Severity, d.Message)
}

// List collects diagnostics for one source file.
type List struct {
	diagnostics []Diagnostic
	lineIndex   *LineIndex
	hasErrors   bool
}

// NewList creates a new diagnostic list for the given source.
func NewList(source string) *List {
	return &List{lineIndex: NewLineIndex(source)}
}

// Add adds a diagnostic to the list.
func (dl *List) Add(d Diagnostic) {
	dl.diagnostics = append(dl.diagnostics, d)
	if d.Severity == Error {
		dl.hasErrors = true
	}
}

// AddError adds an error diagnostic at the given byte offset.
func (dl *List) AddError(offset int, code Code, message string) {
	dl.Add(Diagnostic{Severity: Error, Code: code, Message: message, Pos: dl.MakePosition(offset)})
}

// AddWarning adds a warning diagnostic at the given byte offset.
func (dl *List) AddWarning(offset int, code Code, message string) {
	dl.Add(Diagnostic{Severity: Warning, Code: code, Message: message, Pos: dl.MakePosition(offset)})
}

// MakePosition converts a byte offset to a Position.
func (dl *List) MakePosition(offset int) Position {
	line, col := dl.lineIndex.ByteOffsetToLineColumn(offset)
	return Position{
		Offset: offset,
		Line:   line + 1,
		Column: col + 1,
	}
}

// HasErrors returns true if there are any error-level diagnostics.
func (dl *List) HasErrors() bool {
	return dl.hasErrors
}

// Diagnostics returns all collected diagnostics.
func (dl *List) Diagnostics() []Diagnostic {
	return dl.diagnostics
}

// ErrorCount returns the number of error-level diagnostics.
func (dl *List) ErrorCount() int {
	count := 0
	for _, d := range dl.diagnostics {
		if d.Severity == Error {
			count++
		}
	}
	return count
}

// Format formats all diagnostics, each followed by its source line and a
// caret under the column.
func (dl *List) Format() string {
	var sb strings.Builder
	for i := range dl.diagnostics {
		dl.formatDiagnostic(&sb, &dl.diagnostics[i])
	}
	return sb.String()
}

func (dl *List) formatDiagnostic(sb *strings.Builder, d *Diagnostic) {
	fmt.Fprintf(sb, "%d:%d: %s", d.Pos.Line, d.Pos.Column, d.Severity)
	if d.Code != "" {
		fmt.Fprintf(sb, " [%s]", d.Code)
	}
	fmt.Fprintf(sb, ": %s\n", d.Message)

	if line := dl.lineIndex.Line(d.Pos.Line - 1); line != "" {
		fmt.Fprintf(sb, "    %s\n", line)
		sb.WriteString(strings.Repeat(" ", d.Pos.Column-1+4))
		sb.WriteString("^\n")
	}
}
