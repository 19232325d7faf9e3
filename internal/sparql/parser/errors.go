package parser

import "fmt"

// ParseError reports a SPARQL grammar violation, preserving both a
// human-readable message and the byte offset into the source where the
// parser gave up (spec.md §4.1: "a ParseError that preserves a human
// message and offset"). It follows the teacher's per-package {Kind,
// Message} error-struct idiom (dsl.SyntaxError, graph.GraphError),
// extended with the offset spec.md requires.
type ParseError struct {
	Kind    string
	Message string
	Offset  int
	Line    int
	Column  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("sparql parse error (%s) at %d:%d (offset %d): %s",
		e.Kind, e.Line, e.Column, e.Offset, e.Message)
}

func errAt(kind string, offset, line, column int, format string, args ...any) ParseError {
	return ParseError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
		Line:    line,
		Column:  column,
	}
}
