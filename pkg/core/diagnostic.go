// pkg/core/diagnostic.go
package core

import (
	"errors"
	"fmt"
)

// DiagnosticKind classifies parse problems.
type DiagnosticKind string

const (
	DiagMalformedLine          DiagnosticKind = "MalformedLine"
	DiagUnknownEventKind       DiagnosticKind = "UnknownEventKind"
	DiagInvalidGUID            DiagnosticKind = "InvalidGuid"
	DiagEmptyOrUnreadableInput DiagnosticKind = "EmptyOrUnreadableInput"
	DiagInconsistentFightState DiagnosticKind = "InconsistentFightState"
)

// Diagnostic is a non-fatal problem tied to one line.
type Diagnostic struct {
	Line    int            `json:"line"`
	Stream  Stream         `json:"stream"`
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d %s: %s", d.Stream, d.Line, d.Kind, d.Message)
}

// ParseError aborts a whole parse.
type ParseError struct {
	Kind    DiagnosticKind
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ErrEmptyInput is matched by errors.Is against any EmptyOrUnreadableInput ParseError.
var ErrEmptyInput = errors.New("empty or unreadable input")

// Is lets errors.Is(err, ErrEmptyInput) match.
func (e *ParseError) Is(target error) bool {
	return target == ErrEmptyInput && e.Kind == DiagEmptyOrUnreadableInput
}

// IsFatal reports whether err aborted the parse.
func IsFatal(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
