package engine

import (
	"errors"
	"fmt"

	"github.com/dotsian/dexscript/internal/model"
)

// ErrorKind classifies a script failure.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindMissingArgument
	KindUnknownModel
	KindLookupFailure
	KindInvalidOperation
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingArgument:
		return "missing argument"
	case KindUnknownModel:
		return "unknown model"
	case KindLookupFailure:
		return "lookup failure"
	case KindInvalidOperation:
		return "invalid operation"
	}
	return "runtime error"
}

// Error is a failure raised while executing a script line.
type Error struct {
	Kind    ErrorKind
	Command string // upper-cased command name
	Line    int    // 1-based, zero when not yet attached to a line
	Text    string // source of the failing line
	Err     error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies any error produced while running a script.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var lookupErr *model.LookupError
	if errors.As(err, &lookupErr) {
		return KindLookupFailure
	}
	return KindRuntime
}

// The messages below are shown to the operator verbatim, so they are
// written as sentences rather than in Go error style.

func missingArgument(command string) *Error {
	return &Error{
		Kind:    KindMissingArgument,
		Command: command,
		Err:     fmt.Errorf("Argument is missing when calling %s.", command),
	}
}

func unknownModel(command, name string) *Error {
	return &Error{
		Kind:    KindUnknownModel,
		Command: command,
		Err:     fmt.Errorf("%s is not a valid model.", name),
	}
}

func invalidOperation(command, op string) *Error {
	return &Error{
		Kind:    KindInvalidOperation,
		Command: command,
		Err:     fmt.Errorf("'%s' is not a valid file operation. (READ, WRITE, CLEAR, or DELETE)", op),
	}
}

// tag attaches the failing line to err, classifying it if needed.
func tag(err error, command string, line int, text string) *Error {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Kind: KindOf(err), Command: command, Err: err}
	}
	if e.Command == "" {
		e.Command = command
	}
	e.Line = line
	e.Text = text
	return e
}
