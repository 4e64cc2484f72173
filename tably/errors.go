package tably

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies evaluation failures.
type ErrorKind int

const (
	// ErrUnknownColumn: an identifier matches no column and does not
	// resolve in the enclosing scope.
	ErrUnknownColumn ErrorKind = iota + 1
	// ErrOutOfRange: an integer position is outside valid column/row bounds.
	ErrOutOfRange
	// ErrRecycleLength: a mutation-context value's length is neither 1 nor
	// the row count.
	ErrRecycleLength
	// ErrSummariseLength: a summarise expression yields more than one value
	// per group.
	ErrSummariseLength
	// ErrAmbiguousBinding: a name cannot be resolved deterministically.
	ErrAmbiguousBinding
	// ErrTypeMismatch: an operation applied to incompatible value kinds.
	ErrTypeMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownColumn:
		return "unknown_column"
	case ErrOutOfRange:
		return "out_of_range"
	case ErrRecycleLength:
		return "recycle_length_mismatch"
	case ErrSummariseLength:
		return "summarise_length_mismatch"
	case ErrAmbiguousBinding:
		return "ambiguous_binding"
	case ErrTypeMismatch:
		return "type_mismatch"
	}
	return "unknown"
}

// EvalError is raised synchronously at the point of evaluation and
// propagates out of the verb call immediately.
type EvalError struct {
	Kind   ErrorKind
	Name   string // offending column or binding name (may be empty)
	Pos    int    // offending position (0 if not positional)
	Got    int    // observed length for length errors
	Want   int    // required length for length errors
	Reason string // human-readable explanation (optional)
}

func (e *EvalError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("evaluation failed (%s)", e.Kind))
	if e.Name != "" {
		parts = append(parts, fmt.Sprintf("name=%q", e.Name))
	}
	if e.Pos != 0 {
		parts = append(parts, fmt.Sprintf("position=%d", e.Pos))
	}
	if e.Want != 0 || e.Got != 0 {
		parts = append(parts, fmt.Sprintf("length %d, expected 1 or %d", e.Got, e.Want))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	return strings.Join(parts, " - ")
}

// IsKind reports whether err is an EvalError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ee *EvalError
	return errors.As(err, &ee) && ee.Kind == kind
}

func errUnknownColumn(name string) *EvalError {
	return &EvalError{Kind: ErrUnknownColumn, Name: name, Reason: "no such column"}
}

func errOutOfRange(pos, bound int) *EvalError {
	return &EvalError{
		Kind:   ErrOutOfRange,
		Pos:    pos,
		Reason: fmt.Sprintf("valid range is [1, %d]", bound),
	}
}

func errRecycleLength(name string, got, want int) *EvalError {
	return &EvalError{Kind: ErrRecycleLength, Name: name, Got: got, Want: want}
}

func errSummariseLength(name string, got int) *EvalError {
	return &EvalError{Kind: ErrSummariseLength, Name: name, Got: got, Want: 1,
		Reason: "summarise expressions must reduce to one value per group"}
}

func errAmbiguous(name, reason string) *EvalError {
	return &EvalError{Kind: ErrAmbiguousBinding, Name: name, Reason: reason}
}

func errTypeMismatch(op string, left, right DataType) *EvalError {
	return &EvalError{
		Kind:   ErrTypeMismatch,
		Reason: fmt.Sprintf("cannot apply %q to %s and %s", op, left, right),
	}
}

// StageError wraps a failure inside a composed pipeline with the
// position of the stage that raised it.
type StageError struct {
	Stage int    // 0-based stage index
	Verb  string // verb name of the failing stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %d (%s): %v", e.Stage, e.Verb, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
