package split

import (
	"errors"
	"fmt"
)

// ValidationMessage is the status shown when an export is missing a file, a
// key column or output columns.
const ValidationMessage = "choose a file, a key column and at least one output column"

var (
	ErrNoFile          = errors.New("no input file")
	ErrNoKeyColumn     = errors.New("no key column chosen")
	ErrNoOutputColumns = errors.New("no output columns selected")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNoRows          = errors.New("no data rows")
)

// ValidationError is a user-correctable problem with an export request.
// Nothing has been decoded or written when one is returned.
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error, format string, args ...any) *ValidationError {
	return &ValidationError{Err: err, Message: fmt.Sprintf(format, args...)}
}

// EncodeError wraps a failure to serialize the planned sheets.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return "could not encode workbook: " + e.Err.Error() }

func (e *EncodeError) Unwrap() error { return e.Err }
