// Package output provides the JSON envelope, exit codes and status lines
// shared by every command.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/klytics/sheetsplit/cmd/version"
	"github.com/klytics/sheetsplit/internal/formats/xlsx"
	"github.com/klytics/sheetsplit/internal/split"
)

// Exit codes for consistent error reporting.
const (
	ExitOK          = 0 // success
	ExitUserError   = 1 // bad flags, missing input file, invalid selection
	ExitSystemError = 2 // unreadable workbook, encode failure, IO error
)

// JSONResult is the standard JSON output envelope for all commands.
type JSONResult struct {
	OK      bool        `json:"ok"`
	Command string      `json:"command"`
	Version string      `json:"version"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    int         `json:"code,omitempty"`
}

// ExitCode classifies err into one of the exit codes. Filesystem errors
// surfaced as *fs.PathError are system errors; a missing input file is
// reported without one and stays a user error.
func ExitCode(err error) int {
	var (
		de *xlsx.DecodeError
		ee *split.EncodeError
		pe *fs.PathError
	)
	switch {
	case err == nil:
		return ExitOK
	case split.IsValidation(err):
		return ExitUserError
	case errors.As(err, &de), errors.As(err, &ee), errors.As(err, &pe):
		return ExitSystemError
	default:
		return ExitUserError
	}
}

// PrintJSON writes a standard success JSON result to stdout.
func PrintJSON(cmd string, data interface{}) error {
	return WriteJSON(os.Stdout, cmd, data)
}

// WriteJSON writes a standard success JSON result to w.
func WriteJSON(w io.Writer, cmd string, data interface{}) error {
	result := JSONResult{
		OK:      true,
		Command: cmd,
		Version: version.Version,
		Data:    data,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// PrintJSONError writes a standard error JSON result to stdout.
func PrintJSONError(cmd string, err error, code int) error {
	return WriteJSONError(os.Stdout, cmd, err, code)
}

// WriteJSONError writes a standard error JSON result to w.
func WriteJSONError(w io.Writer, cmd string, err error, code int) error {
	result := JSONResult{
		OK:      false,
		Command: cmd,
		Version: version.Version,
		Error:   err.Error(),
		Code:    code,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(result); encErr != nil {
		return fmt.Errorf("could not encode JSON error: %w", encErr)
	}
	return nil
}
