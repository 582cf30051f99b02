package cli

import (
	"errors"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/recordsync"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The input was rejected
	ExitCommandError = 2 // Bad flags, unreadable files, invalid config
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code     int
	Message  string
	Err      error
	Reported bool // already written to the output
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err. Errors that are not
// ExitErrors map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported reports whether err was already written to the output.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON output envelope.
type CLIResponse struct {
	Status string `json:"status"` // "ok" or "error"
	Data   any    `json:"data,omitempty"`
	Error  any    `json:"error,omitempty"`
}

// Success writes data; text mode prints text instead.
func (f *OutputFormatter) Success(text string, data any) error {
	if f.Format == "json" {
		return gojson.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Diagnostic writes d. In text mode the offending source line is quoted
// when source is available.
func (f *OutputFormatter) Diagnostic(d *recordsync.Diagnostic, source string) error {
	if f.Format == "json" {
		return gojson.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: d})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", d.Code, d.Message)
	if line, ok := sourceLine(source, d.Line); ok {
		fmt.Fprintf(f.Writer, "  %d | %s\n", d.Line, line)
	}
	if f.Verbose && d.Path != "" {
		fmt.Fprintf(f.Writer, "Path: %s\n", d.Path)
	}
	return nil
}

// VerboseLog writes to ErrWriter only in verbose mode.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// reportDiagnostic prints err when it is a diagnostic and converts it into a
// reported ExitFailure.
func reportDiagnostic(f *OutputFormatter, err error, source string) error {
	d, ok := recordsync.AsDiagnostic(err)
	if !ok {
		return WrapExitError(ExitCommandError, "unexpected error", err)
	}
	if werr := f.Diagnostic(d, source); werr != nil {
		return werr
	}
	return &ExitError{Code: ExitFailure, Message: "validation failed", Err: err, Reported: true}
}
