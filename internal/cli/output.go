package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/eflash24/eflash-store/pkg/schema"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the store refused the operation
	ExitCommandError = 2 // bad arguments or configuration
)

// ExitError carries the exit code a command failed with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope printed with --format json.
type Response struct {
	Status string `json:"status"` // "ok" or "error"
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// printer writes command results in the selected format.
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(opts *RootOptions, w io.Writer) *printer {
	return &printer{format: opts.Format, w: w}
}

// Data prints v. Text output is indented JSON, except for plain messages.
func (p *printer) Data(v any) error {
	if p.format == "json" {
		return p.json(Response{Status: "ok", Data: v})
	}
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(p.w, s)
		return err
	}
	return p.json(v)
}

// Error prints the error envelope.
func (p *printer) Error(err error) error {
	return p.json(Response{Status: "error", Error: err.Error()})
}

// Records prints one compact record per line in text mode.
func (p *printer) Records(records []schema.Record) error {
	if p.format == "json" {
		return p.Data(records)
	}
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(p.w, string(line))
	}
	return nil
}

func (p *printer) json(v any) error {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.w, string(bytes))
	return err
}

// parseRecord reads a JSON object argument.
func parseRecord(arg string) (schema.Record, error) {
	var rec schema.Record
	if err := json.Unmarshal([]byte(arg), &rec); err != nil || rec == nil {
		return nil, WrapExitError(ExitCommandError, "argument must be a JSON object", err)
	}
	return rec, nil
}
