package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/redline/internal/batchfile"
	"github.com/roach88/redline/internal/memdoc"
	"github.com/roach88/redline/internal/store"
)

// Command error codes. Engine failures use ir.ErrorCode values instead.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error

	ErrCodeDocument = "E201" // Document fixture unreadable or invalid
	ErrCodeBatch    = "E202" // Batch file unreadable or invalid
	ErrCodeStore    = "E203" // Batch log could not be opened or read
	ErrCodeFlag     = "E204" // Invalid flag value
)

// LoadError is an input that could not be loaded. It carries the code
// shown in JSON output and, for batch files, the position of the problem.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// loadDocument reads a YAML document fixture.
func loadDocument(path string) (*memdoc.Document, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("document not found: %s", path)}
	}
	doc, err := memdoc.Load(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDocument, Message: "invalid document", Err: err}
	}
	return doc, nil
}

// loadBatch reads and validates a batch file.
func loadBatch(path string) (batchfile.File, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return batchfile.File{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("batch file not found: %s", path)}
	}
	f, err := batchfile.Load(path)
	if err != nil {
		return batchfile.File{}, &LoadError{Code: ErrCodeBatch, Message: "invalid batch file", Err: err}
	}
	return f, nil
}

// openStore opens the batch log. An empty path disables recording and
// returns a nil store.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStore, Message: "failed to open batch log", Err: err}
	}
	return st, nil
}

// parseIndices parses a comma separated list of action indices.
// An empty string yields nil (no selection).
func parseIndices(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, &LoadError{Code: ErrCodeFlag, Message: fmt.Sprintf("invalid action index %q", p)}
		}
		out = append(out, n)
	}
	return out, nil
}

// loadFailure reports a LoadError through f and converts it to an
// ExitError with ExitCommandError.
func loadFailure(f *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	msg := err.Error()
	var le *LoadError
	if errors.As(err, &le) {
		code = le.Code
		msg = le.Message
		if le.Err != nil {
			msg = fmt.Sprintf("%s: %v", le.Message, le.Err)
		}
	}
	if f.Format == "json" {
		_ = f.Error(code, msg, nil)
	}
	return NewExitError(ExitCommandError, msg)
}
