package pipeline

import "fmt"

// DecodeError means a single file could not be read as a spreadsheet, or the
// requested sheet is missing. It never aborts sibling files of an upload.
type DecodeError struct {
	File  string
	Sheet string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("decode %s (sheet %q): %v", e.File, e.Sheet, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.File, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError rejects a whole upload action before any file is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
