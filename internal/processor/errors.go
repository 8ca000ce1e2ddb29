package processor

import "fmt"

// UnsupportedFileTypeError is returned when a document is declared with a
// type tag the extractor does not handle.
type UnsupportedFileTypeError struct {
	FileType string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.FileType)
}

// ExtractionError wraps a failure to read a malformed or corrupt source,
// keeping the filename so callers can report which document failed.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
