package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyInput   = errors.New("pipeline input has no rows")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// SchemaError reports an ingestion source without a usable text column.
type SchemaError struct {
	Source  string
	Missing string
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s has no %s column (columns: %s)",
		e.Source, e.Missing, strings.Join(e.Columns, ", "))
}

// SourceError reports an input source that could not be read at all.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string { return fmt.Sprintf("source %s: %v", e.Source, e.Err) }

func (e *SourceError) Unwrap() error { return e.Err }

// ParseError is a row-local date failure; the row is dropped, not guessed.
type ParseError struct {
	Row   int
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: unparsable date %q: %v", e.Row, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ClassificationError identifies the reviews of a failed classifier batch
// so callers can retry exactly those.
type ClassificationError struct {
	Start, End int   // half-open index range into the corpus
	Indexes    []int // review indexes in the failed batch
	Err        error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify reviews [%d,%d): %v", e.Start, e.End, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }
