package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"review_insights/internal/domain"
)

// Warning is a non-fatal issue encountered while reading a row.
type Warning struct {
	Row     int
	Message string
}

var boms = [][]byte{{0xEF, 0xBB, 0xBF}, {0xFF, 0xFE}, {0xFE, 0xFF}}

// decode strips a UTF-8/UTF-16 BOM, converting UTF-16 to UTF-8. Input
// without a BOM that is not valid UTF-8 is read as Latin-1.
func decode(data []byte) ([]byte, error) {
	hasBOM := false
	for _, b := range boms {
		if bytes.HasPrefix(data, b) {
			hasBOM = true
			break
		}
	}
	if !hasBOM && !utf8.Valid(data) {
		return charmap.ISO8859_1.NewDecoder().Bytes(data)
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	return out, err
}

// ParseRaw reads a CSV with a header row into a RawBatch. Short rows are
// padded, long rows truncated, malformed rows skipped; each gets a warning.
func ParseRaw(data []byte, source, bank string) (domain.RawBatch, []Warning, error) {
	batch := domain.RawBatch{Source: source, Bank: bank}

	decoded, err := decode(data)
	if err != nil {
		return batch, nil, fmt.Errorf("decode %s: %w", source, err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return batch, nil, nil // empty file: no columns, no rows
		}
		return batch, nil, fmt.Errorf("read header of %s: %w", source, err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	batch.Columns = headers

	var warnings []Warning
	rowNum := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			warnings = append(warnings, Warning{Row: rowNum, Message: fmt.Sprintf("parse error: %v", err)})
			continue
		}
		if len(row) != len(headers) {
			warnings = append(warnings, Warning{Row: rowNum, Message: fmt.Sprintf("row has %d columns, expected %d", len(row), len(headers))})
			fixed := make([]string, len(headers))
			copy(fixed, row)
			row = fixed
		}
		rec := make(domain.RawRecord, len(headers))
		for i, h := range headers {
			rec[h] = row[i]
		}
		batch.Records = append(batch.Records, rec)
	}
	return batch, warnings, nil
}

// ReadRawFile loads one raw review file. An empty bank is taken from the
// file name prefix, so "CBE_reviews_20240101_010000.csv" is about CBE. A
// missing or unreadable file is a *domain.SourceError.
func ReadRawFile(path, bank string) (domain.RawBatch, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RawBatch{Source: path}, nil, &domain.SourceError{Source: path, Err: err}
	}
	if bank == "" {
		bank = BankFromFilename(path)
	}
	return ParseRaw(data, path, bank)
}

// BankFromFilename returns the part of the file name before the last
// "_reviews_", or before the first "_" for other names.
func BankFromFilename(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.LastIndex(base, "_reviews_"); i > 0 {
		return base[:i]
	}
	if i := strings.Index(base, "_"); i > 0 {
		return base[:i]
	}
	return base
}
