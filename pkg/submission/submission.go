// Package submission reads tab-separated data submissions into raw records.
//
// The first non-blank line names the fields. Every following non-blank line
// is one record; its cells are kept as unconverted strings and a record only
// contains the fields whose cell is present.
package submission

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"lectern-hq/lectern/pkg/dictionary"
)

// ErrEmptySubmission is returned when the input has no header row.
var ErrEmptySubmission = errors.New("submission has no header row")

// FormatError reports a malformed line of a submission.
type FormatError struct {
	Line    int
	Message string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Read parses a submission from r.
func Read(r io.Reader) ([]dictionary.UnprocessedDataRecord, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	var header []string
	var records []dictionary.UnprocessedDataRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read submission: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(row) {
			continue
		}

		if header == nil {
			header, err = readHeader(row, line)
			if err != nil {
				return nil, err
			}
			continue
		}

		if len(row) > len(header) {
			return nil, &FormatError{
				Line:    line,
				Message: fmt.Sprintf("row has %d cells but the header names %d fields", len(row), len(header)),
			}
		}
		record := make(dictionary.UnprocessedDataRecord, len(row))
		for i, cell := range row {
			record[header[i]] = cell
		}
		records = append(records, record)
	}

	if header == nil {
		return nil, ErrEmptySubmission
	}
	return records, nil
}

// ReadFile parses the submission at path.
func ReadFile(path string) ([]dictionary.UnprocessedDataRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open submission: %w", err)
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func readHeader(row []string, line int) ([]string, error) {
	header := make([]string, len(row))
	seen := make(map[string]bool, len(row))
	for i, cell := range row {
		name := strings.TrimSpace(cell)
		if name == "" {
			return nil, &FormatError{Line: line, Message: fmt.Sprintf("header column %d is empty", i+1)}
		}
		if seen[name] {
			return nil, &FormatError{Line: line, Message: fmt.Sprintf("duplicate header %q", name)}
		}
		seen[name] = true
		header[i] = name
	}
	return header, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
