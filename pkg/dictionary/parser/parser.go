// Package parser reads dictionary documents from JSON or YAML sources.
//
// JSON is a subset of YAML, so a single yaml.v3 decode serves both formats.
// The decoded document is handed to dictionary.Decode, which reports every
// structural problem with its dotted path.
package parser

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"lectern-hq/lectern/pkg/dictionary"
)

// DefaultMaxFileSize bounds the size of a dictionary document.
const DefaultMaxFileSize = 10 * 1024 * 1024

// ErrFileTooLarge is returned when a document exceeds the parser's size limit.
var ErrFileTooLarge = errors.New("dictionary file too large")

// ParseError wraps a failure to read or decode a dictionary document.
type ParseError struct {
	Source string
	Cause  error
}

// Error returns the error message.
func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to parse dictionary: %v", e.Cause)
	}
	return fmt.Sprintf("failed to parse dictionary %s: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Parser parses dictionary files.
type Parser struct {
	maxFileSize int64
}

// NewParser creates a parser with default limits.
func NewParser() *Parser {
	return &Parser{maxFileSize: DefaultMaxFileSize}
}

// WithMaxFileSize sets the maximum document size in bytes.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// ParseFile reads and decodes the dictionary at path.
func (p *Parser) ParseFile(path string) (*dictionary.Dictionary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ParseError{Source: path, Cause: err}
	}
	if p.maxFileSize > 0 && info.Size() > p.maxFileSize {
		return nil, &ParseError{
			Source: path,
			Cause:  fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, info.Size(), p.maxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Source: path, Cause: err}
	}
	return p.ParseBytes(data, path)
}

// ParseBytes decodes a dictionary document. source names the document in
// error messages and may be empty.
func (p *Parser) ParseBytes(data []byte, source string) (*dictionary.Dictionary, error) {
	if p.maxFileSize > 0 && int64(len(data)) > p.maxFileSize {
		return nil, &ParseError{
			Source: source,
			Cause:  fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, len(data), p.maxFileSize),
		}
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Source: source, Cause: err}
	}
	if doc == nil {
		return nil, &ParseError{Source: source, Cause: errors.New("empty document")}
	}

	dict, err := dictionary.Decode(doc)
	if err != nil {
		return nil, &ParseError{Source: source, Cause: err}
	}
	return dict, nil
}

// ParseFile reads a dictionary file with a default parser.
func ParseFile(path string) (*dictionary.Dictionary, error) {
	return NewParser().ParseFile(path)
}

// ParseBytes decodes a dictionary document with a default parser.
func ParseBytes(data []byte) (*dictionary.Dictionary, error) {
	return NewParser().ParseBytes(data, "")
}
