// Package filesystem reads execution graph documents from disk.
package filesystem

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/ara/internal/core/indexing"
	"github.com/example/ara/internal/ports/primary"
)

// Format is the encoding of an execution document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrInvalidDocument is returned for documents that decode but cannot be indexed.
var ErrInvalidDocument = errors.New("invalid execution document")

// FormatFromPath picks the format from the file extension; anything that is
// not .json is read as YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// LoadExecution reads and validates the execution document at path.
func LoadExecution(path string) (*primary.ExecutionInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open execution document: %w", err)
	}
	defer f.Close()

	in, err := DecodeExecution(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// DecodeExecution decodes one execution document and validates it.
// Unknown fields are rejected in both formats.
func DecodeExecution(r io.Reader, format Format) (*primary.ExecutionInput, error) {
	var in primary.ExecutionInput
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&in); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}

	if err := Validate(&in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Validate checks the document fields the indexer needs: the job identity,
// the test date and the natural keys of the graph.
func Validate(in *primary.ExecutionInput) error {
	if in.JobURL == "" && in.JobLink == "" {
		return fmt.Errorf("%w: jobUrl or jobLink is required", ErrInvalidDocument)
	}
	if in.TestDateTime.IsZero() {
		return fmt.Errorf("%w: testDateTime is required", ErrInvalidDocument)
	}

	if err := indexing.ValidateGraph(in.NaturalKeys()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return nil
}
