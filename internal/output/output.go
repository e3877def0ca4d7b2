// Package output serializes pipeline records to JSON, JSONL or YAML, both
// for stage artifact files and for final results.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ParseFormat converts a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Writer handles output serialization.
type Writer interface {
	// Write outputs one record.
	Write(data any) error

	// Flush ensures all data is written.
	Flush() error
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format) (Writer, error) {
	switch format {
	case FormatJSON:
		return &jsonWriter{w: bufio.NewWriter(w)}, nil
	case FormatJSONL:
		return &jsonlWriter{w: bufio.NewWriter(w)}, nil
	case FormatYAML:
		return &yamlWriter{w: bufio.NewWriter(w)}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteFile serializes data to path, choosing the format from the file
// extension. Unknown extensions get JSON. The parent directory is created
// when missing.
func WriteFile(path string, data any) error {
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".jsonl", ".ndjson":
		format = FormatJSONL
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	w, err := NewWriter(f, format)
	if err != nil {
		return err
	}
	if err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return w.Flush()
}

// jsonWriter emits each record as an indented JSON document.
type jsonWriter struct {
	w *bufio.Writer
}

func (w *jsonWriter) Write(data any) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if _, err := w.w.Write(out); err != nil {
		return err
	}
	_, err = w.w.WriteString("\n")
	return err
}

func (w *jsonWriter) Flush() error {
	return w.w.Flush()
}

// jsonlWriter emits newline-delimited JSON. A slice is flattened to one
// line per element so downstream tools can stream it.
type jsonlWriter struct {
	w *bufio.Writer
}

func (w *jsonlWriter) Write(data any) error {
	for _, item := range flatten(data) {
		out, err := json.Marshal(item)
		if err != nil {
			return err
		}
		if _, err := w.w.Write(out); err != nil {
			return err
		}
		if _, err := w.w.WriteString("\n"); err != nil {
			return err
		}
	}
	return nil
}

func (w *jsonlWriter) Flush() error {
	return w.w.Flush()
}

// yamlWriter emits YAML documents.
type yamlWriter struct {
	w       *bufio.Writer
	encoder *yaml.Encoder
}

func (w *yamlWriter) Write(data any) error {
	if w.encoder == nil {
		w.encoder = yaml.NewEncoder(w.w)
		w.encoder.SetIndent(2)
	}
	return w.encoder.Encode(data)
}

func (w *yamlWriter) Flush() error {
	if w.encoder != nil {
		if err := w.encoder.Close(); err != nil {
			return err
		}
		w.encoder = nil
	}
	return w.w.Flush()
}

// flatten turns a slice into its elements for line-oriented output.
func flatten(data any) []any {
	switch v := data.(type) {
	case []any:
		return v
	default:
		// Re-marshal through JSON to detect typed slices without
		// reflection on every caller type.
		raw, err := json.Marshal(data)
		if err != nil || len(raw) == 0 || raw[0] != '[' {
			return []any{data}
		}
		var items []any
		if err := json.Unmarshal(raw, &items); err != nil {
			return []any{data}
		}
		return items
	}
}
