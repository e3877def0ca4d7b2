package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
)

func sampleEvents() []event.Event {
	return []event.Event{
		{Name: "First", City: "Pensacola", StartDate: "2025-04-01"},
		{Name: "Second", City: "Mobile", StartDate: "2025-04-02"},
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
		err  bool
	}{
		{"json", FormatJSON, false},
		{"JSONL", FormatJSONL, false},
		{"ndjson", FormatJSONL, false},
		{"yml", FormatYAML, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.err {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestJSONWriter_PrettyArray(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, FormatJSON)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	if err := w.Write(sampleEvents()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "[\n") {
		t.Errorf("output is not an indented array:\n%s", out)
	}
	if !strings.Contains(out, `"name": "First"`) {
		t.Errorf("output missing event:\n%s", out)
	}
}

func TestJSONLWriter_FlattensSlices(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, FormatJSONL)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	if err := w.Write(sampleEvents()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want one per event:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], `"Second"`) {
		t.Errorf("second line = %q", lines[1])
	}
}

func TestYAMLWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, FormatYAML)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	if err := w.Write(map[string]any{"posted": 2, "failed": 0}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if !strings.Contains(buf.String(), "posted: 2") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteFile_FormatFromExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "artifacts", "events.json")
	if err := WriteFile(jsonPath, sampleEvents()); err != nil {
		t.Fatalf("WriteFile json: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"name": "First"`) {
		t.Errorf("json output = %q", data)
	}

	yamlPath := filepath.Join(dir, "events.yaml")
	if err := WriteFile(yamlPath, sampleEvents()); err != nil {
		t.Fatalf("WriteFile yaml: %v", err)
	}
	data, err = os.ReadFile(yamlPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "name: First") {
		t.Errorf("yaml output = %q", data)
	}
}
