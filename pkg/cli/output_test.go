package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type deviceTable []struct {
	Name  string `json:"name" yaml:"name"`
	Ready int    `json:"ready" yaml:"ready"`
}

func (d deviceTable) TableHeaders() []string { return []string{"NAME", "READY"} }

func (d deviceTable) TableRows() [][]string {
	rows := make([][]string, len(d))
	for i, r := range d {
		rows[i] = []string{r.Name, strings.Repeat("#", r.Ready)}
	}
	return rows
}

func TestOutput(t *testing.T) {
	devices := deviceTable{{"ringdev0", 3}, {"ringdev1", 1}}
	styles := NewStyles(DefaultTheme)

	tests := []struct {
		name   string
		result any
		opts   OutputOptions
		want   []string
	}{
		{"yaml", map[string]any{"name": "test", "value": 123}, OutputOptions{Format: FormatYAML}, []string{"name: test", "value: 123"}},
		{"default", map[string]string{"key": "value"}, OutputOptions{}, []string{"key: value"}},
		{"json", map[string]string{"key": "value"}, OutputOptions{Format: FormatJSON, Indent: "    "}, []string{`    "key": "value"`}},
		{"raw bytes", []byte("raw binary data"), OutputOptions{Format: FormatRaw}, []string{"raw binary data"}},
		{"raw string", "raw string data", OutputOptions{Format: FormatRaw}, []string{"raw string data"}},
		{"raw other", map[string]int{"count": 42}, OutputOptions{Format: FormatRaw}, []string{"count: 42"}},
		{"table", devices, OutputOptions{Format: FormatTable}, []string{"NAME", "READY", "ringdev0", "###", "ringdev1"}},
		{"styled table", devices, OutputOptions{Format: FormatTable, Styles: &styles}, []string{"ringdev0", "ringdev1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Writer = &buf
			if err := Output(tt.result, tt.opts); err != nil {
				t.Fatalf("Output error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestOutput_Errors(t *testing.T) {
	var buf bytes.Buffer
	if err := Output("data", OutputOptions{Format: "invalid", Writer: &buf}); err == nil {
		t.Error("Output should fail for unsupported format")
	}
	if err := Output(map[string]int{"a": 1}, OutputOptions{Format: FormatTable, Writer: &buf}); err == nil {
		t.Error("Output should fail for table of a non-Tabler")
	}
}

func TestOutput_ToFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "output.json")
	if err := Output(map[string]string{"key": "value"}, OutputOptions{Format: FormatJSON, File: filePath}); err != nil {
		t.Fatalf("Output error: %v", err)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	var result map[string]string
	if err := json.Unmarshal(content, &result); err != nil {
		t.Fatalf("Invalid JSON in file: %v", err)
	}
	if result["key"] != "value" {
		t.Errorf("key = %q, want %q", result["key"], "value")
	}
}
