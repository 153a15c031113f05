package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteJSONFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := writeJSONFile(path, map[string]any{"scenes": map[string]any{"a": "<b>"}}); err != nil {
		t.Fatalf("write: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(content), `"<b>"`) {
		t.Errorf("expected HTML characters to be written unescaped, got %s", content)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only doc.json in dir, got %d entries", len(entries))
	}
}

func TestEncodeDocument(t *testing.T) {
	doc := map[string]any{
		"scenarios": map[string]any{
			"demo": map[string]any{"title": "T", "music": nil},
		},
	}

	out, err := EncodeDocument(doc, FormatYAML)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(string(out), "scenarios:") || !strings.Contains(string(out), "title: T") {
		t.Errorf("unexpected yaml:\n%s", out)
	}

	out, err = EncodeDocument(doc, FormatTOML)
	if err != nil {
		t.Fatalf("toml: %v", err)
	}
	if !strings.Contains(string(out), "scenarios.demo") || strings.Contains(string(out), "music") {
		t.Errorf("unexpected toml:\n%s", out)
	}

	out, err = EncodeDocument(doc, "")
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(string(out), `"title": "T"`) {
		t.Errorf("unexpected json:\n%s", out)
	}

	if _, err := EncodeDocument(doc, "xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestPruneNulls(t *testing.T) {
	got := pruneNulls(map[string]any{
		"a": nil,
		"b": []any{1.0, nil},
		"c": map[string]any{"d": nil, "e": "x"},
	}).(map[string]any)

	if _, ok := got["a"]; ok {
		t.Error("expected nil value to be dropped")
	}
	if list := got["b"].([]any); len(list) != 1 {
		t.Errorf("expected nil element to be dropped, got %v", list)
	}
	if inner := got["c"].(map[string]any); len(inner) != 1 || inner["e"] != "x" {
		t.Errorf("unexpected nested map %v", inner)
	}
}
