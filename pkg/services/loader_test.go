package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/appsfolder/SWVNE/pkg/models"
)

func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func decodeEntry(t *testing.T, entry models.Entry) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.Unmarshal(entry, &v); err != nil {
		t.Fatalf("decode entry %s: %v", entry, err)
	}
	return v
}

func countKind(diags []models.Diagnostic, kind models.DiagnosticKind) int {
	n := 0
	for _, d := range diags {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

func TestLoadDirectoryCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scenarios")

	entries, diags, err := LoadDirectory(dir, "scenarios", LoaderOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 0 || len(diags) != 0 {
		t.Fatalf("expected empty result, got %d entries, %d diagnostics", len(entries), len(diags))
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory to be created: %v", err)
	}
}

func TestLoadDirectoryMergesLastFileWins(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "01_intro.json", `{"scenarios": {"x": {"v": 1}, "y": {"v": 1}}}`)
	writeTestFile(t, dir, "02_chapter.json", `{"scenarios": {"x": {"v": 2}, "z": {}}}`)

	entries, diags, err := LoadDirectory(dir, "scenarios", LoaderOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if got := decodeEntry(t, entries["x"])["v"]; got != float64(2) {
		t.Errorf("expected x.v from the later file, got %v", got)
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", diags)
	}
	d := diags[0]
	if d.Kind != models.DuplicateKeyWarning || d.Key != "x" || d.File != "02_chapter.json" {
		t.Errorf("unexpected diagnostic %+v", d)
	}
}

func TestLoadDirectorySkipsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.json", `{"characters": {"alice": {"name": "Alice"}}}`)
	writeTestFile(t, dir, "b.json", `{"characters": {"bob": `)
	writeTestFile(t, dir, "c.json", `{"characters": {"carol": {"name": "Carol"}}}`)

	entries, diags, err := LoadDirectory(dir, "characters", LoaderOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected entries from both valid files, got %d", len(entries))
	}
	if _, ok := entries["bob"]; ok {
		t.Error("malformed file must contribute nothing")
	}
	if n := countKind(diags, models.ParseError); n != 1 || len(diags) != 1 {
		t.Fatalf("expected exactly one parse error, got %v", diags)
	}
	if diags[0].File != "b.json" {
		t.Errorf("expected parse error for b.json, got %s", diags[0].File)
	}
}

func TestLoadDirectorySchemaWarnings(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "other.json", `{"scenes": {"s1": {}}}`)
	writeTestFile(t, dir, "list.json", `{"voices": ["a", "b"]}`)
	writeTestFile(t, dir, "null.json", `{"voices": null}`)
	writeTestFile(t, dir, "ok.json", `{"voices": {"v1": {"file": "/static/audio/v1.ogg"}}}`)

	entries, diags, err := LoadDirectory(dir, "voices", LoaderOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if n := countKind(diags, models.SchemaWarning); n != 3 {
		t.Fatalf("expected 3 schema warnings, got %v", diags)
	}
}

func TestLoadDirectoryIgnoresNonContentFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "notes.txt", "not json")
	writeTestFile(t, dir, ".draft.json", `{"scenes": {"hidden": {}}}`)
	writeTestFile(t, filepath.Join(dir, "nested.json"), "inner.json", `{"scenes": {"deep": {}}}`)
	writeTestFile(t, dir, "main.json", `{"scenes": {"hall": {}}}`)

	entries, diags, err := LoadDirectory(dir, "scenes", LoaderOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries["hall"] == nil {
		t.Fatalf("expected only hall, got %v", entries)
	}
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestLoadDirectoryStrictRejectsCollidingFile(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "01.json", `{"scenarios": {"x": {"v": 1}}}`)
	writeTestFile(t, dir, "02.json", `{"scenarios": {"x": {"v": 2}, "z": {}}}`)

	entries, diags, err := LoadDirectory(dir, "scenarios", LoaderOptions{Strict: true})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := entries["z"]; ok {
		t.Error("rejected file must contribute nothing")
	}
	if got := decodeEntry(t, entries["x"])["v"]; got != float64(1) {
		t.Errorf("expected x from the first file, got %v", got)
	}
	if len(diags) != 1 || diags[0].Kind != models.DuplicateKeyError || !diags[0].IsError() {
		t.Fatalf("expected one duplicate key error, got %v", diags)
	}
}

func TestLoadDirectoryDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "b.json", `{"scenes": {"k": {"from": "b"}}}`)
	writeTestFile(t, dir, "a.json", `{"scenes": {"k": {"from": "a"}}}`)
	writeTestFile(t, dir, "c.json", `{"scenes": {"k": {"from": "c"}}}`)

	for i := 0; i < 5; i++ {
		entries, diags, err := LoadDirectory(dir, "scenes", LoaderOptions{})
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if got := decodeEntry(t, entries["k"])["from"]; got != "c" {
			t.Fatalf("expected last file in lexical order to win, got %v", got)
		}
		if len(diags) != 2 || diags[0].File != "b.json" || diags[1].File != "c.json" {
			t.Fatalf("unexpected diagnostics order %v", diags)
		}
	}
}
