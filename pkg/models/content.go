package models

import (
	"fmt"

	"github.com/goccy/go-json"
)

// ContentType names one of the merged content catalogs.
type ContentType string

const (
	Characters ContentType = "characters"
	Scenes     ContentType = "scenes"
	Scenarios  ContentType = "scenarios"
	Voices     ContentType = "voices"
)

// ContentTypes lists every content type in load order.
var ContentTypes = []ContentType{Characters, Scenes, Scenarios, Voices}

// ParseContentType validates a raw content type name.
func ParseContentType(raw string) (ContentType, error) {
	for _, ct := range ContentTypes {
		if string(ct) == raw {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown content type %q", raw)
}

// Key is the top-level key a content file must carry. It matches the
// directory name.
func (ct ContentType) Key() string {
	return string(ct)
}

// Entry is an author-defined content document. It is kept as raw JSON so
// fields the loader does not know about survive a load/save cycle.
type Entry = json.RawMessage

// Entries maps identifiers to their content documents.
type Entries map[string]Entry

// DiagnosticKind classifies a loader diagnostic.
type DiagnosticKind string

const (
	ParseError          DiagnosticKind = "parse_error"
	SchemaWarning       DiagnosticKind = "schema_warning"
	DuplicateKeyWarning DiagnosticKind = "duplicate_key_warning"
	// DuplicateKeyError is reported instead of DuplicateKeyWarning when the
	// loader runs in strict mode and the file is rejected.
	DuplicateKeyError DiagnosticKind = "duplicate_key_error"
)

// Diagnostic reports a per-file or per-key problem found during a load.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	File    string         `json:"file"`
	Key     string         `json:"key,omitempty"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Key != "" {
		return fmt.Sprintf("%s: %s (key %q): %s", d.Kind, d.File, d.Key, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Kind, d.File, d.Message)
}

// IsError reports whether the diagnostic means a file contributed nothing.
func (d Diagnostic) IsError() bool {
	return d.Kind == ParseError || d.Kind == DuplicateKeyError
}

// ScenarioSummary is the listing form of a scenario.
type ScenarioSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
}

// CharacterSummary is the listing form of a character.
type CharacterSummary struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Color string   `json:"color"`
	Poses []string `json:"poses"`
}
