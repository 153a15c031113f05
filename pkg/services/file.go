package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

func readJSONFile(path string, v any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeJSONFile writes v as indented JSON through a temp file in the same
// directory and renames it into place, so readers never see a partial file.
func writeJSONFile(path string, v any) error {
	content, err := encodeJSON(v)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, content)
}

func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// EncodeDocument renders a decoded JSON document in the requested format.
func EncodeDocument(doc map[string]any, format string) ([]byte, error) {
	switch format {
	case "", FormatJSON:
		return encodeJSON(doc)
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		// TOML has no null.
		pruned, _ := pruneNulls(doc).(map[string]any)
		if pruned == nil {
			pruned = map[string]any{}
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(pruned); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// pruneNulls drops nil values from maps and slices, recursively.
func pruneNulls(val any) any {
	switch v := val.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			if pruned := pruneNulls(elem); pruned != nil {
				out[k] = pruned
			}
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, elem := range v {
			if pruned := pruneNulls(elem); pruned != nil {
				out = append(out, pruned)
			}
		}
		return out
	default:
		return v
	}
}
