package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/appsfolder/SWVNE/pkg/models"
)

// LoaderOptions controls how colliding ids across files are merged.
type LoaderOptions struct {
	// Strict rejects a whole file when any of its ids was already provided
	// by an earlier file. The default is last-file-wins with a warning.
	Strict bool
}

// LoadDirectory merges every *.json file directly inside dir into one map
// keyed by id. Each file must be an object whose topLevelKey holds an
// id -> entry object. Files are processed in lexical order, so on collision
// the later file wins. Malformed files and files without topLevelKey are
// reported as diagnostics and contribute nothing; they never fail the load.
//
// A missing dir is created and yields an empty result. The returned error is
// reserved for the directory itself being unusable.
func LoadDirectory(dir, topLevelKey string, opts LoaderOptions) (models.Entries, []models.Diagnostic, error) {
	combined := make(models.Entries)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create content dir: %w", err)
		}
		return combined, nil, nil
	}

	files, err := listJSONFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	var diags []models.Diagnostic
	for _, name := range files {
		entries, diag := readContentFile(filepath.Join(dir, name), topLevelKey)
		if diag != nil {
			diags = append(diags, *diag)
			continue
		}
		diags = append(diags, mergeEntries(combined, entries, name, opts)...)
	}
	return combined, diags, nil
}

// listJSONFiles returns the sorted names of visible regular *.json files.
func listJSONFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// readContentFile decodes one file completely before anything is merged.
func readContentFile(path, topLevelKey string) (models.Entries, *models.Diagnostic) {
	name := filepath.Base(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.Diagnostic{Kind: models.ParseError, File: name, Message: err.Error()}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, &models.Diagnostic{Kind: models.ParseError, File: name, Message: err.Error()}
	}
	if doc == nil {
		return nil, &models.Diagnostic{Kind: models.ParseError, File: name, Message: "document is null"}
	}

	raw, ok := doc[topLevelKey]
	if !ok {
		return nil, &models.Diagnostic{
			Kind:    models.SchemaWarning,
			File:    name,
			Message: fmt.Sprintf("file skipped: missing top-level key %q", topLevelKey),
		}
	}

	var entries models.Entries
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) || json.Unmarshal(raw, &entries) != nil {
		return nil, &models.Diagnostic{
			Kind:    models.SchemaWarning,
			File:    name,
			Message: fmt.Sprintf("file skipped: top-level key %q is not an object", topLevelKey),
		}
	}
	return entries, nil
}

func mergeEntries(combined, entries models.Entries, file string, opts LoaderOptions) []models.Diagnostic {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var diags []models.Diagnostic
	for _, id := range ids {
		if _, exists := combined[id]; !exists {
			continue
		}
		if opts.Strict {
			diags = append(diags, models.Diagnostic{
				Kind:    models.DuplicateKeyError,
				File:    file,
				Key:     id,
				Message: "file rejected: id already defined by an earlier file",
			})
			continue
		}
		diags = append(diags, models.Diagnostic{
			Kind:    models.DuplicateKeyWarning,
			File:    file,
			Key:     id,
			Message: "overwrites the existing entry",
		})
	}

	if opts.Strict && len(diags) > 0 {
		return diags
	}
	for _, id := range ids {
		combined[id] = entries[id]
	}
	return diags
}

// shadowingFile replays the merge order of dir as if target defined id and
// returns the file that would end up supplying id. It returns "" when target
// wins. With keepExisting the ids already in target stay alongside id, which
// matters under Strict where any collision rejects the whole file.
func shadowingFile(dir, target, topLevelKey, id string, keepExisting bool, opts LoaderOptions) (string, error) {
	files, err := listJSONFiles(dir)
	if err != nil {
		return "", err
	}
	if !slices.Contains(files, target) {
		files = append(files, target)
		sort.Strings(files)
	}

	owner := make(map[string]string)
	for _, name := range files {
		var entries models.Entries
		if name == target {
			entries = models.Entries{}
			if keepExisting {
				if existing, diag := readContentFile(filepath.Join(dir, name), topLevelKey); diag == nil {
					entries = existing
				}
			}
			entries[id] = nil
		} else {
			var diag *models.Diagnostic
			if entries, diag = readContentFile(filepath.Join(dir, name), topLevelKey); diag != nil {
				continue
			}
		}

		if opts.Strict && collidesWith(owner, entries) {
			continue
		}
		for eid := range entries {
			owner[eid] = name
		}
	}

	if winner := owner[id]; winner != target {
		return winner, nil
	}
	return "", nil
}

func collidesWith(owner map[string]string, entries models.Entries) bool {
	for id := range entries {
		if _, ok := owner[id]; ok {
			return true
		}
	}
	return false
}
