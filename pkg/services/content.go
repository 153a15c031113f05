package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	apperrors "github.com/appsfolder/SWVNE/pkg/errors"
	"github.com/appsfolder/SWVNE/pkg/models"
)

const (
	sharedCharactersFile = "chars.json"
	sharedVoicesFile     = "voices.json"
)

// Snapshot is the merged content of every type from one load cycle. Its maps
// are shared with the cache and must not be modified.
type Snapshot struct {
	Characters  models.Entries
	Scenes      models.Entries
	Scenarios   models.Entries
	Voices      models.Entries
	Diagnostics []models.Diagnostic
}

// ContentStore reads and writes the content directories under one root
// (root/{characters,scenes,scenarios,voices}).
type ContentStore struct {
	root  string
	opts  LoaderOptions
	cache *SnapshotCache
}

// ContentOption configures a ContentStore.
type ContentOption func(*ContentStore)

// WithStrictMerge rejects files whose ids collide with earlier files.
func WithStrictMerge(strict bool) ContentOption {
	return func(s *ContentStore) { s.opts.Strict = strict }
}

// WithSnapshotCache reuses merged results while the directories are unchanged.
func WithSnapshotCache(cache *SnapshotCache) ContentOption {
	return func(s *ContentStore) { s.cache = cache }
}

func NewContentStore(root string, opts ...ContentOption) *ContentStore {
	s := &ContentStore{root: root}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory holding files of type ct.
func (s *ContentStore) Dir(ct models.ContentType) string {
	return filepath.Join(s.root, string(ct))
}

// Load merges every file of type ct. Diagnostics are logged and returned.
func (s *ContentStore) Load(ct models.ContentType) (models.Entries, []models.Diagnostic, error) {
	dir := s.Dir(ct)
	load := func() (models.Entries, []models.Diagnostic, error) {
		entries, diags, err := LoadDirectory(dir, ct.Key(), s.opts)
		if err == nil {
			logDiagnostics(ct, diags)
		}
		return entries, diags, err
	}
	if s.cache != nil {
		return s.cache.Load(dir, load)
	}
	return load()
}

// LoadAll builds a fresh Snapshot of every content type.
func (s *ContentStore) LoadAll() (*Snapshot, error) {
	snap := &Snapshot{}
	for _, ct := range models.ContentTypes {
		entries, diags, err := s.Load(ct)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", ct, err)
		}
		switch ct {
		case models.Characters:
			snap.Characters = entries
		case models.Scenes:
			snap.Scenes = entries
		case models.Scenarios:
			snap.Scenarios = entries
		case models.Voices:
			snap.Voices = entries
		}
		snap.Diagnostics = append(snap.Diagnostics, diags...)
	}
	log.Printf("[ContentLoader] Loaded %d characters, %d scenes, %d scenarios, %d voices.",
		len(snap.Characters), len(snap.Scenes), len(snap.Scenarios), len(snap.Voices))
	return snap, nil
}

func logDiagnostics(ct models.ContentType, diags []models.Diagnostic) {
	for _, d := range diags {
		level := "WARNING"
		if d.IsError() {
			level = "ERROR"
		}
		log.Printf("[%s] [ContentLoader] %s: %s", level, ct, d)
	}
}

// UpsertScenario writes one scenario to its own file, {id}.json.
func (s *ContentStore) UpsertScenario(id string, entry models.Entry) error {
	return s.Upsert(models.Scenarios, id, entry)
}

// UpsertCharacter merges one character into the shared characters file.
func (s *ContentStore) UpsertCharacter(id string, entry models.Entry) error {
	return s.Upsert(models.Characters, id, entry)
}

// Upsert stores a single entry. Scenarios get one file per id; characters
// and voices are merged into a shared file by read-modify-write under a
// per-file lock. Scenes are written through the location catalog only.
//
// A save that the next load would not return, because another file in the
// directory wins the merge for id, fails with CodeShadowedEntry and writes
// nothing.
func (s *ContentStore) Upsert(ct models.ContentType, id string, entry models.Entry) error {
	if !ValidateIdentifier(id, MaxContentIDLen) {
		return apperrors.WithMetadata(apperrors.CodeInvalidIdentifier, "invalid content id", map[string]string{"id": id})
	}
	if !json.Valid(entry) {
		return apperrors.WithMetadata(apperrors.CodeInvalidContent, "entry is not valid JSON", map[string]string{"id": id})
	}

	var filename string
	switch ct {
	case models.Scenarios:
		filename = id + ".json"
	case models.Characters:
		filename = sharedCharactersFile
	case models.Voices:
		filename = sharedVoicesFile
	default:
		return apperrors.WithMetadata(apperrors.CodeInvalidContent, "content type does not accept single-entry writes", map[string]string{"type": string(ct)})
	}

	dir := s.Dir(ct)
	target, err := ResolveWithin(dir, filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create content dir: %w", err)
	}

	unlock := writeLocks.lock(target)
	defer unlock()

	shared := ct != models.Scenarios
	winner, err := shadowingFile(dir, filename, ct.Key(), id, shared, s.opts)
	if err != nil {
		return fmt.Errorf("check %s %s: %w", ct, id, err)
	}
	if winner != "" {
		log.Printf("[ContentStore] Refusing to save %s %q: %s would override it on load", ct, id, winner)
		return apperrors.WithMetadata(apperrors.CodeShadowedEntry, "entry would be overridden by another content file",
			map[string]string{"id": id, "file": winner})
	}

	if !shared {
		err = writeJSONFile(target, map[string]models.Entries{ct.Key(): {id: entry}})
	} else {
		err = s.mergeIntoShared(target, ct.Key(), id, entry)
	}
	if err != nil {
		return fmt.Errorf("write %s %s: %w", ct, id, err)
	}

	if s.cache != nil {
		s.cache.Invalidate(dir)
	}
	return nil
}

// mergeIntoShared keeps any other top-level keys of the shared file. An
// absent or unreadable file starts from an empty catalog.
func (s *ContentStore) mergeIntoShared(path, key, id string, entry models.Entry) error {
	doc := map[string]json.RawMessage{}
	if err := readJSONFile(path, &doc); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[ContentStore] %s unreadable, starting from an empty catalog: %v", filepath.Base(path), err)
		}
		doc = map[string]json.RawMessage{}
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}

	entries := models.Entries{}
	if raw, ok := doc[key]; ok {
		if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
			log.Printf("[ContentStore] %s: key %q is not an object, replacing it", filepath.Base(path), key)
			entries = models.Entries{}
		}
	}
	entries[id] = entry

	encoded, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	doc[key] = encoded
	return writeJSONFile(path, doc)
}

// GetScenario returns {"scenarios": {id: entry}} for one scenario.
func (s *ContentStore) GetScenario(id string) (map[string]models.Entries, error) {
	if !ValidateIdentifier(id, MaxContentIDLen) {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidIdentifier, "invalid scenario id", map[string]string{"id": id})
	}
	scenarios, _, err := s.Load(models.Scenarios)
	if err != nil {
		return nil, err
	}
	entry, ok := scenarios[id]
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeNotFound, "scenario not found", map[string]string{"id": id})
	}
	return map[string]models.Entries{models.Scenarios.Key(): {id: entry}}, nil
}

// ListScenarios summarizes every scenario, sorted by id.
func (s *ContentStore) ListScenarios() ([]models.ScenarioSummary, error) {
	scenarios, _, err := s.Load(models.Scenarios)
	if err != nil {
		return nil, err
	}

	list := make([]models.ScenarioSummary, 0, len(scenarios))
	for _, id := range sortedIDs(scenarios) {
		var fields struct {
			Title       *string `json:"title"`
			Description string  `json:"description"`
			Author      string  `json:"author"`
		}
		// Entries with unexpected shapes still list under their id.
		_ = json.Unmarshal(scenarios[id], &fields)

		summary := models.ScenarioSummary{
			ID:          id,
			Title:       id,
			Description: fields.Description,
			Author:      fields.Author,
		}
		if fields.Title != nil {
			summary.Title = *fields.Title
		}
		list = append(list, summary)
	}
	return list, nil
}

// ListCharacters summarizes every character, sorted by id.
func (s *ContentStore) ListCharacters() ([]models.CharacterSummary, error) {
	characters, _, err := s.Load(models.Characters)
	if err != nil {
		return nil, err
	}

	list := make([]models.CharacterSummary, 0, len(characters))
	for _, id := range sortedIDs(characters) {
		var fields struct {
			Name  *string                    `json:"name"`
			Color *string                    `json:"color"`
			Poses map[string]json.RawMessage `json:"poses"`
		}
		_ = json.Unmarshal(characters[id], &fields)

		summary := models.CharacterSummary{
			ID:    id,
			Name:  id,
			Color: "#000000",
			Poses: make([]string, 0, len(fields.Poses)),
		}
		if fields.Name != nil {
			summary.Name = *fields.Name
		}
		if fields.Color != nil {
			summary.Color = *fields.Color
		}
		for pose := range fields.Poses {
			summary.Poses = append(summary.Poses, pose)
		}
		sort.Strings(summary.Poses)
		list = append(list, summary)
	}
	return list, nil
}

// Export renders {"<type>": entries} in format (json, yaml or toml).
func (s *ContentStore) Export(ct models.ContentType, format string) ([]byte, error) {
	entries, _, err := s.Load(ct)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	var decoded map[string]any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return nil, err
	}
	if decoded == nil {
		decoded = map[string]any{}
	}
	return EncodeDocument(map[string]any{ct.Key(): decoded}, format)
}

// ImportFile stores an uploaded content file as-is in the directory of ct,
// replacing a file of the same name. The file must be JSON carrying the
// top-level key of ct so it will merge on the next load.
func (s *ContentStore) ImportFile(ct models.ContentType, filename string, content []byte) (string, error) {
	name := SanitizeFilename(filename)
	if name == "" || strings.ToLower(filepath.Ext(name)) != ".json" {
		return "", apperrors.WithMetadata(apperrors.CodeUnsupportedExtension, "content files must be .json", map[string]string{"filename": filename})
	}
	name = strings.TrimSuffix(name, filepath.Ext(name)) + ".json"
	if ct == models.Scenes && name == LocationIndexFile {
		return "", apperrors.WithMetadata(apperrors.CodeInvalidContent, "file name is reserved for the location catalog", map[string]string{"filename": name})
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(content, &doc); err != nil {
		return "", apperrors.Wrap(apperrors.CodeInvalidContent, "content file is not a JSON object", err)
	}
	raw, ok := doc[ct.Key()]
	var entries models.Entries
	if !ok || json.Unmarshal(raw, &entries) != nil || entries == nil {
		return "", apperrors.WithMetadata(apperrors.CodeInvalidContent, "content file lacks an object under its top-level key", map[string]string{"key": ct.Key()})
	}

	dir := s.Dir(ct)
	target, err := ResolveWithin(dir, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create content dir: %w", err)
	}

	unlock := writeLocks.lock(target)
	defer unlock()
	if err := writeFileAtomic(target, content); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if s.cache != nil {
		s.cache.Invalidate(dir)
	}
	return name, nil
}

func sortedIDs(entries models.Entries) []string {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
