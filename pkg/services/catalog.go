package services

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/goccy/go-json"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "github.com/appsfolder/SWVNE/pkg/errors"
	"github.com/appsfolder/SWVNE/pkg/models"
)

// LocationIndexFile is the catalog file name inside the scenes content
// directory. It shares the "scenes" top-level key, so the content loader
// serves every registered location as a scene.
const LocationIndexFile = "locations.json"

const (
	locationIndexKey     = "scenes"
	defaultMaxIDAttempts = 16
	locationIDAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// LocationCatalog keeps the location index consistent with the files in the
// locations asset directory. Index updates are read-modify-write under a
// per-file lock and are not transactional with the asset files themselves.
type LocationCatalog struct {
	indexPath   string
	assetDir    string
	urlPrefix   string
	newID       func() (string, error)
	maxAttempts int
}

// NewLocationCatalog creates a catalog backed by indexPath for files stored
// in assetDir and published under urlPrefix (e.g. "/static/locations/").
func NewLocationCatalog(indexPath, assetDir, urlPrefix string) *LocationCatalog {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocationCatalog{
		indexPath:   indexPath,
		assetDir:    assetDir,
		urlPrefix:   urlPrefix,
		newID:       randomLocationID,
		maxAttempts: defaultMaxIDAttempts,
	}
}

// locationRecord keeps unknown fields so hand-edited scene data survives
// catalog rewrites.
type locationRecord map[string]json.RawMessage

func (r locationRecord) stringField(key string) string {
	var s string
	if raw, ok := r[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

func (r locationRecord) setString(key, value string) {
	encoded, _ := json.Marshal(value)
	r[key] = encoded
}

// load reads the index. Any failure is logged and treated as an empty index.
func (c *LocationCatalog) load() map[string]locationRecord {
	var doc map[string]map[string]locationRecord
	if err := readJSONFile(c.indexPath, &doc); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[LocationCatalog] index unreadable, treating as empty: %v", err)
		}
		return map[string]locationRecord{}
	}
	index := doc[locationIndexKey]
	if index == nil {
		return map[string]locationRecord{}
	}
	for id, rec := range index {
		if rec == nil {
			index[id] = locationRecord{}
		}
	}
	return index
}

func (c *LocationCatalog) save(index map[string]locationRecord) error {
	if err := os.MkdirAll(filepath.Dir(c.indexPath), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	return writeJSONFile(c.indexPath, map[string]map[string]locationRecord{locationIndexKey: index})
}

// RegisterUpload adds an entry for a stored file under a fresh id.
func (c *LocationCatalog) RegisterUpload(filename string) (models.LocationEntry, error) {
	unlock := writeLocks.lock(c.indexPath)
	defer unlock()

	index := c.load()

	id, err := c.allocateID(index)
	if err != nil {
		return models.LocationEntry{}, err
	}

	entry := models.LocationEntry{
		ID:         id,
		Name:       DisplayName(filename),
		Background: c.urlPrefix + filename,
	}
	rec := locationRecord{}
	rec.setString("name", entry.Name)
	rec.setString("background", entry.Background)
	index[id] = rec

	if err := c.save(index); err != nil {
		return models.LocationEntry{}, fmt.Errorf("write location index: %w", err)
	}
	log.Printf("[LocationCatalog] registered %s as %s", entry.Background, id)
	return entry, nil
}

// allocateID draws ids until one is unused, up to maxAttempts draws.
func (c *LocationCatalog) allocateID(index map[string]locationRecord) (string, error) {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		id, err := c.newID()
		if err != nil {
			return "", fmt.Errorf("generate location id: %w", err)
		}
		if _, taken := index[id]; !taken {
			return id, nil
		}
	}
	return "", apperrors.WithMetadata(apperrors.CodeResourceExhausted, "could not allocate a unique location id", map[string]string{
		"attempts": fmt.Sprint(c.maxAttempts),
	})
}

func randomLocationID() (string, error) {
	limit := big.NewInt(int64(len(locationIDAlphabet)))
	b := make([]byte, LocationIDLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = locationIDAlphabet[n.Int64()]
	}
	return string(b), nil
}

// DisplayName derives a readable default name from a filename:
// "dark_forest.png" becomes "Dark Forest". Every run of letters is
// title-cased on its own, so "bg2night.png" becomes "Bg2Night".
func DisplayName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = strings.ReplaceAll(base, "_", " ")

	caser := cases.Title(language.Und)
	var b strings.Builder
	for base != "" {
		end := strings.IndexFunc(base, func(r rune) bool { return !unicode.IsLetter(r) })
		if end == 0 {
			if end = strings.IndexFunc(base, unicode.IsLetter); end < 0 {
				end = len(base)
			}
			b.WriteString(base[:end])
		} else {
			if end < 0 {
				end = len(base)
			}
			b.WriteString(caser.String(base[:end]))
		}
		base = base[end:]
	}
	return b.String()
}

// UnregisterByPath removes every entry whose background equals path and
// returns how many were removed. The index is only rewritten when something
// was removed.
func (c *LocationCatalog) UnregisterByPath(path string) (int, error) {
	unlock := writeLocks.lock(c.indexPath)
	defer unlock()

	index := c.load()
	removed := 0
	for id, rec := range index {
		if rec.stringField("background") == path {
			delete(index, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := c.save(index); err != nil {
		return 0, fmt.Errorf("write location index: %w", err)
	}
	log.Printf("[LocationCatalog] removed %d entries for %s", removed, path)
	return removed, nil
}

// Rename sets the display name of an existing entry.
func (c *LocationCatalog) Rename(id, newName string) error {
	if !ValidateLocationID(id) {
		return apperrors.WithMetadata(apperrors.CodeInvalidIdentifier, "invalid location id", map[string]string{"id": id})
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return apperrors.New(apperrors.CodeInvalidContent, "location name is required")
	}

	unlock := writeLocks.lock(c.indexPath)
	defer unlock()

	index := c.load()
	rec, ok := index[id]
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeNotFound, "location not found", map[string]string{"id": id})
	}
	rec.setString("name", newName)

	if err := c.save(index); err != nil {
		return fmt.Errorf("write location index: %w", err)
	}
	return nil
}

// Entries returns the raw index, sorted by id. Files are not checked.
func (c *LocationCatalog) Entries() []models.LocationEntry {
	index := c.load()
	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]models.LocationEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, models.LocationEntry{
			ID:         id,
			Name:       index[id].stringField("name"),
			Background: index[id].stringField("background"),
		})
	}
	return entries
}

// List returns the entries whose file exists in the asset directory, with
// the size read from disk on every call. Entries pointing elsewhere or at
// missing files are left out.
func (c *LocationCatalog) List() []models.AssetFile {
	var files []models.AssetFile
	for _, entry := range c.Entries() {
		if !strings.HasPrefix(entry.Background, c.urlPrefix) {
			continue
		}
		filename := strings.TrimPrefix(entry.Background, c.urlPrefix)
		if SanitizeFilename(filename) != filename {
			continue
		}
		full, err := ResolveWithin(c.assetDir, filename)
		if err != nil {
			continue
		}
		info, err := os.Stat(full)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, models.AssetFile{
			ID:       entry.ID,
			Name:     entry.Name,
			Filename: filename,
			Path:     entry.Background,
			Size:     info.Size(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files
}
