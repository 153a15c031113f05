package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/appsfolder/SWVNE/pkg/errors"
	"github.com/appsfolder/SWVNE/pkg/models"
)

const (
	familyAudio = "audio"
	familyImage = "image"
)

// LocationsURLPrefix is the public prefix of location images.
const LocationsURLPrefix = "/static/locations/"

var (
	audioUploadExts = []string{"mp3", "ogg", "wav"}
	// Listings also show m4a files placed on disk by hand.
	audioListExts = []string{"mp3", "ogg", "wav", "m4a"}
	imageExts     = []string{"png", "jpg", "jpeg", "webp"}
)

// assetRule describes where one asset type lives and what it accepts.
type assetRule struct {
	dir       string // Filesystem directory
	urlPrefix string // Public URL prefix, with trailing slash
	exts      []string
	family    string
}

// AssetStore places uploaded binary files in their type directory under the
// static root:
//
//	static/audio/bgm/*               -> /static/audio/bgm/*
//	static/audio/sfx/*               -> /static/audio/sfx/*
//	static/locations/*               -> /static/locations/*
//	static/character_images/C/P.png  -> /static/character_images/C/P.png
type AssetStore struct {
	staticDir string
	urlBase   string
	catalog   *LocationCatalog
	verify    bool
}

// AssetOption configures an AssetStore.
type AssetOption func(*AssetStore)

// WithContentVerification rejects uploads whose detected MIME family does
// not match the asset type.
func WithContentVerification(verify bool) AssetOption {
	return func(s *AssetStore) { s.verify = verify }
}

// NewAssetStore creates a store rooted at staticDir, served under "/static".
// Location uploads and deletes are mirrored into catalog.
func NewAssetStore(staticDir string, catalog *LocationCatalog, opts ...AssetOption) *AssetStore {
	s := &AssetStore{
		staticDir: staticDir,
		urlBase:   "/static/",
		catalog:   catalog,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LocationsDir returns the location image directory under staticDir.
func LocationsDir(staticDir string) string {
	return filepath.Join(staticDir, "locations")
}

func (s *AssetStore) rule(t models.AssetType) (assetRule, error) {
	switch t {
	case models.BGM, models.SFX:
		return assetRule{
			dir:       filepath.Join(s.staticDir, "audio", string(t)),
			urlPrefix: s.urlBase + "audio/" + string(t) + "/",
			exts:      audioUploadExts,
			family:    familyAudio,
		}, nil
	case models.Locations:
		return assetRule{
			dir:       LocationsDir(s.staticDir),
			urlPrefix: LocationsURLPrefix,
			exts:      imageExts,
			family:    familyImage,
		}, nil
	case models.CharacterPose:
		return assetRule{
			dir:       filepath.Join(s.staticDir, "character_images"),
			urlPrefix: s.urlBase + "character_images/",
			exts:      imageExts,
			family:    familyImage,
		}, nil
	}
	return assetRule{}, apperrors.WithMetadata(apperrors.CodeInvalidAssetType, "invalid asset type", map[string]string{"type": string(t)})
}

// SaveParams holds one upload. CharacterID and PoseName are used only for
// character poses.
type SaveParams struct {
	Type        models.AssetType
	Filename    string
	Data        []byte
	CharacterID string
	PoseName    string
}

// Save stores an uploaded file. BGM, SFX and location files keep their
// sanitized name and never overwrite an existing file. Character poses are
// always stored as {pose}.png and replace an earlier upload.
func (s *AssetStore) Save(p SaveParams) (*models.AssetFile, error) {
	rule, err := s.rule(p.Type)
	if err != nil {
		return nil, err
	}

	if !hasExt(p.Filename, rule.exts) {
		return nil, apperrors.WithMetadata(apperrors.CodeUnsupportedExtension, "unsupported file extension", map[string]string{
			"filename": p.Filename,
			"allowed":  strings.Join(rule.exts, ", "),
		})
	}
	if s.verify {
		if err := verifyFamily(p.Data, rule.family); err != nil {
			return nil, err
		}
	}

	if p.Type == models.CharacterPose {
		return s.savePose(rule, p)
	}

	name := SanitizeFilename(p.Filename)
	if name == "" || !hasExt(name, rule.exts) {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidIdentifier, "invalid filename", map[string]string{"filename": p.Filename})
	}

	if err := os.MkdirAll(rule.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	target, err := ResolveWithin(rule.dir, name)
	if err != nil {
		return nil, err
	}

	if err := writeNewFile(target, p.Data); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, apperrors.WithMetadata(apperrors.CodeDuplicateAsset, "a file with this name already exists", map[string]string{"filename": name})
		}
		return nil, fmt.Errorf("write asset: %w", err)
	}

	file := &models.AssetFile{
		Name:     name,
		Filename: name,
		Path:     rule.urlPrefix + name,
		Size:     int64(len(p.Data)),
	}

	if p.Type == models.Locations && s.catalog != nil {
		entry, err := s.catalog.RegisterUpload(name)
		if err != nil {
			// The file stays; it is simply not listed until re-registered.
			log.Printf("[AssetStore] location %s saved but not registered: %v", name, err)
		} else {
			file.ID = entry.ID
			file.Name = entry.Name
		}
	}

	log.Printf("[AssetStore] saved %s (%d bytes)", file.Path, file.Size)
	return file, nil
}

func (s *AssetStore) savePose(rule assetRule, p SaveParams) (*models.AssetFile, error) {
	if !ValidateIdentifier(p.CharacterID, MaxContentIDLen) {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidIdentifier, "invalid character id", map[string]string{"character_id": p.CharacterID})
	}
	if !ValidatePoseName(p.PoseName) {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidIdentifier, "invalid pose name", map[string]string{"pose_name": p.PoseName})
	}

	characterID := SanitizeFilename(p.CharacterID)
	pose := SanitizeFilename(p.PoseName)
	if characterID == "" || pose == "" {
		return nil, apperrors.New(apperrors.CodeInvalidIdentifier, "invalid character id or pose name")
	}
	name := pose + ".png"

	dir, err := ResolveWithin(rule.dir, characterID)
	if err != nil {
		return nil, err
	}
	target, err := ResolveWithin(dir, name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create character image dir: %w", err)
	}

	unlock := writeLocks.lock(target)
	defer unlock()
	if err := writeFileAtomic(target, p.Data); err != nil {
		return nil, fmt.Errorf("write pose image: %w", err)
	}

	return &models.AssetFile{
		Name:     pose,
		Filename: name,
		Path:     rule.urlPrefix + characterID + "/" + name,
		Size:     int64(len(p.Data)),
	}, nil
}

// Delete removes the file at the public path urlPath of type t. Location
// deletes also drop matching catalog entries, even when the file was already
// gone.
func (s *AssetStore) Delete(t models.AssetType, urlPath string) error {
	rule, err := s.rule(t)
	if err != nil {
		return err
	}

	if !strings.HasPrefix(urlPath, rule.urlPrefix) {
		return apperrors.WithMetadata(apperrors.CodePathTraversal, "path is outside the asset type directory", map[string]string{"path": urlPath})
	}
	rest := strings.TrimPrefix(urlPath, rule.urlPrefix)

	var segments []string
	if t == models.CharacterPose {
		segments = strings.Split(rest, "/")
		if len(segments) != 2 {
			return apperrors.WithMetadata(apperrors.CodePathTraversal, "invalid character image path", map[string]string{"path": urlPath})
		}
	} else {
		segments = []string{rest}
	}
	for _, seg := range segments {
		if seg == "" || SanitizeFilename(seg) != seg {
			return apperrors.WithMetadata(apperrors.CodePathTraversal, "invalid asset path", map[string]string{"path": urlPath})
		}
	}

	target, err := SafeJoin(rule.dir, segments...)
	if err != nil {
		return err
	}

	removeErr := os.Remove(target)

	if t == models.Locations && s.catalog != nil {
		if _, err := s.catalog.UnregisterByPath(urlPath); err != nil {
			log.Printf("[AssetStore] location %s removed but index not updated: %v", urlPath, err)
		}
	}

	if removeErr != nil {
		if os.IsNotExist(removeErr) {
			return apperrors.WithMetadata(apperrors.CodeNotFound, "asset not found", map[string]string{"path": urlPath})
		}
		return fmt.Errorf("remove asset: %w", removeErr)
	}
	log.Printf("[AssetStore] deleted %s", urlPath)
	return nil
}

// List scans the audio directories and the location catalog concurrently.
func (s *AssetStore) List() (*models.AssetListing, error) {
	listing := &models.AssetListing{}

	var g errgroup.Group
	g.Go(func() error {
		files, err := s.scanAudio(models.BGM)
		listing.BGM = files
		return err
	})
	g.Go(func() error {
		files, err := s.scanAudio(models.SFX)
		listing.SFX = files
		return err
	})
	g.Go(func() error {
		listing.Locations = []models.AssetFile{}
		if s.catalog != nil {
			if files := s.catalog.List(); files != nil {
				listing.Locations = files
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *AssetStore) scanAudio(t models.AssetType) ([]models.AssetFile, error) {
	rule, err := s.rule(t)
	if err != nil {
		return nil, err
	}

	files := []models.AssetFile{}
	entries, err := os.ReadDir(rule.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return files, nil
		}
		return nil, fmt.Errorf("read %s dir: %w", t, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !hasExt(entry.Name(), audioListExts) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, models.AssetFile{
			Name:     entry.Name(),
			Filename: entry.Name(),
			Path:     rule.urlPrefix + entry.Name(),
			Size:     info.Size(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func hasExt(filename string, allowed []string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	ext := strings.ToLower(filename[i+1:])
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// verifyFamily checks the sniffed MIME type of data against family.
func verifyFamily(data []byte, family string) error {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), family+"/") {
			return nil
		}
		if family == familyAudio && m.Is("application/ogg") {
			return nil
		}
	}
	return apperrors.WithMetadata(apperrors.CodeContentMismatch, "file content does not match asset type", map[string]string{
		"detected": mt.String(),
		"expected": family,
	})
}

// writeNewFile creates path exclusively, failing with os.ErrExist when a file
// is already there. A partial file is removed on write failure.
func writeNewFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
