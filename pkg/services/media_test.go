package services

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/appsfolder/SWVNE/pkg/models"
)

var (
	pngMagic = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	mp3Magic = []byte("ID3\x03\x00\x00\x00\x00\x00\x00payload")
)

type assetFixture struct {
	store     *AssetStore
	catalog   *LocationCatalog
	staticDir string
}

func newAssetFixture(t *testing.T, opts ...AssetOption) assetFixture {
	t.Helper()
	root := t.TempDir()
	staticDir := filepath.Join(root, "static")
	catalog := NewLocationCatalog(
		filepath.Join(root, "content", "scenes", LocationIndexFile),
		LocationsDir(staticDir),
		LocationsURLPrefix,
	)
	return assetFixture{
		store:     NewAssetStore(staticDir, catalog, opts...),
		catalog:   catalog,
		staticDir: staticDir,
	}
}

func TestSaveAudioNeverOverwrites(t *testing.T) {
	f := newAssetFixture(t)

	file, err := f.store.Save(SaveParams{Type: models.BGM, Filename: "theme.mp3", Data: []byte("first")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if file.Path != "/static/audio/bgm/theme.mp3" || file.Size != 5 {
		t.Errorf("unexpected file %+v", file)
	}

	_, err = f.store.Save(SaveParams{Type: models.BGM, Filename: "theme.mp3", Data: []byte("second")})
	if !errors.Is(err, ErrDuplicateAsset) {
		t.Fatalf("expected ErrDuplicateAsset, got %v", err)
	}
	content, err := os.ReadFile(filepath.Join(f.staticDir, "audio", "bgm", "theme.mp3"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != "first" {
		t.Errorf("expected original content to survive, got %q", content)
	}
}

func TestSaveRejectsBadInput(t *testing.T) {
	f := newAssetFixture(t)

	cases := []struct {
		name string
		p    SaveParams
		want error
	}{
		{"unsupported extension", SaveParams{Type: models.SFX, Filename: "click.exe"}, ErrUnsupportedExtension},
		{"no extension", SaveParams{Type: models.SFX, Filename: "click"}, ErrUnsupportedExtension},
		{"image as audio", SaveParams{Type: models.BGM, Filename: "a.png"}, ErrUnsupportedExtension},
		{"invalid type", SaveParams{Type: "video", Filename: "a.mp4"}, ErrInvalidAssetType},
		{"empty after sanitizing", SaveParams{Type: models.SFX, Filename: "..mp3"}, ErrInvalidIdentifier},
		{"bad pose name", SaveParams{Type: models.CharacterPose, Filename: "a.png", CharacterID: "alice", PoseName: "../up"}, ErrInvalidIdentifier},
		{"bad character id", SaveParams{Type: models.CharacterPose, Filename: "a.png", CharacterID: "../alice", PoseName: "happy"}, ErrInvalidIdentifier},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.store.Save(tc.p); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSaveSanitizesTraversalFilename(t *testing.T) {
	f := newAssetFixture(t)

	file, err := f.store.Save(SaveParams{Type: models.SFX, Filename: "../../../etc/click sound.ogg", Data: []byte("x")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if file.Path != "/static/audio/sfx/click_sound.ogg" {
		t.Errorf("unexpected path %s", file.Path)
	}
	if _, err := os.Stat(filepath.Join(f.staticDir, "audio", "sfx", "click_sound.ogg")); err != nil {
		t.Errorf("expected file inside the sfx dir: %v", err)
	}
}

func TestLocationUploadAndDelete(t *testing.T) {
	f := newAssetFixture(t)

	file, err := f.store.Save(SaveParams{Type: models.Locations, Filename: "forest_path.png", Data: pngMagic})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if file.Name != "Forest Path" || len(file.ID) != LocationIDLength {
		t.Errorf("expected registered location, got %+v", file)
	}
	if entries := f.catalog.Entries(); len(entries) != 1 || entries[0].Background != "/static/locations/forest_path.png" {
		t.Fatalf("unexpected catalog %+v", entries)
	}

	if err := f.store.Delete(models.Locations, file.Path); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(LocationsDir(f.staticDir), "forest_path.png")); !os.IsNotExist(err) {
		t.Errorf("expected file to be removed, stat err = %v", err)
	}
	if entries := f.catalog.Entries(); len(entries) != 0 {
		t.Errorf("expected catalog entry to be removed, got %+v", entries)
	}

	if err := f.store.Delete(models.Locations, file.Path); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteRejectsForeignPaths(t *testing.T) {
	f := newAssetFixture(t)

	paths := []struct {
		t    models.AssetType
		path string
	}{
		{models.BGM, "/static/audio/sfx/a.mp3"},
		{models.BGM, "/static/audio/bgm/../../../secret"},
		{models.BGM, "/static/audio/bgm/"},
		{models.Locations, "/static/locations/sub/a.png"},
		{models.CharacterPose, "/static/character_images/alice"},
		{models.CharacterPose, "/static/character_images/../x/y.png"},
	}
	for _, p := range paths {
		if err := f.store.Delete(p.t, p.path); !errors.Is(err, ErrPathTraversal) {
			t.Errorf("%s %s: expected ErrPathTraversal, got %v", p.t, p.path, err)
		}
	}
	if err := f.store.Delete("video", "/static/video/a.mp4"); !errors.Is(err, ErrInvalidAssetType) {
		t.Errorf("expected ErrInvalidAssetType, got %v", err)
	}
}

func TestSavePoseOverwrites(t *testing.T) {
	f := newAssetFixture(t)

	p := SaveParams{Type: models.CharacterPose, Filename: "upload.webp", Data: []byte("v1"), CharacterID: "alice", PoseName: "happy"}
	file, err := f.store.Save(p)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if file.Path != "/static/character_images/alice/happy.png" {
		t.Errorf("unexpected path %s", file.Path)
	}

	p.Data = []byte("v2")
	if _, err := f.store.Save(p); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(f.staticDir, "character_images", "alice", "happy.png"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(content, []byte("v2")) {
		t.Errorf("expected pose to be replaced, got %q", content)
	}

	if err := f.store.Delete(models.CharacterPose, file.Path); err != nil {
		t.Fatalf("delete pose: %v", err)
	}
}

func TestSaveVerifiesContent(t *testing.T) {
	f := newAssetFixture(t, WithContentVerification(true))

	if _, err := f.store.Save(SaveParams{Type: models.Locations, Filename: "hall.png", Data: pngMagic}); err != nil {
		t.Errorf("png: %v", err)
	}
	if _, err := f.store.Save(SaveParams{Type: models.BGM, Filename: "theme.mp3", Data: mp3Magic}); err != nil {
		t.Errorf("mp3: %v", err)
	}
	if _, err := f.store.Save(SaveParams{Type: models.BGM, Filename: "fake.mp3", Data: []byte("just some text")}); !errors.Is(err, ErrContentMismatch) {
		t.Errorf("expected ErrContentMismatch for text, got %v", err)
	}
	if _, err := f.store.Save(SaveParams{Type: models.Locations, Filename: "fake.png", Data: mp3Magic}); !errors.Is(err, ErrContentMismatch) {
		t.Errorf("expected ErrContentMismatch for audio as image, got %v", err)
	}
}

func TestListAssets(t *testing.T) {
	f := newAssetFixture(t)

	listing, err := f.store.List()
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if listing.BGM == nil || listing.SFX == nil || listing.Locations == nil {
		t.Fatalf("expected empty slices, got %+v", listing)
	}

	bgmDir := filepath.Join(f.staticDir, "audio", "bgm")
	writeTestFile(t, bgmDir, "b.ogg", "bb")
	writeTestFile(t, bgmDir, "a.m4a", "a")
	writeTestFile(t, bgmDir, "notes.txt", "skip")
	if err := os.MkdirAll(filepath.Join(bgmDir, "nested.mp3"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := f.store.Save(SaveParams{Type: models.Locations, Filename: "hall.png", Data: pngMagic}); err != nil {
		t.Fatalf("save location: %v", err)
	}

	listing, err = f.store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listing.BGM) != 2 || listing.BGM[0].Name != "a.m4a" || listing.BGM[1].Size != 2 {
		t.Errorf("unexpected bgm listing %+v", listing.BGM)
	}
	if len(listing.SFX) != 0 {
		t.Errorf("expected no sfx, got %+v", listing.SFX)
	}
	if len(listing.Locations) != 1 || listing.Locations[0].Name != "Hall" {
		t.Errorf("unexpected locations %+v", listing.Locations)
	}
}
