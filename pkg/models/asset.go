package models

import "fmt"

// AssetType selects the directory, URL prefix and extension rules for an
// uploaded binary file.
type AssetType string

const (
	BGM           AssetType = "bgm"
	SFX           AssetType = "sfx"
	Locations     AssetType = "locations"
	CharacterPose AssetType = "character_pose"
)

// ParseAssetType validates a raw asset type name.
func ParseAssetType(raw string) (AssetType, error) {
	switch AssetType(raw) {
	case BGM, SFX, Locations, CharacterPose:
		return AssetType(raw), nil
	}
	return "", fmt.Errorf("unknown asset type %q", raw)
}

// LocationEntry is one record of the location index file.
type LocationEntry struct {
	ID         string `json:"-"`
	Name       string `json:"name"`
	Background string `json:"background"`
}

// AssetFile describes a stored file as returned by uploads and listings.
type AssetFile struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Filename string `json:"filename,omitempty"`
	Path     string `json:"path"` // Site-relative URL
	Size     int64  `json:"size"`
}

// AssetListing groups stored files by kind.
type AssetListing struct {
	BGM       []AssetFile `json:"bgm"`
	SFX       []AssetFile `json:"sfx"`
	Locations []AssetFile `json:"locations"`
}

// GameState is the opaque save-game payload kept in the player session.
type GameState map[string]any

// DefaultGameState is returned when a session has no saved game.
func DefaultGameState() GameState {
	return GameState{
		"currentDialogue": "start",
		"variables":       map[string]any{},
		"history":         []any{},
		"currentScenario": nil,
	}
}
