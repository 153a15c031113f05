package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/appsfolder/SWVNE/pkg/errors"
	"github.com/appsfolder/SWVNE/pkg/models"
	"github.com/appsfolder/SWVNE/pkg/services"
)

// AssetHandler manages uploaded audio and image files and the location
// catalog.
type AssetHandler struct {
	assets         *services.AssetStore
	catalog        *services.LocationCatalog
	maxUploadBytes int64
}

func NewAssetHandler(assets *services.AssetStore, catalog *services.LocationCatalog, maxUploadBytes int64) *AssetHandler {
	return &AssetHandler{assets: assets, catalog: catalog, maxUploadBytes: maxUploadBytes}
}

// AssetResponse is returned by uploads.
type AssetResponse struct {
	Success bool `json:"success"`
	*models.AssetFile
}

// AssetListResponse wraps the listing of every asset directory.
type AssetListResponse struct {
	Success bool                 `json:"success"`
	Assets  *models.AssetListing `json:"assets"`
}

// List returns {"success": true, "assets": {"bgm": [...], "sfx": [...], "locations": [...]}}.
func (h *AssetHandler) List(c *gin.Context) {
	listing, err := h.assets.List()
	if err != nil {
		respondError(c, "[AssetHandler] List", err)
		return
	}
	c.JSON(http.StatusOK, AssetListResponse{Success: true, Assets: listing})
}

// Upload stores a bgm, sfx or locations file from the multipart fields
// "file" and "type".
func (h *AssetHandler) Upload(c *gin.Context) {
	const op = "[AssetHandler] Upload"

	assetType, err := models.ParseAssetType(c.PostForm("type"))
	if err != nil || assetType == models.CharacterPose {
		respondError(c, op, apperrors.WithMetadata(apperrors.CodeInvalidAssetType, "invalid asset type", map[string]string{"type": c.PostForm("type")}))
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, op, "file is required")
		return
	}
	data, ok := readUpload(c, op, fh, h.maxUploadBytes)
	if !ok {
		return
	}

	log.Printf("%s started: type=%s, filename=%s, size=%d", op, assetType, fh.Filename, len(data))
	file, err := h.assets.Save(services.SaveParams{Type: assetType, Filename: fh.Filename, Data: data})
	if err != nil {
		respondError(c, op, err)
		return
	}
	log.Printf("%s completed: path=%s", op, file.Path)
	c.JSON(http.StatusOK, AssetResponse{Success: true, AssetFile: file})
}

// UploadCharacterImage stores a pose image from the multipart fields
// "image", "character_id" and "pose_name".
func (h *AssetHandler) UploadCharacterImage(c *gin.Context) {
	const op = "[AssetHandler] UploadCharacterImage"

	characterID := c.PostForm("character_id")
	poseName := c.PostForm("pose_name")
	if characterID == "" || poseName == "" {
		badRequest(c, op, "character_id and pose_name are required")
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		badRequest(c, op, "image is required")
		return
	}
	data, ok := readUpload(c, op, fh, h.maxUploadBytes)
	if !ok {
		return
	}

	log.Printf("%s started: character=%s, pose=%s", op, characterID, poseName)
	file, err := h.assets.Save(services.SaveParams{
		Type:        models.CharacterPose,
		Filename:    fh.Filename,
		Data:        data,
		CharacterID: characterID,
		PoseName:    poseName,
	})
	if err != nil {
		respondError(c, op, err)
		return
	}
	log.Printf("%s completed: path=%s", op, file.Path)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "image uploaded", "path": file.Path})
}

// Delete removes {"type": ..., "path": "/static/..."}.
func (h *AssetHandler) Delete(c *gin.Context) {
	const op = "[AssetHandler] Delete"

	var req struct {
		Type string `json:"type"`
		Path string `json:"path"`
	}
	if err := decodeJSONBody(c, &req); err != nil {
		badRequest(c, op, "invalid JSON body")
		return
	}
	assetType, err := models.ParseAssetType(req.Type)
	if err != nil {
		respondError(c, op, apperrors.WithMetadata(apperrors.CodeInvalidAssetType, "invalid asset type", map[string]string{"type": req.Type}))
		return
	}

	log.Printf("%s started: type=%s, path=%s", op, assetType, req.Path)
	if err := h.assets.Delete(assetType, req.Path); err != nil {
		respondError(c, op, err)
		return
	}
	log.Printf("%s completed: path=%s", op, req.Path)
	c.JSON(http.StatusOK, Response{Success: true, Message: "deleted"})
}

// UpdateLocation renames a catalog entry: {"location_id": ..., "new_name": ...}.
func (h *AssetHandler) UpdateLocation(c *gin.Context) {
	const op = "[AssetHandler] UpdateLocation"

	var req struct {
		LocationID string `json:"location_id"`
		NewName    string `json:"new_name"`
	}
	if err := decodeJSONBody(c, &req); err != nil {
		badRequest(c, op, "invalid JSON body")
		return
	}

	if err := h.catalog.Rename(req.LocationID, req.NewName); err != nil {
		respondError(c, op, err)
		return
	}
	log.Printf("%s completed: id=%s", op, req.LocationID)
	c.JSON(http.StatusOK, Response{Success: true, Message: "location renamed"})
}
