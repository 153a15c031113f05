package handlers

import (
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	apperrors "github.com/appsfolder/SWVNE/pkg/errors"
	"github.com/appsfolder/SWVNE/pkg/models"
	"github.com/appsfolder/SWVNE/pkg/services"
)

// ContentHandler serves the merged content catalogs and single-entry writes.
type ContentHandler struct {
	store          *services.ContentStore
	maxUploadBytes int64
}

func NewContentHandler(store *services.ContentStore, maxUploadBytes int64) *ContentHandler {
	return &ContentHandler{store: store, maxUploadBytes: maxUploadBytes}
}

func (h *ContentHandler) contentType(c *gin.Context, op string) (models.ContentType, bool) {
	ct, err := models.ParseContentType(c.Param("type"))
	if err != nil {
		log.Printf("%s failed: %v", op, err)
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "unknown content type", Code: string(apperrors.CodeNotFound)})
		return "", false
	}
	return ct, true
}

// GetContent returns the merged id -> entry map of one content type.
func (h *ContentHandler) GetContent(c *gin.Context) {
	ct, ok := h.contentType(c, "[ContentHandler] GetContent")
	if !ok {
		return
	}
	entries, _, err := h.store.Load(ct)
	if err != nil {
		respondError(c, "[ContentHandler] GetContent", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

var exportContentTypes = map[string]string{
	services.FormatJSON: "application/json; charset=utf-8",
	services.FormatYAML: "application/yaml; charset=utf-8",
	services.FormatTOML: "application/toml; charset=utf-8",
}

// Export renders one content type as a downloadable json, yaml or toml document.
func (h *ContentHandler) Export(c *gin.Context) {
	ct, ok := h.contentType(c, "[ContentHandler] Export")
	if !ok {
		return
	}
	format := c.DefaultQuery("format", services.FormatJSON)
	mime, ok := exportContentTypes[format]
	if !ok {
		badRequest(c, "[ContentHandler] Export", "unsupported export format: "+format)
		return
	}

	data, err := h.store.Export(ct, format)
	if err != nil {
		respondError(c, "[ContentHandler] Export", err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+string(ct)+"."+format)
	c.Data(http.StatusOK, mime, data)
}

// Import stores an uploaded content file in the directory of its type.
func (h *ContentHandler) Import(c *gin.Context) {
	const op = "[ContentHandler] Import"
	ct, ok := h.contentType(c, op)
	if !ok {
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

	log.Printf("%s started: type=%s, filename=%s", op, ct, fh.Filename)
	name, err := h.store.ImportFile(ct, fh.Filename, data)
	if err != nil {
		respondError(c, op, err)
		return
	}
	log.Printf("%s completed: type=%s, stored=%s", op, ct, name)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": string(ct) + " uploaded", "filename": name})
}

// singleEntry extracts the only id -> entry pair under key from the body.
func singleEntry(c *gin.Context, op, key string) (string, models.Entry, bool) {
	var body map[string]map[string]json.RawMessage
	if err := decodeJSONBody(c, &body); err != nil {
		badRequest(c, op, "invalid JSON body")
		return "", nil, false
	}
	entries := body[key]
	if len(entries) != 1 {
		badRequest(c, op, "body must hold exactly one entry under \""+key+"\"")
		return "", nil, false
	}
	for id, entry := range entries {
		return id, entry, true
	}
	return "", nil, false
}

// SaveScenario writes {"scenarios": {id: entry}} to the scenario's own file.
func (h *ContentHandler) SaveScenario(c *gin.Context) {
	const op = "[ContentHandler] SaveScenario"
	id, entry, ok := singleEntry(c, op, models.Scenarios.Key())
	if !ok {
		return
	}

	log.Printf("%s started: id=%s", op, id)
	if err := h.store.UpsertScenario(id, entry); err != nil {
		respondError(c, op, err)
		return
	}
	log.Printf("%s completed: id=%s", op, id)
	c.JSON(http.StatusOK, Response{Success: true, Message: "scenario \"" + id + "\" saved"})
}

// ListScenarios returns {"scenarios": [summary...]}.
func (h *ContentHandler) ListScenarios(c *gin.Context) {
	list, err := h.store.ListScenarios()
	if err != nil {
		respondError(c, "[ContentHandler] ListScenarios", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": list})
}

// LoadScenario returns {"scenarios": {id: entry}}.
func (h *ContentHandler) LoadScenario(c *gin.Context) {
	doc, err := h.store.GetScenario(c.Param("id"))
	if err != nil {
		respondError(c, "[ContentHandler] LoadScenario", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// SaveCharacter merges {"characters": {id: entry}} into the shared file.
func (h *ContentHandler) SaveCharacter(c *gin.Context) {
	const op = "[ContentHandler] SaveCharacter"
	id, entry, ok := singleEntry(c, op, models.Characters.Key())
	if !ok {
		return
	}

	log.Printf("%s started: id=%s", op, id)
	if err := h.store.UpsertCharacter(id, entry); err != nil {
		respondError(c, op, err)
		return
	}
	log.Printf("%s completed: id=%s", op, id)
	c.JSON(http.StatusOK, Response{Success: true, Message: "character \"" + id + "\" saved"})
}

// ListCharacters returns {"characters": [summary...]}.
func (h *ContentHandler) ListCharacters(c *gin.Context) {
	list, err := h.store.ListCharacters()
	if err != nil {
		respondError(c, "[ContentHandler] ListCharacters", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": list})
}

// readUpload reads an uploaded file up to limit bytes. It writes the error
// response itself and reports false on failure.
func readUpload(c *gin.Context, op string, fh *multipart.FileHeader, limit int64) ([]byte, bool) {
	if limit > 0 && fh.Size > limit {
		log.Printf("%s failed: upload too large, size=%d, limit=%d", op, fh.Size, limit)
		c.JSON(http.StatusRequestEntityTooLarge, Response{Success: false, Error: "file is too large"})
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, op, err)
		return nil, false
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		respondError(c, op, err)
		return nil, false
	}
	if limit > 0 && int64(len(data)) > limit {
		log.Printf("%s failed: upload too large, limit=%d", op, limit)
		c.JSON(http.StatusRequestEntityTooLarge, Response{Success: false, Error: "file is too large"})
		return nil, false
	}
	return data, true
}
