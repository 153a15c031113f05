// Package handlers exposes the content, asset, auth and game-save operations
// over HTTP.
package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	apperrors "github.com/appsfolder/SWVNE/pkg/errors"
)

// Response is the envelope of every mutating endpoint.
type Response struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
	Code         string `json:"code,omitempty"`
	RequiresAuth bool   `json:"requires_auth,omitempty"`
}

// respondError logs err and writes it with the status of its domain code.
// Errors without a code are reported as a generic server error.
func respondError(c *gin.Context, op string, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	log.Printf("%s failed: code=%s, error=%v", op, code, err)

	msg := "internal server error"
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		msg = domainErr.Message
	}
	c.JSON(status, Response{Success: false, Error: msg, Code: string(code)})
}

func badRequest(c *gin.Context, op, msg string) {
	log.Printf("%s failed: %s", op, msg)
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg, Code: string(apperrors.CodeInvalidContent)})
}

// decodeJSONBody reads the whole request body into v.
func decodeJSONBody(c *gin.Context, v any) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}
