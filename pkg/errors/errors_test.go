package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeNotFound, "not found")
	err := fmt.Errorf("delete asset: %w", WithMetadata(CodeNotFound, "asset missing", map[string]string{"path": "/x"}))

	if !errors.Is(err, sentinel) {
		t.Fatal("expected errors.Is to match by code")
	}
	if errors.Is(err, New(CodeDuplicateAsset, "dup")) {
		t.Fatal("expected different codes not to match")
	}
}

func TestWrapUnwrap(t *testing.T) {
	err := Wrap(CodeNotFound, "remove file", fs.ErrNotExist)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("expected cause to be reachable")
	}
	if err.Error() != "remove file: "+fs.ErrNotExist.Error() {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("outer: %w", New(CodePathTraversal, "escape"))); got != CodePathTraversal {
		t.Fatalf("expected %s, got %s", CodePathTraversal, got)
	}
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected %s, got %s", CodeUnknown, got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidIdentifier, http.StatusBadRequest},
		{CodePathTraversal, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeDuplicateAsset, http.StatusConflict},
		{CodeShadowedEntry, http.StatusConflict},
		{CodeUnsupportedExtension, http.StatusUnsupportedMediaType},
		{CodeResourceExhausted, http.StatusServiceUnavailable},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.code, tt.want, got)
		}
	}
}
