package services

import apperrors "github.com/appsfolder/SWVNE/pkg/errors"

// Sentinels for errors.Is checks. Returned errors carry the same code plus
// metadata.
var (
	ErrInvalidIdentifier    = apperrors.New(apperrors.CodeInvalidIdentifier, "invalid identifier")
	ErrPathTraversal        = apperrors.New(apperrors.CodePathTraversal, "path escapes its root")
	ErrDuplicateAsset       = apperrors.New(apperrors.CodeDuplicateAsset, "asset already exists")
	ErrNotFound             = apperrors.New(apperrors.CodeNotFound, "not found")
	ErrInvalidAssetType     = apperrors.New(apperrors.CodeInvalidAssetType, "invalid asset type")
	ErrUnsupportedExtension = apperrors.New(apperrors.CodeUnsupportedExtension, "unsupported file extension")
	ErrContentMismatch      = apperrors.New(apperrors.CodeContentMismatch, "file content does not match asset type")
	ErrInvalidContent       = apperrors.New(apperrors.CodeInvalidContent, "invalid content")
	ErrResourceExhausted    = apperrors.New(apperrors.CodeResourceExhausted, "could not allocate a unique id")
	ErrShadowedEntry        = apperrors.New(apperrors.CodeShadowedEntry, "entry is overridden by another content file")
)
