package services

import (
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/appsfolder/SWVNE/pkg/errors"
)

// Identifier length limits.
const (
	MaxContentIDLen  = 50
	MaxPoseNameLen   = 20
	LocationIDLength = 30
)

// ValidateIdentifier reports whether id is non-empty, at most maxLen bytes,
// and made only of ASCII letters, digits, '_' and '-'.
func ValidateIdentifier(id string, maxLen int) bool {
	return validateChars(id, maxLen, func(r rune) bool {
		return isASCIIAlnum(r) || r == '_' || r == '-'
	})
}

// ValidatePoseName is ValidateIdentifier without '-' and with the pose
// length limit.
func ValidatePoseName(name string) bool {
	return validateChars(name, MaxPoseNameLen, func(r rune) bool {
		return isASCIIAlnum(r) || r == '_'
	})
}

// ValidateLocationID accepts catalog ids: ASCII letters and digits only.
func ValidateLocationID(id string) bool {
	return validateChars(id, LocationIDLength, isASCIIAlnum)
}

func validateChars(s string, maxLen int, allowed func(rune) bool) bool {
	if s == "" || len(s) > maxLen {
		return false
	}
	for _, r := range s {
		if !allowed(r) {
			return false
		}
	}
	return true
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// Chains carry state, so each call builds its own.
func asciiFold() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
}

// SanitizeFilename reduces name to a safe basename. Directory components are
// dropped, non-ASCII letters are folded, whitespace becomes '_', and any
// other character outside [A-Za-z0-9._-] is removed. Leading and trailing
// dots and underscores are trimmed. The result is empty when nothing safe
// remains.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}

	folded, _, err := transform.String(asciiFold(), name)
	if err != nil {
		return ""
	}

	var b strings.Builder
	for i, field := range strings.Fields(folded) {
		if i > 0 {
			b.WriteByte('_')
		}
		for _, r := range field {
			if isASCIIAlnum(r) || r == '.' || r == '_' || r == '-' {
				b.WriteRune(r)
			}
		}
	}
	return strings.Trim(b.String(), "._")
}

// ResolveWithin returns the absolute form of candidate, resolved against root
// when relative, and fails with a path traversal error unless it lies strictly
// below root. The check is lexical; callers run it even on names that were
// already sanitized.
func ResolveWithin(root, candidate string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodePathTraversal, "resolve root", err)
	}

	escapes := apperrors.WithMetadata(apperrors.CodePathTraversal, "path escapes its root", map[string]string{
		"root": root,
		"path": candidate,
	})

	target := candidate
	if !filepath.IsAbs(target) {
		// Reject upward relative paths outright, whatever the root.
		if clean := filepath.Clean(target); clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return "", escapes
		}
		target = filepath.Join(absRoot, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(absRoot, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", escapes
	}
	return target, nil
}

// SafeJoin joins elem onto root and verifies containment.
func SafeJoin(root string, elem ...string) (string, error) {
	return ResolveWithin(root, filepath.Join(elem...))
}
