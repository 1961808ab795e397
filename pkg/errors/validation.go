package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// View modes accepted by [ValidateViewMode].
const (
	ViewCompact = "compact"
	ViewFull    = "full"
)

// MaxAutoDepth bounds the automatic expansion depth. Real module trees are
// far shallower; larger values only blow up the graph.
const MaxAutoDepth = 64

// modelIDRegex matches model identifiers such as "meta-llama/Llama-3.1-8B"
// or their filesystem-safe form "meta-llama__Llama-3.1-8B".
var modelIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*(/[A-Za-z0-9][A-Za-z0-9._-]*)?$`)

// ValidateModelID validates a model identifier before it is used to build a
// path or a URL.
func ValidateModelID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidModelID, "model id cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidModelID, "model id too long (max 256 characters)")
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidModelID, "model id cannot contain path traversal sequences (..)")
	}
	if !modelIDRegex.MatchString(id) {
		return New(ErrCodeInvalidModelID, "invalid model id: %q", id)
	}
	return nil
}

// ValidateViewMode accepts "compact" and "full".
func ValidateViewMode(mode string) error {
	switch mode {
	case ViewCompact, ViewFull:
		return nil
	}
	return New(ErrCodeInvalidViewMode, "view mode must be %q or %q, got %q", ViewCompact, ViewFull, mode)
}

// ValidateSplitSize requires a split size of at least one element.
func ValidateSplitSize(n int) error {
	if n < 1 {
		return New(ErrCodeInvalidSplitSize, "split size must be at least 1, got %d", n)
	}
	return nil
}

// ValidateAutoDepth requires a depth between 0 and MaxAutoDepth.
func ValidateAutoDepth(n int) error {
	if n < 0 || n > MaxAutoDepth {
		return New(ErrCodeInvalidDepth, "auto depth must be between 0 and %d, got %d", MaxAutoDepth, n)
	}
	return nil
}

// ValidatePath validates a chunk path taken from a manifest. Manifests come
// from remote origins, so the path must stay inside the model directory.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates an origin URL. Only http and https are allowed.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
