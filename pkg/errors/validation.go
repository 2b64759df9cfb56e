package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateAnchorName validates a box or inline anchor name.
//
// Names are used as registry keys and as SVG id attributes, so they are
// restricted to letters, digits, '_', '-', '.' and ':', and must not be
// empty.
func ValidateAnchorName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidAnchor, "anchor name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidAnchor, "anchor name too long (max 128 characters)")
	}
	if !anchorNameRegex.MatchString(name) {
		return New(ErrCodeInvalidAnchor, "invalid anchor name: %q", name)
	}
	return nil
}

var anchorNameRegex = regexp.MustCompile(`^[\p{L}\p{N}_][\p{L}\p{N}_.:-]*$`)

// ValidateStyleName validates a style table key.
func ValidateStyleName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "style name cannot be empty")
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == '{' || r == '}' || r == '~' {
			return New(ErrCodeInvalidInput, "style name contains invalid characters: %q", name)
		}
	}
	return nil
}

// ValidatePath validates a file path referenced by an untrusted deck.
// It prevents path traversal attacks and ensures reasonable path length.
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

// ValidateFormat checks an output format name against the supported set.
func ValidateFormat(format string, supported ...string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	for _, s := range supported {
		if strings.EqualFold(format, s) {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(supported, ", "))
}
