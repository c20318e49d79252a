package record

import (
	"github.com/gravitational/trace"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLen bounds slug length after normalization.
const MaxSlugLen = 128

// VersionLatest is the reserved version selector for the current row.
// Distinguished from numeric selectors by literal content, not type.
const VersionLatest = "latest"

// ValidateSlug normalizes and validates a caller-supplied slug.
// Slugs are NFC-normalized, then restricted to 1..128 characters of
// [A-Za-z0-9._~-] (the unreserved URI set). Returns the normalized slug
// or a BadParameter error.
func ValidateSlug(raw string) (string, error) {
	slug := norm.NFC.String(raw)
	if slug == "" {
		return "", trace.BadParameter("slug must not be empty")
	}
	if len(slug) > MaxSlugLen {
		return "", trace.BadParameter("slug exceeds %d characters", MaxSlugLen)
	}
	for _, c := range slug {
		if !isSlugRune(c) {
			return "", trace.BadParameter("slug contains invalid character %q", c)
		}
	}
	return slug, nil
}

func isSlugRune(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '.' || c == '_' || c == '~' || c == '-':
		return true
	}
	return false
}
