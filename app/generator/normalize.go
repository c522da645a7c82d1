package generator

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeTag canonicalizes a tag name: Unicode case folding, trimmed
// edges, inner whitespace collapsed to single spaces. Uniqueness in the
// store is enforced on the normalized form.
func NormalizeTag(name string) string {
	folded := cases.Fold().String(strings.TrimSpace(name))
	return strings.Join(strings.Fields(folded), " ")
}

// NormalizeTags normalizes and deduplicates a tag set, preserving first-seen
// order and dropping entries that normalize to nothing.
func NormalizeTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var tags []string
	for _, name := range names {
		normalized := NormalizeTag(name)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		tags = append(tags, normalized)
	}
	return tags
}
