package service

import "strings"

const (
	// DefaultCategoryKey is used when a row carries no category text or an
	// unrecognized one.
	DefaultCategoryKey = "DEFAULT_DEBT"

	categorySuffix = "_DEBT"
)

// NormalizeCategory canonicalizes free-text category input into a taxonomy
// key: empty input yields the default key, anything else is uppercased and
// suffixed with "_DEBT" unless already suffixed. Idempotent under
// re-normalization.
func NormalizeCategory(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return DefaultCategoryKey
	}
	key := strings.ToUpper(trimmed)
	if !strings.HasSuffix(key, categorySuffix) {
		key += categorySuffix
	}
	return key
}
