// Package normalize canonicalizes user-entered identity fields before they
// are stored or compared. Display casing is preserved; case-insensitive
// comparison keys are derived separately with text.Fold.
package normalize

import "strings"

// Username trims surrounding whitespace. Case is preserved for display; the
// username_ci field carries the folded form used for uniqueness.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// Name trims surrounding whitespace and collapses internal runs of spaces.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
