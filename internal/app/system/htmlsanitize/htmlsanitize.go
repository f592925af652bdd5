// Package htmlsanitize strips markup from user-supplied content before it
// is stored. Freets and messages are plain text; anything that looks like
// HTML is removed rather than escaped.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Plain removes all HTML elements and attributes from s and unescapes what
// remains, returning displayable plain text.
func Plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
