package httpclient

import (
	"strings"
	"unicode/utf8"
)

// MaxBodySnippet bounds how much of a response body is echoed into errors and logs.
const MaxBodySnippet = 512

// BodySnippet trims body and cuts it to at most MaxBodySnippet bytes on a rune boundary.
// A cut snippet ends with "...".
func BodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= MaxBodySnippet {
		return s
	}
	cut := MaxBodySnippet
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
