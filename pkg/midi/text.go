package midi

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

// decodeMetaText normalizes the bytes of a meta text event. Authoring tools
// disagree on charsets: valid UTF-8 passes through, anything else is retried
// as Shift-JIS, and a failed retry keeps the original so that exact-match
// track-name lookups on ASCII names still work.
func decodeMetaText(raw string) string {
	s := strings.TrimRight(raw, "\x00")
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return decoded
}
