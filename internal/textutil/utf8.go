package textutil

import "unicode/utf8"

// ByteLimit returns the largest byte offset that is at most budget and lands
// exactly on a codepoint boundary of s, decoding forward from the start.
// When budget covers the whole string the full length is returned without
// decoding. Decoding stops early at a malformed sequence or a NUL codepoint,
// returning the last boundary found before it. Callers truncating at the
// returned offset never split a multi-byte character.
func ByteLimit(s string, budget int) int {
	if budget >= len(s) {
		return len(s)
	}
	if budget < 0 {
		return 0
	}

	limit := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == 0 || (r == utf8.RuneError && size <= 1) {
			break
		}
		if i+size > budget {
			break
		}
		i += size
		limit = i
	}
	return limit
}
