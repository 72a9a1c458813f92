package textutil

import (
	"strings"
	"unicode/utf8"
)

// illegalNameRunes are rejected by FAT and exFAT volumes regardless of host OS.
const illegalNameRunes = `\/:*?"<>|`

const placeholder = '_'

// SanitizeName rewrites a candidate file name so every codepoint is safe to
// store on the output volume. Illegal filesystem characters and control
// codepoints become a single underscore each. With asciiOnly set, every
// codepoint at or above 0x7F is replaced as well; otherwise only the DEL
// codepoint is. Decoding stops at the first malformed sequence, truncating
// the result there. Applying SanitizeName to its own output is a no-op.
func SanitizeName(name string, asciiOnly bool) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); {
		r, size := utf8.DecodeRuneInString(name[i:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		switch {
		case r < 0x20 || strings.ContainsRune(illegalNameRunes, r):
			b.WriteByte(placeholder)
		case asciiOnly && r >= 0x7F:
			b.WriteByte(placeholder)
		case !asciiOnly && r == 0x7F:
			b.WriteByte(placeholder)
		default:
			b.WriteString(name[i : i+size])
		}
		i += size
	}
	return b.String()
}
