package textutil

import (
	"encoding/hex"
	"fmt"
	"strings"
)

var sizeSuffixes = []string{"B", "KiB", "MiB", "GiB", "TiB"}

// FormatSize renders a byte count as a human-readable size with two decimal
// places, scaling through binary suffixes up to TiB.
func FormatSize(size float64) string {
	idx := 0
	for size >= 1024.0 && idx < len(sizeSuffixes)-1 {
		size /= 1024.0
		idx++
	}
	return fmt.Sprintf("%.2f %s", size, sizeSuffixes[idx])
}

// HexString encodes data as a contiguous hex string, uppercased on request.
func HexString(data []byte, upper bool) string {
	out := hex.EncodeToString(data)
	if upper {
		out = strings.ToUpper(out)
	}
	return out
}
