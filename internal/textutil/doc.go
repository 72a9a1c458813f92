// Package textutil provides the text primitives shared by path generation,
// diagnostics, and display formatting.
//
// The primary use cases are:
//   - Accumulating formatted text into an exactly-sized growable buffer
//   - Sanitizing cartridge- or user-supplied names for safe filesystem use
//   - Truncating UTF-8 text to a byte budget without splitting codepoints
//   - Rendering byte sizes and hex dumps for logs and the CLI
//
// All functions operate on caller-owned data and are safe for concurrent
// use; a single Buffer instance is not.
package textutil
