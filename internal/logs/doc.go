// Package logs reads daemon log files for the IPC LogTail surface: bounded
// "last N lines" reads, forward reads from a byte offset, and a polling
// follow mode with a wait budget so `hopper logs --follow` can stream
// without holding a server goroutine forever.
package logs
