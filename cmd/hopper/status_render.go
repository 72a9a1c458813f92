package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

// label and ANSI color for each kind; color is empty when the kind has none.
func (k statusKind) decoration() (string, string) {
	switch k {
	case statusOK:
		return "OK", "\x1b[32m"
	case statusWarn:
		return "WARN", "\x1b[33m"
	case statusError:
		return "ERROR", "\x1b[31m"
	default:
		return "INFO", "\x1b[34m"
	}
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	kindLabel, color := kind.decoration()
	statusText := "[" + kindLabel + "]"
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize && color != "" {
		return color + base + ansiReset
	}
	return base
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		_, blue := statusInfo.decoration()
		line = blue + line + ansiReset
		rule = blue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
