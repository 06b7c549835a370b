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

func (k statusKind) label() string {
	switch k {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (k statusKind) color() string {
	switch k {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	default:
		return ansiBlue
	}
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const statusIndent = "  "

type statusLine struct {
	label   string
	kind    statusKind
	message string
}

// renderStatus formats a titled block of status lines. Labels are padded to
// the longest one so the [KIND] markers line up.
func renderStatus(title string, lines []statusLine, colorize bool) string {
	header := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	out := []string{
		paint(header, ansiBlue, colorize),
		paint(strings.Repeat("-", len(header)), ansiBlue, colorize),
	}

	width := 0
	for _, line := range lines {
		width = max(width, len(line.label)+1)
	}
	for _, line := range lines {
		text := fmt.Sprintf("%s%-*s [%s]", statusIndent, width, line.label+":", line.kind.label())
		if line.message != "" {
			text += " " + line.message
		}
		out = append(out, paint(text, line.kind.color(), colorize))
	}
	return strings.Join(out, "\n")
}

func paint(s, color string, colorize bool) string {
	if !colorize || color == "" {
		return s
	}
	return color + s + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
