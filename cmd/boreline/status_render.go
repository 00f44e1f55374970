package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

var (
	colorOK     = newColor(color.FgGreen)
	colorWarn   = newColor(color.FgYellow)
	colorError  = newColor(color.FgRed)
	colorInfo   = newColor(color.FgBlue)
	colorHeader = newColor(color.FgBlue, color.Bold)
)

// newColor builds a color that always emits escapes; shouldColorize decides
// whether it is applied at all.
func newColor(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		return statusKindColor(kind).Sprint(base)
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
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

func statusKindColor(kind statusKind) *color.Color {
	switch kind {
	case statusOK:
		return colorOK
	case statusWarn:
		return colorWarn
	case statusError:
		return colorError
	default:
		return colorInfo
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = colorHeader.Sprint(line)
		rule = colorHeader.Sprint(rule)
	}
	return []string{line, rule}
}

// statusColumn colours an encoded status for table cells.
func statusColumn(status string, colorize bool) string {
	if !colorize {
		return status
	}
	switch {
	case status == "READY_TO_SHIP":
		return colorOK.Sprint(status)
	case status == "SCRAP":
		return colorError.Sprint(status)
	case status == "HOLD" || status == "REWORK":
		return colorWarn.Sprint(status)
	case strings.HasSuffix(status, "_IN_PROGRESS"):
		return colorInfo.Sprint(status)
	default:
		return status
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
