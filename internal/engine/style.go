package engine

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// EntryStyle is a precomputed rendering style for one Entry, attached by
// the walker so the receiver never has to re-derive it on the hot output
// path (spec.md §4.1 point 5). It wraps lipgloss.Style, which already
// understands truecolor/256-color/no-color terminal capability
// negotiation, rather than hand-rolling an ANSI-code formatter.
type EntryStyle struct {
	style lipgloss.Style
}

// Render applies the style to s, or returns s unchanged if colorization
// was disabled for the search that produced this entry.
func (s *EntryStyle) Render(text string) string {
	if s == nil {
		return text
	}
	return s.style.Render(text)
}

// StyleSheet resolves an Entry to its EntryStyle, parsed once from
// LS_COLORS (or a sane built-in default), grounded in the original's
// LsColors::from_string / add_entry (lscolors/mod.rs).
type StyleSheet struct {
	directory  lipgloss.Style
	symlink    lipgloss.Style
	executable lipgloss.Style
	socket     lipgloss.Style
	pipe       lipgloss.Style
	device     lipgloss.Style
	extensions map[string]lipgloss.Style
	filenames  map[string]lipgloss.Style
}

// NewStyleSheet builds a StyleSheet from the LS_COLORS environment
// variable, falling back to the original's hardcoded defaults (blue-bold
// directories, cyan symlinks) when the variable is unset or empty.
func NewStyleSheet() *StyleSheet {
	s := &StyleSheet{
		directory:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		symlink:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		executable: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		socket:     lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		pipe:       lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		device:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		extensions: map[string]lipgloss.Style{},
		filenames:  map[string]lipgloss.Style{},
	}
	if raw := os.Getenv("LS_COLORS"); raw != "" {
		for _, entry := range strings.Split(raw, ":") {
			s.addEntry(entry)
		}
	}
	return s
}

func (s *StyleSheet) addEntry(entry string) {
	parts := strings.SplitN(strings.TrimSpace(entry), "=", 3)
	if len(parts) != 2 {
		return
	}
	pattern, code := parts[0], parts[1]
	style, ok := parseAnsiStyle(code)
	if !ok {
		return
	}
	switch pattern {
	case "di":
		s.directory = style
	case "ln":
		s.symlink = style
	case "ex":
		s.executable = style
	case "so":
		s.socket = style
	case "pi":
		s.pipe = style
	case "bd", "cd":
		s.device = style
	default:
		switch {
		case strings.HasPrefix(pattern, "*."):
			s.extensions[pattern[2:]] = style
		case strings.HasPrefix(pattern, "*"):
			s.filenames[pattern[1:]] = style
		}
	}
}

// parseAnsiStyle parses a LS_COLORS-style SGR sequence such as
// "38;5;10;1" or "01;34" into a lipgloss.Style.
func parseAnsiStyle(code string) (lipgloss.Style, bool) {
	fields := strings.Split(code, ";")
	style := lipgloss.NewStyle()
	ok := false
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "0", "00":
			ok = true
		case "1", "01":
			style = style.Bold(true)
			ok = true
		case "3", "03":
			style = style.Italic(true)
			ok = true
		case "4", "04":
			style = style.Underline(true)
			ok = true
		case "38":
			if i+2 < len(fields) && fields[i+1] == "5" {
				if n, err := strconv.Atoi(fields[i+2]); err == nil {
					style = style.Foreground(lipgloss.Color(strconv.Itoa(n)))
					ok = true
				}
				i += 2
			}
		case "30", "31", "32", "33", "34", "35", "36", "37":
			n, _ := strconv.Atoi(fields[i])
			style = style.Foreground(lipgloss.Color(strconv.Itoa(n - 30)))
			ok = true
		}
	}
	return style, ok
}

// Resolve picks the style for an entry: extension and filename overrides
// take precedence over the per-type defaults, matching the original's
// lookup order (lscolors consumer in fmt/).
func (s *StyleSheet) Resolve(typ FileType, name string, executable bool) *EntryStyle {
	if style, ok := s.filenames[name]; ok {
		return &EntryStyle{style: style}
	}
	if ext := extOf(name); ext != "" {
		if style, ok := s.extensions[ext]; ok {
			return &EntryStyle{style: style}
		}
	}
	switch typ {
	case TypeDir:
		return &EntryStyle{style: s.directory}
	case TypeSymlink:
		return &EntryStyle{style: s.symlink}
	case TypeSocket:
		return &EntryStyle{style: s.socket}
	case TypePipe:
		return &EntryStyle{style: s.pipe}
	case TypeBlockDev, TypeCharDev:
		return &EntryStyle{style: s.device}
	}
	if executable {
		return &EntryStyle{style: s.executable}
	}
	return nil
}

func extOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return name[idx+1:]
}
