// Package tui renders invocation results and history for the terminal.
//
// Colors use lipgloss AdaptiveColor for light and dark terminals. Call
// CheckNoColor before rendering to honor NO_COLOR and TERM=dumb.
package tui

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mrz1836/reviewapp/internal/domain"
)

//nolint:gochecknoglobals // package-level palette
var (
	// ColorPrimary is blue, used for informational text and links.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for WARNING lines and degraded results.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for ERROR lines and failed results.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	// StyleUnderline applies underline formatting to text.
	StyleUnderline = lipgloss.NewStyle().Underline(true)
)

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
	Banner  lipgloss.Style
	Header  lipgloss.Style
}

// NewOutputStyles creates common output styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Info:    lipgloss.NewStyle().Foreground(ColorPrimary),
		Dim:     lipgloss.NewStyle().Foreground(ColorMuted),
		Banner:  lipgloss.NewStyle().Bold(true),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
	}
}

// CheckNoColor switches lipgloss to plain ASCII when color is unsupported.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns false if NO_COLOR is set (to any value, including
// empty) or TERM=dumb. See https://no-color.org/.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// StatusIcon returns the icon for an invocation status.
func StatusIcon(status domain.InvocationStatus) string {
	switch status {
	case domain.StatusSucceeded:
		return "✓"
	case domain.StatusDegraded:
		return "⚠"
	case domain.StatusFailed:
		return "✗"
	default:
		return "?"
	}
}

// StatusStyle returns the style a status is rendered in.
func (s *OutputStyles) StatusStyle(status domain.InvocationStatus) lipgloss.Style {
	switch status {
	case domain.StatusSucceeded:
		return s.Success
	case domain.StatusDegraded:
		return s.Warning
	case domain.StatusFailed:
		return s.Error
	default:
		return s.Dim
	}
}

// Line styles one invocation log line by its prefix. Banner lines carry
// their own blank lines, so each segment is styled separately.
func (s *OutputStyles) Line(line string) string {
	var style lipgloss.Style
	switch {
	case strings.HasPrefix(line, "ERROR"):
		style = s.Error
	case strings.HasPrefix(line, "WARNING"):
		style = s.Warning
	case strings.Contains(line, "*****"):
		style = s.Banner
	default:
		return line
	}
	parts := strings.Split(line, "\n")
	for i, p := range parts {
		if p != "" {
			parts[i] = style.Render(p)
		}
	}
	return strings.Join(parts, "\n")
}

// stripANSI removes CSI escape sequences so widths count visible runes.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inEscape:
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
				inEscape = false
			}
		case c == '\x1b' && i+1 < len(s) && s[i+1] == '[':
			inEscape = true
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// padRight pads s with spaces to width visible runes.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(stripANSI(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
