package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
)

// TTYOutput provides styled terminal output using Lip Gloss.
type TTYOutput struct {
	w      io.Writer
	styles *OutputStyles
}

// NewTTYOutput creates a TTYOutput. It respects NO_COLOR.
func NewTTYOutput(w io.Writer) *TTYOutput {
	CheckNoColor()
	return &TTYOutput{w: w, styles: NewOutputStyles()}
}

// Success outputs a green message with a ✓ icon.
func (o *TTYOutput) Success(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Success.Render("✓ "+msg))
}

// Error outputs the error in red. Known errors get a dim "▸ Try:" line.
func (o *TTYOutput) Error(err error) {
	_, _ = fmt.Fprintln(o.w, o.styles.Error.Render("✗ "+err.Error()))
	if _, action := errors.Actionable(err); action != "" {
		_, _ = fmt.Fprintln(o.w, o.styles.Dim.Render("  ▸ Try: "+action))
	}
}

// Warning outputs a yellow message with a ⚠ icon.
func (o *TTYOutput) Warning(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Warning.Render("⚠ "+msg))
}

// Info outputs a blue message.
func (o *TTYOutput) Info(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Info.Render(msg))
}

// Table outputs rows with aligned columns and a bold header.
func (o *TTYOutput) Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	parts := make([]string, len(headers))
	for i, h := range headers {
		parts[i] = o.styles.Header.Render(padRight(h, widths[i]))
	}
	_, _ = fmt.Fprintln(o.w, strings.TrimRight(strings.Join(parts, "  "), " "))

	for _, row := range rows {
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			parts[i] = padRight(cell, widths[i])
		}
		_, _ = fmt.Fprintln(o.w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
}

// JSON outputs v as indented JSON.
func (o *TTYOutput) JSON(v any) error {
	encoder := json.NewEncoder(o.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Result prints the invocation log with ERROR and WARNING lines colored,
// then a one-line summary.
func (o *TTYOutput) Result(res domain.Invocation) error {
	for _, line := range res.Lines {
		if _, err := fmt.Fprintln(o.w, o.styles.Line(line)); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("%s %s %s", StatusIcon(res.Status), res.Operation, res.Status)
	if res.FailedStep != "" {
		summary += " at " + res.FailedStep
	}
	if res.Action != "" && res.Action != domain.ActionNone {
		summary += " (" + res.Action.String() + ")"
	}
	_, _ = fmt.Fprintln(o.w)
	_, _ = fmt.Fprintln(o.w, o.styles.StatusStyle(res.Status).Render(summary))
	if res.URL != "" && !res.Failed() {
		_, _ = fmt.Fprintln(o.w, "  "+StyleUnderline.Render(res.URL))
	}
	_, err := fmt.Fprintln(o.w, o.styles.Dim.Render("  invocation "+res.ID))
	return err
}
