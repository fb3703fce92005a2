package tui

import (
	"io"

	"github.com/mrz1836/reviewapp/internal/domain"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Output renders command output in one format.
type Output interface {
	// Success prints a success message.
	Success(msg string)
	// Error prints an error along with its suggested action, if any.
	Error(err error)
	// Warning prints a warning message.
	Warning(msg string)
	// Info prints an informational message.
	Info(msg string)
	// Table prints rows under headers.
	Table(headers []string, rows [][]string)
	// JSON outputs a value as formatted JSON.
	JSON(v any) error
	// Result prints a finished invocation: its log followed by a summary.
	Result(res domain.Invocation) error
}

// NewOutput creates the output for format. Anything but "json" is text.
func NewOutput(w io.Writer, format string) Output {
	if format == FormatJSON {
		return NewJSONOutput(w)
	}
	return NewTTYOutput(w)
}

// HistoryRows flattens invocations for Table, newest first as given.
func HistoryRows(list []domain.Invocation) (headers []string, rows [][]string) {
	headers = []string{"ID", "OPERATION", "STATUS", "ACTION", "IMAGE", "STARTED"}
	rows = make([][]string, 0, len(list))
	for _, inv := range list {
		status := StatusIcon(inv.Status) + " " + inv.Status.String()
		if inv.FailedStep != "" {
			status += " (" + inv.FailedStep + ")"
		}
		rows = append(rows, []string{
			inv.ID,
			inv.Operation.String(),
			status,
			inv.Action.String(),
			inv.Image,
			RelativeTime(inv.StartedAt),
		})
	}
	return headers, rows
}
