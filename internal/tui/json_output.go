package tui

import (
	"encoding/json"
	"io"

	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
)

// JSONOutput writes one JSON document per call, for CI log scrapers and
// other non-TTY consumers.
type JSONOutput struct {
	encoder *json.Encoder
}

// NewJSONOutput creates a new JSONOutput.
func NewJSONOutput(w io.Writer) *JSONOutput {
	return &JSONOutput{encoder: json.NewEncoder(w)}
}

type jsonMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type jsonError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Success outputs {"type":"success","message":...}.
func (o *JSONOutput) Success(msg string) {
	_ = o.encoder.Encode(jsonMessage{Type: "success", Message: msg}) //nolint:errchkjson // no error return
}

// Error outputs the error with its user-facing message and suggested action.
func (o *JSONOutput) Error(err error) {
	msg, action := errors.Actionable(err)
	out := jsonError{Type: "error", Message: msg, Suggestion: action}
	if detail := err.Error(); detail != msg {
		out.Details = detail
	}
	_ = o.encoder.Encode(out) //nolint:errchkjson // no error return
}

// Warning outputs {"type":"warning","message":...}.
func (o *JSONOutput) Warning(msg string) {
	_ = o.encoder.Encode(jsonMessage{Type: "warning", Message: msg}) //nolint:errchkjson // no error return
}

// Info outputs {"type":"info","message":...}.
func (o *JSONOutput) Info(msg string) {
	_ = o.encoder.Encode(jsonMessage{Type: "info", Message: msg}) //nolint:errchkjson // no error return
}

// Table outputs the rows as an array of objects keyed by header.
func (o *JSONOutput) Table(headers []string, rows [][]string) {
	result := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				obj[h] = row[i]
			} else {
				obj[h] = ""
			}
		}
		result = append(result, obj)
	}
	_ = o.encoder.Encode(result) //nolint:errchkjson // no error return
}

// JSON outputs an arbitrary value.
func (o *JSONOutput) JSON(v any) error {
	return o.encoder.Encode(v)
}

// Result outputs the invocation as a single JSON object.
func (o *JSONOutput) Result(res domain.Invocation) error {
	return o.encoder.Encode(res)
}
