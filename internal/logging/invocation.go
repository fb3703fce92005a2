package logging

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Line prefixes that CI log scrapers key on.
const (
	errorPrefix   = "ERROR: "
	warningPrefix = "WARNING: "
)

// Entry is one line of an invocation log.
type Entry struct {
	Level zerolog.Level `json:"-"`
	Text  string        `json:"text"`
}

// InvocationLog is the ordered, append-only transcript of one invocation.
// Every exit path of an invocation returns it to the caller. Appends are
// mirrored to the zerolog logger carried by the context the log was created with.
//
// InvocationLog is safe for concurrent use; asynchronous announcers append
// from their completion callbacks.
type InvocationLog struct {
	mu      sync.Mutex
	entries []Entry
	verbose bool
	logger  zerolog.Logger
}

// NewInvocationLog creates an empty log for the invocation id. When verbose
// is false, debug entries are recorded but left out of Lines.
func NewInvocationLog(ctx context.Context, id string, verbose bool) *InvocationLog {
	return &InvocationLog{
		verbose: verbose,
		logger:  zerolog.Ctx(ctx).With().Str("invocation_id", id).Logger(),
	}
}

func (l *InvocationLog) add(level zerolog.Level, text string) {
	text = FilterSensitiveValue(text)

	l.mu.Lock()
	l.entries = append(l.entries, Entry{Level: level, Text: text})
	l.mu.Unlock()

	l.logger.WithLevel(level).Msg(strings.TrimSpace(text))
}

// Debug appends a line that only verbose callers see.
func (l *InvocationLog) Debug(text string) {
	l.add(zerolog.DebugLevel, text)
}

// Info appends a progress line.
func (l *InvocationLog) Info(text string) {
	l.add(zerolog.InfoLevel, text)
}

// Infof appends a formatted progress line.
func (l *InvocationLog) Infof(format string, args ...any) {
	l.add(zerolog.InfoLevel, fmt.Sprintf(format, args...))
}

// Warnf appends a soft-failure line prefixed with "WARNING: ".
func (l *InvocationLog) Warnf(format string, args ...any) {
	l.add(zerolog.WarnLevel, warningPrefix+fmt.Sprintf(format, args...))
}

// Errorf appends a fatal-failure line prefixed with "ERROR: ".
func (l *InvocationLog) Errorf(format string, args ...any) {
	l.add(zerolog.ErrorLevel, errorPrefix+fmt.Sprintf(format, args...))
}

// Entries returns a copy of every recorded entry, debug included.
func (l *InvocationLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Lines returns the human-readable transcript in append order.
func (l *InvocationLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		if e.Level == zerolog.DebugLevel && !l.verbose {
			continue
		}
		out = append(out, e.Text)
	}
	return out
}

// Count returns how many entries were recorded at level.
func (l *InvocationLog) Count(level zerolog.Level) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// String joins Lines with newlines.
func (l *InvocationLog) String() string {
	return strings.Join(l.Lines(), "\n")
}
