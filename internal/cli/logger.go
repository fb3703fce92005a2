package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/logging"
)

// HomeEnvVar overrides the reviewapp home directory (~/.reviewapp).
const HomeEnvVar = "REVIEWAPP_HOME"

// logFileWriter is kept for CloseLogFile.
var (
	logFileWriter   io.WriteCloser //nolint:gochecknoglobals // closed on shutdown
	logFileWriterMu sync.Mutex     //nolint:gochecknoglobals // protects logFileWriter
)

var zerologConfigOnce sync.Once //nolint:gochecknoglobals // one-time configuration

// zerologGlobalMu protects writes to the zerolog global logger.
var zerologGlobalMu sync.Mutex //nolint:gochecknoglobals // protects zerolog global

func configureZerologGlobals() {
	zerologConfigOnce.Do(func() {
		zerolog.TimestampFieldName = "ts"
		zerolog.DurationFieldUnit = time.Millisecond
	})
}

// InitLogger creates the CLI logger.
//
// Level is debug with verbose, warn with quiet and info otherwise. On a TTY
// without NO_COLOR the console gets zerolog's ConsoleWriter, elsewhere JSON
// on stderr. Entries are also written, with secrets redacted, to a rotating
// file under ~/.reviewapp/logs; if that file cannot be opened the logger
// continues on the console alone.
func InitLogger(verbose, quiet bool) zerolog.Logger {
	configureZerologGlobals()

	writer := selectOutput()
	if fw, err := createLogFileWriter(); err == nil {
		logFileWriterMu.Lock()
		logFileWriter = fw
		logFileWriterMu.Unlock()
		writer = zerolog.MultiLevelWriter(writer, fw)
	}
	return newLogger(verbose, quiet, writer)
}

// InitLoggerWithWriter creates the CLI logger on w alone.
func InitLoggerWithWriter(verbose, quiet bool, w io.Writer) zerolog.Logger {
	configureZerologGlobals()
	return newLogger(verbose, quiet, w)
}

func newLogger(verbose, quiet bool, w io.Writer) zerolog.Logger {
	logger := zerolog.New(w).
		Level(selectLevel(verbose, quiet)).
		Hook(logging.NewSensitiveDataHook()).
		With().Timestamp().Logger()

	zerologGlobalMu.Lock()
	log.Logger = logger
	zerologGlobalMu.Unlock()
	return logger
}

// CloseLogFile closes the log file writer if one was opened.
func CloseLogFile() {
	logFileWriterMu.Lock()
	defer logFileWriterMu.Unlock()
	if logFileWriter != nil {
		_ = logFileWriter.Close()
		logFileWriter = nil
	}
}

func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return os.Stderr
}

// filteringWriteCloser redacts secrets before they reach the log file.
type filteringWriteCloser struct {
	filter *logging.FilteringWriter
	closer io.Closer
}

func (fwc *filteringWriteCloser) Write(p []byte) (int, error) {
	return fwc.filter.Write(p)
}

func (fwc *filteringWriteCloser) Close() error {
	return fwc.closer.Close()
}

func createLogFileWriter() (io.WriteCloser, error) {
	logPath, err := LogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   constants.LogCompress,
	}
	return &filteringWriteCloser{filter: logging.NewFilteringWriter(lj), closer: lj}, nil
}

// appHome returns $REVIEWAPP_HOME or ~/.reviewapp.
func appHome() (string, error) {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, constants.AppHome), nil
}

// LogFilePath returns the path of the rotating CLI log file.
func LogFilePath() (string, error) {
	home, err := appHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.LogsDir, constants.CLILogFileName), nil
}
