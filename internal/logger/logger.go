package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the process logger
type Options struct {
	Level       string
	Dir         string
	ConsoleOnly bool
	// Debug forces the debug level regardless of Level
	Debug bool
	// Console defaults to os.Stderr
	Console io.Writer
}

// Logger owns the zerolog logger and the log file behind it
type Logger struct {
	zerolog.Logger
	logFile *os.File
	path    string
}

// New creates a console logger and, unless ConsoleOnly is set, a dated log file
// adparams_<date>.log under Dir
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: "2006-01-02 15:04:05"}}

	l := &Logger{}
	if !opts.ConsoleOnly {
		dir := opts.Dir
		if dir == "" {
			dir = "logs"
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		filename := fmt.Sprintf("adparams_%s.log", time.Now().Format("2006-01-02"))
		l.path = filepath.Join(dir, filename)
		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.logFile = file
		writers = append(writers, file)
	}

	l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	l.Info().Str("level", level.String()).Str("file", l.path).Msg("Session started")
	return l, nil
}

// Path returns the log file path, empty for console-only loggers
func (l *Logger) Path() string { return l.path }

// Close closes the log file
func (l *Logger) Close() error {
	if l.logFile != nil {
		l.Info().Msg("Session ended")
		return l.logFile.Close()
	}
	return nil
}

// ParseLevel parses a level name, empty meaning info
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
