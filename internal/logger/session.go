package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	MainLogFile    = "vmm.log"
	RefreshLogFile = "refresh.log"
)

// SessionOptions configures a Session.
type SessionOptions struct {
	// Dir holds the log files. Created if missing.
	Dir string
	// Debug enables Debug lines. VMM_DEBUG also enables them.
	Debug bool
	// FeedSize bounds the on-screen feed.
	FeedSize int
	// MaxSizeMB is the rotation threshold for each file.
	MaxSizeMB int
	// MaxBackups is how many rotated files are kept.
	MaxBackups int

	// main and refresh override the file writers in tests.
	main    io.Writer
	refresh io.Writer
}

// Session is the interactive-mode log sink: a main log, a refresh log for
// background ticks, and a Feed the TUI renders. Every file line carries the
// session ID so runs sharing a log directory can be told apart.
type Session struct {
	id         string
	mainLog    *log.Logger
	refreshLog *log.Logger
	feed       *Feed
	debug      bool
	now        func() time.Time
	closers    []io.Closer
}

// NewSession opens the rotating log files under opts.Dir.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 5
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 3
	}

	s := &Session{
		id:    uuid.NewString()[:8],
		feed:  NewFeed(opts.FeedSize),
		debug: opts.Debug || os.Getenv(DebugEnv) != "",
		now:   time.Now,
	}

	mainW, refreshW := opts.main, opts.refresh
	if mainW == nil || refreshW == nil {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir %s: %w", opts.Dir, err)
		}
		mainFile := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, MainLogFile),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		refreshFile := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, RefreshLogFile),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		s.closers = append(s.closers, mainFile, refreshFile)
		mainW, refreshW = mainFile, refreshFile
	}

	prefix := "[" + s.id + "] "
	s.mainLog = log.New(mainW, prefix, log.LstdFlags|log.Lmsgprefix)
	s.refreshLog = log.New(refreshW, prefix, log.LstdFlags|log.Lmsgprefix)
	return s, nil
}

// ID identifies this session in the log files.
func (s *Session) ID() string {
	return s.id
}

// Logger returns the root logger for the session.
func (s *Session) Logger() Logger {
	return &sessionLogger{s: s}
}

// Feed returns the on-screen feed.
func (s *Session) Feed() *Feed {
	return s.feed
}

// Close flushes and closes the log files.
func (s *Session) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type sessionLogger struct {
	s     *Session
	quiet bool
	api   bool
}

func (l *sessionLogger) write(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.quiet {
		l.s.refreshLog.Printf("%-5s %s", level, msg)
		if level != "WARN" && level != "ERROR" {
			return
		}
	}

	l.s.mainLog.Printf("%-5s %s", level, msg)
	src := SourceLog
	if l.api {
		src = SourceAPI
	}
	l.s.feed.Push(Entry{Time: l.s.now(), Level: level, Message: msg, Source: src})
}

func (l *sessionLogger) Debug(format string, args ...interface{}) {
	if l.s.debug {
		l.write("DEBUG", format, args...)
	}
}

func (l *sessionLogger) Info(format string, args ...interface{}) {
	l.write("INFO", format, args...)
}

func (l *sessionLogger) Warn(format string, args ...interface{}) {
	l.write("WARN", format, args...)
}

func (l *sessionLogger) Error(format string, args ...interface{}) {
	l.write("ERROR", format, args...)
}

func (l *sessionLogger) Quiet() Logger {
	return &sessionLogger{s: l.s, quiet: true, api: l.api}
}

func (l *sessionLogger) API() Logger {
	return &sessionLogger{s: l.s, quiet: l.quiet, api: true}
}
