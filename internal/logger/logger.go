package logger

import (
	"io"
	"log"
	"os"

	plog "github.com/phuslu/log"
)

var (
	Info    *log.Logger
	Warn    *log.Logger
	Debug   *log.Logger
	Verbose *log.Logger
	Error   *log.Logger
	Always  *log.Logger // Always logs to file regardless of log level

	// Current log level for filtering
	currentLogLevel string

	fileWriter *plog.FileWriter
)

func init() {
	InitDiscard()
}

// Options controls the log file and its rotation.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// InitWithOptions points every logger at a size-rotated file. Errors also go
// to stderr.
func InitWithOptions(opts Options) error {
	Close()

	fw := &plog.FileWriter{
		Filename:     opts.File,
		FileMode:     0o644,
		MaxSize:      int64(opts.MaxSizeMB) * 1024 * 1024,
		MaxBackups:   opts.MaxBackups,
		EnsureFolder: true,
		LocalTime:    true,
	}
	// Open eagerly so a bad path fails here instead of on the first line.
	if _, err := fw.Write(nil); err != nil {
		return err
	}
	fileWriter = fw

	setWriters(opts.Level, fw, io.MultiWriter(os.Stderr, fw))
	return nil
}

// InitDiscard silences every logger. Used by tests and as the package default.
func InitDiscard() {
	setWriters("error", io.Discard, io.Discard)
}

// InitWriter sends all enabled levels to w.
func InitWriter(logLevel string, w io.Writer) {
	setWriters(logLevel, w, w)
}

// Close flushes and closes the log file, if one is open.
func Close() {
	if fileWriter != nil {
		fileWriter.Close()
		fileWriter = nil
	}
}

func setWriters(logLevel string, out, errOut io.Writer) {
	currentLogLevel = logLevel
	nullWriter := io.Discard

	Info = log.New(getWriter("info", out, nullWriter), "INFO: ", log.Ldate|log.Ltime)
	Warn = log.New(getWriter("warn", out, nullWriter), "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	Debug = log.New(getWriter("debug", out, nullWriter), "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	Verbose = log.New(getWriter("verbose", out, nullWriter), "VERBOSE: ", log.Ldate|log.Ltime|log.Lshortfile)
	Error = log.New(errOut, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	Always = log.New(out, "ALWAYS: ", log.Ldate|log.Ltime) // bypasses level filtering
}

// getWriter returns the appropriate writer based on log level
func getWriter(level string, activeWriter, disabledWriter io.Writer) io.Writer {
	if shouldLog(level) {
		return activeWriter
	}
	return disabledWriter
}

// shouldLog determines if a log level should be active
func shouldLog(level string) bool {
	levels := map[string]int{
		"error":   0,
		"warn":    1,
		"info":    2,
		"debug":   3,
		"verbose": 4,
	}

	currentLevel, exists := levels[currentLogLevel]
	if !exists {
		currentLevel = 2 // default to info
	}

	requiredLevel, exists := levels[level]
	if !exists {
		return false
	}

	return currentLevel >= requiredLevel
}
