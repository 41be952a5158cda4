// Package sessionlog writes a CSV trail of position/pitch readings
// for a decoding session, into files named by a strftime pattern of
// the current time (by default one per calendar day, appended to by
// every session that day), the way the teacher's daily APRS log names
// are generated.
package sessionlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// defaultPattern names one file per calendar day, e.g.
// "xwax-2026-07-29.csv".
const defaultPattern = "xwax-%Y-%m-%d.csv"

// Logger appends position/pitch readings to a file whose name is
// derived from the current time via a strftime pattern, reopening a
// new file whenever the formatted name changes (e.g. at midnight).
type Logger struct {
	dir     string
	pattern *strftime.Strftime

	f        *os.File
	openName string
}

// New creates a Logger writing into dir. pattern is a strftime format
// string for the file's base name; an empty pattern uses
// defaultPattern.
func New(dir, pattern string) (*Logger, error) {
	if pattern == "" {
		pattern = defaultPattern
	}

	f, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("sessionlog: bad pattern %q: %w", pattern, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sessionlog: creating %s: %w", dir, err)
	}

	return &Logger{dir: dir, pattern: f}, nil
}

func (l *Logger) reopen(now time.Time) error {
	name := l.pattern.FormatString(now)
	if name == l.openName && l.f != nil {
		return nil
	}

	if l.f != nil {
		l.f.Close()
	}

	path := filepath.Join(l.dir, name)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("sessionlog: opening %s: %w", path, err)
	}

	l.f = f
	l.openName = name
	log.Info("session log opened", "path", path)
	return nil
}

// WriteReading appends one CSV line: timestamp, position (or -1 if
// unknown), age in seconds since that bit was read, and pitch.
func (l *Logger) WriteReading(now time.Time, position int, when, pitch float64) error {
	if err := l.reopen(now); err != nil {
		return err
	}

	_, err := fmt.Fprintf(l.f, "%s,%d,%.6f,%.6f\n",
		now.Format(time.RFC3339Nano), position, when, pitch)
	return err
}

// Close releases the currently open file, if any.
func (l *Logger) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	l.openName = ""
	return err
}
