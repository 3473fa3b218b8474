package eventlog

import (
	"fmt"
	"io"
	"os"
)

// LogFileName is the default file events are flushed to.
const LogFileName = "agerun.log"

// bufferLimit is the number of events held before a flush is forced.
const bufferLimit = 10

// Log buffers events and flushes them to a writer. One Log instance is
// shared by every parser and evaluator of a runtime; they hold borrowed
// references and never close it themselves.
type Log struct {
	events []*Event
	writer io.Writer
	file   *os.File // set when the log owns the file it writes to

	// last event seen per severity, kept across flushes
	lastError   *Event
	lastWarning *Event
	lastInfo    *Event
}

// New creates a Log appending to LogFileName in dir. An empty dir uses
// the current directory.
func New(dir string) (*Log, error) {
	path := LogFileName
	if dir != "" {
		path = dir + string(os.PathSeparator) + LogFileName
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("eventlog: could not open %s: %w", path, err)
	}
	return &Log{
		events: make([]*Event, 0, bufferLimit),
		writer: file,
		file:   file,
	}, nil
}

// NewWithWriter creates a Log flushing to w. Used by tests and by
// embedders that direct events elsewhere.
func NewWithWriter(w io.Writer) *Log {
	return &Log{
		events: make([]*Event, 0, bufferLimit),
		writer: w,
	}
}

// Error records an ERROR event.
func (l *Log) Error(message string) {
	l.add(NewEvent(ERROR, message))
}

// Errorf records a formatted ERROR event.
func (l *Log) Errorf(format string, args ...interface{}) {
	l.add(NewEvent(ERROR, fmt.Sprintf(format, args...)))
}

// ErrorAt records an ERROR event positioned at a byte offset.
func (l *Log) ErrorAt(message string, position int) {
	l.add(NewEventAt(ERROR, message, position))
}

// Warning records a WARNING event.
func (l *Log) Warning(message string) {
	l.add(NewEvent(WARNING, message))
}

// Info records an INFO event.
func (l *Log) Info(message string) {
	l.add(NewEvent(INFO, message))
}

// Infof records a formatted INFO event.
func (l *Log) Infof(format string, args ...interface{}) {
	l.add(NewEvent(INFO, fmt.Sprintf(format, args...)))
}

// Last returns the most recent event of the given severity, or nil when
// none has been recorded.
func (l *Log) Last(severity Severity) *Event {
	switch severity {
	case ERROR:
		return l.lastError
	case WARNING:
		return l.lastWarning
	case INFO:
		return l.lastInfo
	}
	return nil
}

// add buffers an event, flushing when the buffer limit is reached.
func (l *Log) add(ev *Event) {
	if l == nil {
		return
	}
	switch ev.Severity {
	case ERROR:
		l.lastError = ev
	case WARNING:
		l.lastWarning = ev
	case INFO:
		l.lastInfo = ev
	}
	l.events = append(l.events, ev)
	if len(l.events) >= bufferLimit {
		l.Flush()
	}
}

// Flush writes all buffered events to the writer and empties the buffer.
func (l *Log) Flush() {
	if l == nil || l.writer == nil {
		return
	}
	for _, ev := range l.events {
		fmt.Fprintln(l.writer, ev.String())
	}
	l.events = l.events[:0]
	if l.file != nil {
		l.file.Sync()
	}
}

// Close flushes buffered events and closes the log file when the log
// owns one.
func (l *Log) Close() {
	if l == nil {
		return
	}
	l.Flush()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
