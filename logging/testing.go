package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// tbAppender routes log lines to a test's log so they are attributed to that test.
type tbAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender that writes console formatted lines with `tb.Log`.
func NewTestAppender(tb testing.TB) Appender {
	return tbAppender{tb}
}

// Write logs the entry even when its fields cannot be encoded, then reports the encoding error.
func (a tbAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	a.tb.Helper()
	line, err := formatEntry(entry, fields)
	a.tb.Log(line)
	return err
}

func (a tbAppender) Sync() error {
	return nil
}
