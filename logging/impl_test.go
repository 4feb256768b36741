package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func newBufferLogger(name string, level Level) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return newLogger(name, level, true, NewWriterAppender(&buf)), &buf
}

func TestConsoleAppenderFormat(t *testing.T) {
	logger, buf := newBufferLogger("pyfg", DEBUG)
	logger.Infow("saved trajectory", "robot", "A", "rows", 4)

	line := strings.TrimSuffix(buf.String(), "\n")
	parts := strings.Split(line, "\t")
	test.That(t, parts, test.ShouldHaveLength, 6)
	test.That(t, len(parts[0]), test.ShouldEqual, len("2024-01-23T09:26:57.843Z"))
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "pyfg")
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "saved trajectory")
	test.That(t, parts[5], test.ShouldEqual, `{"robot":"A","rows":4}`)
}

func TestLevels(t *testing.T) {
	logger, buf := newBufferLogger("", WARN)
	logger.Debugw("hidden")
	logger.Infof("hidden %d", 1)
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	logger.Warnw("shown", "n", 2)
	logger.Errorw("shown")
	test.That(t, strings.Count(buf.String(), "\n"), test.ShouldEqual, 2)

	logger.SetLevel(ERROR)
	logger.Warnw("hidden")
	test.That(t, strings.Count(buf.String(), "\n"), test.ShouldEqual, 2)

	// subloggers start at their parent's level and change independently
	sub := logger.Sublogger("tum")
	sub.Warnw("hidden")
	sub.SetLevel(DEBUG)
	sub.Debugf("shown %s", "too")
	logger.Infow("hidden")
	test.That(t, strings.Count(buf.String(), "\n"), test.ShouldEqual, 3)
	test.That(t, buf.String(), test.ShouldContainSubstring, "DEBUG\ttum\t")
}

func TestUnpairedKey(t *testing.T) {
	logger, buf := newBufferLogger("", DEBUG)
	logger.Debugw("msg", "lonely")
	test.That(t, buf.String(), test.ShouldContainSubstring, `"lonely":"unpaired log key"`)
}

func TestSublogger(t *testing.T) {
	root, observed := NewObservedTestLogger(t)
	sub := root.Sublogger("tum")
	subsub := sub.Sublogger("A")
	subsub.Infow("hello", "rows", 3)

	entries := observed.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "tum.A")
	test.That(t, entries[0].Message, test.ShouldEqual, "hello")

	named, _ := newBufferLogger("fgconv", INFO)
	test.That(t, named.Sublogger("pyfg").(*logger).name, test.ShouldEqual, "fgconv.pyfg")
}

func TestLevelFromString(t *testing.T) {
	for input, want := range map[string]Level{"debug": DEBUG, "INFO": INFO, " warn ": WARN, "Error": ERROR} {
		got, err := LevelFromString(input)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldEqual, want)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, level.UnmarshalJSON([]byte(`"warn"`)), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)
	out, err := ERROR.MarshalJSON()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"error"`)
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fgconv.log")
	appender := NewFileAppender(path, 1)
	logger := NewBlankLogger("fgconv")
	logger.AddAppender(appender)
	logger.Infof("wrote %d files", 2)
	test.That(t, logger.Sync(), test.ShouldBeNil)
	test.That(t, appender.Close(), test.ShouldBeNil)

	contents, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "wrote 2 files")
	test.That(t, string(contents), test.ShouldContainSubstring, "INFO")
}
