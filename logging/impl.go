package logging

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger is the Logger implementation. Subloggers share the appenders of their parent and start
// at its level.
type logger struct {
	name      string
	level     AtomicLevel
	inUTC     bool
	appenders []Appender
}

func newLogger(name string, level Level, inUTC bool, appenders ...Appender) *logger {
	return &logger{name: name, level: NewAtomicLevelAt(level), inUTC: inUTC, appenders: appenders}
}

func (l *logger) AddAppender(appender Appender) {
	l.appenders = append(l.appenders, appender)
}

func (l *logger) SetLevel(level Level) {
	l.level.Set(level)
}

func (l *logger) Sublogger(subname string) Logger {
	name := subname
	if l.name != "" {
		name = l.name + "." + subname
	}
	return newLogger(name, l.level.Get(), l.inUTC, l.appenders...)
}

func (l *logger) Sync() error {
	var err error
	for _, appender := range l.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

func (l *logger) Debugf(template string, args ...interface{}) { l.logf(DEBUG, template, args) }

func (l *logger) Debugw(msg string, keysAndValues ...interface{}) { l.logw(DEBUG, msg, keysAndValues) }

func (l *logger) Infof(template string, args ...interface{}) { l.logf(INFO, template, args) }

func (l *logger) Infow(msg string, keysAndValues ...interface{}) { l.logw(INFO, msg, keysAndValues) }

func (l *logger) Warnw(msg string, keysAndValues ...interface{}) { l.logw(WARN, msg, keysAndValues) }

func (l *logger) Errorw(msg string, keysAndValues ...interface{}) { l.logw(ERROR, msg, keysAndValues) }

func (l *logger) logf(level Level, template string, args []interface{}) {
	if level >= l.level.Get() {
		l.emit(level, fmt.Sprintf(template, args...), nil)
	}
}

func (l *logger) logw(level Level, msg string, keysAndValues []interface{}) {
	if level >= l.level.Get() {
		l.emit(level, msg, pairsToFields(keysAndValues))
	}
}

// emit must only be called from logf and logw, which are called from the exported methods. The
// caller lookup depends on that depth.
func (l *logger) emit(level Level, msg string, fields []zapcore.Field) {
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: l.name,
		Message:    msg,
		Caller:     logCaller(),
	}
	if l.inUTC {
		entry.Time = entry.Time.UTC()
	}
	for _, appender := range l.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// pairsToFields turns alternating keys and values into zap fields. A trailing key without a
// value is kept with a placeholder.
func pairsToFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.String(key, "unpaired log key"))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

// logCaller returns the code location that called one of the exported log methods.
func logCaller() zapcore.EntryCaller {
	// logCaller, emit, logf/logw, the exported method, then the caller.
	const skip = 4
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return zapcore.EntryCaller{}
	}
	caller := zapcore.EntryCaller{Defined: true, PC: pc, File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}
