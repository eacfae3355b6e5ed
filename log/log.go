// Package log provides a simple wrapper around logrus
// with a familiar API (Infof, Warnf, Errorf, etc.)
package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	logcontext "github.com/va6996/toolshed/context"
)

// Logger is the global logger instance
var Logger = logrus.New()

// operationIDField is the entry field the formatter renders as [op:<id>]
const operationIDField = "op_id"

// CustomFormatter implements logrus.Formatter for the desired output format
type CustomFormatter struct {
	TimestampFormat string
}

// Format formats a log entry as [<time>] [LEVEL] [file:line] <message>
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	fmt.Fprintf(b, "[%s] ", entry.Time.Format(f.TimestampFormat))
	fmt.Fprintf(b, "[%s] ", strings.ToUpper(entry.Level.String()))

	if file, line := callerOutsideLogging(); file != "" {
		fmt.Fprintf(b, "[%s:%d] ", file, line)
	}

	b.WriteString(entry.Message)

	if opID, ok := entry.Data[operationIDField].(string); ok && opID != "" {
		fmt.Fprintf(b, " [op:%s]", opID)
	}

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		if key != operationIDField {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(b, " %s=%v", key, entry.Data[key])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// callerOutsideLogging walks the stack to the first frame that is not
// logrus, gorm, this package or the runtime and returns its file name and line.
func callerOutsideLogging() (string, int) {
	pcs := make([]uintptr, 48)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !skipFrame(frame.File) {
			parts := strings.Split(frame.File, "/")
			return parts[len(parts)-1], frame.Line
		}
		if !more {
			return "", 0
		}
	}
}

func skipFrame(file string) bool {
	switch {
	case strings.Contains(file, "github.com/sirupsen/logrus"),
		strings.Contains(file, "gorm.io/"),
		strings.Contains(file, "runtime/"),
		strings.HasSuffix(file, "log/log.go"),
		strings.HasSuffix(file, "log/gorm.go"):
		return true
	}
	return false
}

// withOperationIDField tags the entry with the operation ID carried by ctx
func withOperationIDField(ctx context.Context) *logrus.Entry {
	entry := Logger.WithField(operationIDField, logcontext.OperationIDFromContext(ctx))
	if ctx != nil {
		entry = entry.WithContext(ctx)
	}
	return entry
}

// Infof logs formatted message at info level
func Infof(ctx context.Context, format string, args ...interface{}) {
	withOperationIDField(ctx).Infof(format, args...)
}

// Debugf logs formatted message at debug level
func Debugf(ctx context.Context, format string, args ...interface{}) {
	withOperationIDField(ctx).Debugf(format, args...)
}

// Warnf logs formatted message at warning level
func Warnf(ctx context.Context, format string, args ...interface{}) {
	withOperationIDField(ctx).Warnf(format, args...)
}

// Errorf logs formatted message at error level
func Errorf(ctx context.Context, format string, args ...interface{}) {
	withOperationIDField(ctx).Errorf(format, args...)
}

// SetLevel sets the global log level
func SetLevel(level logrus.Level) {
	Logger.SetLevel(level)
}

// SetLevelName sets the global log level from its name ("debug", "info", ...)
func SetLevelName(name string) error {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	SetLevel(level)
	return nil
}

// SetOutput sets the global log output
func SetOutput(out io.Writer) {
	Logger.SetOutput(out)
}

// Init initializes the logger with default settings
func Init() {
	Logger.SetFormatter(&CustomFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
	// Caller reporting handled manually in Format
	Logger.SetLevel(logrus.InfoLevel)
}

// WithFields creates a logger with predefined fields and the operation ID from ctx
func WithFields(ctx context.Context, fields logrus.Fields) *logrus.Entry {
	return withOperationIDField(ctx).WithFields(fields)
}
