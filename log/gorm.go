package log

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's statement log through the global logrus logger.
// Statements are logged at debug, slow statements at warn. Failed statements
// are logged at debug because callers wrap and report them.
type GormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger returns a gorm logger. A zero slowThreshold disables slow query warnings.
func NewGormLogger(slowThreshold time.Duration) *GormLogger {
	return &GormLogger{level: gormlogger.Info, slowThreshold: slowThreshold}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		Infof(ctx, msg, args...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		Warnf(ctx, msg, args...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		Errorf(ctx, msg, args...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold
	if !slow && !Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	sql, rows := fc()
	entry := WithFields(ctx, logrus.Fields{
		"elapsed": elapsed.Round(time.Microsecond),
		"rows":    rows,
	})

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		entry.WithError(err).Debugf("sql failed: %s", sql)
	case slow && l.level >= gormlogger.Warn:
		entry.Warnf("slow sql (>%s): %s", l.slowThreshold, sql)
	default:
		entry.Debugf("sql: %s", sql)
	}
}
