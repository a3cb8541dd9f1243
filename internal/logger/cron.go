package logger

import (
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type cronLogger struct {
	entry *logrus.Entry
}

// CronLogger routes robfig/cron's internal logging to logrus. Routine cron
// chatter goes to debug.
func CronLogger(entry *logrus.Entry) cron.Logger {
	return cronLogger{entry: entry}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = kv[i+1]
		}
	}
	return f
}
