package log

import (
	"gopkg.in/Sirupsen/logrus.v0"
)

// Entry logs printf-style messages for a module. Prefer the EntryZ functions
// on hot paths: the arguments of an Entry call are evaluated even when the
// module is disabled.
type Entry struct {
	mod Module
}

func (entry Entry) log() *logrus.Entry {
	return logrus.StandardLogger().WithField("_mod", modNames[entry.mod])
}

func (entry Entry) Debugf(format string, args ...any) {
	if entry.mod.Enabled(DebugLevel) {
		entry.log().Debugf(format, args...)
	}
}

func (entry Entry) Infof(format string, args ...any) {
	if entry.mod.Enabled(InfoLevel) {
		entry.log().Infof(format, args...)
	}
}

func (entry Entry) Warnf(format string, args ...any) {
	if entry.mod.Enabled(WarnLevel) {
		entry.log().Warnf(format, args...)
	}
}

func (entry Entry) Errorf(format string, args ...any) {
	if entry.mod.Enabled(ErrorLevel) {
		entry.log().Errorf(format, args...)
	}
}

// Fatalf logs and exits, even when logging is disabled.
func (entry Entry) Fatalf(format string, args ...any) {
	entry.log().Fatalf(format, args...)
}
