package utils

import (
	"log"
	"os"
)

// Logger is a thin wrapper over the standard logger with an error stream.
type Logger struct {
	info *log.Logger
	errs *log.Logger
}

func NewLogger() *Logger {
	return &Logger{
		info: log.New(os.Stdout, "", log.LstdFlags),
		errs: log.New(os.Stderr, "ERROR ", log.LstdFlags),
	}
}

func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.info == nil {
		return
	}
	l.info.Printf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil || l.errs == nil {
		return
	}
	l.errs.Printf(format, args...)
}
