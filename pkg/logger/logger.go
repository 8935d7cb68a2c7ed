package logger

import (
	"log"
	"strings"
)

// Logger is the leveled logging interface injected across the broker.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Fatalf(format string, v ...interface{})
}

// NewLogger builds a logger filtering below the provided level.
func NewLogger(level string) Logger {
	return &stdLogger{
		level: parseLevel(level),
	}
}

type stdLogger struct {
	level int
}

const (
	levelDebug = 0
	levelInfo  = 1
	levelWarn  = 2
	levelError = 3
)

func parseLevel(l string) int {
	switch strings.ToLower(l) {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (l *stdLogger) Debugf(format string, v ...interface{}) {
	if l.level <= levelDebug {
		log.Printf("[DEBUG] "+format, v...)
	}
}

func (l *stdLogger) Infof(format string, v ...interface{}) {
	if l.level <= levelInfo {
		log.Printf("[INFO] "+format, v...)
	}
}

func (l *stdLogger) Warnf(format string, v ...interface{}) {
	if l.level <= levelWarn {
		log.Printf("[WARN] "+format, v...)
	}
}

func (l *stdLogger) Errorf(format string, v ...interface{}) {
	if l.level <= levelError {
		log.Printf("[ERROR] "+format, v...)
	}
}

func (l *stdLogger) Fatalf(format string, v ...interface{}) {
	log.Fatalf("[FATAL] "+format, v...)
}
