package logger

import (
	"sync"
	"time"
)

var (
	globalLogger   Logger
	globalLoggerMu sync.RWMutex
)

// SetGlobal sets the process-wide logger. Call once after loading configuration.
func SetGlobal(l Logger) {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	globalLogger = l
}

// Global returns the process-wide logger, falling back to an info-level console logger.
func Global() Logger {
	globalLoggerMu.RLock()
	l := globalLogger
	globalLoggerMu.RUnlock()
	if l != nil {
		return l
	}

	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewTextLogger(nil, LogLevelInfo, time.Local)
	}
	return globalLogger
}
