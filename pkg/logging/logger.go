package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes session diagnostics to a rotating log file. Messages never
// reach the terminal itself; while a session is running the screen belongs to
// the renderer.
type Logger struct {
	logger    *log.Logger
	sessionID string
}

var (
	globalLogger *Logger
	once         sync.Once
)

// GetLogger returns the singleton logger, creating the log file on first use.
func GetLogger() *Logger {
	once.Do(func() {
		logFile := &lumberjack.Logger{
			Filename:   filepath.Join(logDir(), "goprompt.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		globalLogger = &Logger{
			logger:    log.New(logFile, "", log.LstdFlags),
			sessionID: uuid.NewString(),
		}
	})
	return globalLogger
}

func logDir() string {
	if dir := os.Getenv("GOPROMPT_LOG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".goprompt")
}

// SessionID identifies this process in the log file so interleaved runs can
// be told apart.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// Logf writes a formatted message to the log file.
func (l *Logger) Logf(format string, args ...interface{}) {
	l.logger.Printf("[%s] %s", l.sessionID[:8], fmt.Sprintf(format, args...))
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	if logFile, ok := l.logger.Writer().(*lumberjack.Logger); ok {
		return logFile.Close()
	}
	return nil
}

// DebugEnabled returns true if debug tracing is enabled.
func DebugEnabled() bool {
	return os.Getenv("GOPROMPT_DEBUG") != ""
}

// Debugf logs a message only when debug tracing is enabled.
func Debugf(format string, args ...interface{}) {
	if DebugEnabled() {
		GetLogger().Logf("[DEBUG] "+format, args...)
	}
}
