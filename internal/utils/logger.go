package utils

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

var (
	instance *Logger
	once     sync.Once
)

// Logger writes leveled log lines to the log file and, except for debug
// lines when debug mode is off, to stdout as well.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
}

// getDefaultLogFilePath returns the default log file path
func getDefaultLogFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}
	logDir := filepath.Join(homeDir, ".cadena")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}
	return filepath.Join(logDir, "cadena.log")
}

// NewLogger creates the singleton logger. The first call wins; later
// calls return the same instance regardless of arguments. An empty
// logFilePath selects ~/.cadena/cadena.log.
func NewLogger(logFilePath string, debugMode bool) *Logger {
	once.Do(func() {
		if logFilePath == "" {
			logFilePath = getDefaultLogFilePath()
		}

		file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}

		multiWriter := io.MultiWriter(file, os.Stdout)

		debugWriter := io.Writer(file)
		if debugMode {
			debugWriter = multiWriter
		}

		instance = &Logger{
			infoLogger:  log.New(multiWriter, "[INFO] ", log.Ldate|log.Ltime),
			warnLogger:  log.New(multiWriter, "[WARN] ", log.Ldate|log.Ltime),
			errorLogger: log.New(multiWriter, "[ERROR] ", log.Ldate|log.Ltime),
			debugLogger: log.New(debugWriter, "[DEBUG] ", log.Ldate|log.Ltime),
		}
	})
	return instance
}

// GetLogger retrieves the singleton logger instance
func GetLogger() *Logger {
	if instance == nil {
		log.Fatalf("Logger has not been initialized. Call NewLogger() first.")
	}
	return instance
}

func (l *Logger) Info(message string) {
	l.infoLogger.Println(message)
}

func (l *Logger) Warn(message string) {
	l.warnLogger.Println(message)
}

func (l *Logger) Error(message string) {
	l.errorLogger.Println(message)
}

func (l *Logger) Debug(message string) {
	l.debugLogger.Println(message)
}
