package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// LoggerFactory hands out component loggers that share one set of writers.
// It replaces a process-wide logger registry: every component receives the
// factory (or its own Logger) at construction.
type LoggerFactory struct {
	base    arbor.ILogger
	logPath string

	mu         sync.Mutex
	components map[string]*Logger
}

// Logger stamps a component name on every event it emits
type Logger struct {
	base      arbor.ILogger
	component string
}

// NewLoggerFactory configures arbor from the logging section.
// File output goes to <dir>/<file_name> (logs/test_run.log by default).
func NewLoggerFactory(config LoggingConfig) *LoggerFactory {
	logger := arbor.NewLogger()

	timeFormat := config.TimeFormat
	if timeFormat == "" {
		timeFormat = "2006-01-02 15:04:05"
	}

	hasFileOutput := false
	hasConsoleOutput := false
	for _, output := range config.Output {
		switch output {
		case "file":
			hasFileOutput = true
		case "console", "stdout":
			hasConsoleOutput = true
		}
	}

	var logPath string
	if hasFileOutput {
		dir := config.Dir
		if dir == "" {
			dir = "logs"
		}
		name := config.FileName
		if name == "" {
			name = "test_run.log"
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("Warning: Failed to create logs directory: %v\n", err)
		} else {
			logPath = filepath.Join(dir, name)
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:             models.LogWriterTypeFile,
				FileName:         logPath,
				TimeFormat:       timeFormat,
				MaxSize:          50 * 1024 * 1024, // 50 MB
				MaxBackups:       3,
				TextOutput:       true,
				DisableTimestamp: false,
			})
		}
	}

	if hasConsoleOutput {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:             models.LogWriterTypeConsole,
			TimeFormat:       "15:04:05",
			TextOutput:       true,
			DisableTimestamp: false,
		})
	}

	level := config.Level
	if level == "" {
		level = "info"
	}
	logger = logger.WithLevelFromString(level)

	return &LoggerFactory{
		base:       logger,
		logPath:    logPath,
		components: make(map[string]*Logger),
	}
}

// NewLoggerFactoryFrom wraps an existing arbor logger (tests pass arbor.NewNoOpLogger())
func NewLoggerFactoryFrom(base arbor.ILogger) *LoggerFactory {
	return &LoggerFactory{
		base:       base,
		components: make(map[string]*Logger),
	}
}

// For returns the logger for a component, creating it on first use
func (f *LoggerFactory) For(component string) *Logger {
	f.mu.Lock()
	defer f.mu.Unlock()

	if l, ok := f.components[component]; ok {
		return l
	}
	l := &Logger{base: f.base, component: component}
	f.components[component] = l
	return l
}

// LogFilePath returns the file the factory writes to, or "" without file output
func (f *LoggerFactory) LogFilePath() string {
	return f.logPath
}

// Component returns the component name
func (l *Logger) Component() string {
	return l.component
}

func (l *Logger) Debug() arbor.ILogEvent {
	return l.base.Debug().Str("component", l.component)
}

func (l *Logger) Info() arbor.ILogEvent {
	return l.base.Info().Str("component", l.component)
}

func (l *Logger) Warn() arbor.ILogEvent {
	return l.base.Warn().Str("component", l.component)
}

func (l *Logger) Error() arbor.ILogEvent {
	return l.base.Error().Str("component", l.component)
}

// NopLogger returns a component logger that discards everything
func NopLogger(component string) *Logger {
	return &Logger{base: arbor.NewNoOpLogger(), component: component}
}
