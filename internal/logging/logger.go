package logging

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

// LogLevel represents available log levels
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// Options controls how the global logger is built.
type Options struct {
	Level      string
	Format     string
	Structured bool
}

// InitLogger initializes the global logger from the LOG_LEVEL environment variable.
func InitLogger() {
	Configure(Options{Level: os.Getenv("LOG_LEVEL"), Format: "pretty"})
}

// Configure (re)builds the global logger and mirrors it into the charmbracelet default logger
// so that package-level log calls share the same settings.
func Configure(opts Options) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "[lethal-empire]",
	})

	level := ParseLevel(opts.Level)
	setLogLevel(logger, level)

	switch strings.ToLower(opts.Format) {
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	default:
		logger.SetFormatter(log.TextFormatter)
	}

	if strings.ToLower(opts.Format) == "pretty" || !opts.Structured {
		logger.SetReportCaller(true)
		logger.SetReportTimestamp(true)
	}

	Logger = logger
	log.SetDefault(logger)

	Logger.Debug("Logger initialized successfully", "level", level, "format", opts.Format)
}

// ParseLevel maps a textual level onto LogLevel, defaulting to info.
func ParseLevel(raw string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return DebugLevel
	case "info", "":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// setLogLevel configures the logger with the specified level
func setLogLevel(logger *log.Logger, level LogLevel) {
	switch level {
	case DebugLevel:
		logger.SetLevel(log.DebugLevel)
	case InfoLevel:
		logger.SetLevel(log.InfoLevel)
	case WarnLevel:
		logger.SetLevel(log.WarnLevel)
	case ErrorLevel:
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
}

// GetLogger returns the global logger instance
func GetLogger() *log.Logger {
	if Logger == nil {
		InitLogger()
	}
	return Logger
}

// WithFields creates a logger with contextual fields
func WithFields(fields ...interface{}) *log.Logger {
	return GetLogger().With(fields...)
}

// WithChunkCoords creates a logger with chunk coordinate context
func WithChunkCoords(chunkX, chunkZ int32) *log.Logger {
	return WithFields("chunk_x", chunkX, "chunk_z", chunkZ)
}

// WithBuildingID creates a logger with building_id context
func WithBuildingID(buildingID string) *log.Logger {
	return WithFields("building_id", buildingID)
}

// WithWorkerID creates a logger with worker_id context
func WithWorkerID(workerID string) *log.Logger {
	return WithFields("worker_id", workerID)
}

// WithDuration creates a logger with duration context (for performance logging)
func WithDuration(operation string, duration interface{}) *log.Logger {
	return WithFields("operation", operation, "duration", duration)
}
