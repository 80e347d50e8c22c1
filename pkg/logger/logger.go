package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSize = 10
	maxBack = 5
	maxAge  = 30
)

// NewLogger builds a zerolog logger writing human-readable lines to w and,
// when filePath is set, JSON lines to a rotated log file.
func NewLogger(w io.Writer, filePath, serviceName string, level zerolog.Level) zerolog.Logger {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    false,
	}

	writers := []io.Writer{consoleWriter}

	if filePath != "" {
		fileRotator := &lumberjack.Logger{
			Filename:   filePath, // log file location
			MaxSize:    maxSize,  // megabytes before rotation
			MaxBackups: maxBack,  // number of old files to retain
			MaxAge:     maxAge,   // days to retain rotated files
			Compress:   true,     // gzip old log files
		}
		writers = append(writers, fileRotator)
	}

	multiWriter := zerolog.MultiLevelWriter(writers...)
	logger := zerolog.New(multiWriter).With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger().
		Level(level)

	logger.Debug().
		Str("logsFilePath", filePath).
		Str("serviceName", serviceName).
		Msg("logger initialized")

	return logger
}

// ParseLevel maps a textual level to zerolog, falling back to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
