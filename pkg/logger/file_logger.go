package logger

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const dirMode = 0o755

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewFileLogger returns a zap logger appending JSON lines to a rotated
// file at filePath, and the closer releasing that file. An empty path
// yields a no-op logger.
func NewFileLogger(filePath, serviceName string) (*zap.Logger, io.Closer, error) {
	if filePath == "" {
		return zap.NewNop(), nopCloser{}, nil
	}

	filePath = filepath.Clean(filePath)
	if err := os.MkdirAll(filepath.Dir(filePath), dirMode); err != nil {
		return nil, nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    maxSize,
		MaxBackups: maxBack,
		MaxAge:     maxAge,
		Compress:   true,
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(rotator),
		zap.DebugLevel,
	)
	return zap.New(core).With(zap.String("service", serviceName)), rotator, nil
}
