package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerParameters specify how a new
// zap.Logger should be created.
type LoggerParameters struct {
	Level   zapcore.Level
	Writers []io.Writer
}

// NewLogger returns a JSON zap.Logger writing
// to every given writer, or stdout when none
// are given.
func NewLogger(params LoggerParameters) *zap.Logger {
	var writeSyncer zapcore.WriteSyncer

	switch len(params.Writers) {
	case 0:
		writeSyncer = zapcore.AddSync(os.Stdout)
	case 1:
		writeSyncer = zapcore.AddSync(params.Writers[0])
	default:
		var writeSyncers []zapcore.WriteSyncer
		for _, writer := range params.Writers {
			writeSyncers = append(writeSyncers, zapcore.AddSync(writer))
		}
		writeSyncer = zapcore.NewMultiWriteSyncer(writeSyncers...)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zap.New(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			writeSyncer,
			params.Level,
		),
	)
}
