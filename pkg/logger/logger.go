package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the sugared logger handed to every component constructor.
// There is no package-level logger on purpose: the handle is injected so
// a single diff/correlate/write call carries its own scope.
func New(level string, debugMode bool) (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	parsedLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		parsedLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if debugMode {
		parsedLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	config.Level = parsedLevel
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.LevelKey = "level"

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return zapLogger.Sugar(), nil
}

// NewNop returns a logger that discards everything. Used by tests and as
// the fallback when a caller passes nil.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
