package telemetry

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is a package-level default logger for callers (e.g. cmd/matchsim)
// that don't need an isolated instance. Library code (SimulationDriver)
// should prefer an injected logger instead of this global.
var Log *zap.SugaredLogger

func init() {
	Log = NewLogger().Sugar()
}

// NewLogger builds a zap logger whose level is controlled by the
// MATCHSIM_LOG_LEVEL environment variable, defaulting to info.
func NewLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(levelFromEnv())

	logger, err := cfg.Build()
	if err != nil {
		panic("failed to build zap logger: " + err.Error())
	}
	return logger
}

func levelFromEnv() zapcore.Level {
	switch strings.ToLower(os.Getenv("MATCHSIM_LOG_LEVEL")) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
