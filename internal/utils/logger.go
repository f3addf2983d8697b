package utils

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logMu  sync.RWMutex
	logger = zap.NewNop()
)

// InitLogger builds the process logger. Debug mode lowers the level and
// switches to the console encoder.
func InitLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	SetLogger(l)
	return l, nil
}

// SetLogger replaces the process logger; tests use zaptest or observer cores.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logMu.Lock()
	logger = l
	logMu.Unlock()
}

// L returns the process logger.
func L() *zap.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return logger
}

// LogEvent writes a standardized line with module/action/request_id.
// Avoid logging sensitive payload; message should be summarized.
func LogEvent(requestID, module, action, message string, fields ...zap.Field) {
	base := []zap.Field{
		zap.String("module", strings.ToUpper(module)),
		zap.String("action", action),
		zap.String("request_id", strings.TrimSpace(requestID)),
	}
	L().Info(message, append(base, fields...)...)
}

// LogFailure is LogEvent at warn level with the error attached.
func LogFailure(requestID, module, action string, err error, fields ...zap.Field) {
	base := []zap.Field{
		zap.String("module", strings.ToUpper(module)),
		zap.String("action", action),
		zap.String("request_id", strings.TrimSpace(requestID)),
		zap.Error(err),
	}
	L().Warn("failed", append(base, fields...)...)
}
