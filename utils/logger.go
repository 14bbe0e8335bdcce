package utils

import (
	"go.uber.org/zap"
)

var logger *zap.Logger

// InitLogger builds the process-wide logger. Call once from main.
func InitLogger() error {
	l, err := zap.NewProduction()
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// L returns the global logger, falling back to a no-op logger so library
// code and tests never have to nil-check.
func L() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
