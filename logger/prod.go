//go:build prod

package logger

import "go.uber.org/zap"

// Logger = *zap.Logger.
type Logger = *zap.Logger

// Log - package level logger, production config.
var Log Logger = func() Logger {
	l, _ := zap.NewProduction()
	return l
}()
