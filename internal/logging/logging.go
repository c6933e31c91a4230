// Package logging holds the process-wide sugared logger. Callers
// import it aliased as log and use the printf-style helpers directly.
package logging

import (
	"go.uber.org/zap"
)

var logger *zap.SugaredLogger

func init() {
	base, _ := zap.NewProduction()
	logger = base.Sugar()
}

// Sync flushes any buffered entries. Call before the process exits.
func Sync() {
	_ = logger.Sync()
}

func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Fatalf(format string, args ...interface{}) { logger.Fatalf(format, args...) }
