package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global logger instance for the application
var Logger *zap.SugaredLogger

// helpers backs the package-level Infof-style functions, one frame further up
var helpers *zap.SugaredLogger

func init() {
	logger, _ := zap.NewProduction()
	setLogger(logger)
}

func setLogger(logger *zap.Logger) {
	Logger = logger.Sugar()
	helpers = logger.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Init replaces the global logger with a production logger at the given level.
// Unknown levels fall back to info.
func Init(level string) error {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	setLogger(logger)
	return nil
}

// With returns a child logger carrying the given key/value pairs
func With(args ...interface{}) *zap.SugaredLogger {
	return Logger.With(args...)
}

// Sync flushes buffered log entries
func Sync() {
	_ = helpers.Sync()
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// Top-level helpers for package alias usage
func Infof(format string, args ...interface{})  { helpers.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { helpers.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { helpers.Errorf(format, args...) }
func Debugf(format string, args ...interface{}) { helpers.Debugf(format, args...) }
func Fatalf(format string, args ...interface{}) { helpers.Fatalf(format, args...) }
