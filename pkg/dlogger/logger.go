// Package dlogger exposes a simple zap logger, with log levels
package dlogger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LogLevelInfo sets the log level to info
	LogLevelInfo = "info"

	// LogLevelDebug sets the log level to debug
	LogLevelDebug = "debug"

	// LogLevelNone sets logger to no logging
	LogLevelNone = "none"

	// EncodingJSON produces one JSON object per log line
	EncodingJSON = "json"

	// EncodingConsole produces human readable log lines
	EncodingConsole = "console"
)

// Option customizes the logger configuration
type Option func(*zap.Config)

// Encoding selects the log encoding ("json" or "console")
func Encoding(encoding string) Option {
	return func(c *zap.Config) {
		if encoding == "" {
			return
		}
		c.Encoding = encoding
		if encoding == EncodingConsole {
			c.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
			c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		}
	}
}

// Service tags every log line with the name of the emitting service
func Service(name string) Option {
	return func(c *zap.Config) {
		if name == "" {
			return
		}
		if c.InitialFields == nil {
			c.InitialFields = make(map[string]interface{})
		}
		c.InitialFields["service"] = name
	}
}

// GetLogger returns a zap logger with the specified level
func GetLogger(logLevel string, opts ...Option) (*zap.Logger, error) {
	if logLevel == LogLevelNone {
		return zap.NewNop(), nil
	}
	zapConfig := zap.NewProductionConfig()
	var lvl zapcore.Level
	err := lvl.UnmarshalText([]byte(logLevel))
	if err != nil {
		return nil, err
	}
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	for _, apply := range opts {
		apply(&zapConfig)
	}
	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// MustGetLogger returns a zap logger with the specified level or panics
func MustGetLogger(logLevel string, opts ...Option) *zap.Logger {
	l, err := GetLogger(logLevel, opts...)
	if err != nil {
		panic(err)
	}
	return l
}
