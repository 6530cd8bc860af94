// Package logging builds the zap loggers used by the command line tool.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for log files
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

// Options selects the level, encoding and destination of a logger
type Options struct {
	// Verbose enables debug output with the console encoder
	Verbose bool
	// File is a path written with rotation. "", "stderr" and "stdout" select the stream.
	File string
}

// New builds a logger from opts
func New(opts Options) (*zap.Logger, error) {
	sink, err := OpenFile(opts.File)
	if err != nil {
		return nil, err
	}

	level := zapcore.InfoLevel
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)
	if opts.Verbose {
		level = zapcore.DebugLevel
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	return zap.New(zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level))), nil
}

// OpenFile returns the write syncer for path
func OpenFile(path string) (zapcore.WriteSyncer, error) {
	switch path {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), nil
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	}

	// Make sure directory exists
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	// lumberjack.Logger is already safe for concurrent use
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}), nil
}
