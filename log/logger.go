// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package log

import (
	"sync"
)

// Level is the log level.
type Level int

// Enums log level constants.
const (
	LevelNil Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelNil:   "nil",
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

// String returns the log level name.
func (l Level) String() string {
	return levelNames[l]
}

// ParseLevel parses a level name, unknown names yield LevelDebug and false.
func ParseLevel(s string) (Level, bool) {
	for l, name := range levelNames {
		if name == s && l != LevelNil {
			return l, true
		}
	}
	return LevelDebug, false
}

// Field is the user defined log field.
type Field struct {
	Key   string
	Value interface{}
}

// Logger is the underlying logging work.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	// Fatal logs and then calls os.Exit(1).
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	// Sync flushes any buffered log entries.
	Sync() error

	// SetLevel sets the level of the output with the given index, "0" is the first output.
	SetLevel(output string, level Level)
	// GetLevel gets the level of the output with the given index.
	GetLevel(output string) Level

	// With returns a child logger carrying fields on every entry.
	With(fields ...Field) Logger
}

// OptionLogger is a Logger whose options may be changed.
type OptionLogger interface {
	WithOptions(opts ...Option) Logger
}

var (
	mu            sync.RWMutex
	defaultLogger Logger = NewZapLog(defaultConfig)
)

// SetLogger replaces the default logger.
func SetLogger(logger Logger) {
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
}

// GetDefaultLogger returns the default logger.
func GetDefaultLogger() Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	return l
}
