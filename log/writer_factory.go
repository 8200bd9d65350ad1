// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package log

import (
	"errors"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Writer builds the zap core of one output.
type Writer interface {
	Setup(c *OutputConfig) (zapcore.Core, zap.AtomicLevel, error)
}

var (
	// DefaultConsoleWriter is the default console output implementation.
	DefaultConsoleWriter = &ConsoleWriter{}
	// DefaultFileWriter is the default file output implementation.
	DefaultFileWriter = &FileWriter{}

	writersMu sync.RWMutex
	writers   = map[string]Writer{
		OutputConsole: DefaultConsoleWriter,
		OutputFile:    DefaultFileWriter,
	}
)

// RegisterWriter registers log output writer. Writer may have multiple implementations.
func RegisterWriter(name string, w Writer) {
	writersMu.Lock()
	writers[name] = w
	writersMu.Unlock()
}

// GetWriter gets log output writer, returns nil if not exist.
func GetWriter(name string) Writer {
	writersMu.RLock()
	defer writersMu.RUnlock()
	return writers[name]
}

// ConsoleWriter writes to stdout.
type ConsoleWriter struct{}

// Setup implements Writer.
func (*ConsoleWriter) Setup(c *OutputConfig) (zapcore.Core, zap.AtomicLevel, error) {
	core, lvl := newConsoleCore(c)
	return core, lvl, nil
}

// FileWriter writes to a date-patterned file.
type FileWriter struct{}

// Setup implements Writer.
func (*FileWriter) Setup(c *OutputConfig) (zapcore.Core, zap.AtomicLevel, error) {
	if c.Filename == "" {
		return nil, zap.AtomicLevel{}, errors.New("log: file writer needs a filename")
	}
	return newFileCore(c)
}
