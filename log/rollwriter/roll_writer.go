// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Package rollwriter provides a file writer whose path is a strftime pattern.
// A new file is opened whenever the formatted path changes.
package rollwriter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lestrrat-go/strftime"
)

var _ io.WriteCloser = (*RollWriter)(nil)

// DefaultCheckInterval is how often the formatted path is recomputed.
const DefaultCheckInterval = time.Second

// RollWriter writes to the file named by formatting its pattern with the current time.
type RollWriter struct {
	pattern  *strftime.Strftime
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	currPath  string
	currFile  *os.File
	checkedAt time.Time
}

// Option modifies a RollWriter.
type Option func(*RollWriter)

// WithCheckInterval sets how often the path is recomputed, 0 checks on every write.
func WithCheckInterval(d time.Duration) Option {
	return func(w *RollWriter) { w.interval = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *RollWriter) { w.now = now }
}

// NewRollWriter creates a new RollWriter, e.g. NewRollWriter("./log/rmstream.%Y%m%d.log").
func NewRollWriter(filePattern string, opt ...Option) (*RollWriter, error) {
	if filePattern == "" {
		return nil, errors.New("invalid file path")
	}
	pattern, err := strftime.New(filePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid time pattern %q: %w", filePattern, err)
	}
	w := &RollWriter{
		pattern:  pattern,
		interval: DefaultCheckInterval,
		now:      time.Now,
	}
	for _, o := range opt {
		o(w)
	}
	return w, nil
}

// Write writes logs. It implements io.Writer.
func (w *RollWriter) Write(v []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.reopenFile(); err != nil {
		return 0, err
	}
	return w.currFile.Write(v)
}

// Path returns the path currently written to, empty before the first write.
func (w *RollWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currPath
}

// Sync commits the current file.
func (w *RollWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.currFile == nil {
		return nil
	}
	return w.currFile.Sync()
}

// Close closes the current log file. It implements io.Closer.
func (w *RollWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.currFile == nil {
		return nil
	}
	err := w.currFile.Close()
	w.currFile = nil
	w.currPath = ""
	return err
}

// reopenFile switches to a new file when the formatted path has changed. Must hold mu.
func (w *RollWriter) reopenFile() error {
	now := w.now()
	if w.currFile != nil && now.Sub(w.checkedAt) < w.interval {
		return nil
	}
	w.checkedAt = now
	path := w.pattern.FormatString(now)
	if w.currFile != nil && path == w.currPath {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if w.currFile != nil {
		w.currFile.Close()
	}
	w.currFile, w.currPath = f, path
	return nil
}
