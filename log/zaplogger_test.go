// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package log_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hl2rm/rmstream/log"
)

const observewriter = "observewriter"

type observeWriter struct {
	core zapcore.Core
	lvl  zap.AtomicLevel
}

func (w *observeWriter) Setup(*log.OutputConfig) (zapcore.Core, zap.AtomicLevel, error) {
	return w.core, w.lvl, nil
}

func newObserved(t *testing.T, skip int) (log.Logger, *observer.ObservedLogs) {
	t.Helper()
	lvl := zap.NewAtomicLevelAt(zap.InfoLevel)
	core, ob := observer.New(lvl)
	log.RegisterWriter(observewriter, &observeWriter{core: core, lvl: lvl})
	l, err := log.Build(log.Config{{Writer: observewriter}}, skip)
	require.Nil(t, err)
	return l, ob
}

func TestNewZapLog(t *testing.T) {
	logger := log.NewZapLog(log.Config{{Writer: log.OutputConsole, Level: "debug"}})
	require.NotNil(t, logger)

	logger.SetLevel("0", log.LevelInfo)
	assert.Equal(t, log.LevelInfo, logger.GetLevel("0"))

	l := logger.With(log.Field{Key: "stream", Value: "video"})
	l.SetLevel("output", log.LevelWarn)
	assert.Equal(t, log.LevelDebug, l.GetLevel("output"))
	assert.Equal(t, log.LevelInfo, l.GetLevel("0"))
}

func TestBuildErrors(t *testing.T) {
	_, err := log.Build(log.Config{{Writer: "nope"}}, 1)
	assert.NotNil(t, err)

	_, err = log.Build(log.Config{{Writer: log.OutputFile}}, 1)
	assert.NotNil(t, err)

	assert.Panics(t, func() { log.NewZapLog(log.Config{{Writer: "nope"}}) })
}

func TestWithFields(t *testing.T) {
	zl, ob := newObserved(t, 2)
	old := log.GetDefaultLogger()
	defer log.SetLogger(old)

	log.SetLogger(zl.With(log.Field{Key: "stream", Value: int32(2)}))
	log.Warn("ahat", "closed")
	log.Debug("filtered")

	require.Equal(t, 1, ob.Len())
	entry := ob.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, "ahat closed", entry.Message)
	assert.Equal(t, []zapcore.Field{{Key: "stream", Type: zapcore.Int32Type, Integer: 2}}, entry.Context)
}

func TestLevelChange(t *testing.T) {
	zl, ob := newObserved(t, 1)
	zl.Debugf("frame %d", 1)
	zl.SetLevel("0", log.LevelDebug)
	zl.Debugf("frame %d", 2)
	zl.Errorf("frame %d", 3)

	msgs := make([]string, 0, ob.Len())
	for _, e := range ob.All() {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{"frame 2", "frame 3"}, msgs)
}

func TestOptionLoggerCallerSkip(t *testing.T) {
	l, ob := newObserved(t, 1)
	l.Info("caller is this file")
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	require.Equal(t, file, ob.All()[0].Caller.File)

	ol, ok := l.(log.OptionLogger)
	require.True(t, ok)
	ol.WithOptions(log.WithAdditionalCallerSkip(1)).Info("caller is the test runner")
	_, file, _, ok = runtime.Caller(1)
	require.True(t, ok)
	require.Equal(t, file, ob.All()[1].Caller.File)
}

func TestNewZapLogWithCore(t *testing.T) {
	core, ob := observer.New(zap.DebugLevel)
	l := log.NewZapLogWithCore(core)
	l.With(log.Field{Key: "addr", Value: "127.0.0.1:23940"}).Infof("connected")
	require.Equal(t, 1, ob.Len())
	assert.Equal(t, "127.0.0.1:23940", ob.All()[0].ContextMap()["addr"])
}

func TestFileOutput(t *testing.T) {
	dir := t.TempDir()
	l, err := log.Build(log.Config{{
		Writer:    log.OutputFile,
		Level:     "info",
		Formatter: "json",
		Filename:  filepath.Join(dir, "rmstream.%Y.log"),
	}}, 1)
	require.Nil(t, err)
	l.Info("to file")
	require.Nil(t, l.Sync())

	matches, err := filepath.Glob(filepath.Join(dir, "rmstream.*.log"))
	require.Nil(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.Nil(t, err)
	assert.True(t, strings.Contains(string(data), `"M":"to file"`))
}

func TestRedirectStdLog(t *testing.T) {
	_, err := log.RedirectStdLog(nopLogger{})
	assert.NotNil(t, err)

	zl := log.NewZapLog(log.Config{{Writer: log.OutputConsole}})
	restore, err := log.RedirectStdLog(zl)
	require.Nil(t, err)
	restore()
}

func TestParseLevel(t *testing.T) {
	l, ok := log.ParseLevel("warn")
	assert.True(t, ok)
	assert.Equal(t, log.LevelWarn, l)
	assert.Equal(t, "warn", l.String())

	_, ok = log.ParseLevel("loud")
	assert.False(t, ok)
}

type nopLogger struct{ log.Logger }
