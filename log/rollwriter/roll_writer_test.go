// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package rollwriter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollWriter(t *testing.T) {
	t.Run("empty_log_name", func(t *testing.T) {
		_, err := NewRollWriter("")
		assert.Error(t, err)
	})

	t.Run("roll_by_date", func(t *testing.T) {
		logDir := t.TempDir()
		now := time.Date(2024, 3, 1, 23, 59, 59, 0, time.Local)
		w, err := NewRollWriter(filepath.Join(logDir, "sub", "rm.%Y%m%d.log"),
			WithCheckInterval(0),
			WithClock(func() time.Time { return now }))
		require.Nil(t, err)
		defer w.Close()

		_, err = w.Write([]byte("a\n"))
		require.Nil(t, err)
		assert.Equal(t, filepath.Join(logDir, "sub", "rm.20240301.log"), w.Path())

		now = now.Add(2 * time.Second)
		_, err = w.Write([]byte("b\n"))
		require.Nil(t, err)
		require.Nil(t, w.Sync())
		assert.Equal(t, filepath.Join(logDir, "sub", "rm.20240302.log"), w.Path())

		first, err := os.ReadFile(filepath.Join(logDir, "sub", "rm.20240301.log"))
		require.Nil(t, err)
		assert.Equal(t, "a\n", string(first))
		second, err := os.ReadFile(filepath.Join(logDir, "sub", "rm.20240302.log"))
		require.Nil(t, err)
		assert.Equal(t, "b\n", string(second))
	})

	t.Run("check_interval", func(t *testing.T) {
		logDir := t.TempDir()
		now := time.Date(2024, 3, 1, 23, 59, 59, 500, time.Local)
		w, err := NewRollWriter(filepath.Join(logDir, "rm.%Y%m%d.log"),
			WithCheckInterval(time.Minute),
			WithClock(func() time.Time { return now }))
		require.Nil(t, err)
		defer w.Close()

		_, err = w.Write([]byte("a\n"))
		require.Nil(t, err)
		now = now.Add(time.Second)
		_, err = w.Write([]byte("b\n"))
		require.Nil(t, err)
		assert.Equal(t, filepath.Join(logDir, "rm.20240301.log"), w.Path())
	})

	t.Run("close_twice", func(t *testing.T) {
		w, err := NewRollWriter(filepath.Join(t.TempDir(), "rm.log"))
		require.Nil(t, err)
		_, err = w.Write([]byte("x"))
		require.Nil(t, err)
		assert.Nil(t, w.Close())
		assert.Nil(t, w.Close())
		assert.Equal(t, "", w.Path())
	})
}
