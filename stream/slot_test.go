// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package stream_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/stream"
)

func tsFrame(ts int64) *stream.Frame {
	return &stream.Frame{
		Stream: codec.AHAT,
		Header: &codec.Header{Stream: codec.AHAT, Timestamp: ts},
	}
}

func TestSlotEmpty(t *testing.T) {
	s := stream.NewSlot()
	f, ok := s.Latest()
	assert.False(t, ok)
	assert.Nil(t, f)
	assert.EqualValues(t, 0, s.Seq())
}

func TestSlotPublishReplaces(t *testing.T) {
	s := stream.NewSlot()
	s.Publish(tsFrame(10))
	s.Publish(tsFrame(20))
	f, ok := s.Latest()
	require.True(t, ok)
	assert.EqualValues(t, 20, f.Timestamp())
	assert.EqualValues(t, 2, f.Seq)
	assert.EqualValues(t, 2, s.Seq())
	assert.EqualValues(t, 1, s.Dropped())

	// Reading does not consume.
	g, ok := s.Latest()
	require.True(t, ok)
	assert.Same(t, f, g)

	s.Publish(tsFrame(30))
	assert.EqualValues(t, 1, s.Dropped())
}

func TestSlotConcurrentPublishAndRead(t *testing.T) {
	const (
		frames  = 20000
		readers = 8
	)
	s := stream.NewSlot()
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last int64 = -1
			for {
				select {
				case <-stop:
					return
				default:
				}
				f, ok := s.Latest()
				if !ok {
					continue
				}
				// Never torn: the slot assigns Seq consistently with the frame content.
				if uint64(f.Header.Timestamp+1) != f.Seq || f.Header.Timestamp < last {
					t.Errorf("inconsistent frame seq=%d ts=%d last=%d", f.Seq, f.Header.Timestamp, last)
					return
				}
				last = f.Header.Timestamp
			}
		}()
	}
	for i := int64(0); i < frames; i++ {
		s.Publish(tsFrame(i))
	}
	close(stop)
	wg.Wait()

	f, ok := s.Latest()
	require.True(t, ok)
	assert.EqualValues(t, frames-1, f.Timestamp())
	assert.EqualValues(t, frames, s.Seq())
	assert.LessOrEqual(t, s.Dropped(), uint64(frames-1))
}
