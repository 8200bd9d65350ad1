// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Package stream runs the per-connection decode loop and holds its most recent frame.
package stream

import (
	"time"

	"go.uber.org/atomic"

	"github.com/hl2rm/rmstream/codec"
)

// Frame is one fully decoded capture. A published Frame is never modified.
type Frame struct {
	Stream    codec.StreamType
	Header    *codec.Header
	Image     codec.Image
	Transform codec.Mat4
	// Seq is assigned by the slot on publish, starting at 1.
	Seq        uint64
	ReceivedAt time.Time
}

// Timestamp returns the capture timestamp in 100ns ticks.
func (f *Frame) Timestamp() int64 {
	return f.Header.Timestamp
}

// Slot holds the latest frame of one stream. Publish is called by a single
// writer; Latest may be called from any goroutine and never blocks.
type Slot struct {
	cur       atomic.Pointer[slotEntry]
	published atomic.Uint64
	dropped   atomic.Uint64
}

type slotEntry struct {
	frame *Frame
	seen  atomic.Bool
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Publish replaces the held frame with f as one atomic step.
func (s *Slot) Publish(f *Frame) {
	f.Seq = s.published.Inc()
	old := s.cur.Swap(&slotEntry{frame: f})
	if old != nil && !old.seen.Load() {
		s.dropped.Inc()
	}
}

// Latest returns the most recently published frame, false when nothing was published yet.
func (s *Slot) Latest() (*Frame, bool) {
	e := s.cur.Load()
	if e == nil {
		return nil, false
	}
	if !e.seen.Load() {
		e.seen.Store(true)
	}
	return e.frame, true
}

// Seq returns the number of frames published so far.
func (s *Slot) Seq() uint64 {
	return s.published.Load()
}

// Dropped returns the number of frames replaced before any reader saw them.
func (s *Slot) Dropped() uint64 {
	return s.dropped.Load()
}
