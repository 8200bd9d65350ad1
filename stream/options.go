// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package stream

import (
	"encoding/binary"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/log"
	"github.com/hl2rm/rmstream/transport"
)

// Observer is notified by the decode loop. Calls come from the loop goroutine.
type Observer interface {
	// OnFrame is called after f has been published.
	OnFrame(f *Frame)
	// OnClose is called once when the loop exits, err is nil after a requested stop.
	OnClose(err error)
}

// Options are the decoder options.
type Options struct {
	Slot          *Slot
	ReaderSize    int
	SampleOrder   binary.ByteOrder
	MaxPayload    int
	FramerBuilder codec.FramerBuilder
	Logger        log.Logger
	Observers     []Observer
}

// Option sets decoder options.
type Option func(*Options)

// WithSlot publishes into s instead of a fresh slot. A slot outlives its decoder.
func WithSlot(s *Slot) Option {
	return func(o *Options) {
		o.Slot = s
	}
}

// WithReaderSize sets the read buffer size, 0 reads the connection unbuffered.
func WithReaderSize(size int) Option {
	return func(o *Options) {
		o.ReaderSize = size
	}
}

// WithSampleOrder sets the byte order of 16 bit depth samples.
func WithSampleOrder(order binary.ByteOrder) Option {
	return func(o *Options) {
		o.SampleOrder = order
	}
}

// WithMaxPayload rejects headers announcing more than n payload bytes.
func WithMaxPayload(n int) Option {
	return func(o *Options) {
		o.MaxPayload = n
	}
}

// WithFramerBuilder replaces the framer building from MaxPayload.
func WithFramerBuilder(fb codec.FramerBuilder) Option {
	return func(o *Options) {
		o.FramerBuilder = fb
	}
}

// WithLogger sets the logger of the decoder.
func WithLogger(l log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithObserver adds an observer.
func WithObserver(ob Observer) Option {
	return func(o *Options) {
		o.Observers = append(o.Observers, ob)
	}
}

func newOptions(opts []Option) *Options {
	o := &Options{
		ReaderSize:  codec.DefaultReaderSize,
		SampleOrder: binary.BigEndian,
		MaxPayload:  transport.DefaultMaxPayload,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Slot == nil {
		o.Slot = NewSlot()
	}
	if o.FramerBuilder == nil {
		o.FramerBuilder = &transport.FramerBuilder{MaxPayload: o.MaxPayload}
	}
	return o
}
