// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package stream

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/errs"
	"github.com/hl2rm/rmstream/log"
)

// State is the decoder lifecycle state.
type State int32

// Decoder states. Closed is terminal.
const (
	Connected State = iota
	Closed
)

// String returns the state name.
func (s State) String() string {
	if s == Closed {
		return "closed"
	}
	return "connected"
}

var errRunning = errs.New(errs.RetUnknown, "stream: decoder is already running")

// Decoder reads frames off one connection, decodes them and publishes them into its slot.
type Decoder struct {
	conn   io.ReadCloser
	stream codec.StreamType
	opts   *Options
	logger log.Logger

	state     atomic.Int32
	started   atomic.Bool
	requested atomic.Bool
	err       atomic.Error
	frames    atomic.Uint64
	bytes     atomic.Uint64

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// NewDecoder creates a decoder for an established connection carrying stream t.
// The decoder owns conn from now on.
func NewDecoder(conn io.ReadCloser, t codec.StreamType, opt ...Option) *Decoder {
	opts := newOptions(opt)
	logger := opts.Logger
	if logger == nil {
		fields := []log.Field{{Key: "stream", Value: t.String()}}
		if c, ok := conn.(net.Conn); ok && c.RemoteAddr() != nil {
			fields = append(fields, log.Field{Key: "addr", Value: c.RemoteAddr().String()})
		}
		logger = log.With(fields...)
	}
	return &Decoder{
		conn:   conn,
		stream: t,
		opts:   opts,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Stream returns the stream type the decoder reads.
func (d *Decoder) Stream() codec.StreamType {
	return d.stream
}

// Slot returns the slot frames are published into.
func (d *Decoder) Slot() *Slot {
	return d.opts.Slot
}

// State returns the current state.
func (d *Decoder) State() State {
	return State(d.state.Load())
}

// Done is closed when the decode loop has exited.
func (d *Decoder) Done() <-chan struct{} {
	return d.done
}

// Err returns the error which ended the loop, nil while running or after a requested stop.
func (d *Decoder) Err() error {
	return d.err.Load()
}

// Frames returns the number of frames decoded.
func (d *Decoder) Frames() uint64 {
	return d.frames.Load()
}

// Bytes returns the number of header and payload bytes consumed by decoded frames.
func (d *Decoder) Bytes() uint64 {
	return d.bytes.Load()
}

// Run decodes frames until the connection fails or a stop is requested by
// Close or ctx. Every error closes the connection and is returned, except
// for the read failure caused by a requested stop which yields nil.
// Run may be called only once.
func (d *Decoder) Run(ctx context.Context) error {
	if !d.started.CompareAndSwap(false, true) {
		if d.requested.Load() {
			return nil
		}
		return errRunning
	}
	defer close(d.done)

	go func() {
		select {
		case <-ctx.Done():
			d.Close()
		case <-d.done:
		}
	}()

	fr := d.opts.FramerBuilder.New(codec.NewReaderSize(d.conn, d.opts.ReaderSize), d.stream)
	headerSize := uint64(d.stream.HeaderSize())
	for {
		raw, err := fr.ReadFrame()
		if err != nil {
			return d.terminate(err)
		}
		img, err := codec.DecodePayload(raw.Header, raw.Payload, codec.WithSampleOrder(d.opts.SampleOrder))
		if err != nil {
			return d.terminate(err)
		}
		f := &Frame{
			Stream:     d.stream,
			Header:     raw.Header,
			Image:      img,
			Transform:  codec.Transform(raw.Header),
			ReceivedAt: time.Now(),
		}
		d.opts.Slot.Publish(f)
		d.frames.Inc()
		d.bytes.Add(headerSize + uint64(len(raw.Payload)))
		for _, ob := range d.opts.Observers {
			ob.OnFrame(f)
		}
	}
}

// terminate closes the connection and records the terminal error.
func (d *Decoder) terminate(err error) error {
	d.closeConn()
	d.state.Store(int32(Closed))
	if d.requested.Load() {
		d.logger.Debugf("stream %s stopped after %d frames", d.stream, d.frames.Load())
		err = nil
	} else {
		d.logger.Errorf("stream %s closed after %d frames: %v", d.stream, d.frames.Load(), err)
		d.err.Store(err)
	}
	for _, ob := range d.opts.Observers {
		ob.OnClose(err)
	}
	return err
}

// Close requests a stop by closing the connection, which fails the in-flight
// read. It is safe to call any number of times from any goroutine.
func (d *Decoder) Close() error {
	d.requested.Store(true)
	err := d.closeConn()
	if d.started.CompareAndSwap(false, true) {
		d.state.Store(int32(Closed))
		close(d.done)
	}
	return err
}

func (d *Decoder) closeConn() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.conn.Close()
	})
	return d.closeErr
}
