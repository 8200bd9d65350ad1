// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package devicesim

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/snapshot"
)

// TicksPerFrame is the timestamp step of synthetic frames, 30 frames per second in 100ns ticks.
const TicksPerFrame = 10_000_000 / 30

// Source produces the frames sent on one connection. Next returns io.EOF when exhausted.
type Source interface {
	Next() (*codec.Frame, error)
}

// SourceFunc builds a fresh Source per accepted connection.
type SourceFunc func(t codec.StreamType) Source

// Synthetic returns a SourceFunc of endless generated frames of width x height.
func Synthetic(width, height int) SourceFunc {
	return func(t codec.StreamType) Source {
		return &synthetic{stream: t, width: width, height: height}
	}
}

// synthetic emits a moving gradient for color streams and a ramp for depth
// streams. The sensor translates by one unit along x per frame.
type synthetic struct {
	stream        codec.StreamType
	width, height int
	n             int64
}

// Next implements Source.
func (s *synthetic) Next() (*codec.Frame, error) {
	h := &codec.Header{
		Stream:    s.stream,
		Timestamp: s.n * TicksPerFrame,
		Width:     uint32(s.width),
		Height:    uint32(s.height),
	}
	m := codec.Identity()
	m[0][3] = float32(s.n)
	// The device sends the transpose of the sensor-to-world matrix.
	t := m.Transpose()
	for i := range h.Raw {
		h.Raw[i] = t[i/4][i%4]
	}

	var payload []byte
	if s.stream.IsDepth() {
		h.PixelStride = 2
		h.RowStride = uint32(s.width * 2)
		payload = make([]byte, s.height*s.width*2)
		for i := 0; i < s.width*s.height; i++ {
			binary.BigEndian.PutUint16(payload[i*2:], uint16(int64(i)+s.n))
		}
	} else {
		h.Fx, h.Fy = 500, 500
		h.PixelStride = 3
		h.RowStride = uint32(s.width * 3)
		payload = make([]byte, s.height*s.width*3)
		for y := 0; y < s.height; y++ {
			for x := 0; x < s.width; x++ {
				off := y*s.width*3 + x*3
				payload[off] = byte(x + int(s.n))
				payload[off+1] = byte(y)
				payload[off+2] = byte(x + y)
			}
		}
	}
	s.n++
	return &codec.Frame{Header: h, Payload: payload}, nil
}

// Frames returns a SourceFunc sending frames once on every connection.
func Frames(frames ...*codec.Frame) SourceFunc {
	return func(codec.StreamType) Source {
		return &replay{frames: frames}
	}
}

// Replay returns a SourceFunc replaying frames in a loop, loops <= 0 meaning forever.
func Replay(frames []*codec.Frame, loops int) SourceFunc {
	return func(codec.StreamType) Source {
		return &replay{frames: frames, loops: loops, repeat: true}
	}
}

// ReplayFile reads a raw capture written by the snapshot package.
func ReplayFile(path string, t codec.StreamType, loops int) (SourceFunc, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	frames, err := snapshot.ReadRaw(fd, t)
	if err != nil {
		return nil, err
	}
	return Replay(frames, loops), nil
}

type replay struct {
	frames []*codec.Frame
	loops  int
	repeat bool
	i      int
	loop   int
}

// Next implements Source. Replayed timestamps keep increasing across loops.
func (r *replay) Next() (*codec.Frame, error) {
	if len(r.frames) == 0 {
		return nil, io.EOF
	}
	if r.i == len(r.frames) {
		r.loop++
		if !r.repeat || (r.loops > 0 && r.loop >= r.loops) {
			return nil, io.EOF
		}
		r.i = 0
	}
	f := r.frames[r.i]
	r.i++
	if r.loop == 0 {
		return f, nil
	}
	h := *f.Header
	span := r.frames[len(r.frames)-1].Header.Timestamp - r.frames[0].Header.Timestamp + TicksPerFrame
	h.Timestamp += int64(r.loop) * span
	return &codec.Frame{Header: &h, Payload: f.Payload}, nil
}
