// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package codec

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/hl2rm/rmstream/errs"
)

// Header is one parsed frame header.
//
// Wire layout, little-endian:
//
//	0   int64     Timestamp (100ns device ticks)
//	8   uint32    Width
//	12  uint32    Height
//	16  uint32    PixelStride
//	20  uint32    RowStride
//	24  float32   Fx, Fy          (Video only)
//	..  float32   Raw[16]         transform entries in wire order
type Header struct {
	Stream      StreamType
	Timestamp   int64
	Width       uint32
	Height      uint32
	PixelStride uint32
	RowStride   uint32
	Fx          float32
	Fy          float32
	Raw         [TransformFloats]float32
}

// ParseHeader deserializes exactly t.HeaderSize() bytes. Apart from the length,
// the bytes are trusted to follow the layout of t.
func ParseHeader(t StreamType, b []byte) (*Header, error) {
	l := t.Layout()
	if len(b) != l.HeaderSize {
		return nil, errs.Newf(errs.RetHeaderSizeMismatch,
			"codec: %s header needs %d bytes, got %d", t, l.HeaderSize, len(b))
	}
	le := binary.LittleEndian
	h := &Header{
		Stream:      t,
		Timestamp:   int64(le.Uint64(b[0:8])),
		Width:       le.Uint32(b[8:12]),
		Height:      le.Uint32(b[12:16]),
		PixelStride: le.Uint32(b[16:20]),
		RowStride:   le.Uint32(b[20:24]),
	}
	off := PrefixSize
	if l.LeadingFloats == VideoLeadingFloats {
		h.Fx = math.Float32frombits(le.Uint32(b[off:]))
		h.Fy = math.Float32frombits(le.Uint32(b[off+4:]))
	}
	off += l.LeadingFloats * 4
	for i := range h.Raw {
		h.Raw[i] = math.Float32frombits(le.Uint32(b[off+i*4:]))
	}
	return h, nil
}

// EncodeHeader serializes h with the layout of h.Stream.
func EncodeHeader(h *Header) []byte {
	return AppendHeader(make([]byte, 0, h.Stream.HeaderSize()), h)
}

// AppendHeader appends the wire form of h to dst.
func AppendHeader(dst []byte, h *Header) []byte {
	l := h.Stream.Layout()
	var buf [VideoHeaderSize]byte
	b := buf[:l.HeaderSize]
	le := binary.LittleEndian
	le.PutUint64(b[0:8], uint64(h.Timestamp))
	le.PutUint32(b[8:12], h.Width)
	le.PutUint32(b[12:16], h.Height)
	le.PutUint32(b[16:20], h.PixelStride)
	le.PutUint32(b[20:24], h.RowStride)
	off := PrefixSize
	if l.LeadingFloats == VideoLeadingFloats {
		le.PutUint32(b[off:], math.Float32bits(h.Fx))
		le.PutUint32(b[off+4:], math.Float32bits(h.Fy))
	}
	off += l.LeadingFloats * 4
	for i, f := range h.Raw {
		le.PutUint32(b[off+i*4:], math.Float32bits(f))
	}
	return append(dst, b...)
}

// PayloadBytes returns the payload byte length announced by h. It uses RowStride,
// never Width*PixelStride, since rows may carry padding. Two uint32 factors
// always fit in a uint64.
func PayloadBytes(h *Header) uint64 {
	return uint64(h.Height) * uint64(h.RowStride)
}

// PayloadSize returns PayloadBytes as an int, or -1 when it does not fit one.
func PayloadSize(h *Header) int {
	n := PayloadBytes(h)
	if n > math.MaxInt {
		return -1
	}
	return int(n)
}

// TickDuration is the length of one device timestamp tick.
const TickDuration = 100 * time.Nanosecond

// Ticks converts device ticks into a duration.
func Ticks(ts int64) time.Duration {
	return time.Duration(ts) * TickDuration
}

// Time returns the capture timestamp as a duration since the device epoch.
func (h *Header) Time() time.Duration {
	return Ticks(h.Timestamp)
}
