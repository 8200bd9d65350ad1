// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package transport

import (
	"io"
	"math"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/errs"
)

// DefaultMaxPayload bounds the payload a header may announce. Anything larger
// is treated as a corrupt header rather than allocated.
const DefaultMaxPayload = 64 << 20

// DefaultFramerBuilder is the framer builder with default limits.
var DefaultFramerBuilder = &FramerBuilder{MaxPayload: DefaultMaxPayload}

// FramerBuilder builds framers for back-to-back header+payload streams.
type FramerBuilder struct {
	// MaxPayload is the largest accepted payload size, <= 0 means unlimited.
	MaxPayload int
}

// New implements codec.FramerBuilder.
func (fb *FramerBuilder) New(r io.Reader, t codec.StreamType) codec.Framer {
	return &framer{
		r:          r,
		stream:     t,
		header:     make([]byte, t.HeaderSize()),
		maxPayload: fb.MaxPayload,
	}
}

// framer reads header bytes, parses them, then reads the payload the header announces.
// The header buffer is reused; payloads are freshly allocated since decoded
// images take ownership of them.
type framer struct {
	r          io.Reader
	stream     codec.StreamType
	header     []byte
	maxPayload int
}

// ReadFrame implements codec.Framer.
func (f *framer) ReadFrame() (*codec.Frame, error) {
	if err := ReadFull(f.r, f.header); err != nil {
		return nil, err
	}
	h, err := codec.ParseHeader(f.stream, f.header)
	if err != nil {
		return nil, err
	}
	n := codec.PayloadBytes(h)
	if n > math.MaxInt || (f.maxPayload > 0 && n > uint64(f.maxPayload)) {
		return nil, errs.Newf(errs.RetPayloadSizeMismatch,
			"transport: %s header announces %d payload bytes, limit is %d", f.stream, n, f.limit())
	}
	payload, err := ReadN(f.r, int(n))
	if err != nil {
		return nil, err
	}
	return &codec.Frame{Header: h, Payload: payload}, nil
}

func (f *framer) limit() int {
	if f.maxPayload > 0 {
		return f.maxPayload
	}
	return math.MaxInt
}
