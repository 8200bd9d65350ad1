// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package codec

import (
	"bufio"
	"io"
)

// DefaultReaderSize is the default read buffer size in bytes of a stream connection.
const DefaultReaderSize = 4 * 1024

// NewReaderSize returns a reader with a read buffer of size bytes. Size <= 0 means no buffer.
func NewReaderSize(r io.Reader, size int) io.Reader {
	if size <= 0 {
		return r
	}
	return bufio.NewReaderSize(r, size)
}

// NewReader returns a reader with the default buffer size.
func NewReader(r io.Reader) io.Reader {
	return NewReaderSize(r, DefaultReaderSize)
}

// Frame is one raw frame read off a stream: the parsed header and the
// undecoded payload of PayloadSize(Header) bytes.
type Frame struct {
	Header  *Header
	Payload []byte
}

// FramerBuilder builds a Framer per stream connection.
type FramerBuilder interface {
	New(r io.Reader, t StreamType) Framer
}

// Framer reads one raw frame at a time. A Framer is bound to a single
// connection and is not safe for concurrent use.
type Framer interface {
	ReadFrame() (*Frame, error)
}

// AppendFrame appends the wire form of f (header then payload) to dst.
func AppendFrame(dst []byte, f *Frame) []byte {
	dst = AppendHeader(dst, f.Header)
	return append(dst, f.Payload...)
}
