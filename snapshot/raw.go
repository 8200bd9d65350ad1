// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package snapshot

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"github.com/golang/snappy"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/stream"
	"github.com/hl2rm/rmstream/transport"
)

var writerPool = sync.Pool{
	New: func() interface{} {
		return snappy.NewBufferedWriter(nil)
	},
}

// RawWriter writes frames in wire format through a snappy stream, so a
// capture can be replayed byte for byte by the device simulator.
type RawWriter struct {
	sw    *snappy.Writer
	order binary.ByteOrder
	buf   []byte
}

// NewRawWriter creates a RawWriter on w. Depth samples are written in order,
// big endian when nil, which is what the device sends.
func NewRawWriter(w io.Writer, order binary.ByteOrder) *RawWriter {
	if order == nil {
		order = binary.BigEndian
	}
	sw := writerPool.Get().(*snappy.Writer)
	sw.Reset(w)
	return &RawWriter{sw: sw, order: order}
}

// WriteFrame appends one decoded frame.
func (rw *RawWriter) WriteFrame(f *stream.Frame) error {
	if rw.sw == nil {
		return errors.New("snapshot: raw writer closed")
	}
	payload, err := EncodePayload(f.Image, rw.order)
	if err != nil {
		return err
	}
	rw.buf = codec.AppendFrame(rw.buf[:0], &codec.Frame{Header: f.Header, Payload: payload})
	_, err = rw.sw.Write(rw.buf)
	return err
}

// Close flushes the stream and releases the snappy writer. It does not close
// the underlying writer.
func (rw *RawWriter) Close() error {
	if rw.sw == nil {
		return nil
	}
	err := rw.sw.Close()
	rw.sw.Reset(nil)
	writerPool.Put(rw.sw)
	rw.sw = nil
	return err
}

// WriteRaw writes frames to w as one snappy stream.
func WriteRaw(w io.Writer, frames ...*stream.Frame) error {
	return writeRaw(w, nil, frames...)
}

func writeRaw(w io.Writer, order binary.ByteOrder, frames ...*stream.Frame) error {
	rw := NewRawWriter(w, order)
	for _, f := range frames {
		if err := rw.WriteFrame(f); err != nil {
			rw.Close()
			return err
		}
	}
	return rw.Close()
}

// EncodePayload turns a decoded image back into the payload bytes it was
// decoded from, padding included.
func EncodePayload(img codec.Image, order binary.ByteOrder) ([]byte, error) {
	switch m := img.(type) {
	case *codec.ColorImage:
		return m.Pix, nil
	case *codec.DepthImage:
		out := make([]byte, len(m.Pix)*2)
		for i, v := range m.Pix {
			order.PutUint16(out[i*2:], v)
		}
		return out, nil
	default:
		return nil, errors.New("snapshot: unsupported image type")
	}
}

// RawReader reads frames written by RawWriter. It implements codec.Framer.
type RawReader struct {
	br *bufio.Reader
	fr codec.Framer
}

// NewRawReader creates a reader of stream t frames.
func NewRawReader(r io.Reader, t codec.StreamType) *RawReader {
	br := bufio.NewReader(snappy.NewReader(r))
	return &RawReader{br: br, fr: transport.DefaultFramerBuilder.New(br, t)}
}

// ReadFrame returns the next frame, io.EOF at a clean end of the capture.
// A capture ending inside a frame fails with errs.RetConnectionClosed.
func (r *RawReader) ReadFrame() (*codec.Frame, error) {
	if _, err := r.br.Peek(1); err == io.EOF {
		return nil, io.EOF
	}
	return r.fr.ReadFrame()
}

// ReadRaw reads every frame of a capture.
func ReadRaw(r io.Reader, t codec.StreamType) ([]*codec.Frame, error) {
	rr := NewRawReader(r, t)
	var frames []*codec.Frame
	for {
		f, err := rr.ReadFrame()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}
