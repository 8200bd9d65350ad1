// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package transport_test

import (
	"bytes"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/errs"
	"github.com/hl2rm/rmstream/transport"
)

func depthFrame(ts int64, payload []byte) *codec.Frame {
	return &codec.Frame{
		Header: &codec.Header{
			Stream:      codec.AHAT,
			Timestamp:   ts,
			Width:       uint32(len(payload) / 2),
			Height:      1,
			PixelStride: 2,
			RowStride:   uint32(len(payload)),
		},
		Payload: payload,
	}
}

func TestFramerReadsBackToBackFrames(t *testing.T) {
	var wire []byte
	wire = codec.AppendFrame(wire, depthFrame(1, []byte{1, 2, 3, 4}))
	wire = codec.AppendFrame(wire, depthFrame(2, []byte{5, 6}))

	fr := transport.DefaultFramerBuilder.New(iotest.HalfReader(bytes.NewReader(wire)), codec.AHAT)
	f, err := fr.ReadFrame()
	require.Nil(t, err)
	assert.EqualValues(t, 1, f.Header.Timestamp)
	assert.Equal(t, []byte{1, 2, 3, 4}, f.Payload)

	f, err = fr.ReadFrame()
	require.Nil(t, err)
	assert.EqualValues(t, 2, f.Header.Timestamp)
	assert.Equal(t, []byte{5, 6}, f.Payload)

	_, err = fr.ReadFrame()
	assert.ErrorIs(t, err, errs.ErrConnectionClosed)
}

func TestFramerTruncatedPayload(t *testing.T) {
	h := &codec.Header{Stream: codec.AHAT, Width: 50, Height: 10, PixelStride: 2, RowStride: 100}
	wire := append(codec.EncodeHeader(h), make([]byte, 500)...)

	fr := transport.DefaultFramerBuilder.New(bytes.NewReader(wire), codec.AHAT)
	_, err := fr.ReadFrame()
	require.NotNil(t, err)
	assert.Equal(t, errs.RetConnectionClosed, errs.Code(err))
}

func TestFramerTruncatedHeader(t *testing.T) {
	fr := transport.DefaultFramerBuilder.New(bytes.NewReader(make([]byte, 40)), codec.Video)
	_, err := fr.ReadFrame()
	assert.ErrorIs(t, err, errs.ErrConnectionClosed)
}

func TestFramerPayloadLimit(t *testing.T) {
	h := &codec.Header{Stream: codec.Video, Width: 1000, Height: 1000, PixelStride: 4, RowStride: 4000}
	fb := &transport.FramerBuilder{MaxPayload: 1 << 20}
	fr := fb.New(bytes.NewReader(codec.EncodeHeader(h)), codec.Video)
	_, err := fr.ReadFrame()
	require.NotNil(t, err)
	assert.Equal(t, errs.RetPayloadSizeMismatch, errs.Code(err))
}

func TestFramerPayloadOverflow(t *testing.T) {
	h := &codec.Header{Stream: codec.AHAT, Width: 1, Height: 0xFFFFFFFF, PixelStride: 2, RowStride: 0xFFFFFFFF}
	for _, limit := range []int{0, transport.DefaultMaxPayload} {
		fb := &transport.FramerBuilder{MaxPayload: limit}
		fr := fb.New(bytes.NewReader(codec.EncodeHeader(h)), codec.AHAT)
		_, err := fr.ReadFrame()
		require.NotNil(t, err)
		assert.Equal(t, errs.RetPayloadSizeMismatch, errs.Code(err))
	}
}
