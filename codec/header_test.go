// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package codec_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/errs"
)

func TestHeaderSizes(t *testing.T) {
	assert.Equal(t, 96, codec.Video.HeaderSize())
	for _, st := range []codec.StreamType{codec.AHAT, codec.LongThrowDepth, codec.LeftFrontVLC, codec.RightFrontVLC} {
		assert.Equal(t, 88, st.HeaderSize(), st.String())
	}
}

func TestParseHeaderVideo(t *testing.T) {
	b := make([]byte, 0, codec.VideoHeaderSize)
	b = binary.LittleEndian.AppendUint64(b, 1000)
	for _, v := range []uint32{2, 2, 3, 6} {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	for i := 0; i < 18; i++ {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(i)+0.5))
	}

	h, err := codec.ParseHeader(codec.Video, b)
	require.Nil(t, err)
	assert.Equal(t, codec.Video, h.Stream)
	assert.EqualValues(t, 1000, h.Timestamp)
	assert.EqualValues(t, 2, h.Width)
	assert.EqualValues(t, 2, h.Height)
	assert.EqualValues(t, 3, h.PixelStride)
	assert.EqualValues(t, 6, h.RowStride)
	assert.Equal(t, float32(0.5), h.Fx)
	assert.Equal(t, float32(1.5), h.Fy)
	assert.Equal(t, float32(2.5), h.Raw[0])
	assert.Equal(t, float32(17.5), h.Raw[15])
	assert.Equal(t, 12, codec.PayloadSize(h))
	assert.Equal(t, 100*time.Microsecond, h.Time())
}

func TestParseHeaderDepthHasNoFocal(t *testing.T) {
	b := make([]byte, codec.DepthHeaderSize)
	binary.LittleEndian.PutUint32(b[codec.PrefixSize:], math.Float32bits(7))
	h, err := codec.ParseHeader(codec.AHAT, b)
	require.Nil(t, err)
	assert.Zero(t, h.Fx)
	assert.Zero(t, h.Fy)
	assert.Equal(t, float32(7), h.Raw[0])
}

func TestParseHeaderSizeMismatch(t *testing.T) {
	for _, n := range []int{0, codec.DepthHeaderSize, codec.VideoHeaderSize + 1} {
		_, err := codec.ParseHeader(codec.Video, make([]byte, n))
		require.NotNil(t, err)
		assert.Equal(t, errs.RetHeaderSizeMismatch, errs.Code(err))
	}
	_, err := codec.ParseHeader(codec.LongThrowDepth, make([]byte, codec.VideoHeaderSize))
	assert.ErrorIs(t, err, errs.ErrHeaderSizeMismatch)
}

func TestHeaderRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for _, st := range codec.StreamTypes() {
		for i := 0; i < 200; i++ {
			in := make([]byte, st.HeaderSize())
			rnd.Read(in)
			h, err := codec.ParseHeader(st, in)
			require.Nil(t, err)
			out := codec.EncodeHeader(h)
			require.True(t, bytes.Equal(in, out), "%s: round trip changed bytes", st)
		}
	}
}

func TestHeaderRoundTripKeepsNaNBits(t *testing.T) {
	in := make([]byte, codec.DepthHeaderSize)
	binary.LittleEndian.PutUint32(in[codec.PrefixSize:], 0x7fc00123)
	h, err := codec.ParseHeader(codec.AHAT, in)
	require.Nil(t, err)
	assert.True(t, math.IsNaN(float64(h.Raw[0])))
	assert.Equal(t, in, codec.EncodeHeader(h))
}

func TestPayloadSizeIgnoresWidth(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		h := &codec.Header{
			Stream:      codec.Video,
			Width:       rnd.Uint32() % 4096,
			Height:      rnd.Uint32() % 4096,
			PixelStride: rnd.Uint32() % 8,
			RowStride:   rnd.Uint32() % 16384,
		}
		assert.Equal(t, int(h.Height)*int(h.RowStride), codec.PayloadSize(h))
	}
}

func TestPayloadSizeOverflow(t *testing.T) {
	h := &codec.Header{Stream: codec.AHAT, Height: 0xFFFFFFFF, RowStride: 0xFFFFFFFF}
	assert.Equal(t, uint64(0xFFFFFFFF)*0xFFFFFFFF, codec.PayloadBytes(h))
	assert.Equal(t, -1, codec.PayloadSize(h))

	_, err := codec.DecodePayload(h, nil)
	assert.Equal(t, errs.RetPayloadSizeMismatch, errs.Code(err))
}

func TestAppendFrame(t *testing.T) {
	h := &codec.Header{Stream: codec.AHAT, Width: 1, Height: 1, PixelStride: 2, RowStride: 2}
	b := codec.AppendFrame([]byte{0xAA}, &codec.Frame{Header: h, Payload: []byte{1, 2}})
	require.Len(t, b, 1+codec.DepthHeaderSize+2)
	assert.Equal(t, byte(0xAA), b[0])
	assert.Equal(t, []byte{1, 2}, b[len(b)-2:])
}
