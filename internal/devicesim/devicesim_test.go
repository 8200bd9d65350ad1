// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package devicesim_test

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/errs"
	"github.com/hl2rm/rmstream/internal/devicesim"
	"github.com/hl2rm/rmstream/snapshot"
	"github.com/hl2rm/rmstream/stream"
	"github.com/hl2rm/rmstream/transport"
)

func videoFrame(ts int64) *codec.Frame {
	return &codec.Frame{
		Header: &codec.Header{
			Stream:      codec.Video,
			Timestamp:   ts,
			Width:       2,
			Height:      2,
			PixelStride: 3,
			RowStride:   6,
			Fx:          500,
			Fy:          500,
		},
		Payload: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	}
}

func serve(t *testing.T, typ codec.StreamType, opts ...devicesim.Option) *devicesim.Server {
	t.Helper()
	s, err := devicesim.Listen("127.0.0.1:0", typ, opts...)
	require.Nil(t, err)
	go s.Serve(context.Background())
	t.Cleanup(func() { s.Close() })
	return s
}

func decode(t *testing.T, s *devicesim.Server, typ codec.StreamType) (*stream.Decoder, error) {
	t.Helper()
	conn, err := transport.Dial(context.Background(), &transport.DialOptions{
		Address: s.Addr().String(),
		Timeout: time.Second,
	})
	require.Nil(t, err)
	d := stream.NewDecoder(conn, typ)
	return d, d.Run(context.Background())
}

func TestVideoEndToEnd(t *testing.T) {
	s := serve(t, codec.Video,
		devicesim.WithSource(devicesim.Frames(videoFrame(42))),
		devicesim.WithChunks(5, 0))
	d, err := decode(t, s, codec.Video)
	assert.True(t, errs.Is(err, errs.RetConnectionClosed))

	f, ok := d.Slot().Latest()
	require.True(t, ok)
	assert.Equal(t, int64(42), f.Timestamp())
	assert.Equal(t, []int{2, 2, 3}, f.Image.Shape())
	assert.Equal(t, float32(500), f.Header.Fx)
	assert.Equal(t, float32(500), f.Header.Fy)
	if diff := cmp.Diff(codec.Mat4{}, f.Transform); diff != "" {
		t.Errorf("transform mismatch (-want +got):\n%s", diff)
	}
	img := f.Image.(*codec.ColorImage)
	assert.Equal(t, uint8(11), img.At(1, 1, 2))
}

func TestTruncatedPayload(t *testing.T) {
	// Header announcing 2 rows of 500 bytes, then only 500 payload bytes.
	h := &codec.Header{Stream: codec.AHAT, Width: 250, Height: 2, PixelStride: 2, RowStride: 500}
	f := &codec.Frame{Header: h, Payload: make([]byte, 1000)}
	cut := codec.DepthHeaderSize + 500

	t.Run("nothing published", func(t *testing.T) {
		s := serve(t, codec.AHAT,
			devicesim.WithSource(devicesim.Replay([]*codec.Frame{f}, 0)),
			devicesim.WithTruncate(0, cut))
		d, err := decode(t, s, codec.AHAT)
		assert.True(t, errs.Is(err, errs.RetConnectionClosed))
		assert.Equal(t, stream.Closed, d.State())
		_, ok := d.Slot().Latest()
		assert.False(t, ok)
		assert.Zero(t, d.Frames())
	})
	t.Run("previous frame kept", func(t *testing.T) {
		s := serve(t, codec.AHAT,
			devicesim.WithSource(devicesim.Replay([]*codec.Frame{f}, 0)),
			devicesim.WithChunks(64, 0),
			devicesim.WithTruncate(1, cut))
		d, err := decode(t, s, codec.AHAT)
		assert.True(t, errs.Is(err, errs.RetConnectionClosed))
		got, ok := d.Slot().Latest()
		require.True(t, ok)
		assert.Equal(t, uint64(1), got.Seq)
		assert.Equal(t, int64(0), got.Timestamp())
	})
}

func TestSyntheticStreams(t *testing.T) {
	for _, typ := range codec.StreamTypes() {
		t.Run(typ.String(), func(t *testing.T) {
			s := serve(t, typ, devicesim.WithSource(devicesim.Synthetic(8, 4)), devicesim.WithLimit(3))
			d, err := decode(t, s, typ)
			assert.True(t, errs.Is(err, errs.RetConnectionClosed))
			assert.Equal(t, uint64(3), d.Frames())

			f, ok := d.Slot().Latest()
			require.True(t, ok)
			assert.Equal(t, int64(2*devicesim.TicksPerFrame), f.Timestamp())
			assert.Equal(t, codec.Vec3{2, 0, 0}, f.Transform.Translation())
			if typ.IsDepth() {
				img := f.Image.(*codec.DepthImage)
				assert.Equal(t, []int{4, 8}, img.Shape())
				assert.Equal(t, uint16(9+2), img.At(1, 1))
			} else {
				assert.Equal(t, []int{4, 8, 3}, f.Image.Shape())
			}
		})
	}
}

func TestReplay(t *testing.T) {
	src := devicesim.Replay([]*codec.Frame{videoFrame(10), videoFrame(20)}, 2)(codec.Video)
	var ts []int64
	for {
		f, err := src.Next()
		if err == io.EOF {
			break
		}
		require.Nil(t, err)
		ts = append(ts, f.Header.Timestamp)
	}
	span := int64(10 + devicesim.TicksPerFrame)
	assert.Equal(t, []int64{10, 20, 10 + span, 20 + span}, ts)

	_, err := devicesim.Replay(nil, 0)(codec.Video).Next()
	assert.Equal(t, io.EOF, err)
}

func TestReplayFile(t *testing.T) {
	h := videoFrame(7).Header
	img, err := codec.DecodePayload(h, videoFrame(7).Payload)
	require.Nil(t, err)
	var buf bytes.Buffer
	require.Nil(t, snapshot.WriteRaw(&buf, &stream.Frame{Stream: codec.Video, Header: h, Image: img}))
	path := filepath.Join(t.TempDir(), "video.raw")
	require.Nil(t, os.WriteFile(path, buf.Bytes(), 0644))

	fn, err := devicesim.ReplayFile(path, codec.Video, 1)
	require.Nil(t, err)
	s := serve(t, codec.Video, devicesim.WithSource(fn))
	d, err := decode(t, s, codec.Video)
	assert.True(t, errs.Is(err, errs.RetConnectionClosed))
	f, ok := d.Slot().Latest()
	require.True(t, ok)
	assert.Equal(t, int64(7), f.Timestamp())

	_, err = devicesim.ReplayFile(filepath.Join(t.TempDir(), "missing.raw"), codec.Video, 1)
	assert.NotNil(t, err)
}

func TestDevice(t *testing.T) {
	dev, err := devicesim.StartDevice("127.0.0.1", map[codec.StreamType]int{
		codec.Video: 0,
		codec.AHAT:  0,
	}, map[codec.StreamType][]devicesim.Option{
		codec.AHAT: {devicesim.WithLimit(1)},
	}, devicesim.WithLimit(2))
	require.Nil(t, err)

	ports := dev.Ports()
	require.Len(t, ports, 2)
	assert.NotZero(t, ports[codec.Video])
	s, ok := dev.Server(codec.AHAT)
	require.True(t, ok)
	d, _ := decode(t, s, codec.AHAT)
	assert.Equal(t, uint64(1), d.Frames())

	assert.Nil(t, dev.Close())
	_, err = net.DialTimeout("tcp", s.Addr().String(), 100*time.Millisecond)
	assert.NotNil(t, err)
}

func TestServerCloseStopsWriters(t *testing.T) {
	s, err := devicesim.Listen("127.0.0.1:0", codec.Video, devicesim.WithInterval(time.Millisecond))
	require.Nil(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx) }()

	conn, err := net.Dial("tcp", s.Addr().String())
	require.Nil(t, err)
	defer conn.Close()
	_, err = transport.ReadN(conn, codec.VideoHeaderSize)
	require.Nil(t, err)

	cancel()
	select {
	case err := <-served:
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
}
