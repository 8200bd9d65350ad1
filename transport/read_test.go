// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package transport_test

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl2rm/rmstream/errs"
	"github.com/hl2rm/rmstream/transport"
)

// chunkReader delivers data in the given chunk sizes, then io.EOF.
type chunkReader struct {
	data   []byte
	chunks []int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := len(r.data)
	if len(r.chunks) > 0 {
		n = r.chunks[0]
		r.chunks = r.chunks[1:]
	}
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

// partition splits n into random positive chunk sizes.
func partition(rnd *rand.Rand, n int) []int {
	var chunks []int
	for n > 0 {
		c := 1 + rnd.Intn(n)
		chunks = append(chunks, c)
		n -= c
	}
	return chunks
}

func TestReadFullReassemblesPartialDeliveries(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := rnd.Intn(4096)
		data := make([]byte, n)
		rnd.Read(data)
		r := &chunkReader{data: append([]byte(nil), data...), chunks: partition(rnd, n)}

		got, err := transport.ReadN(r, n)
		require.Nil(t, err)
		require.True(t, bytes.Equal(data, got), "case %d: bytes reordered or lost", i)
	}
}

func TestReadFullOneByteReader(t *testing.T) {
	data := []byte("0123456789abcdef")
	got, err := transport.ReadN(iotest.OneByteReader(bytes.NewReader(data)), len(data))
	require.Nil(t, err)
	assert.Equal(t, data, got)
}

func TestReadFullLastBytesWithEOF(t *testing.T) {
	data := []byte("frame")
	got, err := transport.ReadN(iotest.DataErrReader(bytes.NewReader(data)), len(data))
	require.Nil(t, err)
	assert.Equal(t, data, got)
}

func TestReadFullZeroBytes(t *testing.T) {
	got, err := transport.ReadN(iotest.ErrReader(io.EOF), 0)
	require.Nil(t, err)
	assert.Empty(t, got)
}

func TestReadFullClosedEarly(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		n := 1 + rnd.Intn(1024)
		k := rnd.Intn(n)
		r := &chunkReader{data: make([]byte, k), chunks: partition(rnd, k)}

		_, err := transport.ReadN(r, n)
		require.NotNil(t, err)
		assert.Equal(t, errs.RetConnectionClosed, errs.Code(err))
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestReadFullTransportError(t *testing.T) {
	boom := errors.New("connection reset by peer")
	_, err := transport.ReadN(iotest.TimeoutReader(iotest.ErrReader(boom)), 8)
	assert.ErrorIs(t, err, errs.ErrConnectionClosed)
	assert.ErrorIs(t, err, boom)
}

type emptyReader struct{ calls int }

func (r *emptyReader) Read([]byte) (int, error) {
	r.calls++
	return 0, nil
}

func TestReadFullNoProgress(t *testing.T) {
	r := &emptyReader{}
	_, err := transport.ReadN(r, 4)
	assert.ErrorIs(t, err, errs.ErrConnectionClosed)
	assert.ErrorIs(t, err, io.ErrNoProgress)
	assert.Equal(t, 100, r.calls)
}
