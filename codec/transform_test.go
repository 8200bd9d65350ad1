// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package codec_test

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl2rm/rmstream/codec"
)

func TestTransformIsTransposedReshape(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for _, st := range codec.StreamTypes() {
		buf := make([]byte, st.HeaderSize())
		rnd.Read(buf)
		h, err := codec.ParseHeader(st, buf)
		require.Nil(t, err)
		// Flip all floats to finite values so cmp can compare them.
		for i := range h.Raw {
			h.Raw[i] = rnd.Float32()
		}

		m := codec.Transform(h)
		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				assert.Equal(t, h.Raw[c*4+r], m[r][c], "%s [%d][%d]", st, r, c)
			}
		}
		if diff := cmp.Diff(codec.Reshape(h.Raw), m.Transpose()); diff != "" {
			t.Fatalf("%s: transpose is not an involution (-want +got):\n%s", st, diff)
		}
	}
}

func TestTransformZero(t *testing.T) {
	h := &codec.Header{Stream: codec.Video, Fx: 500, Fy: 500}
	assert.Equal(t, codec.Mat4{}, codec.Transform(h))
}

func TestTransformTranslation(t *testing.T) {
	// Row-vector matrix as written by the device: translation in the last row.
	h := &codec.Header{Stream: codec.AHAT, Raw: [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		3, 4, 5, 1,
	}}
	m := codec.Transform(h)
	assert.Equal(t, codec.Vec3{3, 4, 5}, m.Translation())
	assert.Equal(t, codec.Vec3{4, 5, 6}, m.Apply(codec.Vec3{1, 1, 1}))
	assert.Equal(t, codec.Vec3{1, 2, 3}, codec.Identity().Apply(codec.Vec3{1, 2, 3}))
}

func TestApplyDividesByW(t *testing.T) {
	m := codec.Identity()
	m[3][3] = 2
	assert.Equal(t, codec.Vec3{1, 2, 3}, m.Apply(codec.Vec3{2, 4, 6}))
}
