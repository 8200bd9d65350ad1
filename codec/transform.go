// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package codec

// Mat4 is a row-major 4x4 matrix, m[row][col].
type Mat4 [4][4]float32

// Vec3 is a point in 3D space.
type Vec3 [3]float32

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
}

// Transpose returns the transpose of m.
func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			t[i][j] = m[j][i]
		}
	}
	return t
}

// Apply transforms p as a column vector with w=1 and divides by the
// resulting w when it is neither 0 nor 1.
func (m Mat4) Apply(p Vec3) Vec3 {
	var out [4]float32
	for i := 0; i < 4; i++ {
		out[i] = m[i][0]*p[0] + m[i][1]*p[1] + m[i][2]*p[2] + m[i][3]
	}
	if w := out[3]; w != 0 && w != 1 {
		return Vec3{out[0] / w, out[1] / w, out[2] / w}
	}
	return Vec3{out[0], out[1], out[2]}
}

// Translation returns the translation column of a sensor-to-world matrix,
// the sensor position in world coordinates.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[0][3], m[1][3], m[2][3]}
}

// Reshape lays the 16 wire-order entries of h row by row into a matrix.
func Reshape(raw [TransformFloats]float32) Mat4 {
	var m Mat4
	for i, f := range raw {
		m[i/4][i%4] = f
	}
	return m
}

// Transform extracts the sensor-to-world matrix of h. The device writes a
// row-vector matrix, so the reshaped wire entries are transposed.
func Transform(h *Header) Mat4 {
	return Reshape(h.Raw).Transpose()
}
