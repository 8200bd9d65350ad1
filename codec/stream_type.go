// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package codec

import (
	"fmt"
	"strings"
)

// StreamType identifies which sensor feed a port carries. It fixes the header layout
// and the payload decoding policy of that port.
type StreamType uint8

// The sensor feeds of the device.
const (
	// Video is the photo/video camera, interleaved 8-bit channels.
	Video StreamType = iota + 1
	// AHAT is the short-throw (articulated hand tracking) depth camera.
	AHAT
	// LongThrowDepth is the long-throw depth camera.
	LongThrowDepth
	// LeftFrontVLC is the left-front grayscale visible light camera.
	LeftFrontVLC
	// RightFrontVLC is the right-front grayscale visible light camera.
	RightFrontVLC
)

// SampleKind is the element type of a decoded image buffer.
type SampleKind uint8

// Sample kinds.
const (
	// SampleUint8 is one byte per channel, PixelStride channels per pixel.
	SampleUint8 SampleKind = iota + 1
	// SampleUint16 is a single 16-bit channel per pixel.
	SampleUint16
)

// Wire layout sizes.
const (
	// PrefixSize is timestamp (int64) + Width, Height, PixelStride, RowStride (uint32).
	PrefixSize = 8 + 4*4
	// TransformFloats is the number of trailing float32 entries holding the 4x4 transform.
	TransformFloats = 16
	// VideoLeadingFloats are the focal lengths fx, fy.
	VideoLeadingFloats = 2

	// VideoHeaderSize is the header size of the Video stream.
	VideoHeaderSize = PrefixSize + (VideoLeadingFloats+TransformFloats)*4
	// DepthHeaderSize is the header size of the depth and grayscale streams.
	DepthHeaderSize = PrefixSize + TransformFloats*4
)

// Layout is the fixed wire description of a stream type.
type Layout struct {
	Name          string
	HeaderSize    int
	LeadingFloats int
	Sample        SampleKind
	DefaultPort   int
}

// layouts is indexed by StreamType; index 0 is the invalid type.
var layouts = [...]Layout{
	Video: {
		Name:          "video",
		HeaderSize:    VideoHeaderSize,
		LeadingFloats: VideoLeadingFloats,
		Sample:        SampleUint8,
		DefaultPort:   23940,
	},
	AHAT: {
		Name:        "ahat",
		HeaderSize:  DepthHeaderSize,
		Sample:      SampleUint16,
		DefaultPort: 23941,
	},
	LongThrowDepth: {
		Name:        "long_throw_depth",
		HeaderSize:  DepthHeaderSize,
		Sample:      SampleUint16,
		DefaultPort: 23942,
	},
	LeftFrontVLC: {
		Name:        "lf_vlc",
		HeaderSize:  DepthHeaderSize,
		Sample:      SampleUint16,
		DefaultPort: 23943,
	},
	RightFrontVLC: {
		Name:        "rf_vlc",
		HeaderSize:  DepthHeaderSize,
		Sample:      SampleUint16,
		DefaultPort: 23944,
	},
}

// StreamTypes returns all valid stream types in declaration order.
func StreamTypes() []StreamType {
	return []StreamType{Video, AHAT, LongThrowDepth, LeftFrontVLC, RightFrontVLC}
}

// Valid reports whether t is a known stream type.
func (t StreamType) Valid() bool {
	return t >= Video && int(t) < len(layouts)
}

// Layout returns the wire layout of t. It panics on an invalid type, which can
// only be produced by converting an arbitrary integer.
func (t StreamType) Layout() Layout {
	if !t.Valid() {
		panic(fmt.Sprintf("codec: invalid stream type %d", uint8(t)))
	}
	return layouts[t]
}

// HeaderSize returns the fixed header byte length of t.
func (t StreamType) HeaderSize() int {
	return t.Layout().HeaderSize
}

// IsDepth reports whether t decodes to 16-bit single channel samples.
func (t StreamType) IsDepth() bool {
	return t.Valid() && layouts[t].Sample == SampleUint16
}

// String implements fmt.Stringer.
func (t StreamType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("stream(%d)", uint8(t))
	}
	return layouts[t].Name
}

// MarshalText implements encoding.TextMarshaler.
func (t StreamType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("codec: invalid stream type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so stream types can be
// written by name in yaml, toml and json configs.
func (t *StreamType) UnmarshalText(text []byte) error {
	st, err := ParseStreamType(string(text))
	if err != nil {
		return err
	}
	*t = st
	return nil
}

var streamAliases = map[string]StreamType{
	"pv":              Video,
	"photo_video":     Video,
	"short_throw":     AHAT,
	"longthrow":       LongThrowDepth,
	"long_throw":      LongThrowDepth,
	"left_front_vlc":  LeftFrontVLC,
	"right_front_vlc": RightFrontVLC,
}

// ParseStreamType parses a stream type name, case insensitive. Besides the
// canonical names a few aliases are accepted, such as "pv" for video.
func ParseStreamType(s string) (StreamType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range StreamTypes() {
		if layouts[t].Name == name {
			return t, nil
		}
	}
	if t, ok := streamAliases[name]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("codec: unknown stream type %q", s)
}
