// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package codec

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/hl2rm/rmstream/errs"
)

// Image is a decoded payload buffer. Its memory is owned by the image.
type Image interface {
	// Shape returns (Height, Width, Channels) for color images and (Height, Width) for depth.
	Shape() []int
	// ByteLen is the number of payload bytes the buffer was decoded from,
	// row padding included.
	ByteLen() int
}

// ColorImage holds interleaved 8-bit samples. Row y starts at Pix[y*Stride];
// bytes past Width*Channels in a row are padding.
type ColorImage struct {
	Pix      []uint8
	Width    int
	Height   int
	Channels int
	Stride   int
}

// Shape implements Image.
func (m *ColorImage) Shape() []int { return []int{m.Height, m.Width, m.Channels} }

// ByteLen implements Image.
func (m *ColorImage) ByteLen() int { return len(m.Pix) }

// At returns channel c of the pixel at column x, row y.
func (m *ColorImage) At(x, y, c int) uint8 {
	return m.Pix[y*m.Stride+x*m.Channels+c]
}

// Row returns the samples of row y without padding.
func (m *ColorImage) Row(y int) []uint8 {
	off := y * m.Stride
	return m.Pix[off : off+m.Width*m.Channels]
}

// RGBA converts the image, whose channels are in BGR(A) order as sent by the
// camera, into an *image.RGBA. Single channel images are expanded to gray.
func (m *ColorImage) RGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		row := m.Row(y)
		for x := 0; x < m.Width; x++ {
			px := row[x*m.Channels : (x+1)*m.Channels]
			c := color.RGBA{A: 0xff}
			switch len(px) {
			case 0:
			case 1, 2:
				c.R, c.G, c.B = px[0], px[0], px[0]
			default:
				c.B, c.G, c.R = px[0], px[1], px[2]
				if len(px) > 3 {
					c.A = px[3]
				}
			}
			dst.SetRGBA(x, y, c)
		}
	}
	return dst
}

// DepthImage holds single channel 16-bit samples. Row y starts at Pix[y*Stride],
// Stride counts samples, not bytes.
type DepthImage struct {
	Pix    []uint16
	Width  int
	Height int
	Stride int
}

// Shape implements Image.
func (m *DepthImage) Shape() []int { return []int{m.Height, m.Width} }

// ByteLen implements Image.
func (m *DepthImage) ByteLen() int { return len(m.Pix) * 2 }

// At returns the sample at column x, row y.
func (m *DepthImage) At(x, y int) uint16 {
	return m.Pix[y*m.Stride+x]
}

// Row returns the samples of row y without padding.
func (m *DepthImage) Row(y int) []uint16 {
	off := y * m.Stride
	return m.Pix[off : off+m.Width]
}

// Gray16 converts the image into an *image.Gray16.
func (m *DepthImage) Gray16() *image.Gray16 {
	dst := image.NewGray16(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x, v := range m.Row(y) {
			dst.SetGray16(x, y, color.Gray16{Y: v})
		}
	}
	return dst
}

// DecodeOptions tunes payload decoding.
type DecodeOptions struct {
	// SampleOrder is the byte order of 16-bit samples. The device writes the
	// high byte first, so the default is big endian.
	SampleOrder binary.ByteOrder
}

// DecodeOption modifies DecodeOptions.
type DecodeOption func(*DecodeOptions)

// WithSampleOrder sets the byte order of 16-bit samples.
func WithSampleOrder(order binary.ByteOrder) DecodeOption {
	return func(o *DecodeOptions) {
		if order != nil {
			o.SampleOrder = order
		}
	}
}

// DecodePayload reinterprets payload as the image buffer of h.Stream.
// For color streams the returned image takes ownership of payload; depth
// streams convert it into a fresh []uint16.
func DecodePayload(h *Header, payload []byte, opts ...DecodeOption) (Image, error) {
	o := DecodeOptions{SampleOrder: binary.BigEndian}
	for _, opt := range opts {
		opt(&o)
	}
	if len(payload) != PayloadSize(h) {
		return nil, errs.Newf(errs.RetPayloadSizeMismatch,
			"codec: %s payload needs %d bytes (%d rows x %d), got %d",
			h.Stream, PayloadBytes(h), h.Height, h.RowStride, len(payload))
	}
	width, height, stride := int(h.Width), int(h.Height), int(h.RowStride)

	switch h.Stream.Layout().Sample {
	case SampleUint8:
		channels := int(h.PixelStride)
		if width*channels > stride {
			return nil, errs.Newf(errs.RetPayloadSizeMismatch,
				"codec: %s row stride %d cannot hold %d pixels of %d channels", h.Stream, stride, width, channels)
		}
		return &ColorImage{
			Pix:      payload,
			Width:    width,
			Height:   height,
			Channels: channels,
			Stride:   stride,
		}, nil
	default:
		if stride%2 != 0 || width*2 > stride {
			return nil, errs.Newf(errs.RetPayloadSizeMismatch,
				"codec: %s row stride %d cannot hold %d 16-bit samples", h.Stream, stride, width)
		}
		pix := make([]uint16, len(payload)/2)
		for i := range pix {
			pix[i] = o.SampleOrder.Uint16(payload[i*2:])
		}
		return &DepthImage{
			Pix:    pix,
			Width:  width,
			Height: height,
			Stride: stride / 2,
		}, nil
	}
}
