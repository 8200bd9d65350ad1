// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Package snapshot saves decoded frames: images as PNG, captures in raw wire
// format and the frame metadata as JSON.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/errs"
	"github.com/hl2rm/rmstream/stream"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Image converts the frame image into an image.Image: color streams become
// RGBA, depth streams 16-bit gray.
func Image(f *stream.Frame) (image.Image, error) {
	switch m := f.Image.(type) {
	case *codec.ColorImage:
		return m.RGBA(), nil
	case *codec.DepthImage:
		return m.Gray16(), nil
	default:
		return nil, errs.Newf(errs.RetUnknown, "snapshot: %s frame has no image", f.Stream)
	}
}

// WritePNG encodes the frame image as PNG.
func WritePNG(w io.Writer, f *stream.Frame) error {
	img, err := Image(f)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Metadata describes a saved frame.
type Metadata struct {
	Stream      codec.StreamType `json:"stream"`
	Seq         uint64           `json:"seq"`
	Timestamp   int64            `json:"timestamp"`
	Width       uint32           `json:"width"`
	Height      uint32           `json:"height"`
	PixelStride uint32           `json:"pixel_stride"`
	RowStride   uint32           `json:"row_stride"`
	Shape       []int            `json:"shape"`
	Fx          float32          `json:"fx,omitempty"`
	Fy          float32          `json:"fy,omitempty"`
	Transform   codec.Mat4       `json:"transform"`
	ReceivedAt  time.Time        `json:"received_at"`
}

// MetadataOf returns the metadata of f.
func MetadataOf(f *stream.Frame) *Metadata {
	md := &Metadata{
		Stream:      f.Stream,
		Seq:         f.Seq,
		Timestamp:   f.Header.Timestamp,
		Width:       f.Header.Width,
		Height:      f.Header.Height,
		PixelStride: f.Header.PixelStride,
		RowStride:   f.Header.RowStride,
		Fx:          f.Header.Fx,
		Fy:          f.Header.Fy,
		Transform:   f.Transform,
		ReceivedAt:  f.ReceivedAt,
	}
	if f.Image != nil {
		md.Shape = f.Image.Shape()
	}
	return md
}

// WriteMetadata writes the metadata of f as indented JSON.
func WriteMetadata(w io.Writer, f *stream.Frame) error {
	b, err := json.MarshalIndent(MetadataOf(f), "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// Save writes <stream>_<timestamp>.png, .json and .raw into dir and returns their paths.
// Depth samples of the .raw file are written in order, the order the stream
// was decoded with; nil means big endian.
func Save(dir string, f *stream.Frame, order binary.ByteOrder) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	base := filepath.Join(dir, fmt.Sprintf("%s_%d", f.Stream, f.Header.Timestamp))
	writers := []struct {
		ext   string
		write func(io.Writer) error
	}{
		{".png", func(w io.Writer) error { return WritePNG(w, f) }},
		{".json", func(w io.Writer) error { return WriteMetadata(w, f) }},
		{".raw", func(w io.Writer) error { return writeRaw(w, order, f) }},
	}
	paths := make([]string, 0, len(writers))
	for _, wr := range writers {
		path := base + wr.ext
		if err := writeFile(path, wr.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(fd); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}
