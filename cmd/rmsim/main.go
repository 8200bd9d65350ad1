// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Command rmsim serves synthetic or recorded research mode streams on the
// well known ports, so rmclient can run without a device.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/internal/devicesim"
	"github.com/hl2rm/rmstream/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "rmsim:", err)
		os.Exit(1)
	}
}

type flags struct {
	host    string
	streams string
	width   int
	height  int
	fps     float64
	chunk   int
	frames  int
	replay  string
	loops   int
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("rmsim", flag.ContinueOnError)
	fs.StringVar(&f.host, "host", "127.0.0.1", "listen host")
	fs.StringVar(&f.streams, "streams", "video,ahat,long_throw_depth,lf_vlc,rf_vlc", "comma separated streams to serve")
	fs.IntVar(&f.width, "width", 320, "synthetic image width")
	fs.IntVar(&f.height, "height", 288, "synthetic image height")
	fs.Float64Var(&f.fps, "fps", 30, "frames per second, 0 sends as fast as possible")
	fs.IntVar(&f.chunk, "chunk", 0, "split writes into chunks of this many bytes")
	fs.IntVar(&f.frames, "frames", 0, "close connections after this many frames, 0 never")
	fs.StringVar(&f.replay, "replay", "", "raw capture to replay instead of synthetic frames, needs a single stream")
	fs.IntVar(&f.loops, "loops", 0, "replay loops, 0 forever")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func parseStreams(s string) ([]codec.StreamType, error) {
	var types []codec.StreamType
	for _, name := range strings.Split(s, ",") {
		t, err := codec.ParseStreamType(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func options(f *flags, types []codec.StreamType) ([]devicesim.Option, error) {
	opts := []devicesim.Option{
		devicesim.WithSource(devicesim.Synthetic(f.width, f.height)),
		devicesim.WithChunks(f.chunk, 0),
		devicesim.WithLimit(f.frames),
	}
	if f.fps > 0 {
		opts = append(opts, devicesim.WithInterval(time.Duration(float64(time.Second)/f.fps)))
	}
	if f.replay != "" {
		if len(types) != 1 {
			return nil, errors.New("-replay needs exactly one stream")
		}
		src, err := devicesim.ReplayFile(f.replay, types[0], f.loops)
		if err != nil {
			return nil, err
		}
		opts = append(opts, devicesim.WithSource(src))
	}
	return opts, nil
}

func run(ctx context.Context, args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	types, err := parseStreams(f.streams)
	if err != nil {
		return err
	}
	opts, err := options(f, types)
	if err != nil {
		return err
	}
	ports := make(map[codec.StreamType]int, len(types))
	for _, t := range types {
		ports[t] = t.Layout().DefaultPort
	}
	dev, err := devicesim.StartDevice(f.host, ports, nil, opts...)
	if err != nil {
		return err
	}
	for t, port := range dev.Ports() {
		log.Infof("serving %s on %s:%d", t, f.host, port)
	}
	<-ctx.Done()
	return dev.Close()
}
