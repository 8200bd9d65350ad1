// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"

	"github.com/hl2rm/rmstream/client"
	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/healthcheck"
)

// summary describes the latest frame of one stream.
type summary struct {
	Stream    codec.StreamType   `json:"stream"`
	Health    healthcheck.Status `json:"health"`
	Seq       uint64             `json:"seq"`
	Timestamp int64              `json:"timestamp"`
	// Time is the timestamp as a duration since the device epoch.
	Time     string     `json:"time"`
	Shape    []int      `json:"shape,omitempty"`
	Position codec.Vec3 `json:"position"`
	Frames   uint64     `json:"frames"`
	Dropped  uint64     `json:"dropped"`
	Failures uint64     `json:"failures"`
}

func summarize(c *client.Client) []summary {
	stats := c.Stats()
	sums := make([]summary, 0, len(stats))
	for _, st := range stats {
		s := summary{
			Stream:   st.Stream,
			Health:   st.Health,
			Frames:   st.Frames,
			Dropped:  st.Dropped,
			Failures: st.Failures,
		}
		if f, ok := c.Latest(st.Stream); ok {
			s.Seq = f.Seq
			s.Timestamp = f.Timestamp()
			s.Time = f.Header.Time().String()
			s.Shape = f.Image.Shape()
			s.Position = f.Transform.Translation()
		}
		sums = append(sums, s)
	}
	return sums
}

type printer struct {
	w    io.Writer
	json bool
}

func (p *printer) print(sums []summary) error {
	if p.json {
		b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(sums)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(p.w, "%s\n", b)
		return err
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STREAM\tHEALTH\tSEQ\tTIME\tSHAPE\tPOSITION\tFRAMES\tDROPPED")
	for _, s := range sums {
		if s.Seq == 0 {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t%d\t%d\n", s.Stream, s.Health, s.Frames, s.Dropped)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%v\t%.3f,%.3f,%.3f\t%d\t%d\n",
			s.Stream, s.Health, s.Seq, s.Time, s.Shape,
			s.Position[0], s.Position[1], s.Position[2], s.Frames, s.Dropped)
	}
	return tw.Flush()
}
