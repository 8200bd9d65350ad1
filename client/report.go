// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package client

import (
	"go.uber.org/atomic"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/healthcheck"
	"github.com/hl2rm/rmstream/metrics"
	"github.com/hl2rm/rmstream/stream"
)

// MetricsPrefix prefixes every metric reported by the client.
const MetricsPrefix = "rmstream"

// Metric names, each prefixed with MetricsPrefix and the stream name.
const (
	MetricFrames    = "frames"
	MetricBytes     = "bytes"
	MetricFailures  = "failures"
	MetricLatencyMs = "latency_ms"
)

// MetricName returns the full name of metric m of stream t.
func MetricName(t codec.StreamType, m string) string {
	return MetricsPrefix + "." + t.String() + "." + m
}

// reporter observes the decoders of one stream, across restarts. It keeps
// the totals, reports metrics and drives the health status.
type reporter struct {
	stream  codec.StreamType
	update  func(healthcheck.Status)
	metrics bool

	frames     atomic.Uint64
	bytes      atomic.Uint64
	failures   atomic.Uint64
	lastTS     atomic.Int64
	lastRecvNs atomic.Int64

	frameCounter, bytesCounter, failureCounter metrics.ICounter
	latencyGauge                               metrics.IGauge
}

func newReporter(t codec.StreamType, update func(healthcheck.Status), enableMetrics bool) *reporter {
	r := &reporter{stream: t, update: update, metrics: enableMetrics}
	if enableMetrics {
		r.frameCounter = metrics.Counter(MetricName(t, MetricFrames))
		r.bytesCounter = metrics.Counter(MetricName(t, MetricBytes))
		r.failureCounter = metrics.Counter(MetricName(t, MetricFailures))
		r.latencyGauge = metrics.Gauge(MetricName(t, MetricLatencyMs))
	}
	return r
}

// OnFrame implements stream.Observer.
func (r *reporter) OnFrame(f *stream.Frame) {
	n := uint64(f.Stream.HeaderSize()) + codec.PayloadBytes(f.Header)
	recv := f.ReceivedAt.UnixNano()
	prev := r.lastRecvNs.Swap(recv)
	r.lastTS.Store(f.Header.Timestamp)
	r.update(healthcheck.Serving)
	if r.metrics {
		r.frameCounter.Incr()
		r.bytesCounter.IncrBy(float64(n))
		if prev != 0 {
			r.latencyGauge.Set(float64(recv-prev) / 1e6)
		}
	}
	// Totals last, so a reader seeing them also sees the status and metrics.
	r.bytes.Add(n)
	r.frames.Inc()
}

// OnClose implements stream.Observer.
func (r *reporter) OnClose(err error) {
	r.update(healthcheck.NotServing)
	if err == nil {
		return
	}
	if r.metrics {
		r.failureCounter.Incr()
	}
	r.failures.Inc()
}
