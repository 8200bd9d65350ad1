// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package metrics_test

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl2rm/rmstream/metrics"
)

func withConsoleSink(t *testing.T) (*metrics.ConsoleSink, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	sink := metrics.NewConsoleSink(buf)
	metrics.RegisterMetricsSink(sink)
	t.Cleanup(func() { metrics.UnregisterMetricsSink(sink.Name()) })
	return sink, buf
}

func TestCounterAndGauge(t *testing.T) {
	sink, buf := withConsoleSink(t)

	metrics.Counter("rmstream.video.frames").Incr()
	metrics.IncrCounter("rmstream.video.frames", 2)
	metrics.SetGauge("rmstream.video.latency_ms", 33)
	metrics.SetGauge("rmstream.video.latency_ms", 34)

	assert.Equal(t, float64(3), sink.Counter("rmstream.video.frames"))
	v, ok := sink.Gauge("rmstream.video.latency_ms")
	require.True(t, ok)
	assert.Equal(t, float64(34), v)
	_, ok = sink.Gauge("missing")
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "metrics counter[key] = rmstream.video.frames val = 2")

	assert.Same(t, metrics.Counter("rmstream.video.frames"), metrics.Counter("rmstream.video.frames"))
	assert.Same(t, metrics.Gauge("g"), metrics.Gauge("g"))
}

func TestMultiDimensionRecord(t *testing.T) {
	sink, _ := withConsoleSink(t)
	rec := metrics.NewMultiDimensionMetricsX("rmstream",
		[]*metrics.Dimension{{Name: "stream", Value: "ahat"}},
		[]*metrics.Metrics{
			metrics.NewMetrics("frames", 1, metrics.PolicySUM),
			metrics.NewMetrics("bytes", 88+1024, metrics.PolicySUM),
			metrics.NewMetrics("ignored", 1, metrics.PolicyNONE),
		})
	require.Nil(t, metrics.Report(rec))
	require.Nil(t, metrics.Report(rec))

	assert.Equal(t, float64(2), sink.Counter("rmstream.ahat.frames"))
	assert.Equal(t, float64(2*(88+1024)), sink.Counter("rmstream.ahat.bytes"))
	assert.Equal(t, "rmstream", rec.GetName())
	assert.Len(t, rec.GetDimensions(), 1)
	assert.Len(t, rec.GetMetrics(), 3)
}

type failingSink struct{ name string }

func (s *failingSink) Name() string { return s.name }
func (s *failingSink) Report(metrics.Record) error { return errors.New("down") }

func TestReportJoinsSinkErrors(t *testing.T) {
	for _, name := range []string{"a", "b"} {
		metrics.RegisterMetricsSink(&failingSink{name: name})
		defer metrics.UnregisterMetricsSink(name)
	}
	err := metrics.Report(metrics.NewSingleDimensionMetrics("x", 1, metrics.PolicySUM))
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "sink-a: down")
	assert.Contains(t, err.Error(), "sink-b: down")

	s, ok := metrics.GetMetricsSink("a")
	require.True(t, ok)
	assert.Equal(t, "a", s.Name())
}

func TestConsoleSinkSnapshot(t *testing.T) {
	sink := metrics.NewConsoleSink(nil)
	sink.Report(metrics.NewSingleDimensionMetrics("b", 2, metrics.PolicySUM))
	sink.Report(metrics.NewSingleDimensionMetrics("a", 1, metrics.PolicySUM))
	sink.Report(metrics.NewSingleDimensionMetrics("g", 5, metrics.PolicySET))
	out, err := sink.Snapshot()
	require.Nil(t, err)
	assert.JSONEq(t,
		`{"counters":[{"key":"a","value":1},{"key":"b","value":2}],"gauges":[{"key":"g","value":5}]}`,
		string(out))
}

func TestConcurrentReports(t *testing.T) {
	sink := metrics.NewConsoleSink(nil)
	metrics.RegisterMetricsSink(sink)
	defer metrics.UnregisterMetricsSink(sink.Name())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				metrics.IncrCounter("rmstream.rf_vlc.frames", 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, float64(1600), sink.Counter("rmstream.rf_vlc.frames"))
}

func TestNoopSink(t *testing.T) {
	s := &metrics.NoopSink{}
	assert.Equal(t, "noop", s.Name())
	assert.Nil(t, s.Report(metrics.Record{}))
}
