// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package metrics

import (
	"fmt"
	"io"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// NewConsoleSink creates a ConsoleSink which keeps totals in memory and
// prints every report to w. A nil w only keeps the totals.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{
		w:        w,
		counters: make(map[string]float64),
		gauges:   make(map[string]float64),
	}
}

// ConsoleSink defines the console sink.
type ConsoleSink struct {
	w io.Writer

	mu       sync.RWMutex
	counters map[string]float64
	gauges   map[string]float64
}

// Name returns console sink name.
func (c *ConsoleSink) Name() string {
	return "console"
}

// Report reports a record. Metrics of a dimensioned record are keyed
// by record name, dimension values and metric name joined with dots.
func (c *ConsoleSink) Report(rec Record) error {
	prefix := rec.GetName()
	for _, d := range rec.GetDimensions() {
		prefix = join(prefix, d.Value)
	}
	for _, m := range rec.GetMetrics() {
		key := join(prefix, m.Name())
		switch m.Policy() {
		case PolicySUM:
			c.mu.Lock()
			c.counters[key] += m.Value()
			c.mu.Unlock()
			c.printf("metrics counter[key] = %s val = %v\n", key, m.Value())
		case PolicySET:
			c.mu.Lock()
			c.gauges[key] = m.Value()
			c.mu.Unlock()
			c.printf("metrics gauge[key] = %s val = %v\n", key, m.Value())
		default:
			// not supported policies
		}
	}
	return nil
}

// Counter returns the accumulated value of a counter.
func (c *ConsoleSink) Counter(key string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[key]
}

// Gauge returns the last value of a gauge.
func (c *ConsoleSink) Gauge(key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.gauges[key]
	return v, ok
}

// Snapshot returns all counters and gauges as JSON with sorted keys.
func (c *ConsoleSink) Snapshot() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	type kv struct {
		Key   string  `json:"key"`
		Value float64 `json:"value"`
	}
	sorted := func(m map[string]float64) []kv {
		out := make([]kv, 0, len(m))
		for k, v := range m {
			out = append(out, kv{k, v})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
		return out
	}
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(struct {
		Counters []kv `json:"counters"`
		Gauges   []kv `json:"gauges"`
	}{sorted(c.counters), sorted(c.gauges)})
}

func (c *ConsoleSink) printf(format string, args ...interface{}) {
	if c.w != nil {
		fmt.Fprintf(c.w, format, args...)
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
