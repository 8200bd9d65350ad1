// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Package metrics forwards stream counters and gauges to the registered sinks.
package metrics

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

var (
	metricsSinksMutex = sync.RWMutex{}
	metricsSinks      = map[string]Sink{}

	countersMutex = sync.RWMutex{}
	counters      = map[string]ICounter{}

	gaugesMutex = sync.RWMutex{}
	gauges      = map[string]IGauge{}
)

// RegisterMetricsSink registers a Sink, replacing the sink of the same name.
func RegisterMetricsSink(sink Sink) {
	metricsSinksMutex.Lock()
	metricsSinks[sink.Name()] = sink
	metricsSinksMutex.Unlock()
}

// UnregisterMetricsSink removes the sink of name.
func UnregisterMetricsSink(name string) {
	metricsSinksMutex.Lock()
	delete(metricsSinks, name)
	metricsSinksMutex.Unlock()
}

// GetMetricsSink gets a Sink by name.
func GetMetricsSink(name string) (Sink, bool) {
	metricsSinksMutex.RLock()
	sink, ok := metricsSinks[name]
	metricsSinksMutex.RUnlock()
	return sink, ok
}

// Counter creates or gets the named counter.
func Counter(name string) ICounter {
	countersMutex.RLock()
	c, ok := counters[name]
	countersMutex.RUnlock()
	if ok {
		return c
	}

	countersMutex.Lock()
	defer countersMutex.Unlock()
	if c, ok = counters[name]; ok {
		return c
	}
	c = &counter{name: name}
	counters[name] = c
	return c
}

// Gauge creates or gets the named gauge.
func Gauge(name string) IGauge {
	gaugesMutex.RLock()
	g, ok := gauges[name]
	gaugesMutex.RUnlock()
	if ok {
		return g
	}

	gaugesMutex.Lock()
	defer gaugesMutex.Unlock()
	if g, ok = gauges[name]; ok {
		return g
	}
	g = &gauge{name: name}
	gauges[name] = g
	return g
}

// IncrCounter increases counter key by value. Counters should accumulate values.
func IncrCounter(key string, value float64) {
	Counter(key).IncrBy(value)
}

// SetGauge sets gauge key to value. An IGauge retains the last set value.
func SetGauge(key string, value float64) {
	Gauge(key).Set(value)
}

// Report reports a record to every sink and joins their errors.
func Report(rec Record) error {
	metricsSinksMutex.RLock()
	defer metricsSinksMutex.RUnlock()
	var result *multierror.Error
	for _, sink := range metricsSinks {
		if err := sink.Report(rec); err != nil {
			result = multierror.Append(result, fmt.Errorf("sink-%s: %w", sink.Name(), err))
		}
	}
	return result.ErrorOrNil()
}
