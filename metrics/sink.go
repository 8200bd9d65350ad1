// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package metrics

// Policy is the metrics aggregation policy.
type Policy int

// All available Policy(s).
const (
	PolicyNONE = 0 // Undefined
	PolicySET  = 1 // instantaneous value
	PolicySUM  = 2 // summary
)

// Sink defines the interface an external monitor system should provide.
type Sink interface {
	// Name returns the name of the monitor system.
	Name() string
	// Report reports a record to monitor system.
	Report(rec Record) error
}

// Record is a named group of metrics sharing the same dimensions, e.g. stream=ahat.
type Record struct {
	Name       string
	dimensions []*Dimension
	metrics    []*Metrics
}

// Dimension defines the dimension.
type Dimension struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// GetName returns the record name.
func (r *Record) GetName() string {
	return r.Name
}

// GetDimensions returns dimensions.
func (r *Record) GetDimensions() []*Dimension {
	if r == nil {
		return nil
	}
	return r.dimensions
}

// GetMetrics returns metrics.
func (r *Record) GetMetrics() []*Metrics {
	if r == nil {
		return nil
	}
	return r.metrics
}

// NewSingleDimensionMetrics creates a Record with no dimension and only one metric.
func NewSingleDimensionMetrics(name string, value float64, policy Policy) Record {
	return Record{
		metrics: []*Metrics{{name: name, value: value, policy: policy}},
	}
}

// NewMultiDimensionMetricsX creates a named Record with multiple dimensions and metrics.
func NewMultiDimensionMetricsX(name string, dimensions []*Dimension, metrics []*Metrics) Record {
	return Record{
		Name:       name,
		dimensions: dimensions,
		metrics:    metrics,
	}
}

// Metrics defines the metric.
type Metrics struct {
	name   string
	value  float64
	policy Policy
}

// NewMetrics creates a new Metrics.
func NewMetrics(name string, value float64, policy Policy) *Metrics {
	return &Metrics{name, value, policy}
}

// Name returns the metrics name.
func (m *Metrics) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// Value returns the metrics value.
func (m *Metrics) Value() float64 {
	if m == nil {
		return 0
	}
	return m.value
}

// Policy returns the metrics policy.
func (m *Metrics) Policy() Policy {
	if m == nil {
		return PolicyNONE
	}
	return m.policy
}
