// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package metrics

// IGauge is the interface that emits gauge metrics.
type IGauge interface {
	// Set sets the gauges absolute value.
	Set(value float64)
}

type gauge struct {
	name string
}

// Set sets the gauge value.
func (g *gauge) Set(v float64) {
	Report(NewSingleDimensionMetrics(g.name, v, PolicySET))
}
