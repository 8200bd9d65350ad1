// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package admin

import (
	"time"

	"github.com/hl2rm/rmstream/metrics"
)

// Option sets the admin server configuration.
type Option func(*configuration)

// WithAddr sets the listen address, host:port.
func WithAddr(addr string) Option {
	return func(config *configuration) {
		config.addr = addr
	}
}

// WithVersion sets the version reported by /version.
func WithVersion(version string) Option {
	return func(config *configuration) {
		config.version = version
	}
}

// WithReadTimeout sets the read timeout of a request. Non positive values are ignored.
func WithReadTimeout(readTimeout time.Duration) Option {
	return func(config *configuration) {
		if readTimeout > 0 {
			config.readTimeout = readTimeout
		}
	}
}

// WithWriteTimeout sets the write timeout of a response. Non positive values are ignored.
func WithWriteTimeout(writeTimeout time.Duration) Option {
	return func(config *configuration) {
		if writeTimeout > 0 {
			config.writeTimeout = writeTimeout
		}
	}
}

// WithConfigPath sets the config file shown by /cmds/config.
func WithConfigPath(configPath string) Option {
	return func(config *configuration) {
		config.configPath = configPath
	}
}

// WithMetrics sets the sink whose totals are shown by /cmds/metrics.
func WithMetrics(sink *metrics.ConsoleSink) Option {
	return func(config *configuration) {
		config.metrics = sink
	}
}
