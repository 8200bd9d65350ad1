// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package admin

import (
	"time"

	"github.com/hl2rm/rmstream/metrics"
)

const (
	defaultListenAddr   = "127.0.0.1:9028"
	defaultReadTimeout  = time.Second * 3
	defaultWriteTimeout = time.Second * 60
)

func newDefaultConfig() *configuration {
	return &configuration{
		addr:         defaultListenAddr,
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
	}
}

type configuration struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	version      string
	configPath   string
	metrics      *metrics.ConsoleSink
}
