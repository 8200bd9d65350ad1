// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package client

import (
	"time"

	"github.com/hl2rm/rmstream/log"
	"github.com/hl2rm/rmstream/stream"
	"github.com/hl2rm/rmstream/transport"
)

// PanicBufLen is the buffer length of the stack trace logged when a decode loop panics.
var PanicBufLen = 1024

// Options are the client options.
type Options struct {
	Dialer transport.Dialer // Dialer opens stream connections, transport.DefaultDialer by default.
	Logger log.Logger
	// LocalAddr is the local address to dial from, empty picks one.
	LocalAddr string
	// StreamOptions are passed to every decoder after the ones derived from config.
	StreamOptions []stream.Option
	// Observers are attached to every decoder.
	Observers []stream.Observer
	// DisableMetrics stops reporting rmstream.<stream>.* metrics.
	DisableMetrics bool
	now            func() time.Time
}

// Option sets client options.
type Option func(*Options)

// WithDialer sets the dialer.
func WithDialer(d transport.Dialer) Option {
	return func(o *Options) {
		o.Dialer = d
	}
}

// WithLogger sets the client logger.
func WithLogger(l log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithLocalAddr sets the local address of every connection.
func WithLocalAddr(addr string) Option {
	return func(o *Options) {
		o.LocalAddr = addr
	}
}

// WithStreamOptions appends decoder options.
func WithStreamOptions(opts ...stream.Option) Option {
	return func(o *Options) {
		o.StreamOptions = append(o.StreamOptions, opts...)
	}
}

// WithObserver attaches an observer to every decoder.
func WithObserver(ob stream.Observer) Option {
	return func(o *Options) {
		o.Observers = append(o.Observers, ob)
	}
}

// WithDisableMetrics disables metrics reporting.
func WithDisableMetrics() Option {
	return func(o *Options) {
		o.DisableMetrics = true
	}
}

// withClock replaces time.Now in staleness checks.
func withClock(now func() time.Time) Option {
	return func(o *Options) {
		o.now = now
	}
}

func newOptions(opt []Option) *Options {
	opts := &Options{
		Dialer: transport.DefaultDialer,
		now:    time.Now,
	}
	for _, o := range opt {
		o(opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.GetDefaultLogger()
		// The default logger skips the frame of the package level helpers.
		if ol, ok := opts.Logger.(log.OptionLogger); ok {
			opts.Logger = ol.WithOptions(log.WithAdditionalCallerSkip(-1))
		}
	}
	return opts
}
