// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Package transport reads framed sensor streams off TCP connections: it dials
// the device ports, reads exact byte counts despite partial deliveries and
// splits the byte stream into raw frames.
package transport

import (
	"context"
	"net"
	"time"

	"github.com/hl2rm/rmstream/errs"
)

// DialOptions are the options of establishing one stream connection.
type DialOptions struct {
	Network   string
	Address   string
	LocalAddr string
	Timeout   time.Duration
	// KeepAlive is the TCP keep-alive period, 0 uses the system default, < 0 disables it.
	KeepAlive time.Duration
}

//go:generate mockgen -destination=mocktransport/transport_mock.go -package=mocktransport github.com/hl2rm/rmstream/transport Dialer

// Dialer establishes stream connections.
type Dialer interface {
	Dial(ctx context.Context, opts *DialOptions) (net.Conn, error)
}

// DefaultDialer dials with net.Dialer.
var DefaultDialer Dialer = &netDialer{}

// Dial establishes a connection with the DefaultDialer.
func Dial(ctx context.Context, opts *DialOptions) (net.Conn, error) {
	return DefaultDialer.Dial(ctx, opts)
}

type netDialer struct{}

// Dial connects with the minimum of the ctx deadline and opts.Timeout.
func (*netDialer) Dial(ctx context.Context, opts *DialOptions) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrapf(err, errs.RetDialFail, "transport: canceled before dial %s", opts.Address)
	}
	network := opts.Network
	if network == "" {
		network = "tcp"
	}
	var localAddr net.Addr
	if opts.LocalAddr != "" {
		addr, err := net.ResolveTCPAddr(network, opts.LocalAddr)
		if err != nil {
			return nil, errs.Wrapf(err, errs.RetDialFail, "transport: resolve local addr %s", opts.LocalAddr)
		}
		localAddr = addr
	}
	d := &net.Dialer{
		Timeout:   opts.Timeout,
		LocalAddr: localAddr,
		KeepAlive: opts.KeepAlive,
	}
	conn, err := d.DialContext(ctx, network, opts.Address)
	if err != nil {
		return nil, errs.Wrapf(err, errs.RetDialFail, "transport: dial %s %s", network, opts.Address)
	}
	return conn, nil
}
