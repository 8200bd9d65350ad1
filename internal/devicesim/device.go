// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package devicesim

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/hl2rm/rmstream/codec"
)

// Device is a set of stream servers sharing one host.
type Device struct {
	servers map[codec.StreamType]*Server
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// StartDevice listens for every stream in ports on host and serves them until Close.
// A zero port picks a free one. opts apply to every stream; perStream options are
// applied after them.
func StartDevice(host string, ports map[codec.StreamType]int,
	perStream map[codec.StreamType][]Option, opts ...Option) (*Device, error) {
	d := &Device{servers: make(map[codec.StreamType]*Server, len(ports))}
	for t, port := range ports {
		s, err := Listen(net.JoinHostPort(host, fmt.Sprint(port)), t, append(opts, perStream[t]...)...)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.servers[t] = s
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.group, ctx = errgroup.WithContext(ctx)
	for _, s := range d.servers {
		s := s
		d.group.Go(func() error {
			if err := s.Serve(ctx); !errors.Is(err, net.ErrClosed) {
				return err
			}
			return nil
		})
	}
	return d, nil
}

// Server returns the server of stream t.
func (d *Device) Server(t codec.StreamType) (*Server, bool) {
	s, ok := d.servers[t]
	return s, ok
}

// Ports returns the listening port of every stream.
func (d *Device) Ports() map[codec.StreamType]int {
	ports := make(map[codec.StreamType]int, len(d.servers))
	for t, s := range d.servers {
		ports[t] = s.Port()
	}
	return ports
}

// Close stops every server.
func (d *Device) Close() error {
	var result *multierror.Error
	for _, s := range d.servers {
		if err := s.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if d.cancel != nil {
		d.cancel()
		if err := d.group.Wait(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
