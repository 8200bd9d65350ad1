// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Package client opens every configured sensor stream of a device and runs
// one independent decoder per stream.
package client

import (
	"context"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/config"
	"github.com/hl2rm/rmstream/errs"
	"github.com/hl2rm/rmstream/healthcheck"
	"github.com/hl2rm/rmstream/log"
	"github.com/hl2rm/rmstream/stream"
	"github.com/hl2rm/rmstream/transport"
)

type clientState int

const (
	stateIdle clientState = iota
	stateConnected
	stateStarted
	stateClosed
)

var (
	errNotIdle      = errs.New(errs.RetUnknown, "client: already connected")
	errNotConnected = errs.New(errs.RetUnknown, "client: not connected")
	errNotStarted   = errs.New(errs.RetUnknown, "client: not started")
	errClosed       = errs.New(errs.RetUnknown, "client: closed")
)

// Client owns the connections and decoders of every configured stream.
type Client struct {
	cfg    *config.Config
	opts   *Options
	health *healthcheck.HealthCheck
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   clientState
	streams []*streamState
	byType  map[codec.StreamType]*streamState
	pool    *ants.PoolWithFunc
	wg      sync.WaitGroup
}

// streamState lives as long as the client. Its slot and totals survive restarts.
type streamState struct {
	cfg      config.StreamConfig
	slot     *stream.Slot
	reporter *reporter
	dec      *stream.Decoder // guarded by Client.mu

	restartMu sync.Mutex
}

// New creates a client for cfg, which must have been repaired.
func New(cfg *config.Config, opt ...Option) *Client {
	opts := newOptions(opt)
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:    cfg,
		opts:   opts,
		health: healthcheck.New(healthcheck.WithUnregisteredStatus(healthcheck.NotServing)),
		ctx:    ctx,
		cancel: cancel,
		byType: make(map[codec.StreamType]*streamState, len(cfg.Streams)),
	}
	for _, sc := range cfg.Streams {
		update, err := c.health.Register(sc.Type.String())
		if err != nil {
			// Repaired configs have unique streams.
			continue
		}
		st := &streamState{
			cfg:      sc,
			slot:     stream.NewSlot(),
			reporter: newReporter(sc.Type, update, !opts.DisableMetrics),
		}
		c.streams = append(c.streams, st)
		c.byType[sc.Type] = st
	}
	return c
}

// Connect dials every stream concurrently. If any dial fails, the
// connections already opened are closed and the dial errors are returned joined.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateIdle {
		if c.state == stateClosed {
			return errClosed
		}
		return errNotIdle
	}

	conns := make([]net.Conn, len(c.streams))
	dialErrs := make([]error, len(c.streams))
	g, gctx := errgroup.WithContext(ctx)
	for i, st := range c.streams {
		i, st := i, st
		g.Go(func() error {
			conns[i], dialErrs[i] = c.dial(gctx, st)
			return dialErrs[i]
		})
	}
	if err := g.Wait(); err != nil {
		var result *multierror.Error
		for i, conn := range conns {
			if conn != nil {
				conn.Close()
			}
			if dialErrs[i] != nil {
				result = multierror.Append(result, dialErrs[i])
			}
		}
		c.opts.Logger.Errorf("connect %s failed: %v", c.cfg.Host, result)
		return result.ErrorOrNil()
	}
	for i, st := range c.streams {
		st.dec = c.newDecoder(conns[i], st)
	}
	c.state = stateConnected
	c.opts.Logger.Infof("connected %d streams of %s", len(c.streams), c.cfg.Host)
	return nil
}

func (c *Client) dial(ctx context.Context, st *streamState) (net.Conn, error) {
	addr := c.cfg.Address(&st.cfg)
	c.opts.Logger.Debugf("dialing stream %s at %s", st.cfg.Type, addr)
	return c.opts.Dialer.Dial(ctx, &transport.DialOptions{
		Network:   "tcp",
		Address:   addr,
		LocalAddr: c.opts.LocalAddr,
		Timeout:   c.cfg.DialTimeout.Std(),
	})
}

func (c *Client) newDecoder(conn net.Conn, st *streamState) *stream.Decoder {
	logger := c.opts.Logger.With(
		log.Field{Key: "stream", Value: st.cfg.Type.String()},
		log.Field{Key: "addr", Value: c.cfg.Address(&st.cfg)},
	)
	opts := []stream.Option{
		stream.WithSlot(st.slot),
		stream.WithSampleOrder(st.cfg.ByteOrder()),
		stream.WithReaderSize(c.cfg.ReadBuffer),
		stream.WithMaxPayload(c.cfg.MaxPayload),
		stream.WithLogger(logger),
		stream.WithObserver(st.reporter),
	}
	for _, ob := range c.opts.Observers {
		opts = append(opts, stream.WithObserver(ob))
	}
	return stream.NewDecoder(conn, st.cfg.Type, append(opts, c.opts.StreamOptions...)...)
}

// Start runs every decoder on a goroutine pool sized to the stream count.
// Decoders are independent: a failing stream never stops its siblings.
func (c *Client) Start() error {
	c.mu.Lock()
	switch c.state {
	case stateIdle:
		c.mu.Unlock()
		return errNotConnected
	case stateStarted:
		c.mu.Unlock()
		return nil
	case stateClosed:
		c.mu.Unlock()
		return errClosed
	}
	pool, err := ants.NewPoolWithFunc(len(c.streams), func(arg interface{}) {
		c.run(arg.(*stream.Decoder))
	})
	if err != nil {
		c.mu.Unlock()
		return errs.Wrap(err, errs.RetUnknown, "client: create decoder pool")
	}
	c.pool = pool
	decs := make([]*stream.Decoder, 0, len(c.streams))
	for _, st := range c.streams {
		decs = append(decs, st.dec)
	}
	// Added under c.mu, so Close never waits on a group it raced with.
	c.wg.Add(len(decs))
	c.state = stateStarted
	c.mu.Unlock()

	var result *multierror.Error
	for _, dec := range decs {
		if err := c.invoke(dec); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// invoke hands dec to the pool. The caller has already added dec to c.wg and
// must not hold c.mu, since Invoke blocks while every worker is busy.
func (c *Client) invoke(dec *stream.Decoder) error {
	if err := c.pool.Invoke(dec); err != nil {
		c.wg.Done()
		dec.Close()
		return errs.Wrapf(err, errs.RetUnknown, "client: start stream %s", dec.Stream())
	}
	return nil
}

func (c *Client) run(dec *stream.Decoder) {
	defer func() {
		if err := recover(); err != nil {
			buf := make([]byte, PanicBufLen)
			buf = buf[:runtime.Stack(buf, false)]
			c.opts.Logger.Errorf("[PANIC] stream %s: %v\n%s\n", dec.Stream(), err, buf)
			dec.Close()
		}
		c.wg.Done()
	}()
	dec.Run(c.ctx)
}

// Restart replaces the decoder of stream t: the current connection is
// closed, a fresh one is dialed and a new decoder publishes into the same slot.
// Restarts of one stream run one at a time.
func (c *Client) Restart(ctx context.Context, t codec.StreamType) error {
	st, ok := c.byType[t]
	if !ok {
		return errs.Newf(errs.RetUnknown, "client: stream %s not configured", t)
	}
	st.restartMu.Lock()
	defer st.restartMu.Unlock()

	c.mu.Lock()
	if c.state != stateStarted {
		state := c.state
		c.mu.Unlock()
		if state == stateClosed {
			return errClosed
		}
		return errNotStarted
	}
	old := st.dec
	c.mu.Unlock()

	old.Close()
	select {
	case <-old.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	conn, err := c.dial(ctx, st)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		conn.Close()
		return errClosed
	}
	dec := c.newDecoder(conn, st)
	st.dec = dec
	c.wg.Add(1)
	c.mu.Unlock()

	c.opts.Logger.Infof("stream %s restarted", t)
	return c.invoke(dec)
}

// Streams returns the configured stream types in config order.
func (c *Client) Streams() []codec.StreamType {
	types := make([]codec.StreamType, 0, len(c.streams))
	for _, st := range c.streams {
		types = append(types, st.cfg.Type)
	}
	return types
}

// Latest returns the most recent frame of stream t. It never blocks.
func (c *Client) Latest(t codec.StreamType) (*stream.Frame, bool) {
	st, ok := c.byType[t]
	if !ok {
		return nil, false
	}
	return st.slot.Latest()
}

// HealthCheck returns the health registry, streams are registered by name.
func (c *Client) HealthCheck() *healthcheck.HealthCheck {
	return c.health
}

// Health returns the status of every stream. A serving stream without a frame
// for longer than stale_after is marked not serving until the next frame.
func (c *Client) Health() map[codec.StreamType]healthcheck.Status {
	out := make(map[codec.StreamType]healthcheck.Status, len(c.streams))
	for _, st := range c.streams {
		out[st.cfg.Type] = c.checkStream(st)
	}
	return out
}

func (c *Client) checkStream(st *streamState) healthcheck.Status {
	status := c.health.CheckStream(st.cfg.Type.String())
	if status != healthcheck.Serving {
		return status
	}
	last := st.reporter.lastRecvNs.Load()
	if last != 0 && c.opts.now().Sub(time.Unix(0, last)) > c.cfg.StaleAfter.Std() {
		st.reporter.update(healthcheck.NotServing)
		return healthcheck.NotServing
	}
	return status
}

// Stats are the counters of one stream, accumulated across restarts.
type Stats struct {
	Stream   codec.StreamType   `json:"stream"`
	State    string             `json:"state"`
	Health   healthcheck.Status `json:"health"`
	Frames   uint64             `json:"frames"`
	Bytes    uint64             `json:"bytes"`
	Dropped  uint64             `json:"dropped"`
	Failures uint64             `json:"failures"`
	// LastTimestamp is the capture timestamp of the latest frame in 100ns ticks.
	LastTimestamp int64     `json:"last_timestamp"`
	LastReceived  time.Time `json:"last_received"`
}

// Stats returns the stats of every stream in config order.
func (c *Client) Stats() []Stats {
	c.mu.Lock()
	states := make([]string, len(c.streams))
	for i, st := range c.streams {
		states[i] = "idle"
		if st.dec != nil {
			states[i] = st.dec.State().String()
		}
	}
	c.mu.Unlock()

	out := make([]Stats, 0, len(c.streams))
	for i, st := range c.streams {
		s := Stats{
			Stream:        st.cfg.Type,
			State:         states[i],
			Health:        c.checkStream(st),
			Frames:        st.reporter.frames.Load(),
			Bytes:         st.reporter.bytes.Load(),
			Dropped:       st.slot.Dropped(),
			Failures:      st.reporter.failures.Load(),
			LastTimestamp: st.reporter.lastTS.Load(),
		}
		if ns := st.reporter.lastRecvNs.Load(); ns != 0 {
			s.LastReceived = time.Unix(0, ns)
		}
		out = append(out, s)
	}
	return out
}

// Wait blocks until every started decode loop has exited.
func (c *Client) Wait() {
	c.wg.Wait()
}

// Close closes every decoder, waits for their loops and releases the pool.
// Close errors of the connections are returned joined.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = stateClosed
	c.cancel()
	var result *multierror.Error
	for _, st := range c.streams {
		if st.dec == nil {
			continue
		}
		if err := st.dec.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	c.mu.Unlock()

	c.wg.Wait()
	if c.pool != nil {
		c.pool.Release()
	}
	return result.ErrorOrNil()
}
