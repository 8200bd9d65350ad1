// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Package devicesim serves synthetic or replayed sensor streams the way the
// headset does, one TCP port per stream, for tests and headset-less runs.
package devicesim

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/log"
)

// Options are the options of a stream server.
type Options struct {
	// Source builds the frames of each connection, Synthetic(4, 3) by default.
	Source SourceFunc
	// ChunkSize splits every write into chunks of at most ChunkSize bytes, <= 0 writes whole frames.
	ChunkSize int
	// ChunkDelay is slept between chunks.
	ChunkDelay time.Duration
	// Interval is slept between frames.
	Interval time.Duration
	// Limit closes the connection after Limit frames, <= 0 means until the source is exhausted.
	Limit int
	// Truncate > 0 sends only the first Truncate bytes of frame number
	// TruncateAfter (counting from 0), then closes the connection.
	Truncate      int
	TruncateAfter int
	Logger        log.Logger
}

// Option modifies Options.
type Option func(*Options)

// WithSource sets the frame source.
func WithSource(fn SourceFunc) Option {
	return func(o *Options) { o.Source = fn }
}

// WithChunks splits writes into chunks of size bytes separated by delay.
func WithChunks(size int, delay time.Duration) Option {
	return func(o *Options) {
		o.ChunkSize = size
		o.ChunkDelay = delay
	}
}

// WithInterval sets the pause between frames.
func WithInterval(d time.Duration) Option {
	return func(o *Options) { o.Interval = d }
}

// WithLimit closes every connection after n frames.
func WithLimit(n int) Option {
	return func(o *Options) { o.Limit = n }
}

// WithTruncate ends every connection after the given number of whole frames
// with a frame cut after n bytes.
func WithTruncate(after, n int) Option {
	return func(o *Options) {
		o.TruncateAfter = after
		o.Truncate = n
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Server streams frames of one stream type to every connection it accepts.
type Server struct {
	stream codec.StreamType
	ln     net.Listener
	opts   Options

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// Listen starts listening on addr for stream t. Serve must be called to accept connections.
func Listen(addr string, t codec.StreamType, opt ...Option) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	opts := Options{Source: Synthetic(4, 3)}
	for _, o := range opt {
		o(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.With(log.Field{Key: "sim", Value: t.String()})
	}
	return &Server{
		stream: t,
		ln:     ln,
		opts:   opts,
		conns:  make(map[net.Conn]struct{}),
	}, nil
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Port returns the listening TCP port.
func (s *Server) Port() int {
	if addr, ok := s.ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Serve accepts connections until ctx is done or Close is called. It always returns a non-nil error,
// net.ErrClosed after a close.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()
	for tempDelay := time.Duration(0); ; {
		conn, err := s.ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				tempDelay = backoff(tempDelay)
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				s.opts.Logger.Debugf("listener %s closed", s.ln.Addr())
			}
			return err
		}
		tempDelay = 0
		if !s.track(conn) {
			conn.Close()
			return net.ErrClosed
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			if err := s.serveConn(conn); err != nil {
				s.opts.Logger.Debugf("connection %s ended: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}

func backoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > time.Second {
		d = time.Second
	}
	time.Sleep(d)
	return d
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) serveConn(conn net.Conn) error {
	src := s.opts.Source(s.stream)
	var buf []byte
	for sent := 0; s.opts.Limit <= 0 || sent < s.opts.Limit; sent++ {
		f, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		buf = codec.AppendFrame(buf[:0], f)
		if s.opts.Truncate > 0 && sent == s.opts.TruncateAfter {
			if s.opts.Truncate < len(buf) {
				buf = buf[:s.opts.Truncate]
			}
			return s.write(conn, buf)
		}
		if err := s.write(conn, buf); err != nil {
			return err
		}
		if s.opts.Interval > 0 {
			time.Sleep(s.opts.Interval)
		}
	}
	return nil
}

func (s *Server) write(w io.Writer, b []byte) error {
	size := s.opts.ChunkSize
	if size <= 0 {
		_, err := w.Write(b)
		return err
	}
	for len(b) > 0 {
		n := size
		if n > len(b) {
			n = len(b)
		}
		if _, err := w.Write(b[:n]); err != nil {
			return err
		}
		b = b[n:]
		if len(b) > 0 && s.opts.ChunkDelay > 0 {
			time.Sleep(s.opts.ChunkDelay)
		}
	}
	return nil
}

// Close stops accepting, closes every open connection and waits for their writers.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var result *multierror.Error
	if err := s.ln.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	for conn := range s.conns {
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.mu.Unlock()
	s.wg.Wait()
	return result.ErrorOrNil()
}
