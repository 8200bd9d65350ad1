// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Package admin serves the management endpoints of a running stream client:
// health checks, stream stats, metrics, log levels, stream restarts and pprof.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/hl2rm/rmstream/client"
	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/config"
	"github.com/hl2rm/rmstream/errs"
	"github.com/hl2rm/rmstream/healthcheck"
	"github.com/hl2rm/rmstream/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Patterns.
const (
	patternCmds        = "/cmds"
	patternVersion     = "/version"
	patternLoglevel    = "/cmds/loglevel"
	patternConfig      = "/cmds/config"
	patternStats       = "/cmds/stats"
	patternMetrics     = "/cmds/metrics"
	patternRestart     = "/cmds/restart"
	patternHealthCheck = "/is_healthy/"
)

// Pprof patterns.
const (
	pprofPprof   = "/debug/pprof/"
	pprofCmdline = "/debug/pprof/cmdline"
	pprofProfile = "/debug/pprof/profile"
	pprofSymbol  = "/debug/pprof/symbol"
	pprofTrace   = "/debug/pprof/trace"
)

// Return parameters.
const (
	retErrCode    = "errorcode"
	retMessage    = "message"
	errCodeServer = 1
)

// Client is the stream client inspected by the admin server.
type Client interface {
	Health() map[codec.StreamType]healthcheck.Status
	Stats() []client.Stats
	Restart(ctx context.Context, t codec.StreamType) error
}

// Server provides the admin HTTP endpoints of a client.
type Server struct {
	config *configuration
	client Client

	mu     sync.Mutex
	server *http.Server
	ln     net.Listener
	router *router

	closeOnce sync.Once
	closeErr  error
}

// NewServer returns a new admin Server for c.
func NewServer(c Client, opts ...Option) *Server {
	cfg := newDefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	s := &Server{
		config: cfg,
		client: c,
	}
	s.router = s.configRouter(newRouter())
	return s
}

func (s *Server) configRouter(r *router) *router {
	r.add(patternCmds, s.handleCmds)
	r.add(patternVersion, s.handleVersion)
	r.add(patternLoglevel, s.handleLogLevel)
	r.add(patternConfig, s.handleConfig)
	r.add(patternStats, s.handleStats)
	r.add(patternMetrics, s.handleMetrics)
	r.add(patternRestart, s.handleRestart)
	r.add(patternHealthCheck,
		http.StripPrefix(patternHealthCheck,
			http.HandlerFunc(s.handleHealthCheck),
		).ServeHTTP,
	)

	r.add(pprofPprof, pprof.Index)
	r.add(pprofCmdline, pprof.Cmdline)
	r.add(pprofProfile, pprof.Profile)
	r.add(pprofSymbol, pprof.Symbol)
	r.add(pprofTrace, pprof.Trace)
	return r
}

// HandleFunc registers the handler function for the given pattern.
func (s *Server) HandleFunc(pattern string, handler http.HandlerFunc) {
	s.router.add(pattern, handler)
}

// Listen binds the admin address. Serve listens itself when Listen was not called.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.addr)
	if err != nil {
		return fmt.Errorf("admin listen error: %w", err)
	}
	s.ln = ln
	s.server = &http.Server{
		Addr:         ln.Addr().String(),
		ReadTimeout:  s.config.readTimeout,
		WriteTimeout: s.config.writeTimeout,
		Handler:      s.router,
	}
	return nil
}

// Addr returns the bound address, empty before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Serve serves the admin endpoints until Close.
func (s *Server) Serve() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	srv, ln := s.server, s.ln
	s.mu.Unlock()
	log.Infof("admin server listening on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts down the server.
func (s *Server) Close() error {
	s.closeOnce.Do(s.close)
	return s.closeErr
}

func (s *Server) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return
	}
	s.closeErr = s.server.Close()
	log.Infof("process:%d, admin server, closed", os.Getpid())
}

// ErrorOutput normalizes the error output.
func ErrorOutput(w http.ResponseWriter, error string, code int) {
	ret := newDefaultRes()
	ret[retErrCode] = code
	ret[retMessage] = error
	_ = json.NewEncoder(w).Encode(ret)
}

// newDefaultRes returns the default admin output.
func newDefaultRes() map[string]interface{} {
	return map[string]interface{}{
		retErrCode: 0,
		retMessage: "",
	}
}

// handleCmds lists the available admin commands.
func (s *Server) handleCmds(w http.ResponseWriter, r *http.Request) {
	setCommonHeaders(w)
	ret := newDefaultRes()
	ret["cmds"] = s.router.list()
	_ = json.NewEncoder(w).Encode(ret)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	setCommonHeaders(w)
	ret := newDefaultRes()
	ret["version"] = s.config.version
	_ = json.NewEncoder(w).Encode(ret)
}

// handleLogLevel shows the level of a log output on GET and sets it on PUT.
func (s *Server) handleLogLevel(w http.ResponseWriter, r *http.Request) {
	setCommonHeaders(w)

	if err := r.ParseForm(); err != nil {
		ErrorOutput(w, err.Error(), errCodeServer)
		return
	}
	output := r.Form.Get("output")
	if output == "" {
		output = "0"
	}

	ret := newDefaultRes()
	switch r.Method {
	case http.MethodGet:
		ret["level"] = log.GetLevel(output).String()
	case http.MethodPut:
		value := r.PostForm.Get("value")
		level, ok := log.ParseLevel(value)
		if !ok {
			ErrorOutput(w, fmt.Sprintf("unknown log level %q", value), errCodeServer)
			return
		}
		ret["prelevel"] = log.GetLevel(output).String()
		log.SetLevel(output, level)
		ret["level"] = log.GetLevel(output).String()
	default:
		ErrorOutput(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_ = json.NewEncoder(w).Encode(ret)
}

// handleConfig outputs the content of the config file.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	setCommonHeaders(w)

	if s.config.configPath == "" {
		ErrorOutput(w, "no config file", errCodeServer)
		return
	}
	buf, err := os.ReadFile(s.config.configPath)
	if err != nil {
		ErrorOutput(w, err.Error(), errCodeServer)
		return
	}
	format := config.FormatOf(s.config.configPath)
	unmarshaler := config.GetUnmarshaler(format)
	if unmarshaler == nil {
		ErrorOutput(w, fmt.Sprintf("cannot find %s unmarshaler", format), errCodeServer)
		return
	}
	conf := make(map[string]interface{})
	if err = unmarshaler.Unmarshal(buf, &conf); err != nil {
		ErrorOutput(w, err.Error(), errCodeServer)
		return
	}
	ret := newDefaultRes()
	ret["content"] = conf
	_ = json.NewEncoder(w).Encode(ret)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	setCommonHeaders(w)
	ret := newDefaultRes()
	ret["streams"] = s.client.Stats()
	_ = json.NewEncoder(w).Encode(ret)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	setCommonHeaders(w)
	if s.config.metrics == nil {
		ErrorOutput(w, "metrics disabled", errCodeServer)
		return
	}
	b, err := s.config.metrics.Snapshot()
	if err != nil {
		ErrorOutput(w, err.Error(), errCodeServer)
		return
	}
	ret := newDefaultRes()
	ret["metrics"] = jsoniter.RawMessage(b)
	_ = json.NewEncoder(w).Encode(ret)
}

// handleRestart redials the stream named by the stream form value.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	setCommonHeaders(w)
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		ErrorOutput(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		ErrorOutput(w, err.Error(), errCodeServer)
		return
	}
	t, err := codec.ParseStreamType(r.Form.Get("stream"))
	if err != nil {
		ErrorOutput(w, err.Error(), errCodeServer)
		return
	}
	if err := s.client.Restart(r.Context(), t); err != nil {
		ErrorOutput(w, errs.Msg(err), int(errs.Code(err)))
		return
	}
	ret := newDefaultRes()
	ret["stream"] = t
	_ = json.NewEncoder(w).Encode(ret)
}

// handleHealthCheck answers /is_healthy/ for all streams and
// /is_healthy/{stream} for one.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := s.client.Health()
	var status healthcheck.Status
	if name := strings.Trim(r.URL.Path, "/"); name != "" {
		t, err := codec.ParseStreamType(name)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		st, ok := health[t]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		status = st
	} else {
		status = overall(health)
	}
	switch status {
	case healthcheck.Serving:
		w.WriteHeader(http.StatusOK)
	case healthcheck.NotServing:
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// overall is Serving when every stream serves, NotServing when any stream
// stopped serving and Unknown otherwise.
func overall(health map[codec.StreamType]healthcheck.Status) healthcheck.Status {
	if len(health) == 0 {
		return healthcheck.Unknown
	}
	status := healthcheck.Serving
	for _, st := range health {
		switch st {
		case healthcheck.NotServing:
			return healthcheck.NotServing
		case healthcheck.Unknown:
			status = healthcheck.Unknown
		}
	}
	return status
}

func setCommonHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
}
