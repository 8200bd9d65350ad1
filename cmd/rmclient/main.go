// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Command rmclient connects to the research mode streams of a device and
// prints what the latest frame of every stream looks like.
package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap/zapcore"

	"github.com/hl2rm/rmstream/admin"
	"github.com/hl2rm/rmstream/client"
	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/config"
	"github.com/hl2rm/rmstream/log"
	"github.com/hl2rm/rmstream/metrics"
	"github.com/hl2rm/rmstream/snapshot"
)

const version = "v0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "rmclient:", err)
		os.Exit(1)
	}
}

type flags struct {
	conf  string
	host  string
	admin string
	json  bool
	once  bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("rmclient", flag.ContinueOnError)
	fs.StringVar(&f.conf, "conf", "", "config file path, yaml, toml or json")
	fs.StringVar(&f.host, "host", "", "device host, overrides the config")
	fs.StringVar(&f.admin, "admin", "", "admin http address, empty disables it")
	fs.BoolVar(&f.json, "json", false, "print summaries as json")
	fs.BoolVar(&f.once, "once", false, "exit after every stream delivered a frame")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.conf == "" && f.host == "" {
		return nil, errors.New("either -conf or -host is required")
	}
	return f, nil
}

func loadConfig(f *flags) (*config.Config, error) {
	if f.conf == "" {
		return config.Default(f.host), nil
	}
	cfg, err := config.Load(f.conf)
	if err != nil {
		return nil, err
	}
	if f.host != "" {
		cfg.Host = f.host
	}
	return cfg, nil
}

func setupLogger(cfg log.Config) error {
	if len(cfg) == 0 {
		return nil
	}
	logger, err := log.Build(cfg, 2)
	if err != nil {
		return err
	}
	log.SetLogger(logger)
	return nil
}

// applyLogLevels sets the level of every output of the running logger from a reloaded config.
func applyLogLevels(c *config.Config, err error) {
	if err != nil {
		log.Warnf("config reload failed, keeping log levels: %v", err)
		return
	}
	for i, o := range c.Log {
		if level, ok := log.ParseLevel(o.Level); ok {
			log.SetLevel(strconv.Itoa(i), level)
		}
	}
	log.Infof("log levels reloaded")
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	if err := setupLogger(cfg.Log); err != nil {
		return err
	}
	defer log.Sync()
	// The admin http.Server reports through the std logger.
	if restore, err := log.RedirectStdLogAt(log.GetDefaultLogger(), zapcore.WarnLevel); err == nil {
		defer restore()
	}
	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.Warnf("set GOMAXPROCS: %v", err)
	}
	sink := metrics.NewConsoleSink(nil)
	metrics.RegisterMetricsSink(sink)
	defer metrics.UnregisterMetricsSink(sink.Name())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if f.conf != "" {
		if err := config.Watch(ctx, f.conf, applyLogLevels); err != nil {
			log.Warnf("config changes will not be applied: %v", err)
		}
	}

	c := client.New(cfg)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	if err := c.Start(); err != nil {
		c.Close()
		return err
	}
	log.Infof("streaming %d streams from %s", len(c.Streams()), cfg.Host)
	if f.admin != "" {
		srv := admin.NewServer(c,
			admin.WithAddr(f.admin),
			admin.WithVersion(version),
			admin.WithConfigPath(f.conf),
			admin.WithMetrics(sink),
		)
		if err := srv.Listen(); err != nil {
			c.Close()
			return err
		}
		go func() {
			if err := srv.Serve(); err != nil {
				log.Errorf("admin server: %v", err)
			}
		}()
		defer srv.Close()
	}

	p := &printer{w: stdout, json: f.json}
	saved := make(map[codec.StreamType]uint64)
	ticker := time.NewTicker(cfg.PollInterval.Std())
	defer ticker.Stop()
	for done := false; !done; {
		select {
		case <-ctx.Done():
			done = true
			continue
		case <-ticker.C:
		}
		sums := summarize(c)
		if err := p.print(sums); err != nil {
			log.Errorf("print summaries: %v", err)
		}
		if cfg.SnapshotDir != "" {
			saveSnapshots(c, cfg, saved)
		}
		if f.once && allDelivered(sums) {
			done = true
		}
	}

	err = c.Close()
	if b, serr := sink.Snapshot(); serr == nil {
		log.Infof("metrics: %s", b)
	}
	return err
}

func allDelivered(sums []summary) bool {
	for _, s := range sums {
		if s.Seq == 0 {
			return false
		}
	}
	return true
}

// saveSnapshots writes the latest frame of every stream which got a new frame since the last save.
func saveSnapshots(c *client.Client, cfg *config.Config, saved map[codec.StreamType]uint64) {
	for _, t := range c.Streams() {
		f, ok := c.Latest(t)
		if !ok || saved[t] == f.Seq {
			continue
		}
		saved[t] = f.Seq
		var order binary.ByteOrder
		if sc, ok := cfg.Stream(t); ok {
			order = sc.ByteOrder()
		}
		if _, err := snapshot.Save(cfg.SnapshotDir, f, order); err != nil {
			log.Errorf("snapshot %s: %v", t, err)
		}
	}
}
