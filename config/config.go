// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Package config loads the client configuration: which device to connect to,
// which sensor streams to open and how to log.
package config

import (
	"encoding/binary"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hl2rm/rmstream/codec"
	"github.com/hl2rm/rmstream/errs"
	"github.com/hl2rm/rmstream/internal/expandenv"
	"github.com/hl2rm/rmstream/log"
	"github.com/hl2rm/rmstream/transport"
)

// Defaults applied by Repair.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultStaleAfter   = 2 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

// Sample orders of depth streams.
const (
	SampleOrderBig    = "big"
	SampleOrderLittle = "little"
)

// Config is the client configuration.
type Config struct {
	// Host is the device address, without port.
	Host        string   `yaml:"host" toml:"host" json:"host"`
	DialTimeout Duration `yaml:"dial_timeout" toml:"dial_timeout" json:"dial_timeout"`
	// ReadBuffer is the per connection read buffer in bytes, < 0 disables buffering.
	ReadBuffer int `yaml:"read_buffer" toml:"read_buffer" json:"read_buffer"`
	// MaxPayload bounds the payload size a header may announce.
	MaxPayload int `yaml:"max_payload" toml:"max_payload" json:"max_payload"`
	// StaleAfter marks a stream not serving when no frame arrived for this long.
	StaleAfter   Duration `yaml:"stale_after" toml:"stale_after" json:"stale_after"`
	PollInterval Duration `yaml:"poll_interval" toml:"poll_interval" json:"poll_interval"`
	// SnapshotDir receives frame snapshots when set.
	SnapshotDir string         `yaml:"snapshot_dir" toml:"snapshot_dir" json:"snapshot_dir"`
	Streams     []StreamConfig `yaml:"streams" toml:"streams" json:"streams"`
	Log         log.Config     `yaml:"log" toml:"log" json:"log"`
}

// StreamConfig is the config of one sensor stream.
type StreamConfig struct {
	Type codec.StreamType `yaml:"type" toml:"type" json:"type"`
	// Port defaults to the well known port of Type.
	Port int `yaml:"port" toml:"port" json:"port"`
	// SampleOrder is big or little, only used by depth streams.
	SampleOrder string `yaml:"sample_order" toml:"sample_order" json:"sample_order"`
}

// ByteOrder returns the byte order of depth samples.
func (s *StreamConfig) ByteOrder() binary.ByteOrder {
	if s.SampleOrder == SampleOrderLittle {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Duration is a time.Duration written as "5s" or "500ms" in config files.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	// Plain integers are seconds.
	if n, err := strconv.Atoi(s); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the config opening every stream of host on its well known port.
// An empty host yields the defaults with Host left to be set.
func Default(host string) *Config {
	c := &Config{Host: host}
	c.Repair()
	return c
}

// Load reads, expands and parses the config file at path. The format is
// chosen by the file extension, yaml when unknown.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, errs.RetConfigInvalid, "config: read %s", path)
	}
	return Parse(expandenv.ExpandEnv(data), FormatOf(path))
}

// Parse unmarshals data in the given format and repairs the result.
func Parse(data []byte, format string) (*Config, error) {
	u := GetUnmarshaler(format)
	if u == nil {
		return nil, errs.Newf(errs.RetConfigInvalid, "config: unknown format %q", format)
	}
	c := &Config{}
	if err := u.Unmarshal(data, c); err != nil {
		return nil, errs.Wrapf(err, errs.RetConfigInvalid, "config: unmarshal %s", format)
	}
	if err := c.Repair(); err != nil {
		return nil, err
	}
	return c, nil
}

// FormatOf returns the config format of a file name.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}

// Repair fills defaults and validates the config.
func (c *Config) Repair() error {
	if c.DialTimeout <= 0 {
		c.DialTimeout = Duration(DefaultDialTimeout)
	}
	if c.ReadBuffer == 0 {
		c.ReadBuffer = codec.DefaultReaderSize
	}
	if c.MaxPayload <= 0 {
		c.MaxPayload = transport.DefaultMaxPayload
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = Duration(DefaultStaleAfter)
	}
	if c.PollInterval <= 0 {
		c.PollInterval = Duration(DefaultPollInterval)
	}
	if len(c.Streams) == 0 {
		for _, t := range codec.StreamTypes() {
			c.Streams = append(c.Streams, StreamConfig{Type: t})
		}
	}
	seen := make(map[codec.StreamType]bool, len(c.Streams))
	for i := range c.Streams {
		s := &c.Streams[i]
		if !s.Type.Valid() {
			return errs.Newf(errs.RetConfigInvalid, "config: streams[%d] has no valid type", i)
		}
		if seen[s.Type] {
			return errs.Newf(errs.RetConfigInvalid, "config: stream %s configured twice", s.Type)
		}
		seen[s.Type] = true
		if s.Port == 0 {
			s.Port = s.Type.Layout().DefaultPort
		}
		if s.Port < 0 || s.Port > 65535 {
			return errs.Newf(errs.RetConfigInvalid, "config: stream %s port %d out of range", s.Type, s.Port)
		}
		switch s.SampleOrder {
		case "":
			s.SampleOrder = SampleOrderBig
		case SampleOrderBig, SampleOrderLittle:
		default:
			return errs.Newf(errs.RetConfigInvalid,
				"config: stream %s sample_order %q, want big or little", s.Type, s.SampleOrder)
		}
	}
	for i, o := range c.Log {
		if _, ok := log.Levels[o.Level]; !ok {
			return errs.Newf(errs.RetConfigInvalid, "config: log[%d] level %q unknown", i, o.Level)
		}
		if log.GetWriter(o.Writer) == nil {
			return errs.Newf(errs.RetConfigInvalid, "config: log[%d] writer %q unknown", i, o.Writer)
		}
	}
	if c.Host == "" {
		return errs.New(errs.RetConfigInvalid, "config: host is required")
	}
	return nil
}

// Address returns the dial address of s.
func (c *Config) Address(s *StreamConfig) string {
	return net.JoinHostPort(c.Host, strconv.Itoa(s.Port))
}

// Stream returns the config of stream t.
func (c *Config) Stream(t codec.StreamType) (*StreamConfig, bool) {
	for i := range c.Streams {
		if c.Streams[i].Type == t {
			return &c.Streams[i], true
		}
	}
	return nil, false
}
