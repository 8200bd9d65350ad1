// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package log

// Output names.
const (
	OutputConsole = "console"
	OutputFile    = "file"
)

// Config is the log config. Each output is one zap core of a tee.
type Config []OutputConfig

// OutputConfig is the output config of one logger core.
type OutputConfig struct {
	// Writer is the output name, console or file by default.
	Writer string `yaml:"writer" toml:"writer"`
	// Level is the lowest level logged: debug, info, warn, error or fatal.
	Level string `yaml:"level" toml:"level"`
	// Formatter is console or json.
	Formatter   string `yaml:"formatter" toml:"formatter"`
	EnableColor bool   `yaml:"enable_color" toml:"enable_color"`
	// TimeFmt is a time.Format layout, or seconds, milliseconds, nanoseconds.
	TimeFmt string `yaml:"time_fmt" toml:"time_fmt"`

	// Filename is a strftime pattern, e.g. ./log/rmstream.%Y%m%d.log.
	Filename string `yaml:"filename" toml:"filename"`
}
