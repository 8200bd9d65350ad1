// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package config

import (
	"sync"

	"github.com/BurntSushi/toml"
	jsoniter "github.com/json-iterator/go"
	yaml "gopkg.in/yaml.v3"
)

// Unmarshaler defines a unmarshal interface, config file content is
// unmarshalled into the Config struct.
type Unmarshaler interface {
	Unmarshal(data []byte, value interface{}) error
}

// YamlUnmarshaler is yaml unmarshaler.
type YamlUnmarshaler struct{}

// Unmarshal deserializes the data bytes into parameter val in yaml protocol.
func (*YamlUnmarshaler) Unmarshal(data []byte, val interface{}) error {
	return yaml.Unmarshal(data, val)
}

// TomlUnmarshaler is toml unmarshaler.
type TomlUnmarshaler struct{}

// Unmarshal deserializes the data bytes into parameter val in toml protocol.
func (*TomlUnmarshaler) Unmarshal(data []byte, val interface{}) error {
	return toml.Unmarshal(data, val)
}

// JSONUnmarshaler is json unmarshaler.
type JSONUnmarshaler struct{}

// Unmarshal deserializes the data bytes into parameter val in json protocol.
func (*JSONUnmarshaler) Unmarshal(data []byte, val interface{}) error {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, val)
}

var (
	unmarshalersMu sync.RWMutex
	unmarshalers   = map[string]Unmarshaler{
		"yaml": &YamlUnmarshaler{},
		"toml": &TomlUnmarshaler{},
		"json": &JSONUnmarshaler{},
	}
)

// RegisterUnmarshaler registers an unmarshaler by name.
func RegisterUnmarshaler(name string, us Unmarshaler) {
	unmarshalersMu.Lock()
	unmarshalers[name] = us
	unmarshalersMu.Unlock()
}

// GetUnmarshaler returns an unmarshaler by name, nil if unknown.
func GetUnmarshaler(name string) Unmarshaler {
	unmarshalersMu.RLock()
	defer unmarshalersMu.RUnlock()
	return unmarshalers[name]
}
