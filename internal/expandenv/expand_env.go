// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Package expandenv replaces ${key} in config files with environment values.
package expandenv

import (
	"os"
	"regexp"
)

// ${name} or ${name:-default}. Only the braced form is expanded.
var pattern = regexp.MustCompile(`\$\{([^}\s"]*?)(?::-([^}\n"]*))?\}`)

// ExpandEnv looks for ${var} in s and replaces them with value of the
// corresponding environment variable. ${var:-def} falls back to def when var
// is unset or empty. ${} is replaced with the empty string. A ${ without a
// matching } or containing a space, newline or quote is kept untouched.
func ExpandEnv(s []byte) []byte {
	if !pattern.Match(s) {
		return s
	}
	return pattern.ReplaceAllFunc(s, func(m []byte) []byte {
		sub := pattern.FindSubmatch(m)
		name, def := sub[1], sub[2]
		if len(name) == 0 {
			return def
		}
		if v := os.Getenv(string(name)); v != "" {
			return []byte(v)
		}
		return def
	})
}
