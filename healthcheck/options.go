// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package healthcheck

// Opt modifies HealthCheck.
type Opt func(*HealthCheck)

// WithUnregisteredStatus sets the status returned for streams never registered.
func WithUnregisteredStatus(status Status) Opt {
	return func(hc *HealthCheck) {
		hc.unregisteredStatus = status
	}
}

// WithStatusWatchers installs watchers before any stream registers.
func WithStatusWatchers(watchers map[string][]func(Status)) Opt {
	return func(hc *HealthCheck) {
		for name, fns := range watchers {
			hc.watchers[name] = append(hc.watchers[name], fns...)
		}
	}
}
