// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Package healthcheck tracks the serving status of every opened sensor stream.
package healthcheck

import (
	"fmt"
	"sort"
	"sync"
)

// Status is the status of a stream.
type Status int

const (
	// Unknown means no frame has arrived yet.
	Unknown Status = iota
	// Serving means frames are arriving.
	Serving
	// NotServing means the stream is closed or stale.
	NotServing
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Serving:
		return "serving"
	case NotServing:
		return "not_serving"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unknown":
		*s = Unknown
	case "serving":
		*s = Serving
	case "not_serving":
		*s = NotServing
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// New creates a new HealthCheck.
func New(opts ...Opt) *HealthCheck {
	hc := HealthCheck{
		unregisteredStatus: Unknown,
		statuses:           make(map[string]Status),
		watchers:           make(map[string][]func(Status)),
	}
	for _, opt := range opts {
		opt(&hc)
	}
	return &hc
}

// HealthCheck is the struct to implement health check.
type HealthCheck struct {
	unregisteredStatus Status

	rwm      sync.RWMutex
	statuses map[string]Status
	watchers map[string][]func(Status)
}

// Register registers a stream and returns the function updating its status.
// Watchers are called when the status actually changes.
func (hc *HealthCheck) Register(name string) (update func(Status), err error) {
	hc.rwm.Lock()
	defer hc.rwm.Unlock()
	if _, ok := hc.statuses[name]; ok {
		return nil, fmt.Errorf("stream %s has been registered", name)
	}
	hc.statuses[name] = Unknown
	hc.notify(name, Unknown)
	return func(status Status) {
		hc.rwm.Lock()
		defer hc.rwm.Unlock()
		old, ok := hc.statuses[name]
		if !ok || old == status {
			return
		}
		hc.statuses[name] = status
		hc.notify(name, status)
	}, nil
}

// notify calls the watchers of name. Must hold rwm.
func (hc *HealthCheck) notify(name string, status Status) {
	for _, onStatusChanged := range hc.watchers[name] {
		onStatusChanged(status)
	}
}

// Unregister unregisters a stream. Its update function becomes a no-op.
func (hc *HealthCheck) Unregister(name string) {
	hc.rwm.Lock()
	defer hc.rwm.Unlock()
	delete(hc.statuses, name)
}

// CheckStream returns the status of a stream.
func (hc *HealthCheck) CheckStream(name string) Status {
	hc.rwm.RLock()
	defer hc.rwm.RUnlock()
	status, ok := hc.statuses[name]
	if !ok {
		return hc.unregisteredStatus
	}
	return status
}

// CheckAll returns Serving when every stream is serving, Unknown when some
// stream has not delivered yet, NotServing otherwise.
func (hc *HealthCheck) CheckAll() Status {
	hc.rwm.RLock()
	defer hc.rwm.RUnlock()
	var serving, unknown int
	for _, s := range hc.statuses {
		switch s {
		case Serving:
			serving++
		case Unknown:
			unknown++
		}
	}
	if serving == len(hc.statuses) {
		return Serving
	}
	if unknown != 0 {
		return Unknown
	}
	return NotServing
}

// Streams returns the registered stream names, sorted.
func (hc *HealthCheck) Streams() []string {
	hc.rwm.RLock()
	defer hc.rwm.RUnlock()
	names := make([]string, 0, len(hc.statuses))
	for name := range hc.statuses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Watch watches the status change of a stream.
func (hc *HealthCheck) Watch(name string, onStatusChanged func(Status)) {
	hc.rwm.Lock()
	defer hc.rwm.Unlock()
	hc.watchers[name] = append(hc.watchers[name], onStatusChanged)
}
