// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package metrics

// NoopSink discards every record.
type NoopSink struct{}

// Name returns noop.
func (*NoopSink) Name() string {
	return "noop"
}

// Report does nothing.
func (*NoopSink) Report(Record) error {
	return nil
}
