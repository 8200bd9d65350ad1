// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package transport

import (
	"errors"
	"io"
	"net"

	"github.com/hl2rm/rmstream/errs"
)

// maxEmptyReads bounds consecutive (0, nil) reads before giving up.
const maxEmptyReads = 100

// ReadFull fills buf from r, issuing reads for the remaining byte count until
// buf is full. Short reads are normal on stream sockets and are retried. End of
// stream or any transport error before buf is full fails with
// errs.RetConnectionClosed; the transport error is kept as the cause.
func ReadFull(r io.Reader, buf []byte) error {
	var (
		got   int
		empty int
	)
	for got < len(buf) {
		n, err := r.Read(buf[got:])
		got += n
		if got == len(buf) {
			// A reader may return the last bytes together with io.EOF.
			return nil
		}
		if err != nil {
			return closedError(err, got, len(buf))
		}
		if n > 0 {
			empty = 0
			continue
		}
		if empty++; empty >= maxEmptyReads {
			return closedError(io.ErrNoProgress, got, len(buf))
		}
	}
	return nil
}

// ReadN reads exactly n bytes from r into a new slice.
func ReadN(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func closedError(err error, got, want int) error {
	if errors.Is(err, io.EOF) {
		return errs.Wrapf(err, errs.RetConnectionClosed,
			"transport: stream closed after %d of %d bytes", got, want)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return errs.Wrapf(err, errs.RetConnectionClosed,
			"transport: read timeout after %d of %d bytes", got, want)
	}
	return errs.Wrapf(err, errs.RetConnectionClosed,
		"transport: read failed after %d of %d bytes", got, want)
}
