// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

// Package errs provides the rmstream error type, which carries a return code and a message.
// Every failure of a stream decoder maps onto one of the codes below.
package errs

import (
	"errors"
	"fmt"
	"io"
)

// RetCode is the error code of an rmstream error.
type RetCode int32

// rmstream return codes.
const (
	// RetOK means success.
	RetOK RetCode = 0

	// RetConnectionClosed means the remote end closed the stream or the transport failed mid-read.
	RetConnectionClosed RetCode = 101
	// RetHeaderSizeMismatch means the header bytes do not match the size of the stream type's layout.
	RetHeaderSizeMismatch RetCode = 111
	// RetPayloadSizeMismatch means the payload bytes do not match the size derived from the header.
	RetPayloadSizeMismatch RetCode = 112

	// RetDialFail means the stream port could not be connected.
	RetDialFail RetCode = 121
	// RetConfigInvalid means the client configuration is invalid.
	RetConfigInvalid RetCode = 131

	// RetUnknown is the error code for unspecified errors.
	RetUnknown RetCode = 999
)

var codeNames = map[RetCode]string{
	RetOK:                  "ok",
	RetConnectionClosed:    "connection closed",
	RetHeaderSizeMismatch:  "header size mismatch",
	RetPayloadSizeMismatch: "payload size mismatch",
	RetDialFail:            "dial fail",
	RetConfigInvalid:       "config invalid",
	RetUnknown:             "unknown",
}

// String returns the readable name of the code.
func (c RetCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int32(c))
}

// Sentinel errors, usable as errors.Is targets. Matching is done on the code only.
var (
	ErrConnectionClosed    = New(RetConnectionClosed, "connection closed")
	ErrHeaderSizeMismatch  = New(RetHeaderSizeMismatch, "header size mismatch")
	ErrPayloadSizeMismatch = New(RetPayloadSizeMismatch, "payload size mismatch")
	ErrDialFail            = New(RetDialFail, "dial fail")
	ErrConfigInvalid       = New(RetConfigInvalid, "config invalid")
)

// Success is the message of a nil *Error.
const Success = "success"

// Error is the error structure which contains error code and error message.
type Error struct {
	Code RetCode
	Msg  string

	cause error      // internal error, forms the error chain.
	stack stackTrace // call stack, only set when traceable and the chain has none yet.
}

// Error implements the error interface and returns the error description.
func (e *Error) Error() string {
	if e == nil {
		return Success
	}
	if e.cause != nil {
		return fmt.Sprintf("code:%d(%s), msg:%s, caused by %s", e.Code, e.Code, e.Msg, e.cause.Error())
	}
	return fmt.Sprintf("code:%d(%s), msg:%s", e.Code, e.Code, e.Msg)
}

// Format implements the fmt.Formatter interface. %+v also prints the stack and the cause chain.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "code:%d(%s), msg:%s", e.Code, e.Code, e.Msg)
			if e.stack != nil {
				e.stack.Format(s, verb)
			}
			if e.cause != nil {
				_, _ = fmt.Fprintf(s, "\nCause by %+v", e.cause)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = fmt.Fprintf(s, "%%!%c(errs.Error=%s)", verb, e.Error())
	}
}

// Unwrap supports Go 1.13+ error chains.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates an error.
func New(code RetCode, msg string) error {
	return newError(code, msg, nil)
}

// Newf creates an error, msg supports format strings.
func Newf(code RetCode, format string, params ...interface{}) error {
	return newError(code, fmt.Sprintf(format, params...), nil)
}

// Wrap creates a new error which contains the input error.
// The stack is only recorded when traceable is set and the chain does not hold an *Error yet,
// so there is at most one stack per chain.
func Wrap(err error, code RetCode, msg string) error {
	if err == nil {
		return nil
	}
	return newError(code, msg, err)
}

// Wrapf is the same as Wrap, msg supports format strings.
func Wrapf(err error, code RetCode, format string, params ...interface{}) error {
	if err == nil {
		return nil
	}
	return newError(code, fmt.Sprintf(format, params...), err)
}

func newError(code RetCode, msg string, cause error) error {
	err := &Error{Code: code, Msg: msg, cause: cause}
	var e *Error
	if traceable && (cause == nil || !errors.As(cause, &e)) {
		err.stack = callers()
	}
	return err
}

// Code gets the error code through error. The outermost *Error of the chain wins.
func Code(e error) RetCode {
	if e == nil {
		return RetOK
	}
	err, ok := e.(*Error)
	if !ok && !errors.As(e, &err) {
		return RetUnknown
	}
	if err == nil {
		return RetOK
	}
	return err.Code
}

// Msg gets error msg through error.
func Msg(e error) string {
	if e == nil {
		return Success
	}
	err, ok := e.(*Error)
	if !ok && !errors.As(e, &err) {
		return e.Error()
	}
	if err == nil {
		return Success
	}
	if err.cause != nil {
		return err.Error()
	}
	return err.Msg
}

// Is reports whether any *Error in the chain of e carries code. Joined
// errors are searched too.
func Is(e error, code RetCode) bool {
	if e == nil {
		return false
	}
	return errors.Is(e, &Error{Code: code})
}
