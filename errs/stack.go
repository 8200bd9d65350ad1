// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package errs

import (
	"fmt"
	"io"
	"path"
	"runtime"
	"strconv"
	"strings"
)

var (
	traceable bool   // if traceable is true, new errors record a stack trace.
	content   string // if content is not empty, only frames containing it are printed.
)

const stackSkip = 4

// SetTraceable controls whether new errors record a stack trace.
// It is meant to be called once during startup and is not concurrency safe.
func SetTraceable(x bool) {
	traceable = x
}

// SetTraceableWithContent enables stack traces and only prints frames whose
// function or file contains c, such as the module path.
func SetTraceableWithContent(c string) {
	traceable = true
	content = c
}

// frame is a program counter + 1 inside a stack frame.
type frame uintptr

func (f frame) pc() uintptr { return uintptr(f) - 1 }

func (f frame) location() (fn, file string, line int) {
	rf := runtime.FuncForPC(f.pc())
	if rf == nil {
		return "unknown", "unknown", 0
	}
	file, line = rf.FileLine(f.pc())
	return rf.Name(), file, line
}

// Format formats the frame.
//
//	%s    source file
//	%d    source line
//	%n    function name
//	%v    equivalent to %s:%d
//	%+v   function name and full path, then the line
func (f frame) Format(s fmt.State, verb rune) {
	fn, file, line := f.location()
	switch verb {
	case 's':
		if s.Flag('+') {
			_, _ = io.WriteString(s, fn+"\n\t"+file)
			return
		}
		_, _ = io.WriteString(s, path.Base(file))
	case 'd':
		_, _ = io.WriteString(s, strconv.Itoa(line))
	case 'n':
		_, _ = io.WriteString(s, funcName(fn))
	case 'v':
		f.Format(s, 's')
		_, _ = io.WriteString(s, ":")
		f.Format(s, 'd')
	}
}

// stackTrace is a stack of frames from innermost (newest) to outermost (oldest).
type stackTrace []frame

// Format prints one frame per line for %+v and a bracketed list otherwise.
func (st stackTrace) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		for _, f := range st {
			if line := fmt.Sprintf("%+v", f); strings.Contains(line, content) {
				_, _ = io.WriteString(s, "\n"+line)
			}
		}
		return
	}
	_, _ = io.WriteString(s, "[")
	for i, f := range st {
		if i > 0 {
			_, _ = io.WriteString(s, " ")
		}
		f.Format(s, verb)
	}
	_, _ = io.WriteString(s, "]")
}

func callers() stackTrace {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(stackSkip, pcs[:])
	st := make(stackTrace, n)
	for i := 0; i < n; i++ {
		st[i] = frame(pcs[i])
	}
	return st
}

// funcName removes the package path prefix of a function name.
func funcName(name string) string {
	name = name[strings.LastIndex(name, "/")+1:]
	return name[strings.Index(name, ".")+1:]
}
