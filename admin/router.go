// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package admin

import (
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"

	"github.com/hl2rm/rmstream/log"
	"github.com/hl2rm/rmstream/metrics"
)

const panicBufLen = 1024

// MetricPanics counts handler panics recovered by the admin router.
const MetricPanics = "rmstream.admin.panics"

func newRouter() *router {
	return &router{
		ServeMux: http.NewServeMux(),
	}
}

type router struct {
	*http.ServeMux

	sync.RWMutex
	patterns map[string]struct{}
}

func (r *router) add(pattern string, handler http.HandlerFunc) {
	r.Lock()
	defer r.Unlock()

	r.ServeMux.HandleFunc(pattern, handler)
	if r.patterns == nil {
		r.patterns = make(map[string]struct{})
	}
	r.patterns[pattern] = struct{}{}
}

func (r *router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	defer func() {
		if err := recover(); err != nil {
			buf := make([]byte, panicBufLen)
			buf = buf[:runtime.Stack(buf, false)]
			log.Errorf("[PANIC]%v\n%s\n", err, buf)
			metrics.IncrCounter(MetricPanics, 1)
			ErrorOutput(w, fmt.Sprintf("PANIC : %v", err), http.StatusInternalServerError)
		}
	}()
	r.ServeMux.ServeHTTP(w, req)
}

// list returns the registered patterns, sorted.
func (r *router) list() []string {
	r.RLock()
	defer r.RUnlock()
	l := make([]string, 0, len(r.patterns))
	for pattern := range r.patterns {
		l = append(l, pattern)
	}
	sort.Strings(l)
	return l
}
