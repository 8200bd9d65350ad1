// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/hl2rm/rmstream/errs"
	"github.com/hl2rm/rmstream/log"
)

// WatchCallback receives the reloaded config, or the error of loading it.
type WatchCallback func(c *Config, err error)

// Watch reloads the config at path whenever the file is written and hands
// the result to fn. The directory is watched so editors replacing the file
// are seen too. Watching stops when ctx is done.
func Watch(ctx context.Context, path string, fn WatchCallback) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, errs.RetConfigInvalid, "config: new watcher")
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return errs.Wrapf(err, errs.RetConfigInvalid, "config: watch %s", path)
	}
	w := &fileWatcher{
		watcher: watcher,
		path:    filepath.Clean(path),
		fn:      fn,
	}
	if fi, err := os.Stat(path); err == nil {
		w.modTime = fi.ModTime().UnixNano()
	}
	go w.run(ctx)
	return nil
}

type fileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	modTime int64
	fn      WatchCallback
}

func (w *fileWatcher) run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.isModified(e) {
				w.fn(Load(w.path))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("config: watching %s: %v", w.path, err)
		}
	}
}

func (w *fileWatcher) isModified(e fsnotify.Event) bool {
	if e.Op&(fsnotify.Write|fsnotify.Create) == 0 || filepath.Clean(e.Name) != w.path {
		return false
	}
	fi, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	t := fi.ModTime().UnixNano()
	if t == w.modTime && e.Op&fsnotify.Create == 0 {
		return false
	}
	w.modTime = t
	return true
}
