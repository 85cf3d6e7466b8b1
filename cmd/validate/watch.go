package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 300 * time.Millisecond

// watch validates once, then again after every burst of content changes,
// until interrupted.
func watch(ctx context.Context, out io.Writer, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dirs := []string{
		filepath.Join(opts.dataDir, "graphs"),
		filepath.Join(opts.dataDir, "registries"),
	}
	watched := 0
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			fmt.Fprintf(out, "not watching %s: %v\n", dir, err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("nothing to watch under %s", opts.dataDir)
	}

	revalidate := func() {
		fmt.Fprintf(out, "--- %s\n", time.Now().Format(time.TimeOnly))
		if err := run(out, opts); err != nil && !errors.Is(err, errInvalid) {
			fmt.Fprintln(out, "Error:", err)
		}
	}
	revalidate()

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(out, "watch error:", err)

		case <-timer.C:
			revalidate()
		}
	}
}

// relevant reports whether an event touches a content file.
func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Ext(event.Name) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
