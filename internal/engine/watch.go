package engine

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/follower/nikola/pkg/logger"
	"github.com/follower/nikola/pkg/task"
)

// settlingDelay coalesces bursts of file events into one rebuild.
const settlingDelay = 100 * time.Millisecond

// Watch runs the graph once, then reruns it whenever one of its file
// dependencies changes, until ctx is cancelled. The exit code of the
// last run is returned.
func (e *Executor) Watch(ctx context.Context, graph *task.WorkGraph, cfg task.ExecutionConfig) int {
	code := e.Run(ctx, graph, cfg, nil)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		e.log.Error("could not create file watcher", logger.WithField("error", err))
		return ExitError
	}
	defer watcher.Close()

	for _, dir := range watchRoots(graph) {
		if err := watcher.Add(dir); err != nil {
			e.log.Warn("could not watch directory",
				logger.WithField("dir", dir),
				logger.WithField("error", err))
		}
	}

	rebuild := make(chan struct{}, 1)

	sg, ctx := newSafeGroup(ctx, e.log)
	sg.Go(func() error {
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case _, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(settlingDelay, func() {
					select {
					case rebuild <- struct{}{}:
					default:
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				e.log.Error("watcher error", logger.WithField("error", err))
			}
		}
	})

	sg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-rebuild:
				code = e.Run(ctx, graph, cfg, nil)
			}
		}
	})

	if err := sg.Wait(); err != nil && err != context.Canceled {
		e.log.Error("watch loop stopped", logger.WithField("error", err))
	}
	return code
}
