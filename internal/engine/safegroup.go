package engine

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/follower/nikola/pkg/logger"
)

// safeGroup wraps errgroup.Group with panic recovery so a panicking
// watcher goroutine cannot take down the whole process.
type safeGroup struct {
	group *errgroup.Group
	log   logger.Logger
}

func newSafeGroup(ctx context.Context, log logger.Logger) (*safeGroup, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	return &safeGroup{group: g, log: log}, ctx
}

// Go runs fn in a new goroutine, converting panics to errors.
func (sg *safeGroup) Go(fn func() error) {
	sg.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				sg.log.Error("goroutine panic recovered",
					logger.WithField("panic", r),
					logger.WithField("stack", string(debug.Stack())))
				err = fmt.Errorf("goroutine panic: %v", r)
			}
		}()
		return fn()
	})
}

// Wait blocks until all goroutines finish or one errors.
func (sg *safeGroup) Wait() error {
	return sg.group.Wait()
}
