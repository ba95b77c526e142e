package refresh

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Func performs one refresh round trip and returns the new access token.
type Func func(ctx context.Context) (string, error)

// Coordinator makes sure concurrent callers share a single in-flight
// refresh and all observe its result.
type Coordinator struct {
	group   singleflight.Group
	timeout time.Duration
}

// NewCoordinator creates a coordinator. The shared refresh runs detached from
// any single caller's cancellation and is bounded by timeout instead.
func NewCoordinator(timeout time.Duration) *Coordinator {
	return &Coordinator{timeout: timeout}
}

// Do runs fn unless a refresh with the same key is already in flight, in
// which case it waits for that one. Callers key flights by session so a
// replaced session never joins the old one. A caller whose ctx ends stops
// waiting; the shared refresh keeps running for the others.
func (c *Coordinator) Do(ctx context.Context, key string, fn Func) (token string, shared bool, err error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		runCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, c.timeout)
			defer cancel()
		}
		return fn(runCtx)
	})

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Shared, res.Err
		}
		return res.Val.(string), res.Shared, nil
	}
}
