package staticdata

import (
	"context"
	"sync"
	"time"
)

// prerenderStep is one queued server-side resolution, capturing the key
// and parameter as they were when the fetch was registered.
type prerenderStep struct {
	key string
	run func(ctx context.Context) error
}

type prerenderQueue struct {
	mu    sync.Mutex
	steps []prerenderStep
}

func (q *prerenderQueue) push(s prerenderStep) {
	q.mu.Lock()
	q.steps = append(q.steps, s)
	q.mu.Unlock()
}

func (q *prerenderQueue) pop() (prerenderStep, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.steps) == 0 {
		return prerenderStep{}, false
	}
	s := q.steps[0]
	q.steps = q.steps[1:]
	return s, true
}

func (q *prerenderQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.steps)
}

// Prerender runs the queued server-side resolution steps in registration
// order, before the render completes. The first factory error stops the
// pass and is returned; steps behind it stay queued for a retried pass.
// Steps whose key was cached by an earlier step resolve without a second
// factory call.
// @group Fetch
//
// Example: server pre-render pass
//
//	ctx := context.Background()
//	f := staticdata.New(staticdata.NewMemoryStore(ctx)).
//		WithRuntime(staticdata.ServerRuntime(false))
//	h := staticdata.Fetch(ctx, f, "post", staticdata.NewParam("42"), loadPost)
//	_ = f.Prerender(ctx)
//	post, _ := h.Value()
//	fmt.Println(post.Title) // A
func (f *Fetcher) Prerender(ctx context.Context) error {
	for {
		step, ok := f.queue.pop()
		if !ok {
			return nil
		}
		start := time.Now()
		err := step.run(ctx)
		f.observe(ctx, OpPrerender, step.key, err == nil, err, time.Since(start))
		if err != nil {
			return err
		}
	}
}

// PendingPrerenders reports how many resolution steps are queued.
// @group Fetch
func (f *Fetcher) PendingPrerenders() int {
	return f.queue.len()
}
