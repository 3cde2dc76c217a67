package reveal

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// transformComputer produces transforms for the engine. request never
// blocks: fn (which may be nil) runs on the engine goroutine once the
// transform is in cache, possibly before request returns.
type transformComputer interface {
	request(spec TransformSpec, fn func(Transform))
	// drain writes completed results into the cache and runs their
	// callbacks. It returns the number of results applied.
	drain() int
	// pending reports requests still in flight.
	pending() int
	close()
}

// inlineComputer computes on the calling goroutine.
type inlineComputer struct {
	cache *TransformCache
}

func (c inlineComputer) request(spec TransformSpec, fn func(Transform)) {
	t := c.cache.Transform(spec, nil)
	if fn != nil {
		fn(t)
	}
}

func (inlineComputer) drain() int   { return 0 }
func (inlineComputer) pending() int { return 0 }
func (inlineComputer) close()       {}

type transformRequest struct {
	id   uint64
	spec TransformSpec
}

type transformResult struct {
	id uint64
	t  Transform
}

type inflight struct {
	key string
	fns []func(Transform)
}

// workerComputer hands ComputeTransform to a pool of goroutines. Workers
// share nothing with the engine: a request carries the spec by value, a
// result carries the transform by value, and only drain (on the engine
// goroutine) touches the cache.
type workerComputer struct {
	cache    *TransformCache
	requests chan transformRequest
	results  chan transformResult
	cancel   context.CancelFunc
	group    *errgroup.Group

	nextID   uint64
	inflight map[uint64]*inflight
	byKey    map[string]uint64
	closed   bool

	computed uint64 // results applied from workers
	fallback uint64 // requests computed inline because the queue was full
}

const workerQueueSize = 256

func newWorkerComputer(cache *TransformCache, workers int) *workerComputer {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	w := &workerComputer{
		cache:    cache,
		requests: make(chan transformRequest, workerQueueSize),
		results:  make(chan transformResult, workerQueueSize),
		cancel:   cancel,
		group:    g,
		inflight: make(map[uint64]*inflight),
		byKey:    make(map[string]uint64),
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return computeLoop(ctx, w.requests, w.results)
		})
	}
	return w
}

func computeLoop(ctx context.Context, in <-chan transformRequest, out chan<- transformResult) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-in:
			res := transformResult{id: req.id, t: ComputeTransform(req.spec, nil)}
			select {
			case out <- res:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (w *workerComputer) request(spec TransformSpec, fn func(Transform)) {
	key := spec.Key()
	if t, ok := w.cache.lookup(key); ok || w.closed {
		if !ok {
			t = w.cache.Transform(spec, nil)
		}
		if fn != nil {
			fn(t)
		}
		return
	}
	if id, ok := w.byKey[key]; ok {
		if fn != nil {
			w.inflight[id].fns = append(w.inflight[id].fns, fn)
		}
		return
	}
	w.nextID++
	id := w.nextID
	select {
	case w.requests <- transformRequest{id: id, spec: spec}:
		f := &inflight{key: key}
		if fn != nil {
			f.fns = append(f.fns, fn)
		}
		w.inflight[id] = f
		w.byKey[key] = id
	default:
		w.fallback++
		t := w.cache.Transform(spec, nil)
		if fn != nil {
			fn(t)
		}
	}
}

func (w *workerComputer) drain() int {
	n := 0
	for {
		select {
		case res := <-w.results:
			f, ok := w.inflight[res.id]
			if !ok {
				continue
			}
			delete(w.inflight, res.id)
			delete(w.byKey, f.key)
			w.cache.store(f.key, res.t)
			w.computed++
			n++
			for _, fn := range f.fns {
				fn(res.t)
			}
		default:
			return n
		}
	}
}

func (w *workerComputer) pending() int {
	return len(w.inflight)
}

// close stops the workers and waits for them. Callbacks of requests still
// in flight never run.
func (w *workerComputer) close() {
	if w.closed {
		return
	}
	w.closed = true
	w.cancel()
	_ = w.group.Wait()
	clear(w.inflight)
	clear(w.byKey)
}
