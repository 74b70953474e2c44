package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mikios34/pickup-availability/pickup"
)

// Result is a settled fetch as kept in the cache.
type Result struct {
	Value     any
	Error     error
	FetchedAt time.Time
}

type fetchFunc func(ctx context.Context) (any, error)

type workItem struct {
	key   string
	epoch uint64
	fn    fetchFunc
}

// PoolOptions configures the pool.
type PoolOptions struct {
	// WorkerCount is the number of concurrent fetches.
	WorkerCount int
	// QueueSize is the size of the work queue buffer.
	QueueSize int
	// Cache holds settled results; entries expire after its TTL.
	Cache *expirable.LRU[string, *Result]
	// RefreshAfter is the age after which a cached result is still served but
	// refreshed in the background. Zero disables refreshing.
	RefreshAfter time.Duration
	// Timeout bounds a single fetch.
	Timeout time.Duration
	Logger  logr.Logger
}

// Pool runs fetches in the background and serves their results by key.
// Callers never block on a fetch; an unsettled key reads as Pending.
type Pool struct {
	PoolOptions
	workQueue   chan *workItem
	inProgress  sync.Map // map[string]struct{}
	workersDone sync.WaitGroup

	mu        sync.RWMutex
	epochs    map[string]uint64
	listeners []func(key string)

	now func() time.Time
}

// ErrQueueFull is returned when a fetch cannot be enqueued.
var ErrQueueFull = errors.New("query queue is full")

var errInProgress = errors.New("fetch in progress")

// NewPool creates a pool. Start must run for fetches to settle.
func NewPool(opts PoolOptions) *Pool {
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 10
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Cache == nil {
		opts.Cache = expirable.NewLRU[string, *Result](1024, nil, 5*time.Minute)
	}
	return &Pool{
		PoolOptions: opts,
		workQueue:   make(chan *workItem, opts.QueueSize),
		epochs:      make(map[string]uint64),
		now:         time.Now,
	}
}

// OnSettled registers fn to run, on a worker goroutine, after each fetch settles.
func (p *Pool) OnSettled(fn func(key string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Invalidate drops the cached result for key. A fetch for key already in
// flight settles without being cached.
func (p *Pool) Invalidate(key string) {
	p.mu.Lock()
	p.epochs[key]++
	p.mu.Unlock()
	p.Cache.Remove(key)
}

// Start runs the workers and blocks until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) error {
	p.Logger.Info("starting query pool", "workers", p.WorkerCount, "queueSize", p.QueueSize)

	for i := 0; i < p.WorkerCount; i++ {
		p.workersDone.Add(1)
		go p.worker(ctx, i)
	}

	<-ctx.Done()
	p.Logger.Info("query pool shutting down")
	p.workersDone.Wait()
	p.Logger.Info("query pool shutdown complete")
	return nil
}

// Fetch returns the state of the query named key, starting fn in the
// background if nothing is cached or in flight. A cached result older than
// RefreshAfter is returned as is while a refresh runs.
func Fetch[T any](ctx context.Context, p *Pool, key string, fn func(ctx context.Context) (T, error)) pickup.Result[T] {
	if err := ctx.Err(); err != nil {
		return pickup.FailedResult[T](key, err)
	}
	wrapped := func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		return v, err
	}

	if cached, ok := p.Cache.Get(key); ok {
		if p.RefreshAfter > 0 && p.now().Sub(cached.FetchedAt) > p.RefreshAfter {
			if err := p.enqueue(key, wrapped); err != nil && !errors.Is(err, errInProgress) {
				p.Logger.V(1).Info("background refresh not enqueued", "key", key, "reason", err.Error())
			}
		}
		return fromCache[T](key, cached)
	}

	switch err := p.enqueue(key, wrapped); {
	case err == nil, errors.Is(err, errInProgress):
		return pickup.PendingResult[T](key)
	default:
		return pickup.FailedResult[T](key, err)
	}
}

func fromCache[T any](key string, cached *Result) pickup.Result[T] {
	if cached.Error != nil {
		return pickup.FailedResult[T](key, cached.Error)
	}
	v, ok := cached.Value.(T)
	if !ok {
		return pickup.FailedResult[T](key, fmt.Errorf("unable to assert cache value for key %s", key))
	}
	return pickup.ReadyResult(key, v)
}

func (p *Pool) enqueue(key string, fn fetchFunc) error {
	if _, exists := p.inProgress.LoadOrStore(key, struct{}{}); exists {
		return errInProgress
	}

	p.mu.RLock()
	epoch := p.epochs[key]
	p.mu.RUnlock()

	select {
	case p.workQueue <- &workItem{key: key, epoch: epoch, fn: fn}:
		p.Logger.V(1).Info("enqueued fetch", "key", key)
		return nil
	default:
		p.inProgress.Delete(key)
		return fmt.Errorf("%w: cannot fetch %s", ErrQueueFull, key)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.workersDone.Done()
	logger := p.Logger.WithValues("worker", id)

	for {
		select {
		case <-ctx.Done():
			return
		case item := <-p.workQueue:
			p.handle(ctx, logger, item)
		}
	}
}

func (p *Pool) handle(ctx context.Context, logger logr.Logger, item *workItem) {
	start := p.now()
	fetchCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	value, err := item.fn(fetchCtx)
	cancel()

	if err != nil {
		logger.Error(err, "fetch failed", "key", item.key, "duration", p.now().Sub(start).String())
	} else {
		logger.V(1).Info("fetch settled", "key", item.key, "duration", p.now().Sub(start).String())
	}

	p.mu.RLock()
	current := p.epochs[item.key] == item.epoch
	p.mu.RUnlock()
	if current {
		p.Cache.Add(item.key, &Result{Value: value, Error: err, FetchedAt: p.now()})
	} else {
		logger.V(1).Info("discarding superseded fetch", "key", item.key)
	}

	p.inProgress.Delete(item.key)

	p.mu.RLock()
	listeners := append([]func(string){}, p.listeners...)
	p.mu.RUnlock()
	for _, fn := range listeners {
		fn(item.key)
	}
}
