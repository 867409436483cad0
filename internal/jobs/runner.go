// Package jobs runs digest operations one at a time. The output directory
// and the index have a single writer, so the runner deliberately uses one
// worker and deduplicates queued work.
package jobs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Op names the operations the runner can execute.
type Op string

const (
	OpGenerate Op = "generate"
	OpCleanup  Op = "cleanup"
	OpBackfill Op = "backfill"
)

// OpFunc executes one operation.
type OpFunc func(ctx context.Context, params map[string]any) error

// Registry maps operations to implementations.
type Registry map[Op]OpFunc

var (
	ErrQueueFull = errors.New("job queue full")
	ErrUnknownOp = errors.New("unknown operation")
)

type job struct {
	op     Op
	params map[string]any
	key    string
}

// Runner executes enqueued operations serially.
type Runner struct {
	reg    Registry
	queue  chan job
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewRunner constructs a runner with the given queue capacity.
func NewRunner(reg Registry, queueSize int) *Runner {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Runner{
		reg:     reg,
		queue:   make(chan job, queueSize),
		pending: make(map[string]struct{}),
	}
}

// Start launches the single worker.
func (r *Runner) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	go r.worker(ctx)
}

// Stop cancels the worker and waits for the in-flight job to finish.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// Enqueue queues an operation. An identical operation already queued is
// reported as deduplicated rather than queued twice.
func (r *Runner) Enqueue(op Op, params map[string]any) (queued bool, err error) {
	if _, ok := r.reg[op]; !ok {
		return false, ErrUnknownOp
	}
	key := dedupKey(op, params)

	r.mu.Lock()
	if _, dup := r.pending[key]; dup {
		r.mu.Unlock()
		return false, nil
	}
	r.pending[key] = struct{}{}
	r.mu.Unlock()

	select {
	case r.queue <- job{op: op, params: params, key: key}:
		return true, nil
	default:
		r.forget(key)
		return false, ErrQueueFull
	}
}

// Pending reports how many jobs are queued or running.
func (r *Runner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-r.queue:
			fn := r.reg[j.op]
			if err := fn(ctx, j.params); err != nil {
				log.Warnf("job %s failed: %v", j.op, err)
			}
			r.forget(j.key)
		}
	}
}

func (r *Runner) forget(key string) {
	r.mu.Lock()
	delete(r.pending, key)
	r.mu.Unlock()
}

func dedupKey(op Op, params map[string]any) string {
	h := sha256.New()
	h.Write([]byte(op))
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, _ := json.Marshal(params[k])
		h.Write([]byte(k))
		h.Write(v)
	}
	return hex.EncodeToString(h.Sum(nil))
}
