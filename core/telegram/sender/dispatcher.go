package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/lunabot/core/logger"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize bounds each worker's queue.
	QueueSize int
	// Workers is the number of shards; jobs with the same key always share one.
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job, flood waits included.
	MaxDuration time.Duration
	// OnResult, when set, receives the action and final status ("ok" or "fail") of every job.
	OnResult func(action, status string)
}

type job struct {
	ctx      context.Context
	key      int64
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
// Jobs sharing a key run one at a time in enqueue order, so a chat sees its messages in send order.
type Dispatcher struct {
	opts   Options
	shards []chan job
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	errs   atomic.Uint64
}

// NewDispatcher starts a dispatcher, filling zero options with defaults.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	opts.MaxRetries = max(opts.MaxRetries, 0)
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{opts: opts, shards: make([]chan job, opts.Workers)}
	d.wg.Add(opts.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan job, opts.QueueSize)
		go d.worker(d.shards[i])
	}
	return d
}

// Enqueue schedules run on the shard owning key. run must be safe to call again when retries are enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, key int64, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.shardFor(key) <- job{ctx: ctx, key: key, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) shardFor(key int64) chan job {
	idx := key % int64(len(d.shards))
	if idx < 0 {
		idx = -idx
	}
	return d.shards[idx]
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits until queued ones are done.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, shard := range d.shards {
		close(shard)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(jobs <-chan job) {
	defer d.wg.Done()
	for j := range jobs {
		err := d.process(j)
		status := "ok"
		if err != nil {
			status = "fail"
			d.errs.Add(1)
		}
		if d.opts.OnResult != nil {
			d.opts.OnResult(j.action, status)
		}
	}
}

// process runs j until it succeeds, fails permanently or runs out of attempts or time.
func (d *Dispatcher) process(j job) error {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.run(); err == nil {
			logSend(j, slog.LevelDebug, "send.success",
				slog.String("status", "ok"),
				slog.Int("attempt", attempt),
				slog.Duration("elapsed", time.Since(start)),
			)
			return nil
		}

		delay, retry := retryDelay(err, attempt, d.opts.RetryBackoff)
		if !retry || attempt == attempts {
			break
		}
		logSend(j, slog.LevelDebug, "send.retry",
			slog.String("status", "retry"),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error_kind", classifyError(err)),
		)
		if werr := wait(ctx, delay); werr != nil {
			err = werr
			break
		}
	}

	logSend(j, slog.LevelError, "send.fail",
		slog.String("status", "fail"),
		slog.String("error", sanitizeErrorMessage(err)),
		slog.String("error_kind", classifyError(err)),
		slog.Int("max_attempts", attempts),
		slog.Duration("elapsed", time.Since(start)),
	)
	return err
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func logSend(j job, level slog.Level, event string, attrs ...slog.Attr) {
	base := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		base = append(base, slog.String("endpoint", j.endpoint))
	}
	if logger.ChatIDFrom(j.ctx) == 0 && j.key != 0 {
		base = append(base, slog.Int64("chat_id", j.key))
	}
	logger.LogEvent(j.ctx, logger.Component("tg.sender"), level, event, append(base, attrs...)...)
}
