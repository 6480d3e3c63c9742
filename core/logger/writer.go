package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// writeOp is either a log line or, when ack is set, a flush barrier.
type writeOp struct {
	line []byte
	ack  chan error
}

// asyncWriter fans log lines out to every sink from a single goroutine.
// Lines and flushes share one queue, so Flush returns only after earlier lines reached the sinks.
type asyncWriter struct {
	ops  chan writeOp
	done chan struct{}

	mu     sync.RWMutex
	closed bool

	sinks []*bufio.Writer

	errMu    sync.Mutex
	firstErr error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		ops:  make(chan writeOp, 512),
		done: make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for op := range w.ops {
		if op.ack != nil {
			op.ack <- w.flushSinks()
			continue
		}
		w.record(w.writeSinks(op.line))
	}
	w.record(w.flushSinks())
}

// Write queues a copy of p. It blocks while the queue is full rather than dropping lines.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	line := append([]byte(nil), p...)
	return w.enqueue(writeOp{line: line})
}

// Flush waits until every line queued before the call is written out.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	if err := w.enqueue(writeOp{ack: ack}); err != nil {
		return err
	}
	if err := <-ack; err != nil {
		return err
	}
	return w.err()
}

// Close drains the queue and returns the first write error, if any.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.ops)
	}
	w.mu.Unlock()
	<-w.done
	return w.err()
}

func (w *asyncWriter) enqueue(op writeOp) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.ops <- op
	return nil
}

func (w *asyncWriter) writeSinks(line []byte) error {
	var errs []error
	for _, sink := range w.sinks {
		if _, err := sink.Write(line); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) flushSinks() error {
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) record(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.firstErr == nil {
		w.firstErr = err
	}
}

func (w *asyncWriter) err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.firstErr
}
