// Package sink receives rendered documents from concurrent workers. Every sink
// accepts a whole document per Write so concurrent writers never interleave
// partial output.
package sink

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
)

// Sink consumes complete documents. Implementations must be safe for
// concurrent use.
type Sink interface {
	Write(ctx context.Context, doc string) error
}

// Writer formats each document and writes it, newline terminated, to an
// io.Writer with a single Write call under a mutex.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	format Formatter
	docs   atomic.Uint64
	bytes  atomic.Uint64
}

// NewWriter wraps w.
func NewWriter(w io.Writer, format Formatter) *Writer {
	return &Writer{w: w, format: format}
}

// Write emits one document.
func (s *Writer) Write(ctx context.Context, doc string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := append(s.format.Format(doc), '\n')

	s.mu.Lock()
	n, err := s.w.Write(out)
	s.mu.Unlock()

	s.bytes.Add(uint64(n))
	if err != nil {
		return err
	}
	s.docs.Add(1)
	return nil
}

// Documents reports how many documents were written.
func (s *Writer) Documents() uint64 { return s.docs.Load() }

// Bytes reports how many bytes were written.
func (s *Writer) Bytes() uint64 { return s.bytes.Load() }

// Collector buffers every document in memory, for output that has to be
// emitted as one aggregate.
type Collector struct {
	mu   sync.Mutex
	docs []string
}

// NewCollector returns an empty Collector. capacity is a sizing hint.
func NewCollector(capacity int) *Collector {
	return &Collector{docs: make([]string, 0, max(capacity, 0))}
}

// Write appends doc.
func (c *Collector) Write(ctx context.Context, doc string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.docs = append(c.docs, doc)
	c.mu.Unlock()
	return nil
}

// Docs returns a copy of the collected documents in arrival order.
func (c *Collector) Docs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.docs...)
}

// Len reports how many documents were collected.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

// Flush writes the combined documents, newline terminated, to w.
func (c *Collector) Flush(w io.Writer, format Formatter) (int, error) {
	combined, err := format.Combine(c.Docs())
	if err != nil {
		return 0, err
	}
	return w.Write(append(combined, '\n'))
}

// Discard drops every document. Useful for benchmarking generation alone.
type Discard struct {
	docs atomic.Uint64
}

// Write counts doc and drops it.
func (d *Discard) Write(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.docs.Add(1)
	return nil
}

// Documents reports how many documents were dropped.
func (d *Discard) Documents() uint64 { return d.docs.Load() }
